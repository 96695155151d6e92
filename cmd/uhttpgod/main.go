/*
Uhttpgod is a standalone HTTP server that serves a document root as
static content: canonicalized paths contained within the root, conditional
GETs, generated directory listings, and per-path-prefix Basic-auth realms.
*/
package main

import (
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jow-/uhttpgo/config"
	"github.com/jow-/uhttpgo/logging"
	"github.com/jow-/uhttpgo/pathresolve"
	"github.com/jow-/uhttpgo/server"
)

var rootCmd = &cobra.Command{
	Use:   "uhttpgod",
	Short: "uhttpgod serves a document root as static HTTP(S) content",
	Long: `uhttpgod resolves request paths beneath a document root, evaluates
conditional request headers, authenticates per-path realms, and serves
files or generated directory listings.

Configuration may come from a YAML file (--config), command-line flags, or
both; flags that are explicitly set always win over the file.`,
	RunE: run,
}

func main() {
	rootCmd.Flags().String("config", "", "Path to YAML configuration file")
	rootCmd.Flags().String("docroot", "", "Document root to serve")
	rootCmd.Flags().StringSlice("listen", nil, "Address(es) to listen on")
	rootCmd.Flags().Duration("network-timeout", 0, "Per-connection idle/write timeout")
	rootCmd.Flags().Bool("no-symlinks", false, "Use physical (symlink-resolving) path canonicalization")
	rootCmd.Flags().Bool("no-dirlists", false, "Disable generated directory listings")
	rootCmd.Flags().StringSlice("index-file", nil, "Index filename(s) tried for a directory request")
	rootCmd.Flags().String("tls-cert", "", "Path to PEM-encoded TLS certificate")
	rootCmd.Flags().String("tls-key", "", "Path to PEM-encoded TLS key")
	rootCmd.Flags().StringSliceP("header", "H", nil, "Extra response header; use flag once per header, in form name=value")
	rootCmd.Flags().String("header-file", "", "Path to text file containing one name=value header per line")
	rootCmd.Flags().Duration("expiry", 0, "Tell clients how long they may cache responses for; 0 means no caching")
	rootCmd.Flags().Bool("dev-log", false, "Use human-readable development logging instead of JSON")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cobra.Command, args []string) error {
	cfgPath, err := c.Flags().GetString("config")
	if err != nil {
		return err
	}

	cfg := config.Default()
	if cfgPath != "" {
		cfg, err = config.LoadFile(cfgPath)
		if err != nil {
			return err
		}
	}
	if err := cfg.ApplyFlags(c.Flags()); err != nil {
		return err
	}

	devLog, err := c.Flags().GetBool("dev-log")
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Options{Development: devLog})
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	realms, err := cfg.BuildRealmRegistry()
	if err != nil {
		return err
	}

	mode := pathresolve.Lexical
	if cfg.NoSymlinks {
		mode = pathresolve.Physical
	}

	srv := server.New(server.Config{
		Path: pathresolve.Config{
			Root:       cfg.Docroot,
			Mode:       mode,
			IndexFiles: cfg.IndexFiles,
		},
		Realms:       realms,
		Timeout:      cfg.NetworkTimeout,
		AllowListing: !cfg.NoDirlists,
		ExtraHeaders: cfg.RenderExtraHeaders(),
		Logger:       logger,
	})

	var tlsConfig *tls.Config
	if cfg.TLSCert != "" && cfg.TLSKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("loading TLS key pair: %w", err)
		}
		tlsConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	if len(cfg.Listen) == 0 {
		return fmt.Errorf("no listen addresses configured")
	}

	listeners := make([]net.Listener, 0, len(cfg.Listen))
	for _, addr := range cfg.Listen {
		var ln net.Listener
		var err error
		if tlsConfig != nil {
			ln, err = tls.Listen("tcp", addr, tlsConfig)
		} else {
			ln, err = net.Listen("tcp", addr)
		}
		if err != nil {
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		listeners = append(listeners, ln)
		logger.Info("listening", zap.String("addr", addr), zap.Bool("tls", tlsConfig != nil))
		go func(ln net.Listener) {
			if err := srv.Serve(ln); err != nil {
				logger.Warn("listener stopped", zap.Error(err))
			}
		}(ln)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
	for _, ln := range listeners {
		ln.Close()
	}
	srv.Shutdown()
	return nil
}

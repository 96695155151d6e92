// Package config loads server configuration from a YAML file, the way
// the packer tool reads and writes its pack specifications with
// gopkg.in/yaml.v2, and layers command-line flag overrides on top with
// github.com/spf13/pflag — the same flag library cobra commands build on
// in cmd/packserver.
package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	yaml "gopkg.in/yaml.v2"

	"github.com/jow-/uhttpgo/realm"
)

// RealmSpec is one entry of the realms list in the YAML file.
type RealmSpec struct {
	PathPrefix string `yaml:"path"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
}

// Config is the full set of knobs the server needs, whether they came
// from a YAML file, flag overrides, or built-in defaults.
type Config struct {
	Docroot        string        `yaml:"docroot"`
	Listen         []string      `yaml:"listen"`
	NetworkTimeout time.Duration `yaml:"network_timeout"`
	NoSymlinks     bool          `yaml:"no_symlinks"`
	NoDirlists     bool          `yaml:"no_dirlists"`
	IndexFiles     []string      `yaml:"index_files"`
	Realms         []RealmSpec   `yaml:"realms"`
	TLSCert        string        `yaml:"tls_cert"`
	TLSKey         string        `yaml:"tls_key"`

	// Headers are extra "Name: value" headers set on every response,
	// success or error alike — the YAML equivalent of repeated
	// -H name=value flags on the teacher's packserver.
	Headers map[string]string `yaml:"headers"`

	// Expiry, when positive, is advertised to clients via Cache-Control:
	// public, max-age=<seconds>. Zero or negative means Cache-Control:
	// no-store, the same policy the teacher's --expiry flag implements.
	Expiry time.Duration `yaml:"expiry"`
}

// Default returns the configuration used when neither a config file nor
// flags specify a value. The two security headers mirror the teacher's
// own New(), which always sets them regardless of any other option.
func Default() Config {
	return Config{
		Docroot:        ".",
		Listen:         []string{":8080"},
		NetworkTimeout: 30 * time.Second,
		IndexFiles:     []string{"index.html"},
		Headers: map[string]string{
			"X-Frame-Options":        "sameorigin",
			"X-Content-Type-Options": "nosniff",
		},
	}
}

// LoadFile reads and parses a YAML configuration file, starting from
// Default() so any field the file omits keeps its default value.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyFlags overrides cfg's fields with any flag the caller actually set
// on the command line, leaving file- or default-sourced values alone
// otherwise. flags is expected to have been registered with the same
// names used in cmd/uhttpgod.
func (cfg *Config) ApplyFlags(flags *pflag.FlagSet) error {
	overrides := []struct {
		name  string
		apply func() error
	}{
		{"docroot", func() error {
			v, err := flags.GetString("docroot")
			if err == nil {
				cfg.Docroot = v
			}
			return err
		}},
		{"listen", func() error {
			v, err := flags.GetStringSlice("listen")
			if err == nil {
				cfg.Listen = v
			}
			return err
		}},
		{"network-timeout", func() error {
			v, err := flags.GetDuration("network-timeout")
			if err == nil {
				cfg.NetworkTimeout = v
			}
			return err
		}},
		{"no-symlinks", func() error {
			v, err := flags.GetBool("no-symlinks")
			if err == nil {
				cfg.NoSymlinks = v
			}
			return err
		}},
		{"no-dirlists", func() error {
			v, err := flags.GetBool("no-dirlists")
			if err == nil {
				cfg.NoDirlists = v
			}
			return err
		}},
		{"index-file", func() error {
			v, err := flags.GetStringSlice("index-file")
			if err == nil && len(v) > 0 {
				cfg.IndexFiles = v
			}
			return err
		}},
		{"tls-cert", func() error {
			v, err := flags.GetString("tls-cert")
			if err == nil {
				cfg.TLSCert = v
			}
			return err
		}},
		{"tls-key", func() error {
			v, err := flags.GetString("tls-key")
			if err == nil {
				cfg.TLSKey = v
			}
			return err
		}},
		{"header", func() error {
			vals, err := flags.GetStringSlice("header")
			if err != nil {
				return err
			}
			if cfg.Headers == nil {
				cfg.Headers = make(map[string]string, len(vals))
			}
			for _, hdr := range vals {
				pos := strings.IndexByte(hdr, '=')
				if pos == -1 {
					return fmt.Errorf("header %q must be in form name=value", hdr)
				}
				cfg.Headers[hdr[:pos]] = hdr[pos+1:]
			}
			return nil
		}},
		{"header-file", func() error {
			path, err := flags.GetString("header-file")
			if err != nil {
				return err
			}
			if cfg.Headers == nil {
				cfg.Headers = make(map[string]string)
			}
			return loadHeaderFile(path, cfg.Headers)
		}},
		{"expiry", func() error {
			v, err := flags.GetDuration("expiry")
			if err == nil {
				cfg.Expiry = v
			}
			return err
		}},
	}

	for _, o := range overrides {
		if !flags.Changed(o.name) {
			continue
		}
		if err := o.apply(); err != nil {
			return fmt.Errorf("config: flag %q: %w", o.name, err)
		}
	}
	return nil
}

// loadHeaderFile reads name=value pairs, one per line, into headers.
// Grounded on the teacher's cmd/packserver/main.go loadHeaderFile, which
// reads the same format for its --header-file flag.
func loadHeaderFile(path string, headers map[string]string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		pos := strings.IndexByte(line, '=')
		if pos == -1 {
			return fmt.Errorf("%s: line %d: not in form name=value", path, lineNum)
		}
		headers[line[:pos]] = line[pos+1:]
	}
	return scanner.Err()
}

// RenderExtraHeaders flattens Headers (plus the Cache-Control header
// derived from Expiry) into the pre-rendered "Name: value" lines the
// response emitter appends to every response.
func (cfg Config) RenderExtraHeaders() []string {
	names := make([]string, 0, len(cfg.Headers))
	for name := range cfg.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	for _, name := range names {
		lines = append(lines, name+": "+cfg.Headers[name])
	}

	if cfg.Expiry <= 0 {
		lines = append(lines, "Cache-Control: no-store")
	} else {
		lines = append(lines, fmt.Sprintf("Cache-Control: public, max-age=%d", int64(cfg.Expiry/time.Second)))
	}
	return lines
}

// BuildRealmRegistry converts the YAML realm specs into a realm.Registry,
// resolving each "$p$<account>" password reference against the host's
// shadow/passwd database as it goes.
func (cfg Config) BuildRealmRegistry() (*realm.Registry, error) {
	realms := make([]realm.Realm, 0, len(cfg.Realms))
	for _, spec := range cfg.Realms {
		cred, err := realm.ParseStoredCredential(spec.Password)
		if err != nil {
			return nil, fmt.Errorf("config: realm %q: %w", spec.PathPrefix, err)
		}
		realms = append(realms, realm.Realm{
			PathPrefix: spec.PathPrefix,
			User:       spec.User,
			Credential: cred,
		})
	}
	return realm.NewRegistry(realms), nil
}

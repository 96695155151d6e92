package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileMergesWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "uhttpgo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
docroot: /srv/www
realms:
  - path: /admin
    user: root
    password: hunter2
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/www", cfg.Docroot)
	assert.Equal(t, []string{":8080"}, cfg.Listen)
	assert.Equal(t, 30*time.Second, cfg.NetworkTimeout)
	assert.Len(t, cfg.Realms, 1)
	assert.Equal(t, "root", cfg.Realms[0].User)
}

func TestApplyFlagsOnlyOverridesSetFlags(t *testing.T) {
	cfg := Default()
	cfg.Docroot = "/from/file"

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("docroot", "/default", "")
	flags.StringSlice("listen", nil, "")
	flags.Duration("network-timeout", 0, "")
	flags.Bool("no-symlinks", false, "")
	flags.Bool("no-dirlists", false, "")
	flags.StringSlice("index-file", nil, "")
	flags.String("tls-cert", "", "")
	flags.String("tls-key", "", "")
	require.NoError(t, flags.Set("no-dirlists", "true"))

	require.NoError(t, cfg.ApplyFlags(flags))
	assert.Equal(t, "/from/file", cfg.Docroot, "unset flag must not override file value")
	assert.True(t, cfg.NoDirlists, "explicitly set flag must override")
}

func TestApplyFlagsParsesHeaderFlag(t *testing.T) {
	cfg := Default()

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringSliceP("header", "H", nil, "")
	flags.String("header-file", "", "")
	flags.Duration("expiry", 0, "")
	require.NoError(t, flags.Set("header", "X-Frame-Options=sameorigin"))
	require.NoError(t, flags.Set("expiry", "1h"))

	require.NoError(t, cfg.ApplyFlags(flags))
	assert.Equal(t, "sameorigin", cfg.Headers["X-Frame-Options"])
	assert.Equal(t, time.Hour, cfg.Expiry)
}

func TestRenderExtraHeadersDerivesCacheControl(t *testing.T) {
	cfg := Config{Headers: map[string]string{"X-Content-Type-Options": "nosniff"}}
	lines := cfg.RenderExtraHeaders()
	assert.Contains(t, lines, "X-Content-Type-Options: nosniff")
	assert.Contains(t, lines, "Cache-Control: no-store")

	cfg.Expiry = 2 * time.Minute
	lines = cfg.RenderExtraHeaders()
	assert.Contains(t, lines, "Cache-Control: public, max-age=120")
}

func TestBuildRealmRegistryResolvesPlaintext(t *testing.T) {
	cfg := Config{Realms: []RealmSpec{{PathPrefix: "/x", User: "u", Password: "p"}}}
	reg, err := cfg.BuildRealmRegistry()
	require.NoError(t, err)
	m := reg.Match("/x/y")
	require.NotNil(t, m)
	assert.True(t, m.Credential.Verify("p"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/graves/awful-rustdocs/internal/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty working directory with an empty user config dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load(New(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rustdocs.yaml"), []byte(`
llm:
  model: from-file
  api_base: http://localhost:9000/v1
run:
  concurrency: 3
templates:
  function:
    post_user: Be brief.
`), 0o644))
	t.Setenv("AWFUL_RUSTDOCS_LLM_MODEL", "from-env")
	t.Setenv("AWFUL_RUSTDOCS_LOG_LEVEL", "debug")

	cfg, err := Load(New(""))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Model)
	assert.Equal(t, "http://localhost:9000/v1", cfg.LLM.APIBase)
	assert.Equal(t, 3, cfg.Run.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "Be brief.", cfg.Templates.Function.PostUser)
	assert.Equal(t, generate.DefaultFunctionTemplate.SystemPrompt, cfg.Templates.Function.SystemPrompt)
	assert.Equal(t, generate.DefaultStructTemplate, cfg.Templates.Struct)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	dir := isolate(t)

	_, err := Load(New(filepath.Join(dir, "nope.yaml")))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: xml\nrun:\n  concurrency: -1\n"), 0o644))

	_, err := Load(New(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
	assert.Contains(t, err.Error(), "run.concurrency")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "no model", mutate: func(c *Config) { c.LLM.Model = " " }, wantErr: "llm.model"},
		{name: "zero body tokens", mutate: func(c *Config) { c.LLM.MaxBodyTokens = 0 }, wantErr: "llm.max_body_tokens"},
		{name: "negative retries", mutate: func(c *Config) { c.LLM.MaxRetries = -1 }, wantErr: "llm.max_retries"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log.level"},
		{name: "upper level ok", mutate: func(c *Config) { c.Log.Level = "WARN" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestWriteFile_RoundTripAndForce(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "conf", "rustdocs.yaml")

	require.NoError(t, WriteFile(path, Default(), false))
	cfg, err := Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	err = WriteFile(path, Default(), false)
	assert.ErrorIs(t, err, ErrExists)

	changed := Default()
	changed.LLM.Model = "other"
	require.NoError(t, WriteFile(path, changed, true))
	cfg, err = Load(New(path))
	require.NoError(t, err)
	assert.Equal(t, "other", cfg.LLM.Model)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "md", c.OutputFormat)
	assert.Equal(t, 10, c.TableRows)
	assert.Equal(t, ":8080", c.ListenAddr)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.Watch)
	require.NoError(t, c.Validate())
}

func TestSaveLoadRoundTripAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("sheet_name", "Data"))
	require.NoError(t, c.Set("table_rows", "25"))
	require.NoError(t, c.Set("watch", "yes"))
	require.NoError(t, c.Set("output_format", "JSON"))
	require.NoError(t, Save(c, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Data", got.SheetName)
	assert.Equal(t, 25, got.TableRows)
	assert.True(t, got.Watch)
	assert.Equal(t, "json", got.OutputFormat)

	t.Setenv("POSTLENS_TABLE_ROWS", "3")
	got, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TableRows)
}

func TestSetRejectsBadValues(t *testing.T) {
	c := &Global{OutputFormat: "md"}
	assert.Error(t, c.Set("nope", "x"))
	assert.Error(t, c.Set("table_rows", "many"))
	assert.Error(t, c.Set("watch", "maybe"))
	assert.Error(t, c.Set("output_format", "html"))
	c.OutputFormat = "md"
	assert.Error(t, c.Set("delimiter", ";;"))
	c.Delimiter = ""
	assert.Error(t, c.Set("sheet_index", "-1"))
}

func TestParseDelimiter(t *testing.T) {
	cases := map[string]rune{"": 0, ";": ';', "tab": '\t', `\t`: '\t', "|": '|'}
	for in, want := range cases {
		got, err := ParseDelimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestLoadEnvOverloadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	require.NoError(t, os.WriteFile(".env", []byte("POSTLENS_LOG_LEVEL=debug\n"), 0o644))
	require.NoError(t, os.WriteFile(".env.dev", []byte("POSTLENS_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv("POSTLENS_LOG_LEVEL", "error")

	loaded := LoadEnv(nil)
	assert.Equal(t, []string{".env", ".env.dev"}, loaded)
	assert.Equal(t, "warn", os.Getenv("POSTLENS_LOG_LEVEL"))
}

func TestGetCoversEveryKey(t *testing.T) {
	c := Defaults()
	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
	v, err := c.Get("table_rows")
	require.NoError(t, err)
	assert.Equal(t, "10", v)
	_, err = c.Get("api_key")
	assert.Error(t, err)
}

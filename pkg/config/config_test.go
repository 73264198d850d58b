package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingRegistryIsEmpty(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)
	t.Setenv("QUALITYGATES_HOME", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Instances)
	assert.Nil(t, cfg.Default())

	_, err = os.Stat(filepath.Join(home, ".qualitygates"))
	assert.NoError(t, err, "config dir should be created")
}

func TestLoadUsesQualityGatesHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("QUALITYGATES_HOME", dir)
	t.Setenv("TEST_SONAR_TOKEN", "env-token")

	data := []byte(`instances:
  - name: primary
    url: https://sonar.example.com/
    token: ${TEST_SONAR_TOKEN}
  - name: secondary
    url: https://sonar2.example.com
    username: admin
    password: secret
    time_to_wait: 250
    max_retries: 2
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "instances.yaml"), data, 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Len(t, cfg.Instances, 2)

	primary := cfg.Default()
	require.NotNil(t, primary)
	assert.Equal(t, "primary", primary.Name)
	assert.Equal(t, "https://sonar.example.com", primary.URL)
	assert.Equal(t, "env-token", primary.Token)
	assert.Equal(t, defaultTimeToWait, primary.TimeToWait)
	assert.Equal(t, defaultMaxRetries, primary.MaxRetries)

	secondary, ok := cfg.Lookup("secondary")
	require.True(t, ok)
	assert.Equal(t, 250, secondary.TimeToWait)
	assert.Equal(t, 2, secondary.MaxRetries)

	_, ok = cfg.Lookup("missing")
	assert.False(t, ok)
}

func TestParseRejectsInvalidRegistry(t *testing.T) {
	cases := map[string]string{
		"missing name":    "instances:\n  - url: http://a\n",
		"whitespace name": "instances:\n  - name: \" \"\n    url: http://a\n",
		"missing url":     "instances:\n  - name: a\n",
		"duplicate":       "instances:\n  - name: a\n    url: http://a\n  - name: a\n    url: http://b\n",
		"not yaml":        "instances: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseKeepsNamesVerbatim(t *testing.T) {
	cfg, err := Parse([]byte("instances:\n  - name: \"sonar \"\n    url: http://a\n"))
	require.NoError(t, err)

	_, ok := cfg.Lookup("sonar ")
	assert.True(t, ok)
	_, ok = cfg.Lookup("sonar")
	assert.False(t, ok)
}

func TestLookupIsExactMatch(t *testing.T) {
	cfg := &GlobalConfig{Instances: []InstanceConfig{{Name: "Sonar", URL: "http://a"}}}

	_, ok := cfg.Lookup("sonar")
	assert.False(t, ok, "lookup should be case-sensitive")
	_, ok = cfg.Lookup("Sonar")
	assert.True(t, ok)
}

func setHomeEnv(t *testing.T, home string) {
	t.Helper()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadJobFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultJobFile)
	data := []byte("sonar_instance_name: primary\nproject_key: org:app\nignore_warnings: true\n")
	require.NoError(t, os.WriteFile(path, data, 0600))

	job, err := LoadJobFile(path)
	require.NoError(t, err)
	assert.Equal(t, JobConfig{SonarInstanceName: "primary", ProjectKey: "org:app", IgnoreWarnings: true}, job)
}

func TestLoadJobFileMissing(t *testing.T) {
	job, err := LoadJobFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, JobConfig{}, job)
}

func TestLoadJobFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultJobFile)
	require.NoError(t, os.WriteFile(path, []byte("project_key: [\n"), 0600))

	_, err := LoadJobFile(path)
	assert.Error(t, err)
}

func TestNewJobConfigExpandsProjectKey(t *testing.T) {
	env := map[string]string{"BRANCH": "main", "APP": "billing"}
	job, err := NewJobConfig(JobConfig{
		SonarInstanceName: "primary",
		ProjectKey:        "org:${APP}:$BRANCH",
	}, func(k string) string { return env[k] })
	require.NoError(t, err)
	assert.Equal(t, "org:billing:main", job.ProjectKey)
	assert.False(t, job.UsesDefaultInstance())
}

func TestNewJobConfigKeepsInstanceNameVerbatim(t *testing.T) {
	job, err := NewJobConfig(JobConfig{SonarInstanceName: " ", ProjectKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, " ", job.SonarInstanceName)
	assert.False(t, job.UsesDefaultInstance(), "whitespace name must not select the default instance")
}

func TestNewJobConfigRequiresProjectKey(t *testing.T) {
	_, err := NewJobConfig(JobConfig{ProjectKey: "${UNSET}"}, func(string) string { return "" })
	assert.Error(t, err)
}

func TestLoggerConfigFromEnv(t *testing.T) {
	t.Setenv("QG_FILE_LOGGING_ENABLED", "true")
	t.Setenv("QG_LOGS_DIRECTORY", "/tmp/qg")
	t.Setenv("QG_LOGS_MAX_SIZE", "42")

	conf := LoggerConfigFromEnv(true)
	assert.True(t, conf.FileLoggingEnabled)
	assert.True(t, conf.DebugModeEnabled)
	assert.Equal(t, "/tmp/qg", conf.Directory)
	assert.Equal(t, "qualitygates.log", conf.Filename)
	assert.Equal(t, 42, conf.MaxSize)
	assert.Equal(t, 10, conf.MaxBackups)
	assert.Equal(t, 10, conf.MaxAge)

	t.Setenv("QG_FILE_LOGGING_ENABLED", "")
	assert.False(t, LoggerConfigFromEnv(false).FileLoggingEnabled)
}

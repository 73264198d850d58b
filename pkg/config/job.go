package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultJobFile is the job configuration file looked up in the workspace.
const DefaultJobFile = "qualitygates.yaml"

// JobConfig is the per-job gate configuration, read once per build.
type JobConfig struct {
	// SonarInstanceName selects a registered instance; empty means the default.
	SonarInstanceName string `yaml:"sonar_instance_name"`
	ProjectKey        string `yaml:"project_key"`
	IgnoreWarnings    bool   `yaml:"ignore_warnings"`
}

// UsesDefaultInstance reports whether no explicit instance was configured.
func (j JobConfig) UsesDefaultInstance() bool {
	return j.SonarInstanceName == ""
}

// LoadJobFile reads a job configuration file. A missing file yields
// an empty configuration so that flags alone can drive a build.
func LoadJobFile(path string) (JobConfig, error) {
	var job JobConfig

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return job, nil
		}
		return job, fmt.Errorf("failed to read job file: %w", err)
	}

	if err := yaml.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("failed to parse job file %s: %w", path, err)
	}
	return job, nil
}

// NewJobConfig prepares raw job settings for a build. References to
// build variables in the project key ($VAR or ${VAR}) are resolved
// against env; unknown variables expand to the empty string. The instance
// name is kept verbatim since instances are matched by exact name.
func NewJobConfig(raw JobConfig, env func(string) string) (JobConfig, error) {
	if env == nil {
		env = os.Getenv
	}

	job := JobConfig{
		SonarInstanceName: raw.SonarInstanceName,
		ProjectKey:        strings.TrimSpace(os.Expand(raw.ProjectKey, env)),
		IgnoreWarnings:    raw.IgnoreWarnings,
	}
	if job.ProjectKey == "" {
		return job, fmt.Errorf("project key is required")
	}
	return job, nil
}

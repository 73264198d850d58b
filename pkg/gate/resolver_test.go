package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zen-systems/qualitygates/pkg/config"
)

func registry(names ...string) *config.GlobalConfig {
	cfg := &config.GlobalConfig{}
	for _, name := range names {
		cfg.Instances = append(cfg.Instances, config.InstanceConfig{Name: name, URL: "http://" + name})
	}
	return cfg
}

func TestChooseInstanceByName(t *testing.T) {
	inst, ok := ChooseInstance(registry("first", "second"), config.JobConfig{SonarInstanceName: "second"})
	require.True(t, ok)
	assert.Equal(t, "second", inst.Name)
}

func TestChooseInstanceDefaultIsFirst(t *testing.T) {
	inst, ok := ChooseInstance(registry("first", "second"), config.JobConfig{})
	require.True(t, ok)
	assert.Equal(t, "first", inst.Name)
}

func TestChooseInstanceNotFound(t *testing.T) {
	tests := map[string]struct {
		global *config.GlobalConfig
		job    config.JobConfig
	}{
		"unknown name":           {registry("first"), config.JobConfig{SonarInstanceName: "TestInstanceName"}},
		"empty registry":         {registry(), config.JobConfig{SonarInstanceName: "TestInstanceName"}},
		"whitespace name":        {registry("first"), config.JobConfig{SonarInstanceName: " "}},
		"padded name":            {registry("first"), config.JobConfig{SonarInstanceName: " first"}},
		"empty registry default": {registry(), config.JobConfig{}},
		"nil registry":           {nil, config.JobConfig{}},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			inst, ok := ChooseInstance(tt.global, tt.job)
			assert.False(t, ok)
			assert.Nil(t, inst)
		})
	}
}

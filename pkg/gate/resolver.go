package gate

import (
	"github.com/zen-systems/qualitygates/pkg/config"
)

// ChooseInstance selects the instance a job targets. An empty instance name
// selects the registry's first entry; any other name, including one made of
// whitespace, must match a registered name exactly. It reports false when nothing matches,
// including for an empty registry.
func ChooseInstance(global *config.GlobalConfig, job config.JobConfig) (*config.InstanceConfig, bool) {
	if job.UsesDefaultInstance() {
		inst := global.Default()
		return inst, inst != nil
	}
	return global.Lookup(job.SonarInstanceName)
}

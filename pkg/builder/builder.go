// Package builder drives the quality gate through the pre-build and
// perform phases of a build and reports the decision to the build log.
package builder

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zen-systems/qualitygates/pkg/config"
	"github.com/zen-systems/qualitygates/pkg/gate"
)

// Build log messages. Downstream tooling scrapes these; keep them stable.
const (
	GlobalConfigNoLongerExistsError = "The Sonar Instance in the global configuration with name '%s' no longer exists.\n" +
		"Please check your global configuration or your job configuration."
	DefaultConfigurationWarning = "WARNING: Quality Gates plugin is using the default Sonar Instance configuration.\n" +
		"This could be because no instance name is set in the job configuration, or because of an upgrade from an older version."
	BuildPassedPrefix = "Build-Step: Quality Gates plugin build passed: "
)

// State is the lifecycle position of a Builder.
type State int

const (
	StateNotStarted State = iota
	StateResolved
	StateEvaluated
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateResolved:
		return "RESOLVED"
	case StateEvaluated:
		return "EVALUATED"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// BuildDecision resolves the target instance and queries its gate status.
type BuildDecision interface {
	ChooseInstance(global *config.GlobalConfig, job config.JobConfig) (*config.InstanceConfig, bool)
	GetStatus(ctx context.Context, inst *config.InstanceConfig, job config.JobConfig) (gate.Status, error)
}

// Decision is the BuildDecision backed by the gate package.
type Decision struct {
	Evaluator *gate.Evaluator
}

func (d Decision) ChooseInstance(global *config.GlobalConfig, job config.JobConfig) (*config.InstanceConfig, bool) {
	return gate.ChooseInstance(global, job)
}

func (d Decision) GetStatus(ctx context.Context, inst *config.InstanceConfig, job config.JobConfig) (gate.Status, error) {
	return d.Evaluator.Evaluate(ctx, inst, job)
}

// Result records what a Builder decided. Err is set when the status query failed.
type Result struct {
	Instance string
	Outcome  gate.Outcome
	Err      error
}

// Builder runs the gate for a single build. It is not reusable.
type Builder struct {
	job      config.JobConfig
	global   *config.GlobalConfig
	decision BuildDecision
	logger   zerolog.Logger

	state    State
	instance *config.InstanceConfig
	result   Result
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the diagnostics logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a Builder for one build of job against the global registry.
func New(job config.JobConfig, global *config.GlobalConfig, decision BuildDecision, opts ...Option) *Builder {
	b := &Builder{
		job:      job,
		global:   global,
		decision: decision,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state.
func (b *Builder) State() State {
	return b.state
}

// Result returns the outcome of Perform. It is meaningful once State is StateDone.
func (b *Builder) Result() Result {
	return b.result
}

// Prebuild resolves the instance the job targets. It returns false, after
// reporting the configuration error, when the instance does not exist.
func (b *Builder) Prebuild(listener Listener) bool {
	inst, ok := b.decision.ChooseInstance(b.global, b.job)
	if !ok || inst == nil {
		b.logger.Error().Str("instance", b.job.SonarInstanceName).Msg("sonar instance not found")
		listener.Error(GlobalConfigNoLongerExistsError, b.job.SonarInstanceName)
		return false
	}

	b.instance = inst
	b.result.Instance = inst.Name
	b.state = StateResolved
	b.logger.Debug().Str("instance", inst.Name).Msg("sonar instance resolved")
	return true
}

// Perform evaluates the gate and reports the decision. A failed status
// query is written to the raw build log and fails the step.
//
// Perform panics unless Prebuild succeeded and Perform has not run yet.
func (b *Builder) Perform(ctx context.Context, listener Listener) bool {
	if b.state != StateResolved {
		panic(fmt.Sprintf("builder: Perform called in state %s", b.state))
	}

	if b.job.UsesDefaultInstance() {
		listener.Log(DefaultConfigurationWarning)
	}

	status, err := b.decision.GetStatus(ctx, b.instance, b.job)
	if err != nil {
		b.state = StateDone
		b.result.Err = err
		b.logger.Error().Err(err).Str("instance", b.instance.Name).Str("project", b.job.ProjectKey).Msg("quality gate query failed")
		fmt.Fprintf(listener.RawOutput(), "%+v\n", err)
		return false
	}
	b.state = StateEvaluated

	outcome := gate.Decide(status, b.job.IgnoreWarnings)
	b.result.Outcome = outcome
	b.logger.Info().
		Str("instance", b.instance.Name).
		Str("project", b.job.ProjectKey).
		Stringer("status", status).
		Bool("continue", outcome.Continue).
		Msg("quality gate evaluated")

	listener.Log(BuildPassedPrefix + passedSuffix(outcome.Continue))
	b.state = StateDone
	return outcome.Continue
}

func passedSuffix(passed bool) string {
	if passed {
		return "TRUE"
	}
	return "FALSE"
}

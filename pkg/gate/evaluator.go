package gate

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/zen-systems/qualitygates/pkg/config"
	"github.com/zen-systems/qualitygates/pkg/sonar"
)

// StatusProvider returns the raw gate state of a project as reported by
// a quality-analysis server.
type StatusProvider interface {
	QualityGateStatus(ctx context.Context, projectKey string) (string, error)
}

// ProviderFactory builds a StatusProvider bound to one instance.
type ProviderFactory func(inst *config.InstanceConfig) StatusProvider

// QueryError reports a failure to obtain a gate status from the server.
type QueryError struct {
	Instance string
	Project  string
	Err      error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("quality gate query for project %q on instance %q failed: %v", e.Project, e.Instance, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Format prints the stack of the underlying cause with %+v.
func (e *QueryError) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s\n%+v", e.Error(), e.Err)
		return
	}
	fmt.Fprint(s, e.Error())
}

// Temporary reports whether rerunning the build may succeed.
func (e *QueryError) Temporary() bool {
	return sonar.IsTransient(e.Err)
}

// Evaluator queries a server and classifies its gate state.
type Evaluator struct {
	newProvider ProviderFactory
}

// NewEvaluator creates an evaluator using factory to reach instances.
func NewEvaluator(factory ProviderFactory) *Evaluator {
	return &Evaluator{newProvider: factory}
}

// Evaluate performs a single status query for the job's project. Any
// failure, including a state that is not one of OK, WARN or ERROR, is
// returned as a *QueryError.
func (e *Evaluator) Evaluate(ctx context.Context, inst *config.InstanceConfig, job config.JobConfig) (Status, error) {
	queryErr := func(err error) error {
		return &QueryError{Instance: inst.Name, Project: job.ProjectKey, Err: err}
	}

	raw, err := e.newProvider(inst).QualityGateStatus(ctx, job.ProjectKey)
	if err != nil {
		return 0, queryErr(errors.WithStack(err))
	}

	switch raw {
	case sonar.GateOK:
		return StatusPass, nil
	case sonar.GateWarn:
		return StatusWarn, nil
	case sonar.GateError:
		return StatusFail, nil
	case sonar.GateNone:
		return 0, queryErr(errors.New("no quality gate computed for project"))
	default:
		return 0, queryErr(errors.Errorf("unrecognized quality gate status %q", raw))
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zen-systems/qualitygates/pkg/builder"
	"github.com/zen-systems/qualitygates/pkg/config"
	"github.com/zen-systems/qualitygates/pkg/evidence"
	"github.com/zen-systems/qualitygates/pkg/gate"
	"github.com/zen-systems/qualitygates/pkg/sonar"
)

var (
	instancesFile string
	debugFlag     bool

	logger zerolog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "qualitygates",
		Short: "Gate builds on the SonarQube quality gate of a project",
		Long: `qualitygates checks the quality gate of a project on a SonarQube
	instance and fails the build step when the gate is red. A yellow gate
	marks the build unstable but lets it continue.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = config.ConfigureLogger(config.LoggerConfigFromEnv(debugFlag))
		},
	}

	rootCmd.PersistentFlags().StringVar(&instancesFile, "instances", "", "path to the instance registry (default ~/.qualitygates/instances.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable debug diagnostics")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(instancesCmd())
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var errGateNotPassed = errors.New("quality gate did not pass")

func checkCmd() *cobra.Command {
	var jobFile string
	var instanceFlag string
	var projectKeyFlag string
	var ignoreWarningsFlag bool
	var outFlag string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate the quality gate for a build",
		Long: `Resolves the Sonar instance for the job, queries the project's quality
	gate and reports the decision to the build log on stdout.

	Job settings are read from --job-file and overridden by flags. Use --out
	to keep a decision record for the build.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := loadGlobalConfig()
			if err != nil {
				return fmt.Errorf("failed to load instances: %w", err)
			}

			raw, err := config.LoadJobFile(jobFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("instance") {
				raw.SonarInstanceName = instanceFlag
			}
			if cmd.Flags().Changed("project-key") {
				raw.ProjectKey = projectKeyFlag
			}
			if cmd.Flags().Changed("ignore-warnings") {
				raw.IgnoreWarnings = ignoreWarningsFlag
			}
			job, err := config.NewJobConfig(raw, os.Getenv)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			var buildLog bytes.Buffer
			listener := builder.NewStreamListener(io.MultiWriter(os.Stdout, &buildLog))

			start := time.Now()
			passed, b := runGate(ctx, global, job, listener)

			if outFlag != "" {
				runDir, err := writeEvidence(outFlag, global, job, b, passed, time.Since(start), buildLog.String())
				if err != nil {
					logger.Error().Err(err).Msg("failed to write decision evidence")
				} else {
					fmt.Fprintf(os.Stderr, "Decision recorded: %s\n", runDir)
				}
			}

			if !passed {
				return errGateNotPassed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobFile, "job-file", "f", config.DefaultJobFile, "job configuration file")
	cmd.Flags().StringVar(&instanceFlag, "instance", "", "Sonar instance name (empty uses the default instance)")
	cmd.Flags().StringVar(&projectKeyFlag, "project-key", "", "Sonar project key; $VAR references are expanded")
	cmd.Flags().BoolVar(&ignoreWarningsFlag, "ignore-warnings", false, "ignore quality gate warnings")
	cmd.Flags().StringVar(&outFlag, "out", "", "evidence output base directory")

	return cmd
}

// runGate drives the pre-build and perform phases for one build.
func runGate(ctx context.Context, global *config.GlobalConfig, job config.JobConfig, listener builder.Listener) (bool, *builder.Builder) {
	evaluator := gate.NewEvaluator(func(inst *config.InstanceConfig) gate.StatusProvider {
		return sonar.NewClient(inst, sonar.WithLogger(logger))
	})
	b := builder.New(job, global, builder.Decision{Evaluator: evaluator}, builder.WithLogger(logger))

	if !b.Prebuild(listener) {
		return false, b
	}
	return b.Perform(ctx, listener), b
}

func writeEvidence(baseDir string, global *config.GlobalConfig, job config.JobConfig, b *builder.Builder, passed bool, elapsed time.Duration, buildLog string) (string, error) {
	runID := evidence.NewRunID()
	w, err := evidence.NewWriter(baseDir, runID)
	if err != nil {
		return "", err
	}

	result := b.Result()
	record := evidence.DecisionRecord{
		ID:             runID,
		Timestamp:      time.Now().UTC(),
		Instance:       job.SonarInstanceName,
		DefaultUsed:    job.UsesDefaultInstance(),
		ProjectKey:     job.ProjectKey,
		IgnoreWarnings: job.IgnoreWarnings,
		Passed:         passed,
		DurationMillis: elapsed.Milliseconds(),
	}
	if result.Instance != "" {
		record.Instance = result.Instance
		if inst, ok := global.Lookup(result.Instance); ok {
			record.InstanceURL = inst.URL
		}
	}
	switch {
	case b.State() == builder.StateNotStarted:
		record.Error = fmt.Sprintf(builder.GlobalConfigNoLongerExistsError, job.SonarInstanceName)
	case result.Err != nil:
		record.Error = result.Err.Error()
		var queryErr *gate.QueryError
		if errors.As(result.Err, &queryErr) {
			record.Temporary = queryErr.Temporary()
		}
	default:
		record.Status = result.Outcome.Status.String()
	}

	if err := w.WriteDecision(record); err != nil {
		return "", err
	}
	if err := w.WriteBuildLog(buildLog); err != nil {
		return "", err
	}
	return w.RunDir(), nil
}

func loadGlobalConfig() (*config.GlobalConfig, error) {
	if instancesFile != "" {
		return config.LoadFile(instancesFile)
	}
	return config.Load()
}

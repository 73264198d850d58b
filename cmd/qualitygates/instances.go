package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zen-systems/qualitygates/pkg/config"
)

func instancesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "instances",
		Short: "List registered Sonar instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := loadGlobalConfig()
			if err != nil {
				return fmt.Errorf("failed to load instances: %w", err)
			}
			if len(global.Instances) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No Sonar instances registered in %s.\n", global.Path)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tURL\tAUTH\tPOLL\tDEFAULT")
			for i, inst := range global.Instances {
				def := ""
				if i == 0 {
					def = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%dx%dms\t%s\n", inst.Name, inst.URL, authKind(inst), inst.MaxRetries, inst.TimeToWait, def)
			}
			return w.Flush()
		},
	}
}

func validateCmd() *cobra.Command {
	var jobFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the instance registry and job configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			global, err := loadGlobalConfig()
			if err != nil {
				return err
			}

			raw, err := config.LoadJobFile(jobFile)
			if err != nil {
				return err
			}
			job, err := config.NewJobConfig(raw, os.Getenv)
			if err != nil {
				return fmt.Errorf("%s: %w", jobFile, err)
			}
			if !job.UsesDefaultInstance() {
				if _, ok := global.Lookup(job.SonarInstanceName); !ok {
					return fmt.Errorf("%s: instance %q is not registered", jobFile, job.SonarInstanceName)
				}
			} else if global.Default() == nil {
				return fmt.Errorf("%s: no instance registered to use as default", jobFile)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Configuration is valid.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&jobFile, "job-file", "f", config.DefaultJobFile, "job configuration file")
	return cmd
}

func authKind(inst config.InstanceConfig) string {
	switch {
	case inst.Token != "":
		return "token"
	case inst.Username != "":
		return "basic"
	default:
		return "none"
	}
}

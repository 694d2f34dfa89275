package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	decisionengine "girthgov/contexts/governance/decision-engine"
	"girthgov/contexts/governance/decision-engine/application/commands"
	"girthgov/internal/app/bootstrap"
	"girthgov/internal/app/pipeline"

	"github.com/spf13/cobra"
)

const operatorActor = "govctl"

// controlPlane is what the subcommands need from a composed app.
type controlPlane struct {
	runner    *pipeline.Runner
	decisions decisionengine.Module
	close     func() error
}

type rootOptions struct {
	memory bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "govctl",
		Short:         "Operate the governance pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&opts.memory, "memory", false, "use in-memory stores instead of postgres and redis")
	root.AddCommand(newRunCommand(opts), newBrakeCommand(opts), newStagesCommand(opts))
	return root
}

func openControlPlane(opts *rootOptions) (controlPlane, error) {
	if opts.memory {
		app := bootstrap.BuildInMemory(nil, nil)
		return controlPlane{
			runner:    app.Runner,
			decisions: app.Decisions,
			close:     func() error { return nil },
		}, nil
	}
	app, err := bootstrap.BuildControl()
	if err != nil {
		return controlPlane{}, err
	}
	return controlPlane{runner: app.Runner, decisions: app.Decisions, close: app.Close}, nil
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <stage|all>",
		Short: "Run one pipeline stage, or every stage once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plane, err := openControlPlane(opts)
			if err != nil {
				return err
			}
			defer plane.close()

			if args[0] == "all" {
				return writeJSON(cmd.OutOrStdout(), plane.runner.RunAll(cmd.Context()))
			}
			report, err := plane.runner.RunStage(cmd.Context(), args[0])
			if report.Stage != "" {
				if writeErr := writeJSON(cmd.OutOrStdout(), report); writeErr != nil {
					return writeErr
				}
			}
			return err
		},
	}
}

func newStagesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List registered pipeline stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plane, err := openControlPlane(opts)
			if err != nil {
				return err
			}
			defer plane.close()
			for _, stage := range plane.runner.Stages() {
				fmt.Fprintln(cmd.OutOrStdout(), stage)
			}
			return nil
		},
	}
}

func newBrakeCommand(opts *rootOptions) *cobra.Command {
	var reason string
	var duration time.Duration

	brake := &cobra.Command{
		Use:   "brake",
		Short: "Engage or release the emergency brake",
	}
	set := func(engage bool) func(cmd *cobra.Command, _ []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			plane, err := openControlPlane(opts)
			if err != nil {
				return err
			}
			defer plane.close()
			result, err := plane.decisions.Handler.Admin.SetEmergencyBrake(cmd.Context(), operatorActor, commands.BrakeCommand{
				Engage:   engage,
				Reason:   reason,
				Duration: duration,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		}
	}

	engage := &cobra.Command{
		Use:   "engage",
		Short: "Suspend poll creation and autonomous execution",
		Args:  cobra.NoArgs,
		RunE:  set(true),
	}
	engage.Flags().DurationVar(&duration, "duration", 24*time.Hour, "how long the brake stays engaged")
	release := &cobra.Command{
		Use:   "release",
		Short: "Release the emergency brake",
		Args:  cobra.NoArgs,
		RunE:  set(false),
	}
	brake.PersistentFlags().StringVar(&reason, "reason", "", "reason recorded in the admin action log")
	_ = brake.MarkPersistentFlagRequired("reason")
	brake.AddCommand(engage, release)
	return brake
}

func writeJSON(w io.Writer, payload any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var sweepGroups []string

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Auto-approval commands",
}

var approvalsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Approve technicians whose certification date is at least one day old",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		a, cleanup, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		groups := sweepGroups
		if len(groups) == 0 {
			groups = a.Config.Sweeper.Groups
		}
		if len(groups) == 0 {
			groups, err = a.Store.Groups(ctx)
			if err != nil {
				return fmt.Errorf("list groups: %w", err)
			}
		}
		promoted := a.Sweeper.SweepGroups(ctx, groups)
		a.Logger.Info("approval sweep finished", zap.Strings("groups", groups), zap.Int("promoted", promoted))
		fmt.Fprintf(cmd.OutOrStdout(), "promoted %d technicians in %d groups\n", promoted, len(groups))
		return nil
	},
}

func init() {
	approvalsSweepCmd.Flags().StringSliceVarP(&sweepGroups, "group", "g", nil, "group ids (default: configured or every stored group)")
	approvalsCmd.AddCommand(approvalsSweepCmd)
	rootCmd.AddCommand(approvalsCmd)
}

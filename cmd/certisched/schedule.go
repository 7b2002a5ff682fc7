package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/certisched-api/internal/dto"
	"github.com/noah-isme/certisched-api/internal/models"
)

var (
	scheduleGroup string
	scheduleStart string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Scheduling engine commands",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the auto-scheduling engine for one group",
	RunE: func(cmd *cobra.Command, args []string) error {
		if scheduleGroup == "" {
			return errors.New("--group is required")
		}
		ctx, stop := signalContext()
		defer stop()

		a, cleanup, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		result, err := a.Scheduling.RunScheduling(ctx, scheduleGroup, dto.RunSchedulingRequest{StartDate: scheduleStart}, models.SystemActor)
		if err != nil {
			return fmt.Errorf("scheduling run: %w", err)
		}
		a.Logger.Info("scheduling run finished",
			zap.String("group_id", scheduleGroup),
			zap.Int("scheduled", result.Scheduled),
			zap.Int("backlog", result.Backlog),
		)
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	scheduleRunCmd.Flags().StringVarP(&scheduleGroup, "group", "g", "", "group id")
	scheduleRunCmd.Flags().StringVar(&scheduleStart, "start", "", "first date to consider, YYYY-MM-DD (default today)")
	scheduleCmd.AddCommand(scheduleRunCmd)
	rootCmd.AddCommand(scheduleCmd)
}

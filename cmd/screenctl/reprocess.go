package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/bootstrap"
	"github.com/fadilmartias/resume-screener/internal/logger"
	"github.com/fadilmartias/resume-screener/internal/model"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <application-id>...",
	Short: "Run failed or completed applications through the pipeline again",
	Long: `Moves each application back to pending and processes it in this process.
Applications that are pending or processing are rejected. If a server is
running, whichever side claims the application first processes it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReprocess,
}

func init() {
	rootCmd.AddCommand(reprocessCmd)

	reprocessCmd.Flags().Duration("timeout", 10*time.Minute, "how long to wait for processing to finish")
}

func runReprocess(cmd *cobra.Command, args []string) error {
	ids, err := parseIDs(args)
	if err != nil {
		return err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, log *zap.Logger) error {
		c.Pool.Start(ctx)

		var queued []uuid.UUID
		for _, id := range ids {
			if err := c.Usecase.Reprocess(ctx, id); err != nil {
				log.Error("cannot reprocess", zap.String(logger.FieldApplicationID, id.String()), zap.Error(err))
				continue
			}
			queued = append(queued, id)
		}
		if err := drain(c, timeout); err != nil {
			return fmt.Errorf("waiting for processing: %w", err)
		}

		results := make([]model.Application, 0, len(queued))
		for _, id := range queued {
			app, err := c.Usecase.GetApplication(ctx, id)
			if err != nil {
				return err
			}
			results = append(results, *app)
		}
		renderApplications(cmd.OutOrStdout(), results)

		if len(queued) < len(ids) {
			return fmt.Errorf("%d of %d applications could not be reprocessed", len(ids)-len(queued), len(ids))
		}
		return nil
	})
}

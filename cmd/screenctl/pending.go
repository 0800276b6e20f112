package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fadilmartias/resume-screener/internal/bootstrap"
)

var processPendingCmd = &cobra.Command{
	Use:   "process-pending",
	Short: "Process pending applications in this process, without a server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, _ *zap.Logger) error {
			return processPending(ctx, c, cmd.OutOrStdout(), limit, timeout)
		})
	},
}

var recoverStaleCmd = &cobra.Command{
	Use:   "recover-stale",
	Short: "Return applications stuck in processing to pending",
	Long: `Applications left in processing by a crashed worker never finish on their
own. Only run this when no server could still be working on them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		olderThan, _ := cmd.Flags().GetDuration("older-than")
		run, _ := cmd.Flags().GetBool("run")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container, _ *zap.Logger) error {
			n, err := c.Usecase.RecoverStale(ctx, olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d applications returned to pending\n", n)
			if !run {
				return nil
			}
			return processPending(ctx, c, cmd.OutOrStdout(), 0, timeout)
		})
	},
}

func init() {
	rootCmd.AddCommand(processPendingCmd)
	rootCmd.AddCommand(recoverStaleCmd)

	processPendingCmd.Flags().Int("limit", 0, "process at most this many applications (0 means all)")
	processPendingCmd.Flags().Duration("timeout", 30*time.Minute, "how long to wait for processing to finish")

	recoverStaleCmd.Flags().Duration("older-than", 30*time.Minute, "only recover applications processing for longer than this")
	recoverStaleCmd.Flags().Bool("run", false, "process the recovered applications right away")
	recoverStaleCmd.Flags().Duration("timeout", 30*time.Minute, "how long to wait for processing to finish")
}

func processPending(ctx context.Context, c *bootstrap.Container, out io.Writer, limit int, timeout time.Duration) error {
	c.Pool.Start(ctx)
	n, err := c.Usecase.EnqueuePending(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "processing %d pending applications\n", n)
	if err := drain(c, timeout); err != nil {
		return fmt.Errorf("waiting for processing: %w", err)
	}

	counts, err := c.Usecase.StatusCounts(ctx, nil)
	if err != nil {
		return err
	}
	renderCounts(out, counts)
	return nil
}

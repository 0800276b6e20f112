package main

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/repository"
)

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Count applications per processing status, for one job or all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var jobID *uuid.UUID
		if len(args) == 1 {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			jobID = &ids[0]
		}

		return withDB(cmd, func(ctx context.Context, db *gorm.DB, _ *zap.Logger) error {
			counts, err := repository.NewApplicationRepository(db).CountByStatus(ctx, jobID)
			if err != nil {
				return err
			}
			renderCounts(cmd.OutOrStdout(), counts)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

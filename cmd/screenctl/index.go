package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fadilmartias/resume-screener/internal/bootstrap"
	"github.com/fadilmartias/resume-screener/internal/vectorindex"
)

var errAborted = errors.New("aborted")

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or prepare the résumé vector index",
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the stored index dimension with the embedding provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withIndex(cmd, func(ctx context.Context, idx *vectorindex.PGIndex, provider string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "embedding provider: %s (%d dimensions)\n", provider, idx.Dimension())

			stored, err := idx.StoredDimension(ctx)
			switch {
			case errors.Is(err, vectorindex.ErrIndexNotExists):
				fmt.Fprintln(out, "vector index: missing, run `screenctl index ensure`")
			case err != nil:
				return err
			case stored != idx.Dimension():
				fmt.Fprintf(out, "vector index: %d dimensions, mismatch; run `screenctl index ensure --recreate`\n", stored)
			default:
				fmt.Fprintf(out, "vector index: %d dimensions, ok\n", stored)
			}
			return nil
		})
	},
}

var indexEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Create the vector index, or rebuild it for a new embedding dimension",
	Long: `Creates the index when it is missing. With --recreate an index built for
another dimension is dropped and created empty; applications are indexed
again only when they are reprocessed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		recreate, _ := cmd.Flags().GetBool("recreate")
		yes, _ := cmd.Flags().GetBool("yes")

		return withIndex(cmd, func(ctx context.Context, idx *vectorindex.PGIndex, _ string) error {
			stored, err := idx.StoredDimension(ctx)
			if recreate && err == nil && stored != idx.Dimension() && !yes {
				confirm := promptui.Prompt{
					Label:     fmt.Sprintf("Drop the %d-dimension index and rebuild it for %d", stored, idx.Dimension()),
					IsConfirm: true,
				}
				if _, err := confirm.Run(); err != nil {
					return errAborted
				}
			}
			if err := idx.Ensure(ctx, recreate); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vector index ready (%d dimensions)\n", idx.Dimension())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexStatusCmd)
	indexCmd.AddCommand(indexEnsureCmd)

	indexEnsureCmd.Flags().Bool("recreate", false, "drop and rebuild an index with the wrong dimension")
	indexEnsureCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before dropping the index")
}

func withIndex(cmd *cobra.Command, fn func(ctx context.Context, idx *vectorindex.PGIndex, provider string) error) error {
	return withDB(cmd, func(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
		gen, err := bootstrap.NewEmbedder(ctx, log)
		if err != nil {
			return err
		}
		return fn(ctx, vectorindex.New(db, gen.Dimension(), log), gen.Provider())
	})
}

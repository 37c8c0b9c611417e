package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pgcompare/internal/repo"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the repository schema and register the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		repository, err := repo.Open(ctx, cfg.Repo.DSN)
		if err != nil {
			return err
		}
		defer repository.Close()

		projectID, err := repository.EnsureProject(ctx, fmt.Sprintf("project-%d", cfg.Project))
		if err != nil {
			return err
		}
		logger.Info("repository initialized", zap.Int64("project_id", projectID))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}

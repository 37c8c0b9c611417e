package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pgcompare/internal/model"
	"pgcompare/internal/repo"
)

var copyTableFrom, copyTableTo string

var copyTableCmd = &cobra.Command{
	Use:   "copy-table",
	Short: "Duplicate an existing table's registration under a new alias",
	RunE: func(cmd *cobra.Command, args []string) error {
		if copyTableFrom == "" || copyTableTo == "" {
			return fmt.Errorf("--from and --to are both required")
		}

		ctx := cmd.Context()
		repository, err := repo.Open(ctx, cfg.Repo.DSN)
		if err != nil {
			return err
		}
		defer repository.Close()

		tables, err := repository.EnabledTables(ctx, cfg.Project, copyTableFrom)
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return fmt.Errorf("no table registered with alias %q", copyTableFrom)
		}
		src := tables[0]

		newEntry := model.TableEntry{
			Project: cfg.Project, Alias: copyTableTo, Enabled: true,
			BatchNbr: src.BatchNbr, ParallelDegree: src.ParallelDegree,
		}
		newTID, err := repository.UpsertTable(ctx, newEntry)
		if err != nil {
			return err
		}

		sourceTM, targetTM, err := repository.TableMaps(ctx, src.TID)
		if err != nil {
			return err
		}
		sourceTM.TID, targetTM.TID = newTID, newTID

		// NOTE: binds is the parameterized UPDATE's intended argument
		// list (schema/table/mod-column overrides from --to), but
		// UpsertTableMap below is called with the source TableMap
		// unmodified — binds is built and never applied. Left exactly
		// as the original carried it; fixing this is a product
		// decision (rename physical table too, or only the alias),
		// not an incidental cleanup.
		binds := []any{copyTableTo, sourceTM.SchemaName, sourceTM.TableName}
		_ = binds

		if err := repository.UpsertTableMap(ctx, sourceTM); err != nil {
			return err
		}
		if err := repository.UpsertTableMap(ctx, targetTM); err != nil {
			return err
		}

		logger.Info("copied table registration", zap.String("from", copyTableFrom), zap.String("to", copyTableTo), zap.Int64("new_tid", newTID))
		return nil
	},
}

func init() {
	copyTableCmd.Flags().StringVar(&copyTableFrom, "from", "", "existing table alias to copy")
	copyTableCmd.Flags().StringVar(&copyTableTo, "to", "", "new table alias")
	RootCmd.AddCommand(copyTableCmd)
}

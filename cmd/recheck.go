package cmd

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pgcompare/internal/columnmap"
	"pgcompare/internal/dialect"
	"pgcompare/internal/model"
	"pgcompare/internal/recheck"
	"pgcompare/internal/repo"
)

var recheckCmd = &cobra.Command{
	Use:   "recheck",
	Short: "Re-read live rows behind outstanding findings and reclassify them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RequireSourceTarget(); err != nil {
			return err
		}
		ctx := cmd.Context()

		repository, err := repo.Open(ctx, cfg.Repo.DSN)
		if err != nil {
			return err
		}
		defer repository.Close()

		sourceDB, sourceDialect, err := openSide(cfg.Source)
		if err != nil {
			return err
		}
		defer sourceDB.Close()
		targetDB, targetDialect, err := openSide(cfg.Target)
		if err != nil {
			return err
		}
		defer targetDB.Close()

		tables, err := repository.EnabledTables(ctx, cfg.Project, cfg.Table)
		if err != nil {
			return err
		}

		for _, table := range tables {
			n, err := recheckTable(ctx, repository, sourceDB, sourceDialect, targetDB, targetDialect, table)
			if err != nil {
				logger.Error("recheck failed", zap.String("alias", table.Alias), zap.Error(err))
				continue
			}
			logger.Info("recheck complete", zap.String("alias", table.Alias), zap.Int("findings_processed", n))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(recheckCmd)
}

func recheckTable(ctx context.Context, repository *repo.Repo, sourceDB *sql.DB, sourceDialect dialect.Dialect, targetDB *sql.DB, targetDialect dialect.Dialect, table model.TableEntry) (int, error) {
	sourceTM, targetTM, err := repository.TableMaps(ctx, table.TID)
	if err != nil {
		return 0, err
	}

	sourceCols, err := columnsFor(ctx, sourceDB, sourceDialect, sourceTM)
	if err != nil {
		return 0, err
	}
	targetCols, err := columnsFor(ctx, targetDB, targetDialect, targetTM)
	if err != nil {
		return 0, err
	}

	cmResult := columnmap.Compile(columnmap.Input{
		TID: table.TID, SourceDialect: sourceDialect, TargetDialect: targetDialect,
		SourceColumns: sourceCols, TargetColumns: targetCols,
		CastMode: castModeFor(cfg.ColumnHashMethod), FloatCast: string(cfg.FloatCast), NumberCast: string(cfg.NumberCast),
	})

	sourceReader := &recheck.SQLRowReader{DB: sourceDB, Dialect: sourceDialect, Table: sourceTM, Columns: cmResult.Columns, Side: model.SourceSide}
	targetReader := &recheck.SQLRowReader{DB: targetDB, Dialect: targetDialect, Table: targetTM, Columns: cmResult.Columns, Side: model.TargetSide}

	return recheck.Run(ctx, repository, cmResult.Columns, sourceReader, targetReader, castModeFor(cfg.ColumnHashMethod), string(cfg.NumberCast), table.TID)
}

package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pgcompare/internal/cast"
	"pgcompare/internal/config"
	"pgcompare/internal/dialect"
	"pgcompare/internal/discover"
	"pgcompare/internal/repo"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Crawl both databases' catalogs and register table/column maps",
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

		if _, err := repository.EnsureProject(ctx, fmt.Sprintf("project-%d", cfg.Project)); err != nil {
			return err
		}

		warnings, err := discover.Run(ctx, repository, discover.Options{
			Project: cfg.Project,
			Source:  discover.Side{DB: sourceDB, Dialect: sourceDialect, Filter: cfg.Table},
			Target:  discover.Side{DB: targetDB, Dialect: targetDialect, Filter: cfg.Table},
			FloatCast:  string(cfg.FloatCast),
			NumberCast: string(cfg.NumberCast),
			CastMode:   castModeFor(cfg.ColumnHashMethod),
		})
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warn("discover", zap.String("detail", w))
		}
		logger.Info("discover complete", zap.Int("warnings", len(warnings)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(discoverCmd)
}

// sqlDriverName maps a dialect name to the name the engine's driver
// package registers with database/sql, where it differs (go_ibm_db
// registers itself as "go_ibm_db", not "db2").
func sqlDriverName(dialectDriver string) string {
	if dialectDriver == "db2" {
		return "go_ibm_db"
	}
	return dialectDriver
}

func openSide(conn config.Connection) (*sql.DB, dialect.Dialect, error) {
	d, err := dialect.Get(conn.Driver)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(sqlDriverName(conn.Driver), conn.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s connection: %w", conn.Driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to reach %s database: %w", conn.Driver, err)
	}
	return db, d, nil
}

func castModeFor(method config.HashMethod) cast.Mode {
	if method == config.HashRaw {
		return cast.ModeRaw
	}
	return cast.ModeNormalized
}

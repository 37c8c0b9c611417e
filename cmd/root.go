package cmd

import (
	"fmt"
	"os"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/ibmdb/go_ibm_db"
	_ "github.com/lib/pq"
	_ "github.com/sijms/go-ora/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"pgcompare/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
)

var RootCmd = &cobra.Command{
	Use:   "pgcompare",
	Short: "Cross-dialect database reconciliation",
	Long: `
 ____   ____  _____ ___  __  __ ____   _    ____  _____
|  _ \ / ___|/ ____/ _ \|  \/  |  _ \ / \  |  _ \| ____|
| |_) | |  _| |   | | | | |\/| | |_) / _ \ | |_) |  _|
|  __/| |_| | |___| |_| | |  | |  __/ ___ \|  _ <| |___
|_|    \____|\____|\___/|_|  |_|_| /_/   \_\_| \_\_____|

pgcompare - row-level reconciliation between two SQL databases
`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg)
		if err != nil {
			return err
		}
		return nil
	},
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./pgcompare.yaml)")
	flags.Int64("project", 0, "project id")
	flags.Int("batch", 0, "batch number")
	flags.String("table", "", "restrict to a single table alias")
	flags.String("report", "", "write an HTML job summary to this path")
	flags.String("repo-dsn", "", "repository (Postgres) connection string")
	flags.String("source-driver", "", "source dialect (postgres|mysql|sqlserver|oracle|db2)")
	flags.String("source-dsn", "", "source connection string")
	flags.String("target-driver", "", "target dialect (postgres|mysql|sqlserver|oracle|db2)")
	flags.String("target-dsn", "", "target connection string")
	flags.Int("batch-fetch-size", 0, "rows per extractor fetch batch")
	flags.Int("batch-commit-size", 0, "rows per loader commit")
	flags.Int("loader-threads", 0, "loader goroutines per side")
	flags.Int("message-queue-size", 0, "bounded queue capacity, in batches")
	flags.String("float-cast", "", "standard|notation")
	flags.String("number-cast", "", "standard|notation")
	flags.String("column-hash-method", "", "raw|normalized")
	flags.Bool("database-sort", false, "request an ORDER BY on the extractor query")
	flags.Bool("observer-throttle", true, "enable extractor backpressure")
	flags.Int64("observer-throttle-size", 0, "rows staged before throttling")
	flags.Bool("observer-vacuum", false, "VACUUM staging tables between observer ticks")
	flags.String("log-destination", "", "stdout|json")
	flags.String("log-level", "", "debug|info|warn|error")

	for _, name := range []string{
		"project", "batch", "table", "report", "repo-dsn",
		"source-driver", "source-dsn", "target-driver", "target-dsn",
		"batch-fetch-size", "batch-commit-size", "loader-threads", "message-queue-size",
		"float-cast", "number-cast", "column-hash-method", "database-sort",
		"observer-throttle", "observer-throttle-size", "observer-vacuum",
		"log-destination", "log-level",
	} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
	viper.AutomaticEnv()
}

// Seed tool: loads wagon-type configs, base snapshots and ledger
// entries into postgres for a fresh or demo installation.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "seed",
		Usage: "Load wagon-type configs, base snapshots and ledger entries",
		Commands: []*cli.Command{
			{
				Name:      "configs",
				Usage:     "Load wagon-type configs from a JSON file",
				ArgsUsage: "<configs.json>",
				Flags:     []cli.Flag{newDBURLFlag()},
				Action:    seedConfigs,
			},
			{
				Name:      "base",
				Usage:     "Set a project's day-zero base snapshot from a JSON file",
				ArgsUsage: "<base.json>",
				Flags:     []cli.Flag{newDBURLFlag()},
				Action:    seedBaseSnapshots,
			},
			{
				Name:      "entries",
				Usage:     "Load ledger entries from a CSV file",
				ArgsUsage: "<entries.csv>",
				Flags:     []cli.Flag{newDBURLFlag()},
				Action:    seedEntries,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"

	"festreg/internal/store/postgres"
	"festreg/internal/store/postgres/migrations"
)

func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "migrate",
		Usage: "festreg database migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "dsn",
				Usage:    "Postgres connection string",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "create migration tables",
				Action: withMigrator(initTables),
			},
			{
				Name:   "up",
				Usage:  "apply pending migrations",
				Action: withMigrator(up),
			},
			{
				Name:   "down",
				Usage:  "rollback the last migration group",
				Action: withMigrator(down),
			},
			{
				Name:   "status",
				Usage:  "print migrations status",
				Action: withMigrator(status),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func withMigrator(fn func(c *cli.Context, m *migrate.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		db, err := postgres.Connect(c.Context, c.String("dsn"))
		if err != nil {
			return err
		}
		defer db.Close()
		return fn(c, migrate.NewMigrator(db, migrations.Migrations))
	}
}

func initTables(c *cli.Context, m *migrate.Migrator) error {
	if err := m.Init(c.Context); err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	fmt.Println("Migration tables ready")
	return nil
}

func up(c *cli.Context, m *migrate.Migrator) error {
	if err := m.Lock(c.Context); err != nil {
		return err
	}
	defer m.Unlock(c.Context) //nolint:errcheck

	group, err := m.Migrate(c.Context)
	if err != nil {
		return err
	}
	if group.IsZero() {
		fmt.Println("No new migrations to run")
		return nil
	}
	fmt.Printf("Migrated to %s\n", group)
	return nil
}

func down(c *cli.Context, m *migrate.Migrator) error {
	if err := m.Lock(c.Context); err != nil {
		return err
	}
	defer m.Unlock(c.Context) //nolint:errcheck

	group, err := m.Rollback(c.Context)
	if err != nil {
		return err
	}
	if group.IsZero() {
		fmt.Println("No groups to roll back")
		return nil
	}
	fmt.Printf("Rolled back %s\n", group)
	return nil
}

func status(c *cli.Context, m *migrate.Migrator) error {
	ms, err := m.MigrationsWithStatus(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("Migrations: %s\n", ms)
	fmt.Printf("Applied: %s\n", ms.Applied())
	fmt.Printf("Unapplied: %s\n", ms.Unapplied())
	return nil
}

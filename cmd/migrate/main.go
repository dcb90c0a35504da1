package main

import (
	"errors"
	"flag"

	"github.com/collabnext/backend/internal/util"
	"github.com/collabnext/backend/pkg/logger"
	"github.com/collabnext/backend/pkg/logger/console"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// migrate applies the primary store schema and its search functions.
//
//	migrate          apply every pending migration
//	migrate -down    roll back every migration
//	migrate -steps N apply (N > 0) or roll back (N < 0) N migrations
func main() {
	down := flag.Bool("down", false, "roll back every migration")
	steps := flag.Int("steps", 0, "number of migrations to apply, negative to roll back")
	flag.Parse()

	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "migrate",
	})
	logger.Init(consoleLogger)

	source := util.GetEnvString("MIGRATIONS_PATH", "file://migrations")
	m, err := migrate.New(source, util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to open migrations", "source", source, "err", err)
	}
	defer m.Close()

	switch {
	case *down:
		err = m.Down()
	case *steps != 0:
		err = m.Steps(*steps)
	default:
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Migration failed", "err", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Fatal("Failed to read schema version", "err", err)
	}
	logger.Info("Schema up to date", "version", version, "dirty", dirty)
}

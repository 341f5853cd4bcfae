// Command generate_demo creates a demo database with sample apiaries, hives,
// inspections and harvests.
// Usage: go run ./cmd/generate_demo [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/beesmart/beesmart/internal/config"
	"github.com/beesmart/beesmart/internal/demo"
	"github.com/beesmart/beesmart/internal/entrypoint"
	"github.com/beesmart/beesmart/internal/logging"
)

const defaultDemoDatabasePath = "./demo/demo.db"

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	log := logging.New(config.Log{Level: "info"})
	log.WithField("path", *dbPath).Info("Generating demo database")

	// Start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Fatal("Failed to remove existing demo database")
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create demo directory")
	}

	store, err := entrypoint.OpenStore(config.Database{
		Driver:   config.DriverSQLite,
		Path:     *dbPath,
		LogLevel: "warn",
	}, nil, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create database")
	}
	defer store.Close()

	if _, err := demo.Generate(context.Background(), store.DemoRepositories(), time.Now(), log); err != nil {
		log.WithError(err).Error("Failed to generate demo data")
		return
	}

	log.Info("Demo database generated successfully!")
}

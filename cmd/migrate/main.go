package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/pluravita-pixel/Plataforma-v21012026-sub000/internal/logging"
)

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("APP_ENV")).With().Str("component", "migrate").Logger()

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DB_URL is required")
	}

	sourceURL, err := migrationsSourceURL()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not locate migrations directory")
	}

	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize migrations")
	}

	command := "up"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		logger.Fatal().Str("command", command).Msg("unknown command, expected up or down")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal().Err(err).Str("command", command).Msg("migration failed")
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		logger.Warn().Err(verr).Msg("could not read schema version")
	}
	logger.Info().Str("command", command).Uint("version", version).Bool("dirty", dirty).
		Msg("migration complete")
}

// migrationsSourceURL walks up from the working directory, then looks next to
// the binary, until it finds a migrations directory. Keeps the command usable
// from the repo root, a package directory, or a deployed artifact.
func migrationsSourceURL() (string, error) {
	candidates := make([]string, 0, 9)

	if cwd, err := os.Getwd(); err == nil {
		current := cwd
		for i := 0; i < 6; i++ {
			candidates = append(candidates, filepath.Join(current, "migrations"))
			parent := filepath.Dir(current)
			if parent == current {
				break
			}
			current = parent
		}
	}

	if exePath, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exePath)
		candidates = append(candidates,
			filepath.Join(exeDir, "migrations"),
			filepath.Join(exeDir, "..", "migrations"),
			filepath.Join(exeDir, "..", "..", "migrations"),
		)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil || !info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", err
		}
		return "file://" + abs, nil
	}

	return "", fmt.Errorf("no migrations directory found near %v", candidates)
}

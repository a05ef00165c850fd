// Command hexwar serves the scenario editor: a battlefield, the armies on it
// and an HTTP API to edit them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/talgya/hexwar/internal/api"
	"github.com/talgya/hexwar/internal/army"
	"github.com/talgya/hexwar/internal/config"
	"github.com/talgya/hexwar/internal/editor"
	"github.com/talgya/hexwar/internal/logging"
	"github.com/talgya/hexwar/internal/persistence"
	"github.com/talgya/hexwar/internal/world"
)

func main() {
	configDir := os.Getenv("HEXWAR_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hexwar:", err)
		os.Exit(1)
	}

	logger := logging.Setup(os.Stdout, cfg.LogLevel)
	slog.Info("hexwar scenario editor", "config", config.ConfigFile(), "log_level", cfg.LogLevel)

	// ── Army ──────────────────────────────────────────────────────────
	catalog := army.DefaultCatalog()
	if cfg.Army.File != "" {
		catalog, err = army.LoadCatalogFile(cfg.Army.File)
		if err != nil {
			slog.Error("failed to load army", "file", cfg.Army.File, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("army ready", "unit_types", catalog.Len(), "file", cfg.Army.File)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DB.Path); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DB.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB.Path)

	// ── Battlefield ───────────────────────────────────────────────────
	session := editor.NewSession(nil, catalog, logger)
	name, err := loadStartingScenario(db, session, cfg)
	if err != nil {
		slog.Error("failed to load scenario", "error", err)
		os.Exit(1)
	}

	// ── API ───────────────────────────────────────────────────────────
	server := api.NewServer(session, db, logger)
	server.Port = cfg.API.Port
	server.AdminKey = cfg.API.AdminKey
	server.SaveRate = cfg.API.SaveRate
	server.SetScenario(name)
	server.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown incomplete", "error", err)
	}

	// The server is stopped: the session is ours again.
	if name := server.Scenario(); name != "" {
		slog.Info("final save...", "scenario", name)
		sc := &persistence.Scenario{Name: name, Map: session.Map, Wings: session.Specs()}
		if err := db.SaveScenario(sc); err != nil {
			slog.Error("final save failed", "error", err)
		}
	}
	slog.Info("goodbye")
}

// loadStartingScenario loads the configured scenario, else the last one
// saved, else generates a fresh battlefield. It returns the scenario name, ""
// for a generated field.
func loadStartingScenario(db *persistence.DB, session *editor.Session, cfg config.Config) (string, error) {
	name := cfg.Map.Scenario
	if name == "" {
		name, _ = db.GetMeta("last_scenario")
	}
	if name != "" {
		sc, err := db.LoadScenario(name)
		switch {
		case err == nil:
			history, err := db.History(name, editor.MaxEvents)
			if err != nil {
				slog.Warn("event log not restored", "scenario", name, "error", err)
			}
			if err := session.Resume(sc.Map, sc.Wings, history); err != nil {
				return "", fmt.Errorf("scenario %q: %w", name, err)
			}
			slog.Info("scenario restored", "name", name, "radius", sc.Map.Radius, "wings", len(sc.Wings))
			return name, nil
		case errors.Is(err, persistence.ErrNotFound) && cfg.Map.Scenario == "":
			slog.Warn("last scenario is gone, generating a new battlefield", "name", name)
		default:
			return "", err
		}
	}

	slog.Info("generating battlefield...", "radius", cfg.Map.Radius, "seed", cfg.Map.Seed)
	gen := world.DefaultGenConfig()
	gen.Radius = cfg.Map.Radius
	gen.Seed = cfg.Map.Seed
	m := world.Generate(gen)
	for t, c := range world.TerrainCounts(m) {
		slog.Debug("terrain", "type", world.TerrainName(t), "count", c)
	}
	if err := session.Load(m, nil); err != nil {
		return "", err
	}
	slog.Info("battlefield ready", "hexes", m.HexCount(), "edges", len(m.Sides))
	return "", nil
}

package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"botarena/server/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ListenAddr() != "localhost:9090" {
		t.Errorf("ListenAddr() = %s, want localhost:9090", cfg.ListenAddr())
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
	if cfg.Rules != engine.DefaultRules() {
		t.Errorf("Rules = %+v, want defaults", cfg.Rules)
	}
	if len(cfg.Roster) != 3 || cfg.Roster[0].Name != "bot-0" {
		t.Errorf("Roster = %+v, want bot-0..bot-2", cfg.Roster)
	}
	if cfg.TickInterval != 0 {
		t.Errorf("TickInterval = %v, want 0", cfg.TickInterval)
	}
	if cfg.TurnTimeout != time.Second {
		t.Errorf("TurnTimeout = %v, want 1s", cfg.TurnTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TPS", "50")
	t.Setenv("ARENA_WIDTH", "1000")
	t.Setenv("MAX_TICKS", "2000")
	t.Setenv("WALL_RECOVERY", "project")
	t.Setenv("ROSTER", "alpha, beta")
	t.Setenv("SEED", "42")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %s, want 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
	if cfg.TickInterval != 20*time.Millisecond {
		t.Errorf("TickInterval = %v, want 20ms", cfg.TickInterval)
	}
	if cfg.Rules.ArenaWidth != 1000 {
		t.Errorf("ArenaWidth = %v, want 1000", cfg.Rules.ArenaWidth)
	}
	if cfg.Rules.MaxTicks != 2000 {
		t.Errorf("MaxTicks = %d, want 2000", cfg.Rules.MaxTicks)
	}
	if cfg.Rules.WallRecovery != engine.WallRecoveryProject {
		t.Errorf("WallRecovery = %v, want %v", cfg.Rules.WallRecovery, engine.WallRecoveryProject)
	}
	if len(cfg.Roster) != 2 || cfg.Roster[1].Name != "beta" {
		t.Errorf("Roster = %+v, want alpha, beta", cfg.Roster)
	}
	if cfg.Seed != 42 {
		t.Errorf("Seed = %d, want 42", cfg.Seed)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"arena too small", "ARENA_WIDTH", "100"},
		{"arena too large", "ARENA_HEIGHT", "6000"},
		{"cooling rate", "GUN_COOLING_RATE", "5"},
		{"tps not a number", "TPS", "fast"},
		{"tps not finite", "TPS", "Inf"},
		{"turn timeout", "TURN_TIMEOUT", "soon"},
		{"zero turn timeout without tps", "TURN_TIMEOUT", "0"},
		{"negative turn timeout without tps", "TURN_TIMEOUT", "-1s"},
		{"negative max ticks", "MAX_TICKS", "-1"},
		{"wall recovery", "WALL_RECOVERY", "bounce"},
		{"log level", "LOG_LEVEL", "loud"},
		{"empty roster", "ROSTER", " , "},
		{"missing roster file", "ROSTER_FILE", "/nonexistent/roster.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want %v", err, ErrConfiguration)
			}
		})
	}
}

func TestLoad_FixedTickWithoutTurnTimeout(t *testing.T) {
	t.Setenv("TPS", "30")
	t.Setenv("TURN_TIMEOUT", "0")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.TickInterval <= 0 {
		t.Errorf("TickInterval = %v, want positive", cfg.TickInterval)
	}
}

func TestLoad_EnvFile(t *testing.T) {
	path := writeFile(t, "test.env", "SERVICE_NAME=arena-test\n")
	t.Cleanup(func() { os.Unsetenv("SERVICE_NAME") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServiceName != "arena-test" {
		t.Errorf("ServiceName = %s, want arena-test", cfg.ServiceName)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want %v", err, ErrConfiguration)
	}
}

func TestLoadRoster(t *testing.T) {
	path := writeFile(t, "roster.json", `[
		{"name": "alpha", "team": "red"},
		{"name": "beta", "team": "red", "start": {"x": 100, "y": 200, "direction": 90}},
		{"name": "gamma"}
	]`)
	roster, err := LoadRoster(path)
	if err != nil {
		t.Fatalf("LoadRoster failed: %v", err)
	}
	if len(roster) != 3 {
		t.Fatalf("len(roster) = %d, want 3", len(roster))
	}
	if roster[0].Team != "red" || roster[0].Start != nil {
		t.Errorf("roster[0] = %+v, want team red without start", roster[0])
	}
	want := engine.StartPosition{X: 100, Y: 200, Direction: 90}
	if roster[1].Start == nil || *roster[1].Start != want {
		t.Errorf("roster[1].Start = %+v, want %+v", roster[1].Start, want)
	}

	if _, err := LoadRoster(writeFile(t, "empty.json", `[]`)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want %v", err, ErrConfiguration)
	}
	if _, err := LoadRoster(writeFile(t, "broken.json", `{`)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("err = %v, want %v", err, ErrConfiguration)
	}
}

func TestLoadWalls(t *testing.T) {
	walls, err := LoadWalls(writeFile(t, "walls.json", `[
		{"id": 1, "x": 200, "y": 300, "width": 50, "height": 100, "rotation": 30, "color": "#ff0000"},
		{"x": 600, "y": 300, "width": 20, "height": 20}
	]`))
	if err != nil {
		t.Fatalf("LoadWalls failed: %v", err)
	}
	want := engine.WallSpec{ID: 1, X: 200, Y: 300, Width: 50, Height: 100, Rotation: 30, Color: "#ff0000"}
	if len(walls) != 2 || walls[0] != want {
		t.Errorf("walls = %+v, want first %+v", walls, want)
	}

	tests := []struct {
		name    string
		content string
	}{
		{"non-positive size", `[{"id": 1, "width": 0, "height": 10}]`},
		{"duplicate id", `[{"id": 1, "width": 10, "height": 10}, {"id": 1, "width": 10, "height": 10}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWalls(writeFile(t, "walls.json", tt.content))
			if !errors.Is(err, ErrConfiguration) {
				t.Errorf("err = %v, want %v", err, ErrConfiguration)
			}
		})
	}
}

func TestLoad_WallsFile(t *testing.T) {
	t.Setenv("WALLS_FILE", writeFile(t, "walls.json", `[{"x": 400, "y": 300, "width": 40, "height": 40}]`))
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.Walls) != 1 {
		t.Errorf("len(Walls) = %d, want 1", len(cfg.Walls))
	}
}

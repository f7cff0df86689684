package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"botarena/server/engine"
	"botarena/utils"
)

// ErrConfiguration は engine.ErrConfiguration と同じで、バトル開始前に検出される設定エラーです。
var ErrConfiguration = engine.ErrConfiguration

// Config はバトルサーバーの設定です。
type Config struct {
	Addr     string
	Port     string
	LogLevel slog.Level

	Rules  engine.Rules
	Roster []engine.BotSpec
	Walls  []engine.WallSpec
	Seed   uint64

	// TickInterval が0の場合は全ボットの指示が揃い次第ティックを進めます。
	TickInterval time.Duration
	TurnTimeout  time.Duration
	PingInterval time.Duration
	IdleTimeout  time.Duration

	TokenSecret  string
	OTLPEndpoint string
	ServiceName  string
}

// ListenAddr は待ち受けアドレスを返します。
func (c *Config) ListenAddr() string {
	return c.Addr + ":" + c.Port
}

// Load は環境変数から設定を読み込みます。
// files を指定しない場合はカレントディレクトリの .env を読み込み、存在しなくてもエラーにしません。
// 既に設定されている環境変数は上書きしません。
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && (len(files) > 0 || !errors.Is(err, fs.ErrNotExist)) {
		return nil, fmt.Errorf("%w: load env file: %v", ErrConfiguration, err)
	}

	p := &parser{}
	cfg := &Config{
		Addr:         utils.GetEnvDefault("ADDR", "localhost"),
		Port:         utils.GetEnvDefault("PORT", "9090"),
		LogLevel:     p.getLevel("LOG_LEVEL", "info"),
		TurnTimeout:  p.getDuration("TURN_TIMEOUT", "1s"),
		PingInterval: p.getDuration("PING_INTERVAL", "5s"),
		IdleTimeout:  p.getDuration("IDLE_TIMEOUT", "30s"),
		Seed:         uint64(p.getInt("SEED", "1")),
		TokenSecret:  os.Getenv("BOT_TOKEN_SECRET"),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ServiceName:  utils.GetEnvDefault("SERVICE_NAME", "botarena"),
	}
	if tps := p.getFloat("TPS", "0"); tps > 0 {
		cfg.TickInterval = time.Duration(float64(time.Second) / tps)
	}

	rules := engine.DefaultRules()
	rules.ArenaWidth = p.getFloat("ARENA_WIDTH", strconv.FormatFloat(rules.ArenaWidth, 'f', -1, 64))
	rules.ArenaHeight = p.getFloat("ARENA_HEIGHT", strconv.FormatFloat(rules.ArenaHeight, 'f', -1, 64))
	rules.GunCoolingRate = p.getFloat("GUN_COOLING_RATE", strconv.FormatFloat(rules.GunCoolingRate, 'f', -1, 64))
	rules.MaxTicks = p.getInt("MAX_TICKS", "0")
	rules.InactivityTicks = p.getInt("INACTIVITY_TICKS", strconv.Itoa(rules.InactivityTicks))
	rules.DisconnectGraceTicks = p.getInt("DISCONNECT_GRACE_TICKS", strconv.Itoa(rules.DisconnectGraceTicks))
	recovery, err := engine.ParseWallRecovery(utils.GetEnvDefault("WALL_RECOVERY", "clamp"))
	if err != nil {
		p.fail(err)
	}
	rules.WallRecovery = recovery
	cfg.Rules = rules

	if p.err != nil {
		return nil, p.err
	}
	if cfg.TickInterval == 0 && cfg.TurnTimeout <= 0 {
		// 指示の揃わないティックを打ち切る期限がなくなる
		return nil, fmt.Errorf("%w: TURN_TIMEOUT must be positive when TPS is not set, got %v", ErrConfiguration, cfg.TurnTimeout)
	}
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}

	if cfg.Roster, err = loadRoster(); err != nil {
		return nil, err
	}
	if path := os.Getenv("WALLS_FILE"); path != "" {
		if cfg.Walls, err = LoadWalls(path); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// loadRoster は ROSTER_FILE からロスターを読み込みます。
// 未指定の場合は ROSTER のカンマ区切りの名前を使います。
func loadRoster() ([]engine.BotSpec, error) {
	if path := os.Getenv("ROSTER_FILE"); path != "" {
		return LoadRoster(path)
	}
	var roster []engine.BotSpec
	for _, name := range strings.Split(utils.GetEnvDefault("ROSTER", "bot-0,bot-1,bot-2"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		roster = append(roster, engine.BotSpec{Name: name})
	}
	if len(roster) == 0 {
		return nil, fmt.Errorf("%w: empty roster", ErrConfiguration)
	}
	return roster, nil
}

type rosterEntry struct {
	Name  string `json:"name"`
	Team  string `json:"team"`
	Start *struct {
		X         float64 `json:"x"`
		Y         float64 `json:"y"`
		Direction float64 `json:"direction"`
	} `json:"start"`
}

// LoadRoster はJSONのロスターファイルを読み込みます。
func LoadRoster(path string) ([]engine.BotSpec, error) {
	var entries []rosterEntry
	if err := readJSON(path, &entries); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty roster in %s", ErrConfiguration, path)
	}
	roster := make([]engine.BotSpec, 0, len(entries))
	for _, e := range entries {
		spec := engine.BotSpec{Name: e.Name, Team: e.Team}
		if e.Start != nil {
			spec.Start = &engine.StartPosition{X: e.Start.X, Y: e.Start.Y, Direction: e.Start.Direction}
		}
		roster = append(roster, spec)
	}
	return roster, nil
}

type wallEntry struct {
	ID       int     `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation float64 `json:"rotation"`
	Color    string  `json:"color"`
}

// LoadWalls はJSONの壁定義ファイルを読み込みます。
func LoadWalls(path string) ([]engine.WallSpec, error) {
	var entries []wallEntry
	if err := readJSON(path, &entries); err != nil {
		return nil, err
	}
	walls := make([]engine.WallSpec, 0, len(entries))
	seen := make(map[int]struct{}, len(entries))
	for i, e := range entries {
		if e.Width <= 0 || e.Height <= 0 {
			return nil, fmt.Errorf("%w: wall %d has non-positive size", ErrConfiguration, i)
		}
		if e.ID != 0 {
			if _, dup := seen[e.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate wall id %d", ErrConfiguration, e.ID)
			}
			seen[e.ID] = struct{}{}
		}
		walls = append(walls, engine.WallSpec{
			ID:       engine.WallID(e.ID),
			X:        e.X,
			Y:        e.Y,
			Width:    e.Width,
			Height:   e.Height,
			Rotation: e.Rotation,
			Color:    e.Color,
		})
	}
	return walls, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// parser は最初のエラーだけを保持します。
type parser struct {
	err error
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

func (p *parser) getFloat(key, def string) float64 {
	raw := utils.GetEnvDefault(key, def)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !utils.IsFinite(v) {
		p.fail(fmt.Errorf("%w: %s=%q is not a finite number", ErrConfiguration, key, raw))
		return 0
	}
	return v
}

func (p *parser) getInt(key, def string) int {
	raw := utils.GetEnvDefault(key, def)
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, key, raw))
		return 0
	}
	return v
}

func (p *parser) getDuration(key, def string) time.Duration {
	raw := utils.GetEnvDefault(key, def)
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(fmt.Errorf("%w: %s=%q is not a duration", ErrConfiguration, key, raw))
		return 0
	}
	return v
}

func (p *parser) getLevel(key, def string) slog.Level {
	raw := utils.GetEnvDefault(key, def)
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		p.fail(fmt.Errorf("%w: %s=%q is not a log level", ErrConfiguration, key, raw))
		return slog.LevelInfo
	}
	return level
}

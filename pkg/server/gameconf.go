package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. DENNIS_TELNET_PORT.
const EnvPrefix = "DENNIS_"

// GameConf holds game-level configuration parameters.
type GameConf struct {
	// --- Identity ---
	MudName     string `yaml:"mud_name" env:"NAME"`
	StartRoom   int    `yaml:"start_room" env:"START_ROOM"`
	DefaultLang string `yaml:"default_lang" env:"DEFAULT_LANG"`

	// --- Transports ---
	Telnet TelnetConf `yaml:"telnet" envPrefix:"TELNET_"`
	Web    WebConf    `yaml:"web" envPrefix:"WEB_"`

	// --- Storage ---
	Database DatabaseConf `yaml:"database" envPrefix:"DB_"`
	TextDir  string       `yaml:"text_dir" env:"TEXT_DIR"`

	// --- World tick ---
	TickInterval int        `yaml:"tick_interval" env:"TICK_INTERVAL"` // seconds
	Spirit       SpiritConf `yaml:"spirit" envPrefix:"SPIRIT_"`
	TelekeySport int        `yaml:"telekey_sport" env:"TELEKEY_SPORT"` // 1-in-N chance; 0 disables

	// --- Commands ---
	Disabled    []string `yaml:"disabled" env:"DISABLED" envSeparator:","`
	HelpColumns int      `yaml:"help_columns" env:"HELP_COLUMNS"`
	MaxFreq     int      `yaml:"max_frequency" env:"MAX_FREQUENCY"`

	// --- Lifecycle ---
	ShutdownDelay int `yaml:"shutdown_delay" env:"SHUTDOWN_DELAY"` // seconds

	// --- Auth ---
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTExpiry int    `yaml:"jwt_expiry" env:"JWT_EXPIRY"` // seconds

	// Extra MSSP fields reported alongside the built-in ones.
	MSSP map[string]string `yaml:"mssp"`
}

type TelnetConf struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Host    string `yaml:"host" env:"HOST"`
	Port    int    `yaml:"port" env:"PORT"`
	MCCP    bool   `yaml:"mccp" env:"MCCP"`
}

type WebConf struct {
	Enabled     bool     `yaml:"enabled" env:"ENABLED"`
	Host        string   `yaml:"host" env:"HOST"`
	Port        int      `yaml:"port" env:"PORT"`
	CertFile    string   `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile     string   `yaml:"key_file" env:"KEY_FILE"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	Metrics     bool     `yaml:"metrics" env:"METRICS"`
	RateLimit   int      `yaml:"rate_limit" env:"RATE_LIMIT"` // HTTP requests per minute per IP, 0 = unlimited
}

type DatabaseConf struct {
	Filename string `yaml:"filename" env:"FILENAME"`
	Backups  int    `yaml:"backups" env:"BACKUPS"` // rotated copies kept at startup
}

type SpiritConf struct {
	Max       int `yaml:"max" env:"MAX"`
	Rate      int `yaml:"rate" env:"RATE"`             // regained per tick
	GhostCost int `yaml:"ghost_cost" env:"GHOST_COST"` // drained per tick while a ghost
}

// DefaultGameConf returns a GameConf with the stock defaults.
func DefaultGameConf() *GameConf {
	return &GameConf{
		MudName:     "Dennis",
		StartRoom:   0,
		DefaultLang: "en",
		Telnet: TelnetConf{
			Enabled: true,
			Host:    "",
			Port:    4000,
			MCCP:    true,
		},
		Web: WebConf{
			Enabled:   false,
			Port:      4001,
			Metrics:   true,
			RateLimit: 120,
		},
		Database: DatabaseConf{
			Filename: "dennis.db",
			Backups:  3,
		},
		TextDir:       "text",
		TickInterval:  60,
		Spirit:        SpiritConf{Max: 100, Rate: 5, GhostCost: 15},
		TelekeySport:  4,
		HelpColumns:   4,
		MaxFreq:       1000,
		ShutdownDelay: 5,
		JWTExpiry:     86400,
	}
}

// LoadGameConf reads a YAML config file over the defaults.
func LoadGameConf(path string) (*GameConf, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config %s: unsupported format %q", path, ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	gc := DefaultGameConf()
	if err := yaml.Unmarshal(data, gc); err != nil {
		return nil, fmt.Errorf("parsing YAML %s: %w", path, err)
	}

	// Resolve the text directory relative to the config file
	if gc.TextDir != "" && !filepath.IsAbs(gc.TextDir) {
		gc.TextDir = filepath.Join(filepath.Dir(path), gc.TextDir)
	}
	return gc, nil
}

// ApplyEnv overrides fields from DENNIS_* environment variables. Unset
// variables leave the current value alone.
func (gc *GameConf) ApplyEnv() error {
	if err := env.ParseWithOptions(gc, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}

// TickEvery returns the world tick period, or zero when ticking is off.
func (gc *GameConf) TickEvery() time.Duration {
	if gc.TickInterval <= 0 {
		return 0
	}
	return time.Duration(gc.TickInterval) * time.Second
}

// IsDisabled reports whether a command name is in the disabled list.
func (gc *GameConf) IsDisabled(name string) bool {
	for _, d := range gc.Disabled {
		if strings.EqualFold(strings.TrimSpace(d), name) {
			return true
		}
	}
	return false
}

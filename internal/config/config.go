// Package config loads the server configuration from a JSON file and lets
// environment variables override it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
)

const EnvPrefix = "DUNGEON_"

type Duration struct{ time.Duration }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		return d.UnmarshalText([]byte(value))
	default:
		return errors.New("invalid duration")
	}
}

func (d *Duration) UnmarshalText(text []byte) (err error) {
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type PostgresConfig struct {
	Host     string `json:"host" env:"HOST"`
	Port     uint   `json:"port" env:"PORT"`
	User     string `json:"user" env:"USER"`
	Password string `json:"password" env:"PASSWORD"`
	DbName   string `json:"db_name" env:"DB_NAME"`
	SSLMode  string `json:"ssl_mode" env:"SSL_MODE"`
}

func (p PostgresConfig) sslMode() string {
	if p.SSLMode == "" {
		return "disable"
	}
	return p.SSLMode
}

// DSN is the keyword/value form understood by pgx.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DbName, p.sslMode(),
	)
}

// URL is the form understood by the migrator.
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User), url.QueryEscape(p.Password),
		p.Host, p.Port, p.DbName, p.sslMode(),
	)
}

type JwtConfig struct {
	TokenLifetime  Duration `json:"token_lifetime" env:"TOKEN_LIFETIME"`
	PrivateKeyPath string   `json:"private_key_path" env:"PRIVATE_KEY_PATH"`
	PublicKeyPath  string   `json:"public_key_path" env:"PUBLIC_KEY_PATH"`
}

type LogConfig struct {
	// File, when set, also writes JSON logs to a rotated file.
	File       string `json:"file" env:"FILE"`
	MaxSizeMB  int    `json:"max_size_mb" env:"MAX_SIZE_MB"`
	MaxBackups int    `json:"max_backups" env:"MAX_BACKUPS"`
	MaxAgeDays int    `json:"max_age_days" env:"MAX_AGE_DAYS"`
}

type GameConfig struct {
	MinSize        int      `json:"min_size" env:"MIN_SIZE"`
	MinMines       int      `json:"min_mines" env:"MIN_MINES"`
	MaxHP          int      `json:"max_hp" env:"MAX_HP"`
	TicksPerHP     int      `json:"ticks_per_hp" env:"TICKS_PER_HP"`
	SuperStarLimit int      `json:"super_star_limit" env:"SUPER_STAR_LIMIT"`
	XRayDuration   Duration `json:"xray_duration" env:"XRAY_DURATION"`
	MaxSessions    int      `json:"max_sessions" env:"MAX_SESSIONS"`
}

type Config struct {
	Mode     string         `json:"mode" env:"MODE"`
	Addr     string         `json:"addr" env:"ADDR"`
	Domain   string         `json:"domain" env:"DOMAIN"`
	Postgres PostgresConfig `json:"postgres" envPrefix:"PG_"`
	Jwt      JwtConfig      `json:"jwt" envPrefix:"JWT_"`
	Log      LogConfig      `json:"log" envPrefix:"LOG_"`
	Game     GameConfig     `json:"game" envPrefix:"GAME_"`
}

func Default() Config {
	return Config{
		Mode: "development",
		Addr: ":8080",
		Postgres: PostgresConfig{
			Host: "localhost",
			Port: 5432,
		},
		Jwt: JwtConfig{
			TokenLifetime: Duration{24 * time.Hour},
		},
		Log: LogConfig{
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Game: GameConfig{
			MinSize:        8,
			MinMines:       10,
			MaxHP:          5,
			TicksPerHP:     10,
			SuperStarLimit: 3,
			XRayDuration:   Duration{3 * time.Second},
			MaxSessions:    1024,
		},
	}
}

// Load reads the JSON file at path over the defaults and then applies
// DUNGEON_* environment variables. An empty path skips the file.
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
		if err := json.Unmarshal(b, &config); err != nil {
			return nil, fmt.Errorf("unable to parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("unable to apply env overrides: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c Config) Validate() error {
	g := c.Game
	switch {
	case g.MinSize <= 0 || g.MinSize > 16:
		return fmt.Errorf("game.min_size must be within 1..16, got %d", g.MinSize)
	case g.MinMines <= 0 || g.MinMines >= g.MinSize*g.MinSize:
		return fmt.Errorf("game.min_mines must leave a free square, got %d", g.MinMines)
	case g.MaxHP <= 0:
		return fmt.Errorf("game.max_hp must be positive, got %d", g.MaxHP)
	case g.TicksPerHP <= 0:
		return fmt.Errorf("game.ticks_per_hp must be positive, got %d", g.TicksPerHP)
	case g.SuperStarLimit < 0:
		return fmt.Errorf("game.super_star_limit must not be negative, got %d", g.SuperStarLimit)
	}
	return nil
}

func (c Config) Fields() logrus.Fields {
	return map[string]any{
		"mode":                 c.Mode,
		"addr":                 c.Addr,
		"domain":               c.Domain,
		"pg_host":              c.Postgres.Host,
		"pg_port":              c.Postgres.Port,
		"pg_user":              c.Postgres.User,
		"pg_db_name":           c.Postgres.DbName,
		"jwt_token_lifetime":   c.Jwt.TokenLifetime.String(),
		"jwt_private_key_path": c.Jwt.PrivateKeyPath,
		"jwt_public_key_path":  c.Jwt.PublicKeyPath,
		"log_file":             c.Log.File,
		"game_min_size":        c.Game.MinSize,
		"game_min_mines":       c.Game.MinMines,
		"game_max_hp":          c.Game.MaxHP,
		"game_ticks_per_hp":    c.Game.TicksPerHP,
		"game_super_stars":     c.Game.SuperStarLimit,
		"game_xray_duration":   c.Game.XRayDuration.String(),
		"game_max_sessions":    c.Game.MaxSessions,
	}
}

func (c Config) Production() bool {
	return c.Mode == "production"
}

func (c Config) Development() bool {
	return c.Mode != "production"
}

func (c Config) HttpCookieSameSite() http.SameSite {
	if c.Development() {
		return http.SameSiteNoneMode
	}
	return http.SameSiteStrictMode
}

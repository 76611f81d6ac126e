// Package config handles configuration loading for optionocean.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/seenimoa/optionocean/internal/camera"
	"github.com/seenimoa/optionocean/internal/scene"
	"github.com/seenimoa/optionocean/pkg/models"
)

// EnvPrefix is prepended to environment overrides, e.g. OPTIONOCEAN_SERVER_PORT.
const EnvPrefix = "OPTIONOCEAN"

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  yaml:"server"`
	Data    DataConfig    `mapstructure:"data"    yaml:"data"`
	View    ViewConfig    `mapstructure:"view"    yaml:"view"`
	Grid    GridConfig    `mapstructure:"grid"    yaml:"grid"`
	Camera  CameraConfig  `mapstructure:"camera"  yaml:"camera"`
	UI      UIConfig      `mapstructure:"ui"      yaml:"ui"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
	ServeUI     bool     `mapstructure:"serve_ui"     yaml:"serve_ui"`
	FrameRate   int      `mapstructure:"frame_rate"   yaml:"frame_rate"` // frames per second streamed to clients; 0 disables animation
}

// DataConfig holds quote-file loading settings.
type DataConfig struct {
	DefaultFile     string `mapstructure:"default_file"      yaml:"default_file"`
	FetchTimeoutSec int    `mapstructure:"fetch_timeout_sec" yaml:"fetch_timeout_sec"`
	MaxUploadMB     int    `mapstructure:"max_upload_mb"     yaml:"max_upload_mb"`
	CacheTTL        int    `mapstructure:"cache_ttl"         yaml:"cache_ttl"` // seconds
}

// ViewConfig holds the startup view parameters.
type ViewConfig struct {
	Metric    string  `mapstructure:"metric"     yaml:"metric"`
	ShowCalls bool    `mapstructure:"show_calls" yaml:"show_calls"`
	ShowPuts  bool    `mapstructure:"show_puts"  yaml:"show_puts"`
	Glow      float64 `mapstructure:"glow"       yaml:"glow"`
	WaveSpeed float64 `mapstructure:"wave_speed" yaml:"wave_speed"`
	Alpha     float64 `mapstructure:"alpha"      yaml:"alpha"`
	Color1    string  `mapstructure:"color1"     yaml:"color1"`
	Color2    string  `mapstructure:"color2"     yaml:"color2"`
	Blend     string  `mapstructure:"blend"      yaml:"blend"` // "rgb", "lab" or "hcl"
}

// GridConfig holds marker layout settings.
type GridConfig struct {
	SpacingX     float64 `mapstructure:"spacing_x"     yaml:"spacing_x"`
	SpacingZ     float64 `mapstructure:"spacing_z"     yaml:"spacing_z"`
	MarkerRadius float64 `mapstructure:"marker_radius" yaml:"marker_radius"`
}

// CameraConfig holds camera and flight settings.
type CameraConfig struct {
	FOV         float64   `mapstructure:"fov"          yaml:"fov"`
	Position    []float64 `mapstructure:"position"     yaml:"position"`
	MinDistance float64   `mapstructure:"min_distance" yaml:"min_distance"`
	MaxDistance float64   `mapstructure:"max_distance" yaml:"max_distance"`
	MoveSpeed   float64   `mapstructure:"move_speed"   yaml:"move_speed"` // units per second
	LookSpeed   float64   `mapstructure:"look_speed"   yaml:"look_speed"` // radians per second
	MoveBoost   float64   `mapstructure:"move_boost"   yaml:"move_boost"`
	LookBoost   float64   `mapstructure:"look_boost"   yaml:"look_boost"`
}

// UIConfig holds browser presentation settings.
type UIConfig struct {
	Title        string `mapstructure:"title"          yaml:"title"`
	TitleFadeSec int    `mapstructure:"title_fade_sec" yaml:"title_fade_sec"`
	Background   string `mapstructure:"background"     yaml:"background"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.optionocean/config.yaml (home directory)
//  3. /etc/optionocean/config.yaml (system)
//
// Environment variables override config file values.
// Format: OPTIONOCEAN_<SECTION>_<KEY>, e.g., OPTIONOCEAN_SERVER_PORT
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".optionocean"))
	v.AddConfigPath("/etc/optionocean")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return &cfg, nil
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:8080"})
	v.SetDefault("server.serve_ui", true)
	v.SetDefault("server.frame_rate", 30)

	// Data defaults
	v.SetDefault("data.default_file", "spy_quotedata.csv")
	v.SetDefault("data.fetch_timeout_sec", 15)
	v.SetDefault("data.max_upload_mb", 32)
	v.SetDefault("data.cache_ttl", 300) // 5 minutes

	// View defaults
	v.SetDefault("view.metric", models.MetricAsk)
	v.SetDefault("view.show_calls", true)
	v.SetDefault("view.show_puts", true)
	v.SetDefault("view.glow", 1.0)
	v.SetDefault("view.wave_speed", 1.0)
	v.SetDefault("view.alpha", 0.7)
	v.SetDefault("view.color1", "#00ffff")
	v.SetDefault("view.color2", "#ff50b4")
	v.SetDefault("view.blend", "rgb")

	// Grid defaults
	v.SetDefault("grid.spacing_x", 14.0)
	v.SetDefault("grid.spacing_z", 6.0)
	v.SetDefault("grid.marker_radius", 2.5)

	// Camera defaults
	v.SetDefault("camera.fov", 60.0)
	v.SetDefault("camera.position", []float64{0, 80, 180})
	v.SetDefault("camera.min_distance", 40.0)
	v.SetDefault("camera.max_distance", 600.0)
	v.SetDefault("camera.move_speed", 90.0)
	v.SetDefault("camera.look_speed", 1.5)
	v.SetDefault("camera.move_boost", 5.0)
	v.SetDefault("camera.look_boost", 2.0)

	// UI defaults
	v.SetDefault("ui.title", "Option Particle Ocean")
	v.SetDefault("ui.title_fade_sec", 15)
	v.SetDefault("ui.background", "#101428")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate rejects values the viewer cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.FrameRate < 0 || c.Server.FrameRate > 240 {
		return fmt.Errorf("server.frame_rate %d out of range [0,240]", c.Server.FrameRate)
	}
	if c.Data.MaxUploadMB <= 0 {
		return fmt.Errorf("data.max_upload_mb must be positive")
	}
	if c.Data.FetchTimeoutSec <= 0 {
		return fmt.Errorf("data.fetch_timeout_sec must be positive")
	}
	if c.Data.CacheTTL < 0 {
		return fmt.Errorf("data.cache_ttl must not be negative")
	}
	if !models.IsKnownMetric(c.View.Metric) {
		return fmt.Errorf("view.metric %q is not one of %s", c.View.Metric, strings.Join(models.MetricNames, ", "))
	}
	if err := inRange("view.glow", c.View.Glow, 0.1, 3); err != nil {
		return err
	}
	if err := inRange("view.wave_speed", c.View.WaveSpeed, 0.1, 3); err != nil {
		return err
	}
	if err := inRange("view.alpha", c.View.Alpha, 0.1, 1); err != nil {
		return err
	}
	for key, hex := range map[string]string{
		"view.color1":   c.View.Color1,
		"view.color2":   c.View.Color2,
		"ui.background": c.UI.Background,
	} {
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("%s %q is not a hex color", key, hex)
		}
	}
	if _, err := scene.ParseBlendSpace(c.View.Blend); err != nil {
		return fmt.Errorf("view.blend: %w", err)
	}
	if c.Grid.SpacingX <= 0 || c.Grid.SpacingZ <= 0 || c.Grid.MarkerRadius <= 0 {
		return fmt.Errorf("grid spacing and marker_radius must be positive")
	}
	if len(c.Camera.Position) != 3 {
		return fmt.Errorf("camera.position needs 3 components, got %d", len(c.Camera.Position))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera.fov %.1f out of range (0,180)", c.Camera.FOV)
	}
	if c.Camera.MinDistance <= 0 || c.Camera.MaxDistance < c.Camera.MinDistance {
		return fmt.Errorf("camera distance limits [%.1f,%.1f] invalid", c.Camera.MinDistance, c.Camera.MaxDistance)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q unknown", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format %q unknown", c.Logging.Format)
	}
	return nil
}

func inRange(key string, v, min, max float64) error {
	if v < min || v > max {
		return fmt.Errorf("%s %.2f out of range [%.1f,%.1f]", key, v, min, max)
	}
	return nil
}

// Params converts the view section into startup view parameters. Call
// Validate first.
func (v ViewConfig) Params() scene.ViewParameters {
	p := scene.DefaultViewParameters()
	p.Metric = v.Metric
	p.ShowCalls, p.ShowPuts = v.ShowCalls, v.ShowPuts
	p.Glow, p.WaveSpeed, p.Alpha = v.Glow, v.WaveSpeed, v.Alpha
	if c, err := colorful.Hex(v.Color1); err == nil {
		p.Color1 = c
	}
	if c, err := colorful.Hex(v.Color2); err == nil {
		p.Color2 = c
	}
	if b, err := scene.ParseBlendSpace(v.Blend); err == nil {
		p.Blend = b
	}
	return p
}

// Layout converts the grid section into a scene layout.
func (g GridConfig) Layout() scene.Layout {
	return scene.Layout{SpacingX: g.SpacingX, SpacingZ: g.SpacingZ, Radius: g.MarkerRadius}
}

// Config converts the camera section into camera parameters.
func (c CameraConfig) Config() camera.Config {
	cc := camera.DefaultConfig()
	cc.FOV = c.FOV
	if len(c.Position) == 3 {
		cc.Position = mgl64.Vec3{c.Position[0], c.Position[1], c.Position[2]}
	}
	cc.MinDistance, cc.MaxDistance = c.MinDistance, c.MaxDistance
	cc.MoveSpeed, cc.LookSpeed = c.MoveSpeed, c.LookSpeed
	cc.MoveBoost, cc.LookBoost = c.MoveBoost, c.LookBoost
	return cc
}

// Dump renders the configuration as YAML.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

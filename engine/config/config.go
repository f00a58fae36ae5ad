// Package config loads the scene's runtime settings.
//
// Values come from built-in defaults, then an optional YAML file, then
// LULLABY_* environment variables (a .env file in the working directory is
// read first). Nested keys map to env names with dots replaced by
// underscores, e.g. sorting.base_order -> LULLABY_SORTING_BASE_ORDER.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/1siamBot/lullaby/engine/render3d"
	"github.com/1siamBot/lullaby/engine/sorting"
	"github.com/1siamBot/lullaby/engine/systems"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "LULLABY"

var (
	ErrInvalidWindow = errors.New("config: window size and tick rate must be positive")
	ErrInvalidLog    = errors.New("config: unknown log level or format")
	ErrInvalidTimes  = errors.New("config: interaction range and hide times must not be negative")
)

// WindowConfig holds the window and simulation clock settings.
type WindowConfig struct {
	Width    int     `mapstructure:"width"`
	Height   int     `mapstructure:"height"`
	Title    string  `mapstructure:"title"`
	TickRate float64 `mapstructure:"tick_rate"` // simulation ticks per second
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full runtime configuration.
type Config struct {
	Window  WindowConfig            `mapstructure:"window"`
	Scene   string                  `mapstructure:"scene"`  // scene file; empty means the built-in scene
	Assets  string                  `mapstructure:"assets"` // sprite sheet directory
	Sorting sorting.Settings        `mapstructure:"sorting"`
	Player  systems.PlayerSettings  `mapstructure:"player"`
	Camera  render3d.CameraSettings `mapstructure:"camera"`
	Snow    render3d.SnowSettings   `mapstructure:"snow"`
	Log     LogConfig               `mapstructure:"log"`
	Metrics MetricsConfig           `mapstructure:"metrics"`

	Interaction systems.InteractionSettings `mapstructure:"interaction"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Window: WindowConfig{
			Width:    1280,
			Height:   720,
			Title:    "Lullaby",
			TickRate: 60,
		},
		Assets:  "assets",
		Sorting: sorting.DefaultSettings(),
		Player:  systems.DefaultPlayerSettings(),
		Camera:  render3d.DefaultCameraSettings(),
		Snow:    render3d.DefaultSnowSettings(),
		Log:     LogConfig{Level: "info", Format: "text"},

		Interaction: systems.DefaultInteractionSettings(),
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}
	return load(path)
}

func load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if err := v.ReadConfig(f); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it even when
// the file does not mention it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.tick_rate", d.Window.TickRate)
	v.SetDefault("scene", d.Scene)
	v.SetDefault("assets", d.Assets)

	v.SetDefault("sorting.base_order", d.Sorting.BaseOrder)
	v.SetDefault("sorting.min_order", d.Sorting.MinOrder)
	v.SetDefault("sorting.max_order", d.Sorting.MaxOrder)
	v.SetDefault("sorting.tie_break", d.Sorting.TieBreak)
	v.SetDefault("sorting.every_frame", d.Sorting.EveryFrame)
	v.SetDefault("sorting.interval", d.Sorting.Interval)
	v.SetDefault("sorting.debug", d.Sorting.Debug)

	v.SetDefault("player.speed", d.Player.Speed)
	v.SetDefault("player.jump_force", d.Player.JumpForce)
	v.SetDefault("player.min_jump_spacing", d.Player.MinJumpSpacing)
	v.SetDefault("player.jump_buffer", d.Player.JumpBuffer)
	v.SetDefault("player.long_press", d.Player.LongPress)
	v.SetDefault("player.smooth_time", d.Player.SmoothTime)
	v.SetDefault("player.crouch_factor", d.Player.CrouchFactor)
	v.SetDefault("player.run_factor", d.Player.RunFactor)
	v.SetDefault("player.gravity", d.Player.Gravity)

	v.SetDefault("camera.distance", d.Camera.Distance)
	v.SetDefault("camera.crouch_factor", d.Camera.CrouchFactor)
	v.SetDefault("camera.lerp_speed", d.Camera.LerpSpeed)
	v.SetDefault("camera.pitch", d.Camera.Pitch)
	v.SetDefault("camera.yaw", d.Camera.Yaw)
	v.SetDefault("camera.fov", d.Camera.FOV)
	v.SetDefault("camera.sway_amplitude", d.Camera.SwayAmplitude)
	v.SetDefault("camera.sway_speed", d.Camera.SwaySpeed)
	v.SetDefault("camera.sway_phase", d.Camera.SwayPhase)

	v.SetDefault("snow.enabled", d.Snow.Enabled)
	v.SetDefault("snow.rate", d.Snow.Rate)
	v.SetDefault("snow.area_x", d.Snow.AreaX)
	v.SetDefault("snow.area_z", d.Snow.AreaZ)
	v.SetDefault("snow.height", d.Snow.Height)
	v.SetDefault("snow.fall_speed", d.Snow.FallSpeed)
	v.SetDefault("snow.min_size", d.Snow.MinSize)
	v.SetDefault("snow.max_size", d.Snow.MaxSize)
	v.SetDefault("snow.wind_yaw", d.Snow.WindYaw)
	v.SetDefault("snow.wind_strength", d.Snow.WindStrength)
	v.SetDefault("snow.fade_time", d.Snow.FadeTime)
	v.SetDefault("snow.max_flakes", d.Snow.MaxFlakes)
	v.SetDefault("snow.seed", d.Snow.Seed)

	v.SetDefault("interaction.range", d.Interaction.Range)
	v.SetDefault("interaction.auto_hide", d.Interaction.AutoHide)
	v.SetDefault("interaction.leave_hide", d.Interaction.LeaveHide)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.addr", d.Metrics.Addr)
}

// Validate checks the values the scene cannot run without.
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 || c.Window.TickRate <= 0 {
		return fmt.Errorf("%w: %dx%d @ %g", ErrInvalidWindow, c.Window.Width, c.Window.Height, c.Window.TickRate)
	}
	if err := c.Sorting.Validate(); err != nil {
		return fmt.Errorf("config: sorting: %w", err)
	}
	if i := c.Interaction; i.Range < 0 || i.AutoHide < 0 || i.LeaveHide < 0 {
		return fmt.Errorf("%w: range %g auto_hide %g leave_hide %g", ErrInvalidTimes, i.Range, i.AutoHide, i.LeaveHide)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("%w: format %q", ErrInvalidLog, c.Log.Format)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: level %q", ErrInvalidLog, s)
}

// NewLogger returns a slog logger writing to out as configured.
func NewLogger(c LogConfig, out io.Writer) *slog.Logger {
	lvl, err := parseLevel(c.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/flux/engine/assets"
	"github.com/spaghettifunk/flux/engine/renderer"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const DefaultConfigFile = "flux.toml"

type LogConfig struct {
	Level   string `toml:"level"`
	History bool   `toml:"history"`
}

type AssetsSection struct {
	Dir                string `toml:"dir"`
	Watch              bool   `toml:"watch"`
	QueueCapacity      int    `toml:"queue_capacity"`
	TransferBuffers    int    `toml:"transfer_buffers"`
	TransferBufferSize int    `toml:"transfer_buffer_size"`
	NameTableCapacity  int    `toml:"name_table_capacity"`
	FlipTexturesY      bool   `toml:"flip_textures_y"`
}

type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

type RendererConfig struct {
	// Backend is opengl or headless.
	Backend            string  `toml:"backend"`
	ShadowMapSize      int     `toml:"shadow_map_size"`
	StableCascades     bool    `toml:"stable_cascades"`
	CascadeLambda      float32 `toml:"cascade_lambda"`
	ShadowDistance     float32 `toml:"shadow_distance"`
	Exposure           float32 `toml:"exposure"`
	FXAA               bool    `toml:"fxaa"`
	DebugShadowCascade int     `toml:"debug_shadow_cascade"`
	VSync              bool    `toml:"vsync"`
	MaxCommands        int     `toml:"max_commands"`
	ArenaSize          int     `toml:"arena_size"`
}

/**
 * @brief Engine configuration as read from a TOML file. Keys missing from the
 * file keep their DefaultConfig value.
 */
type Config struct {
	Application ApplicationConfig `toml:"application"`
	Log         LogConfig         `toml:"log"`
	Assets      AssetsSection     `toml:"assets"`
	Jobs        JobsConfig        `toml:"jobs"`
	Renderer    RendererConfig    `toml:"renderer"`
}

func DefaultConfig() Config {
	a := assets.DefaultAssetsConfig()
	r := renderer.DefaultSettings()
	return Config{
		Application: ApplicationConfig{
			Name:        "Flux",
			StartPosX:   100,
			StartPosY:   100,
			StartWidth:  1280,
			StartHeight: 720,
		},
		Log: LogConfig{Level: "info"},
		Assets: AssetsSection{
			Dir:                a.Dir,
			QueueCapacity:      a.QueueCapacity,
			TransferBuffers:    a.TransferBuffers,
			TransferBufferSize: a.TransferBufferSize,
			NameTableCapacity:  a.NameTableCapacity,
			FlipTexturesY:      a.FlipTexturesY,
		},
		Jobs: JobsConfig{Workers: 4, QueueSize: 256},
		Renderer: RendererConfig{
			Backend:            "opengl",
			ShadowMapSize:      r.ShadowMapSize,
			StableCascades:     r.StableCascades,
			CascadeLambda:      r.CascadeLambda,
			ShadowDistance:     r.ShadowDistance,
			Exposure:           r.Exposure,
			FXAA:               r.FXAA,
			DebugShadowCascade: r.DebugCascade,
			VSync:              true,
			MaxCommands:        renderer.DefaultMaxCommands,
			ArenaSize:          renderer.DefaultArenaSize,
		},
	}
}

// LoadConfig reads path on top of DefaultConfig. A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	if err := ParseConfig(data, &config); err != nil {
		return config, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

// ParseConfig decodes TOML into config, rejecting unknown keys, and validates the result.
func ParseConfig(data []byte, config *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(config); err != nil {
		return err
	}
	return config.Validate()
}

func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if c.Application.StartWidth == 0 || c.Application.StartHeight == 0 {
		return invalid("window size %dx%d", c.Application.StartWidth, c.Application.StartHeight)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return invalid("log level %q", c.Log.Level)
	}

	a := c.Assets
	if a.QueueCapacity <= 0 || a.TransferBuffers <= 0 || a.TransferBufferSize <= 0 || a.NameTableCapacity <= 0 {
		return invalid("asset capacities must be positive")
	}
	if a.TransferBuffers > a.QueueCapacity {
		return invalid("transfer_buffers %d exceeds queue_capacity %d", a.TransferBuffers, a.QueueCapacity)
	}
	if c.Jobs.Workers <= 0 || c.Jobs.QueueSize < 0 {
		return invalid("jobs need at least one worker and a non-negative queue")
	}

	r := c.Renderer
	switch r.Backend {
	case "opengl", "headless":
	default:
		return invalid("unknown renderer backend %q", r.Backend)
	}
	if r.ShadowMapSize <= 0 || r.MaxCommands <= 0 || r.ArenaSize <= 0 {
		return invalid("renderer sizes must be positive")
	}
	if r.CascadeLambda < 0 || r.CascadeLambda > 1 {
		return invalid("cascade_lambda %v outside [0, 1]", r.CascadeLambda)
	}
	if r.ShadowDistance <= 0 || r.Exposure <= 0 {
		return invalid("shadow_distance and exposure must be positive")
	}
	return nil
}

func (c Config) AssetsConfig() assets.AssetsConfig {
	return assets.AssetsConfig{
		Dir:                c.Assets.Dir,
		Watch:              c.Assets.Watch,
		QueueCapacity:      c.Assets.QueueCapacity,
		TransferBuffers:    c.Assets.TransferBuffers,
		TransferBufferSize: c.Assets.TransferBufferSize,
		NameTableCapacity:  c.Assets.NameTableCapacity,
		FlipTexturesY:      c.Assets.FlipTexturesY,
	}
}

func (c Config) RendererSettings() renderer.Settings {
	s := renderer.DefaultSettings()
	s.ShadowMapSize = c.Renderer.ShadowMapSize
	s.StableCascades = c.Renderer.StableCascades
	s.CascadeLambda = c.Renderer.CascadeLambda
	s.ShadowDistance = c.Renderer.ShadowDistance
	s.Exposure = c.Renderer.Exposure
	s.FXAA = c.Renderer.FXAA
	s.DebugCascade = c.Renderer.DebugShadowCascade
	return s
}

// Encode renders c as TOML, used to write a starter config file.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

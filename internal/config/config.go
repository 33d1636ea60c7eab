package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type CameraSource string

const (
	CameraWebcam CameraSource = "webcam"
	CameraFile   CameraSource = "file"
)

type LocationSource string

const (
	LocationStatic LocationSource = "static"
	LocationGPSD   LocationSource = "gpsd"
	LocationNMEA   LocationSource = "nmea"
)

const (
	DefaultConfigName = "geocam"
	DefaultConfigPath = "geocam.yaml"
	EnvPrefix         = "GEOCAM"
)

var CameraSourcesList = [...]string{
	string(CameraWebcam),
	string(CameraFile),
}

type CameraConfig struct {
	Source       CameraSource  `mapstructure:"source"`
	Device       string        `mapstructure:"device"`
	FilePath     string        `mapstructure:"file_path"`
	FPS          uint          `mapstructure:"fps"`
	Width        int           `mapstructure:"width"`
	Height       int           `mapstructure:"height"`
	StartTimeout time.Duration `mapstructure:"start_timeout"`
}

type LocationConfig struct {
	Source     LocationSource `mapstructure:"source"`
	StaticLat  float64        `mapstructure:"static_lat"`
	StaticLon  float64        `mapstructure:"static_lon"`
	GPSDAddr   string         `mapstructure:"gpsd_addr"`
	SerialPort string         `mapstructure:"serial_port"`
	BaudRate   int            `mapstructure:"baud_rate"`
	Timeout    time.Duration  `mapstructure:"timeout"`
}

type TargetConfig struct {
	Default     string `mapstructure:"default"`
	RangePolicy string `mapstructure:"range_policy"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	mu   sync.RWMutex
	path string

	Camera   CameraConfig   `mapstructure:"camera"`
	Location LocationConfig `mapstructure:"location"`
	Target   TargetConfig   `mapstructure:"target"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera.source", string(CameraWebcam))
	v.SetDefault("camera.device", defaultDevice())
	v.SetDefault("camera.file_path", "")
	v.SetDefault("camera.fps", 24)
	v.SetDefault("camera.width", 0)
	v.SetDefault("camera.height", 0)
	v.SetDefault("camera.start_timeout", 10*time.Second)

	v.SetDefault("location.source", string(LocationStatic))
	v.SetDefault("location.static_lat", 0.0)
	v.SetDefault("location.static_lon", 0.0)
	v.SetDefault("location.gpsd_addr", "localhost:2947")
	v.SetDefault("location.serial_port", "")
	v.SetDefault("location.baud_rate", 9600)
	v.SetDefault("location.timeout", 15*time.Second)

	v.SetDefault("target.default", "")
	v.SetDefault("target.range_policy", "accept")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Load reads defaults, an optional .env, the config file and GEOCAM_* env.
// An empty path searches the working directory and $HOME/.config/geocam.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", DefaultConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.path = v.ConfigFileUsed()
	if cfg.path == "" {
		cfg.path = path
	}
	if cfg.path == "" {
		cfg.path = DefaultConfigPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func NewDefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{path: DefaultConfigPath}
	_ = v.Unmarshal(cfg)

	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errs []string

	switch c.Camera.Source {
	case CameraWebcam:
		if c.Camera.Device == "" {
			errs = append(errs, "camera.device is required for the webcam source")
		}
	case CameraFile:
		if c.Camera.FilePath == "" {
			errs = append(errs, "camera.file_path is required for the file source")
		}
	default:
		errs = append(errs, fmt.Sprintf("camera.source must be webcam or file, got %q", c.Camera.Source))
	}

	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		errs = append(errs, "camera.width and camera.height must not be negative")
	}
	if (c.Camera.Width == 0) != (c.Camera.Height == 0) {
		errs = append(errs, "camera.width and camera.height must both be set or both be 0")
	}
	if c.Camera.StartTimeout <= 0 {
		errs = append(errs, "camera.start_timeout must be positive")
	}

	switch c.Location.Source {
	case LocationStatic:
	case LocationGPSD:
		if c.Location.GPSDAddr == "" {
			errs = append(errs, "location.gpsd_addr is required for the gpsd source")
		}
	case LocationNMEA:
		if c.Location.SerialPort == "" {
			errs = append(errs, "location.serial_port is required for the nmea source")
		}
		if c.Location.BaudRate <= 0 {
			errs = append(errs, "location.baud_rate must be positive")
		}
	default:
		errs = append(errs, fmt.Sprintf("location.source must be static, gpsd or nmea, got %q", c.Location.Source))
	}

	if c.Location.Timeout <= 0 {
		errs = append(errs, "location.timeout must be positive")
	}

	switch strings.ToLower(c.Target.RangePolicy) {
	case "", "accept", "reject":
	default:
		errs = append(errs, fmt.Sprintf("target.range_policy must be accept or reject, got %q", c.Target.RangePolicy))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

func (c *Config) GetDevice() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.Device
}

func (c *Config) SetDevice(device string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Camera.Device = device
}

func (c *Config) GetFPS() uint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera.FPS
}

// GetTarget returns the target the session starts with. Edits made in the
// window stay in the session and are never written back.
func (c *Config) GetTarget() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Target.Default
}

// CameraSnapshot returns a copy safe to hand to another goroutine.
func (c *Config) CameraSnapshot() CameraConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Camera
}

// Save writes the current values to path as YAML.
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := viper.New()
	v.Set("camera.source", string(c.Camera.Source))
	v.Set("camera.device", c.Camera.Device)
	v.Set("camera.file_path", c.Camera.FilePath)
	v.Set("camera.fps", c.Camera.FPS)
	v.Set("camera.width", c.Camera.Width)
	v.Set("camera.height", c.Camera.Height)
	v.Set("camera.start_timeout", c.Camera.StartTimeout.String())

	v.Set("location.source", string(c.Location.Source))
	v.Set("location.static_lat", c.Location.StaticLat)
	v.Set("location.static_lon", c.Location.StaticLon)
	v.Set("location.gpsd_addr", c.Location.GPSDAddr)
	v.Set("location.serial_port", c.Location.SerialPort)
	v.Set("location.baud_rate", c.Location.BaudRate)
	v.Set("location.timeout", c.Location.Timeout.String())

	v.Set("target.default", c.Target.Default)
	v.Set("target.range_policy", c.Target.RangePolicy)

	v.Set("log.level", c.Log.Level)
	v.Set("log.format", c.Log.Format)

	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}

	return v.WriteConfigAs(path)
}

func (c *Config) SaveByDefault() error {
	return c.Save(c.Path())
}

func (c *Config) SetFPS(fps uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Camera.FPS = fps
}

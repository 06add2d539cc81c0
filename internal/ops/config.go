package ops

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yanun0323/errors"

	"github.com/blacknand/AlgoPulse/internal/bus"
	"github.com/blacknand/AlgoPulse/internal/detect"
	"github.com/blacknand/AlgoPulse/internal/obs"
	"github.com/blacknand/AlgoPulse/internal/pipeline"
	"github.com/blacknand/AlgoPulse/pkg/backoff"
	"github.com/blacknand/AlgoPulse/pkg/exception"
)

const (
	EnvPrefix       = "ALGOPULSE"
	DefaultEnvFile  = ".env"
	DefaultEndpoint = "tcp://localhost:5555"
)

// Config mirrors the config file layout. Every key can be overridden with
// ALGOPULSE_<KEY>, dots replaced by underscores (ALGOPULSE_DETECTOR_MODE).
type Config struct {
	Endpoint        string          `mapstructure:"endpoint"`
	Topic           string          `mapstructure:"topic"`
	SpreadThreshold float64         `mapstructure:"spreadThreshold"`
	Detector        DetectorConfig  `mapstructure:"detector"`
	Queue           QueueConfig     `mapstructure:"queue"`
	Backoff         backoff.Backoff `mapstructure:"backoff"`
	Alerts          AlertsConfig    `mapstructure:"alerts"`
	Metrics         MetricsConfig   `mapstructure:"metrics"`
	Profiling       ProfilingConfig `mapstructure:"profiling"`
}

type DetectorConfig struct {
	Mode       string  `mapstructure:"mode"`
	Window     int     `mapstructure:"window"`
	ZScore     float64 `mapstructure:"zScore"`
	MinSamples int     `mapstructure:"minSamples"`
}

// QueueConfig bounds the hand-off queue. Capacity 0 is unbounded.
type QueueConfig struct {
	Capacity int    `mapstructure:"capacity"`
	Overflow string `mapstructure:"overflow"`
}

type AlertsConfig struct {
	RedisURL string `mapstructure:"redisUrl"`
	Channel  string `mapstructure:"channel"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type ProfilingConfig struct {
	ApplicationName string            `mapstructure:"applicationName"`
	ServerAddress   string            `mapstructure:"serverAddress"`
	Tags            map[string]string `mapstructure:"tags"`
}

var keys = []string{
	"endpoint", "topic", "spreadThreshold",
	"detector.mode", "detector.window", "detector.zScore", "detector.minSamples",
	"queue.capacity", "queue.overflow",
	"backoff.min", "backoff.max", "backoff.factor", "backoff.jitter",
	"alerts.redisUrl", "alerts.channel",
	"metrics.addr",
	"profiling.applicationName", "profiling.serverAddress",
}

func setDefaults(v *viper.Viper) {
	def := backoff.Default()

	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("topic", "")
	v.SetDefault("spreadThreshold", detect.DefaultSpreadThreshold)
	v.SetDefault("detector.mode", detect.ModeSpread)
	v.SetDefault("detector.window", detect.DefaultRollingWindow)
	v.SetDefault("detector.zScore", detect.DefaultRollingZScore)
	v.SetDefault("detector.minSamples", detect.DefaultRollingMinSamples)
	v.SetDefault("queue.capacity", 0)
	v.SetDefault("queue.overflow", bus.OverflowBlock.String())
	v.SetDefault("backoff.min", def.Min)
	v.SetDefault("backoff.max", def.Max)
	v.SetDefault("backoff.factor", def.Factor)
	v.SetDefault("backoff.jitter", def.Jitter)
	v.SetDefault("alerts.redisUrl", "")
	v.SetDefault("alerts.channel", "alerts")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("profiling.applicationName", "algopulse")
	v.SetDefault("profiling.serverAddress", "")
}

// Load reads .env, the optional config file at path (JSON, YAML or TOML by
// extension) and the environment, in increasing priority.
func Load(path string) (Config, error) {
	if err := LoadEnvFile(DefaultEnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, errors.Wrapf(err, "bind env for %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile exports the variables in filename. A missing file is not an error
// and variables already set in the process win.
func LoadEnvFile(filename string) error {
	if err := godotenv.Load(filename); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "load env file %s", filename)
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return exception.ErrEmptyEndpoint
	}
	if c.SpreadThreshold < 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "spreadThreshold %v < 0", c.SpreadThreshold)
	}
	if !detect.KnownMode(c.Detector.Mode) {
		return errors.Wrapf(exception.ErrUnknownDetector, "mode %q", c.Detector.Mode)
	}
	if c.Detector.Window < 0 || c.Detector.MinSamples < 0 || c.Detector.ZScore < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "detector window, zScore and minSamples must be >= 0")
	}
	if c.Queue.Capacity < 0 {
		return errors.Wrapf(exception.ErrInvalidArgument, "queue.capacity %d < 0", c.Queue.Capacity)
	}
	if _, ok := bus.ParseOverflowPolicy(c.Queue.Overflow); !ok {
		return errors.Wrapf(exception.ErrInvalidArgument, "queue.overflow %q", c.Queue.Overflow)
	}
	if c.Backoff.Min < 0 || c.Backoff.Max < 0 {
		return errors.Wrap(exception.ErrInvalidArgument, "backoff durations must be >= 0")
	}
	return nil
}

func (c Config) QueueOption() bus.Option {
	policy, _ := bus.ParseOverflowPolicy(c.Queue.Overflow)
	return bus.Option{Capacity: c.Queue.Capacity, Overflow: policy}
}

func (c Config) DetectorParams() detect.Params {
	return detect.Params{
		SpreadThreshold: c.SpreadThreshold,
		Window:          c.Detector.Window,
		ZScore:          c.Detector.ZScore,
		MinSamples:      c.Detector.MinSamples,
	}
}

func (c Config) Pipeline() pipeline.Config {
	return pipeline.Config{
		Endpoint: c.Endpoint,
		Topic:    c.Topic,
		Queue:    c.QueueOption(),
		Backoff:  c.Backoff,
	}
}

func (c Config) Profile() obs.ProfileConfig {
	return obs.ProfileConfig{
		ApplicationName: c.Profiling.ApplicationName,
		ServerAddress:   c.Profiling.ServerAddress,
		Tags:            c.Profiling.Tags,
	}
}

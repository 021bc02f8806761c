// Package config loads a deployed sinkd's sink defaults, grounded on
// ijakenorton-Roundtable's cmd/signallingserver/config.LoadConfig: viper
// defaults seeded first, then an optional config file, then flags bound
// through pflag take final precedence.
package config

import (
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/loopback-audio/sinkengine"
	"github.com/loopback-audio/sinkengine/internal/logctl"
)

// SinkConfig is the subset of sink.NewData a deployment reads at
// startup rather than compiling in.
type SinkConfig struct {
	Name         string
	Rate         int
	Channels     int
	ChannelMap   []string
	MinLatency   int64
	MaxLatency   int64
	BlockSizeMax int
	LogLevel     string
}

// RegisterFlags binds every flag sinkd accepts onto fs; call before
// fs.Parse.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("name", "sinkd", "sink name")
	fs.Int("rate", 48000, "sample rate in Hz")
	fs.Int("channels", 2, "channel count")
	fs.Int64("min-latency", 0, "minimum requested latency in microseconds, 0 for unset")
	fs.Int64("max-latency", 0, "maximum requested latency in microseconds, 0 for unset")
	fs.Int("block-size-max", sink.MixBufferLength, "largest single render pull, in frames")
	fs.String("log-level", "info", "log level: debug|info|warn|error")
	fs.String("config", "", "path to an optional YAML/TOML/JSON config file")
}

// Load resolves a SinkConfig from fs's parsed flags, falling back to
// viper defaults and an optional config file named by --config.
func Load(fs *pflag.FlagSet) (SinkConfig, error) {
	viper.SetDefault("name", "sinkd")
	viper.SetDefault("rate", 48000)
	viper.SetDefault("channels", 2)
	viper.SetDefault("min-latency", 0)
	viper.SetDefault("max-latency", 0)
	viper.SetDefault("block-size-max", sink.MixBufferLength)
	viper.SetDefault("log-level", "info")

	if err := viper.BindPFlags(fs); err != nil {
		return SinkConfig{}, err
	}

	if cfgPath, _ := fs.GetString("config"); cfgPath != "" {
		viper.SetConfigFile(cfgPath)
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return SinkConfig{}, err
			}
			logctl.Control().Warn("config file not found, using flags and defaults", "path", cfgPath)
		}
	}

	channels := viper.GetInt("channels")
	return SinkConfig{
		Name:         viper.GetString("name"),
		Rate:         viper.GetInt("rate"),
		Channels:     channels,
		ChannelMap:   defaultChannelMap(channels),
		MinLatency:   viper.GetInt64("min-latency"),
		MaxLatency:   viper.GetInt64("max-latency"),
		BlockSizeMax: viper.GetInt("block-size-max"),
		LogLevel:     viper.GetString("log-level"),
	}, nil
}

func defaultChannelMap(n int) []string {
	switch n {
	case 1:
		return []string{"mono"}
	case 2:
		return []string{"front-left", "front-right"}
	default:
		m := make([]string, n)
		for i := range m {
			m[i] = "channel-" + strconv.Itoa(i)
		}
		return m
	}
}

// ConfigureLogger mirrors Roundtable's ConfigureLogger, targeting this
// module's charmbracelet/log control-thread logger (internal/logctl)
// instead of log/slog.
func ConfigureLogger(level string) {
	l := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "sinkd",
		ReportTimestamp: true,
	})
	switch level {
	case "debug":
		l.SetLevel(log.DebugLevel)
	case "warn":
		l.SetLevel(log.WarnLevel)
	case "error":
		l.SetLevel(log.ErrorLevel)
	default:
		l.SetLevel(log.InfoLevel)
	}
	logctl.SetOutput(l)
}

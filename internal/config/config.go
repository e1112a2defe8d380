package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yeonjoon13/flight-map/internal/viewport"
)

const (
	envPrefix  = "FLIGHTMAP"
	configName = "flightmap"
)

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type PollConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SourceConfig selects where aircraft data comes from: "http" polls the
// adsb.lol endpoint directly, "kafka" reads snapshots published by the ingestor.
type SourceConfig struct {
	Kind string `mapstructure:"kind"`
	URL  string `mapstructure:"url"`
}

type ViewportConfig struct {
	Target  string          `mapstructure:"target"`
	Center  viewport.LonLat `mapstructure:"center"`
	Zoom    float64         `mapstructure:"zoom"`
	TileURL string          `mapstructure:"tileUrl"`
	// TileName and TileAttribution describe a custom TileURL. They are
	// ignored for the OpenStreetMap URL.
	TileName        string `mapstructure:"tileName"`
	TileAttribution string `mapstructure:"tileAttribution"`
}

// TileSource returns the configured tile provider. Only the stock
// OpenStreetMap URL carries the OpenStreetMap name and attribution.
func (c ViewportConfig) TileSource() viewport.TileSource {
	if c.TileURL == "" || c.TileURL == viewport.OSM.URL {
		return viewport.OSM
	}
	return viewport.TileSource{
		Name:        c.TileName,
		URL:         c.TileURL,
		Attribution: c.TileAttribution,
	}
}

type MarkerConfig struct {
	Color string  `mapstructure:"color"`
	Scale float64 `mapstructure:"scale"`
}

type KafkaConfig struct {
	Broker string `mapstructure:"broker"`
	Topic  string `mapstructure:"topic"`
	Group  string `mapstructure:"group"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Graylog string `mapstructure:"graylog"`
}

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Poll     PollConfig     `mapstructure:"poll"`
	Source   SourceConfig   `mapstructure:"source"`
	Viewport ViewportConfig `mapstructure:"viewport"`
	Marker   MarkerConfig   `mapstructure:"marker"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")

	v.SetDefault("poll.interval", "1050ms")
	v.SetDefault("poll.timeout", "10s")

	v.SetDefault("source.kind", "http")
	v.SetDefault("source.url", "https://api.adsb.lol/v2/ladd")

	v.SetDefault("viewport.target", "map")
	v.SetDefault("viewport.center.lon", 0.0)
	v.SetDefault("viewport.center.lat", 0.0)
	v.SetDefault("viewport.zoom", 2.0)
	v.SetDefault("viewport.tileUrl", viewport.OSM.URL)
	v.SetDefault("viewport.tileName", "")
	v.SetDefault("viewport.tileAttribution", "")

	v.SetDefault("marker.color", "#000000")
	v.SetDefault("marker.scale", 1.0)

	v.SetDefault("kafka.broker", "localhost:9092")
	v.SetDefault("kafka.topic", "flight_snapshots")
	v.SetDefault("kafka.group", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.graylog", "")
}

// Load reads configuration. With an explicit path that file must exist;
// otherwise flightmap.{yaml,json} is looked up in the working directory and
// /etc/flightmap and a missing file falls back to defaults. Environment
// variables such as FLIGHTMAP_POLL_INTERVAL override both.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/flightmap")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("config: poll.interval must be positive, got %s", c.Poll.Interval)
	}
	switch c.Source.Kind {
	case "http", "kafka":
	default:
		return fmt.Errorf("config: unknown source.kind %q", c.Source.Kind)
	}
	if c.Marker.Scale <= 0 {
		return fmt.Errorf("config: marker.scale must be positive, got %v", c.Marker.Scale)
	}
	return nil
}

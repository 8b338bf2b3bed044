package gateway

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/denisbrodbeck/machineid"
	"gopkg.in/yaml.v3"
)

// Config configures one gateway daemon. The YAML file is the base;
// explicitly passed flags win over it.
type Config struct {
	// ID identifies this gateway in meta records; empty picks the
	// machine id.
	ID string `yaml:"id"`
	// RigID names the rig behind the transport.
	RigID string `yaml:"rig_id"`
	// Transport is the rig link URL (serial:, tcp:, ws:).
	Transport string     `yaml:"transport"`
	MQTT      MQTTConfig `yaml:"mqtt"`
	// MirrorMinIntervalMs throttles telemetry publication; zero
	// mirrors every report.
	MirrorMinIntervalMs int `yaml:"mirror_min_interval_ms"`
	// LogEvery logs one report in every N received; zero disables.
	LogEvery int `yaml:"log_every"`
	// TickTimeoutMs warns when the rig goes quiet this long; zero
	// disables the watchdog.
	TickTimeoutMs int `yaml:"tick_timeout_ms"`
}

// MirrorMinInterval gets the telemetry throttle as a duration.
func (c *Config) MirrorMinInterval() time.Duration {
	return time.Duration(c.MirrorMinIntervalMs) * time.Millisecond
}

// TickTimeout gets the quiet-rig watchdog as a duration.
func (c *Config) TickTimeout() time.Duration {
	return time.Duration(c.TickTimeoutMs) * time.Millisecond
}

// MQTTConfig names the broker. The URL path becomes the topic prefix,
// e.g. mqtt://broker:1883/bench/rig-a/.
type MQTTConfig struct {
	URL string `yaml:"url"`
}

var defaultConfig = Config{
	RigID:               "rig",
	Transport:           "serial:/dev/ttyUSB0",
	MQTT:                MQTTConfig{URL: "mqtt://localhost:1883/mockloop/"},
	MirrorMinIntervalMs: 200,
	LogEvery:            50,
	TickTimeoutMs:       2000,
}

func init() {
	if val := os.Getenv("MOCKLOOP_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val := os.Getenv("MOCKLOOP_MQTT_URL"); val != "" {
		defaultConfig.MQTT.URL = val
	}
	if val := os.Getenv("MOCKLOOP_RIG_ID"); val != "" {
		defaultConfig.RigID = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Gateway identity, defaults to the machine id.")
	flag.StringVar(&defaultConfig.RigID, "rig", defaultConfig.RigID, "Rig identity.")
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Rig link URL (serial:, tcp:, ws:).")
	flag.StringVar(&defaultConfig.MQTT.URL, "mqtt", defaultConfig.MQTT.URL, "MQTT broker URL, path is the topic prefix.")
	flag.IntVar(&defaultConfig.MirrorMinIntervalMs, "mirror-min-interval-ms", defaultConfig.MirrorMinIntervalMs, "Minimum interval between mirrored reports (ms), 0 mirrors all.")
	flag.IntVar(&defaultConfig.LogEvery, "log-every", defaultConfig.LogEvery, "Log one report in every N, 0 disables.")
	flag.IntVar(&defaultConfig.TickTimeoutMs, "tick-timeout-ms", defaultConfig.TickTimeoutMs, "Warn when the rig is quiet this long (ms), 0 disables.")
}

// flagOverrides maps flag names to the config field they own, so
// explicitly passed flags can be re-applied over a loaded file.
var flagOverrides = map[string]func(dst, src *Config){
	"id":                     func(dst, src *Config) { dst.ID = src.ID },
	"rig":                    func(dst, src *Config) { dst.RigID = src.RigID },
	"transport":              func(dst, src *Config) { dst.Transport = src.Transport },
	"mqtt":                   func(dst, src *Config) { dst.MQTT.URL = src.MQTT.URL },
	"mirror-min-interval-ms": func(dst, src *Config) { dst.MirrorMinIntervalMs = src.MirrorMinIntervalMs },
	"log-every":              func(dst, src *Config) { dst.LogEvery = src.LogEvery },
	"tick-timeout-ms":        func(dst, src *Config) { dst.TickTimeoutMs = src.TickTimeoutMs },
}

// NewConfig creates the configuration: defaults, then the YAML file
// when path is non-empty, then explicitly passed flags. Call after
// flag.Parse.
func NewConfig(path string) (*Config, error) {
	conf := defaultConfig
	if path != "" {
		if err := conf.loadFile(path); err != nil {
			return nil, err
		}
		flag.Visit(func(f *flag.Flag) {
			if apply, ok := flagOverrides[f.Name]; ok {
				apply(&conf, &defaultConfig)
			}
		})
	}
	if conf.ID == "" {
		id, err := machineid.ID()
		if err != nil {
			return nil, fmt.Errorf("gateway id: no -id flag and no machine id: %w", err)
		}
		conf.ID = id
	}
	return &conf, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration. It does not mutate it.
func (c *Config) Validate() error {
	if c.RigID == "" {
		return fmt.Errorf("config: rig_id must not be empty")
	}
	if c.Transport == "" {
		return fmt.Errorf("config: transport must not be empty")
	}
	if c.MQTT.URL == "" {
		return fmt.Errorf("config: mqtt.url must not be empty")
	}
	if c.MirrorMinIntervalMs < 0 {
		return fmt.Errorf("config: mirror_min_interval_ms must not be negative")
	}
	if c.LogEvery < 0 {
		return fmt.Errorf("config: log_every must not be negative")
	}
	if c.TickTimeoutMs < 0 {
		return fmt.Errorf("config: tick_timeout_ms must not be negative")
	}
	return nil
}

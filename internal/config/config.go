// Package config loads and validates the radar pipeline's runtime
// configuration: a builder-style Config with JSON-file overlay and
// environment-variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/banshee-data/radar-pipeline/internal/filter"
	"github.com/banshee-data/radar-pipeline/internal/track"
)

// Config holds every tunable the pipeline reads at startup.
type Config struct {
	LocalIP   string
	LocalPort int

	RadarLatDeg float64
	RadarLonDeg float64
	RadarID     string
	AreaID      string

	MaxRangeM     float64
	MaxAzimuthDeg float64

	SignalStrengthThresholdDB float64
	UseSignalBracket          bool
	MinSignalStrength         float64
	MaxSignalStrength         float64

	DetectOnlyStatic bool
	DetectOnlyMoving bool

	TrackerMaxDistanceM float64
	TrackerMaxAzimuth   float64
	MaxMissedFrames     int

	SendMQTT     bool
	SendUART     bool
	MQTTBroker   string
	MQTTPort     int
	MQTTChannel  string
	MQTTUsername string
	MQTTPassword string

	SerialPort string
	BaudRate   int

	OutputFile string

	ClassifierURL string

	// StatsDBPath, if non-empty, persists frame counters to a sqlite
	// database at this path so /stats survives a restart. Empty disables
	// persistence; counters then live in memory only.
	StatsDBPath string
}

// Defaults returns the vendor-documented default configuration.
func Defaults() Config {
	return Config{
		LocalIP:                   "192.168.252.2",
		LocalPort:                 2050,
		RadarID:                   "radar-0",
		AreaID:                    "area-0",
		MaxRangeM:                 150,
		MaxAzimuthDeg:             75,
		SignalStrengthThresholdDB: 18,
		TrackerMaxDistanceM:       2.0,
		TrackerMaxAzimuth:         75,
		MaxMissedFrames:           3,
		MQTTPort:                  1883,
		MQTTChannel:               "radar/tracks",
		BaudRate:                  115200,
		OutputFile:                "history.json",
	}
}

// overlay is the pointer-field JSON-file schema: fields omitted from the
// file retain the Defaults() value, so partial overrides are safe.
type overlay struct {
	LocalIP   *string `json:"local_ip,omitempty"`
	LocalPort *int    `json:"local_port,omitempty"`

	RadarLatDeg *float64 `json:"radar_lat,omitempty"`
	RadarLonDeg *float64 `json:"radar_long,omitempty"`
	RadarID     *string  `json:"radar_id,omitempty"`
	AreaID      *string  `json:"area_id,omitempty"`

	MaxRangeM     *float64 `json:"max_range,omitempty"`
	MaxAzimuthDeg *float64 `json:"max_azimuth,omitempty"`

	SignalStrengthThresholdDB *float64 `json:"signal_strength_threshold,omitempty"`
	UseSignalBracket          *bool    `json:"use_signal_bracket,omitempty"`
	MinSignalStrength         *float64 `json:"min_signal_strength,omitempty"`
	MaxSignalStrength         *float64 `json:"max_signal_strength,omitempty"`

	DetectOnlyStatic *bool `json:"detect_only_static,omitempty"`
	DetectOnlyMoving *bool `json:"detect_only_moving,omitempty"`

	TrackerMaxDistanceM *float64 `json:"range_threshold,omitempty"`
	TrackerMaxAzimuth   *float64 `json:"azimuth_threshold,omitempty"`
	MaxMissedFrames     *int     `json:"max_missed_frames,omitempty"`

	SendMQTT     *bool   `json:"send_mqtt,omitempty"`
	SendUART     *bool   `json:"send_uart,omitempty"`
	MQTTBroker   *string `json:"mqtt_broker,omitempty"`
	MQTTPort     *int    `json:"mqtt_port,omitempty"`
	MQTTChannel  *string `json:"mqtt_channel,omitempty"`
	MQTTUsername *string `json:"mqtt_username,omitempty"`
	MQTTPassword *string `json:"mqtt_password,omitempty"`

	SerialPort *string `json:"serial_port,omitempty"`
	BaudRate   *int    `json:"baud_rate,omitempty"`

	OutputFile *string `json:"output_file,omitempty"`

	ClassifierURL *string `json:"classifier_url,omitempty"`

	StatsDBPath *string `json:"stats_db_path,omitempty"`
}

// Load reads Defaults(), overlays path (if non-empty) if it exists, then
// applies environment-variable overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %q: %w", path, err)
			}
		} else {
			var ov overlay
			if err := json.Unmarshal(data, &ov); err != nil {
				return nil, fmt.Errorf("config: parse %q: %w", path, err)
			}
			cfg.applyOverlay(ov)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyOverlay(ov overlay) {
	setString(&c.LocalIP, ov.LocalIP)
	setInt(&c.LocalPort, ov.LocalPort)
	setFloat(&c.RadarLatDeg, ov.RadarLatDeg)
	setFloat(&c.RadarLonDeg, ov.RadarLonDeg)
	setString(&c.RadarID, ov.RadarID)
	setString(&c.AreaID, ov.AreaID)
	setFloat(&c.MaxRangeM, ov.MaxRangeM)
	setFloat(&c.MaxAzimuthDeg, ov.MaxAzimuthDeg)
	setFloat(&c.SignalStrengthThresholdDB, ov.SignalStrengthThresholdDB)
	setBool(&c.UseSignalBracket, ov.UseSignalBracket)
	setFloat(&c.MinSignalStrength, ov.MinSignalStrength)
	setFloat(&c.MaxSignalStrength, ov.MaxSignalStrength)
	setBool(&c.DetectOnlyStatic, ov.DetectOnlyStatic)
	setBool(&c.DetectOnlyMoving, ov.DetectOnlyMoving)
	setFloat(&c.TrackerMaxDistanceM, ov.TrackerMaxDistanceM)
	setFloat(&c.TrackerMaxAzimuth, ov.TrackerMaxAzimuth)
	setInt(&c.MaxMissedFrames, ov.MaxMissedFrames)
	setBool(&c.SendMQTT, ov.SendMQTT)
	setBool(&c.SendUART, ov.SendUART)
	setString(&c.MQTTBroker, ov.MQTTBroker)
	setInt(&c.MQTTPort, ov.MQTTPort)
	setString(&c.MQTTChannel, ov.MQTTChannel)
	setString(&c.MQTTUsername, ov.MQTTUsername)
	setString(&c.MQTTPassword, ov.MQTTPassword)
	setString(&c.SerialPort, ov.SerialPort)
	setInt(&c.BaudRate, ov.BaudRate)
	setString(&c.OutputFile, ov.OutputFile)
	setString(&c.ClassifierURL, ov.ClassifierURL)
	setString(&c.StatsDBPath, ov.StatsDBPath)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}
func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// applyEnv lets every field the config file can set also be overridden by
// an environment variable, named exactly as the enumerated table: operators
// can change a single deployment knob (a broker credential, a gate
// threshold) without touching the JSON file on disk.
func (c *Config) applyEnv() {
	envString(&c.LocalIP, "LOCAL_IP")
	envInt(&c.LocalPort, "LOCAL_PORT")

	envFloat(&c.RadarLatDeg, "RADAR_LAT")
	envFloat(&c.RadarLonDeg, "RADAR_LONG")
	envString(&c.RadarID, "RADAR_ID")
	envString(&c.AreaID, "AREA_ID")

	envFloat(&c.MaxRangeM, "MAX_RANGE")
	envFloat(&c.MaxAzimuthDeg, "MAX_AZIMUTH")

	envFloat(&c.SignalStrengthThresholdDB, "SIGNAL_STRENGTH_THRESHOLD")
	envFloat(&c.MinSignalStrength, "MIN_SIGNAL_STRENGTH")
	envFloat(&c.MaxSignalStrength, "MAX_SIGNAL_STRENGTH")

	envBool(&c.DetectOnlyStatic, "DETECT_ONLY_STATIC")
	envBool(&c.DetectOnlyMoving, "DETECT_ONLY_MOVING")

	envFloat(&c.TrackerMaxDistanceM, "RANGE_THRESHOLD")
	envFloat(&c.TrackerMaxAzimuth, "AZIMUTH_THRESHOLD")
	envInt(&c.MaxMissedFrames, "MAX_MISSED_FRAMES")

	envBool(&c.SendMQTT, "SEND_MQTT")
	envBool(&c.SendUART, "SEND_UART")
	envString(&c.MQTTBroker, "MQTT_BROKER")
	envInt(&c.MQTTPort, "MQTT_PORT")
	envString(&c.MQTTChannel, "MQTT_CHANNEL")
	envString(&c.MQTTUsername, "MQTT_USERNAME")
	envString(&c.MQTTPassword, "MQTT_PASSWORD")

	envString(&c.SerialPort, "SERIAL_PORT")
	envInt(&c.BaudRate, "BAUD_RATE")

	envString(&c.OutputFile, "OUTPUT_FILE")

	// Not part of the enumerated table; kept as operational escape hatches
	// for the signal-bracket selector, the remote classifier and the stats
	// persistence path.
	envBool(&c.UseSignalBracket, "USE_SIGNAL_BRACKET")
	envString(&c.ClassifierURL, "CLASSIFIER_URL")
	envString(&c.StatsDBPath, "STATS_DB_PATH")
}

func envString(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(dst *int, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

func envFloat(dst *float64, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*dst = f
	}
}

func envBool(dst *bool, name string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if b, err := strconv.ParseBool(v); err == nil {
		*dst = b
	}
}

// Validate checks field ranges and mutual-exclusion constraints.
func (c *Config) Validate() error {
	if c.LocalPort <= 0 || c.LocalPort > 65535 {
		return fmt.Errorf("local_port out of range: %d", c.LocalPort)
	}
	if c.MaxRangeM <= 0 {
		return fmt.Errorf("max_range must be positive, got %f", c.MaxRangeM)
	}
	if c.MaxAzimuthDeg <= 0 || c.MaxAzimuthDeg > 180 {
		return fmt.Errorf("max_azimuth out of range: %f", c.MaxAzimuthDeg)
	}
	if c.DetectOnlyStatic && c.DetectOnlyMoving {
		return fmt.Errorf("detect_only_static and detect_only_moving are mutually exclusive")
	}
	if c.UseSignalBracket && c.MinSignalStrength > c.MaxSignalStrength {
		return fmt.Errorf("min_signal_strength (%f) exceeds max_signal_strength (%f)", c.MinSignalStrength, c.MaxSignalStrength)
	}
	if c.SendMQTT && c.MQTTBroker == "" {
		return fmt.Errorf("send_mqtt is enabled but mqtt_broker is empty")
	}
	if c.SendUART && c.SerialPort == "" {
		return fmt.Errorf("send_uart is enabled but serial_port is empty")
	}
	if c.MaxMissedFrames <= 0 {
		return fmt.Errorf("max_missed_frames must be positive, got %d", c.MaxMissedFrames)
	}
	return nil
}

// HistoryFlushGrace is the shutdown grace period sinks get to drain their
// queues before the controller drops whatever remains.
const HistoryFlushGrace = 500 * time.Millisecond

// ToFilterConfig maps the detection-filter-relevant fields onto a
// filter.Config, starting from the filter package's own documented
// defaults so fields the Config type doesn't carry stay sane.
func (c Config) ToFilterConfig() filter.Config {
	fc := filter.DefaultConfig()
	fc.SignalStrengthThresholdDB = c.SignalStrengthThresholdDB
	fc.MaxRangeM = c.MaxRangeM
	fc.MaxAzimuthDeg = c.MaxAzimuthDeg
	fc.UseSignalBracket = c.UseSignalBracket
	fc.MinSignalStrength = c.MinSignalStrength
	fc.MaxSignalStrength = c.MaxSignalStrength
	fc.DetectOnlyStatic = c.DetectOnlyStatic
	fc.DetectOnlyMoving = c.DetectOnlyMoving
	return fc
}

// ToTrackerConfig maps the tracker-relevant fields onto a track.Config,
// starting from the tracker package's own documented defaults.
func (c Config) ToTrackerConfig() track.Config {
	tc := track.DefaultConfig()
	tc.MaxDistanceM = c.TrackerMaxDistanceM
	tc.MaxAzimuthDeg = c.TrackerMaxAzimuth
	tc.MissLimit = c.MaxMissedFrames
	return tc
}

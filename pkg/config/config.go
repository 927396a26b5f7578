// Package config holds the on-disk/wire configuration object
// (spec.md §6), its pipeline parameter defaults, CLI flag surface, and
// device auto-creation. Grounded on the teacher's pkg/config/config.go
// (NewConfig defaults + LoadFromEnv/LoadFromFlags/Validate shape),
// generalised from home-automation fields to the LIDAR pipeline
// parameters original_source/src/config.rs and src/settings.rs define.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/saaga0h/lidar2d-consolidation/pkg/device"
)

// CornerPoint is one corner of the region of interest or a zone's
// rectangle, as stored on disk (spec.md §6).
type CornerPoint struct {
	Corner int     `json:"corner"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
}

// ZoneDef is one named presence zone, as stored on disk.
type ZoneDef struct {
	ID     string  `json:"id"`
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Width  float32 `json:"width"`
	Height float32 `json:"height"`
}

// DeviceDef mirrors device.Device's on-disk JSON shape (spec.md §6
// devices[]).
type DeviceDef struct {
	Serial               string             `json:"serial"`
	Name                 string             `json:"name"`
	Rotation             float32            `json:"rotation"`
	X                    float32            `json:"x"`
	Y                    float32            `json:"y"`
	Colour               string             `json:"colour"`
	MinDistanceThreshold float32            `json:"minDistanceThreshold"`
	ScanMaskThresholds   map[string]float32 `json:"scanMaskThresholds,omitempty"`
	FlipCoords           *device.FlipCoords `json:"flipCoords,omitempty"`
}

// Config is the full on-disk/wire configuration object (spec.md §6),
// lowerCamelCase field names to match the wire/disk schema exactly.
type Config struct {
	Devices          []DeviceDef   `json:"devices"`
	RegionOfInterest []CornerPoint `json:"regionOfInterest,omitempty"`
	Zones            []ZoneDef     `json:"zones,omitempty"`

	ClusteringNeighbourhoodRadius float32 `json:"clusteringNeighbourhoodRadius"`
	ClusteringMinNeighbours       int     `json:"clusteringMinNeighbours"`
	ClusteringMaxClusterSize      float32 `json:"clusteringMaxClusterSize"`

	SmoothingDisable            bool    `json:"smoothingDisable"`
	SmoothingMergeRadius        float32 `json:"smoothingMergeRadius"`
	SmoothingWaitBeforeActiveMs int64   `json:"smoothingWaitBeforeActiveMs"`
	SmoothingExpireMs           int64   `json:"smoothingExpireMs"`
	SmoothingLerpFactor         float32 `json:"smoothingLerpFactor"`
	SmoothingEmptySendMode      string  `json:"smoothingEmptySendMode"`
	SmoothingUpdateInterval     int64   `json:"smoothingUpdateInterval"`
	SmoothingUseRealUnits       bool    `json:"smoothingUseRealUnits"`

	OriginLocation               string  `json:"originLocation"`
	TransformIncludeOutside      bool    `json:"transformIncludeOutside"`
	TransformIgnoreOutsideMargin float32 `json:"transformIgnoreOutsideMargin"`

	AutomaskScansRequired   int     `json:"automaskScansRequired"`
	AutomaskThresholdMargin float32 `json:"automaskThresholdMargin"`

	EnableAverageMovement   bool  `json:"enableAverageMovement"`
	AverageMovementInterval int64 `json:"averageMovementInterval"`

	EnableVelocity  bool `json:"enableVelocity"`
	EnableHeading   bool `json:"enableHeading"`
	EnableDistance  bool `json:"enableDistance"`
	SkipSomeOutputs bool `json:"skipSomeOutputs"`

	// FilePath is runtime-only, not persisted (mirrors the original's
	// #[serde(skip)] output_topic/config_file_path fields).
	FilePath string `json:"-"`
}

// CLIOptions is the process's command-line/environment surface
// (spec.md §6 CLI): config file path, broker connection, agent
// identity, and log level.
type CLIOptions struct {
	ConfigFile                string
	BrokerHost                string
	BrokerPort                int
	BrokerUser                string
	BrokerPassword            string
	AgentRole                 string
	AgentGroupID              string
	LogLevel                  string
	DefaultMinDistanceThreshold float32
}

// NewDefault builds a Config with every pipeline parameter default
// named in spec.md §6.
func NewDefault() *Config {
	return &Config{
		Devices:                       nil,
		ClusteringNeighbourhoodRadius: 200,
		ClusteringMinNeighbours:       4,
		ClusteringMaxClusterSize:      2500,
		SmoothingDisable:              false,
		SmoothingMergeRadius:          100,
		SmoothingWaitBeforeActiveMs:   100,
		SmoothingExpireMs:             3000,
		SmoothingLerpFactor:           0.1,
		SmoothingEmptySendMode:        "Once",
		SmoothingUpdateInterval:       16,
		SmoothingUseRealUnits:         true,
		OriginLocation:                "Centre",
		TransformIncludeOutside:       false,
		TransformIgnoreOutsideMargin:  0,
		AutomaskScansRequired:         60,
		AutomaskThresholdMargin:       50,
		EnableAverageMovement:         false,
		AverageMovementInterval:       250,
	}
}

// DefaultCLIOptions returns the CLI defaults matching the teacher's
// NewConfig()-style zero-configuration startup.
func DefaultCLIOptions() CLIOptions {
	return CLIOptions{
		ConfigFile:                  "lidar2d-config.json",
		BrokerHost:                  "localhost",
		BrokerPort:                  1883,
		AgentRole:                   "lidar2d",
		LogLevel:                    "info",
		DefaultMinDistanceThreshold: 20,
	}
}

// LoadFromEnv overrides CLI options from LIDAR2D_-prefixed
// environment variables (grounded on the teacher's LoadFromEnv idiom).
func (o *CLIOptions) LoadFromEnv() {
	if v := os.Getenv("LIDAR2D_CONFIG_FILE"); v != "" {
		o.ConfigFile = v
	}
	if v := os.Getenv("LIDAR2D_BROKER_HOST"); v != "" {
		o.BrokerHost = v
	}
	if v := os.Getenv("LIDAR2D_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			o.BrokerPort = port
		}
	}
	if v := os.Getenv("LIDAR2D_BROKER_USER"); v != "" {
		o.BrokerUser = v
	}
	if v := os.Getenv("LIDAR2D_BROKER_PASSWORD"); v != "" {
		o.BrokerPassword = v
	}
	if v := os.Getenv("LIDAR2D_AGENT_ROLE"); v != "" {
		o.AgentRole = v
	}
	if v := os.Getenv("LIDAR2D_AGENT_GROUP_ID"); v != "" {
		o.AgentGroupID = v
	}
	if v := os.Getenv("LIDAR2D_LOG_LEVEL"); v != "" {
		o.LogLevel = v
	}
}

// RegisterFlags binds pflag flags to o's fields, named per
// original_source/src/settings.rs's CLI surface.
func (o *CLIOptions) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config-file", o.ConfigFile, "path to the on-disk JSON configuration file")
	fs.StringVar(&o.BrokerHost, "broker-host", o.BrokerHost, "message bus broker hostname")
	fs.IntVar(&o.BrokerPort, "broker-port", o.BrokerPort, "message bus broker port")
	fs.StringVar(&o.BrokerUser, "broker-user", o.BrokerUser, "message bus broker username")
	fs.StringVar(&o.BrokerPassword, "broker-password", o.BrokerPassword, "message bus broker password")
	fs.StringVar(&o.AgentRole, "agent-role", o.AgentRole, "agent role identifier")
	fs.StringVar(&o.AgentGroupID, "agent-group-id", o.AgentGroupID, "agent group identifier")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "log level (debug, info, warn, error)")
	fs.Float32Var(&o.DefaultMinDistanceThreshold, "default-min-distance-threshold", o.DefaultMinDistanceThreshold, "default minimum distance threshold (mm) for unconfigured new devices")
}

// Validate checks CLI options for startup-blocking problems (spec.md
// §7: "Config parse failure... Abort startup").
func (o *CLIOptions) Validate() error {
	if o.BrokerHost == "" {
		return fmt.Errorf("config: broker host is required")
	}
	if o.BrokerPort <= 0 || o.BrokerPort > 65535 {
		return fmt.Errorf("config: broker port must be between 1 and 65535")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[o.LogLevel] {
		return fmt.Errorf("config: invalid log level %q", o.LogLevel)
	}
	return nil
}

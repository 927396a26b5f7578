// Package scenario defines the YAML scenario schema the runner
// executes: a device/zone/ROI setup, a sequence of inbound bus events,
// wait periods, and expectations against published output topics.
// Grounded on the teacher's e2e/internal/scenario/types.go, generalised
// from home-automation sensor/context/media events to the LIDAR
// pipeline's scan/bodyFrame/saveConfig/automaskRequest inputs and
// clusters/trackedPoints/smoothedTrackedPoints/movement/presence
// outputs. Jeeves' virtual-time TestMode has no analogue here: the
// orchestrator runs on the real clock, so scenarios instead declare
// millisecond offsets the runner sleeps to in real time.
package scenario

import "time"

// Scenario is one end-to-end test case.
type Scenario struct {
	Name         string                   `yaml:"name"`
	Description  string                   `yaml:"description"`
	Setup        SetupConfig              `yaml:"setup"`
	Events       []Event                  `yaml:"events"`
	Wait         []WaitPeriod             `yaml:"wait"`
	Expectations map[string][]Expectation `yaml:"expectations"`
}

// ScanPointSetup seeds a device's on-disk scan mask threshold.
type ScanPointSetup struct {
	Angle     int     `yaml:"angle"`
	Threshold float32 `yaml:"threshold"`
}

// DeviceSetup is one device entry under setup.devices.
type DeviceSetup struct {
	Serial               string           `yaml:"serial"`
	Name                 string           `yaml:"name"`
	Rotation             float32          `yaml:"rotation"`
	X                    float32          `yaml:"x"`
	Y                    float32          `yaml:"y"`
	MinDistanceThreshold float32          `yaml:"minDistanceThreshold"`
	ScanMaskThresholds   []ScanPointSetup `yaml:"scanMaskThresholds"`
}

// ZoneSetup is one presence zone entry under setup.zones.
type ZoneSetup struct {
	ID     string  `yaml:"id"`
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
	Width  float32 `yaml:"width"`
	Height float32 `yaml:"height"`
}

// CornerSetup is one region-of-interest corner under setup.regionOfInterest.
type CornerSetup struct {
	Corner int     `yaml:"corner"`
	X      float32 `yaml:"x"`
	Y      float32 `yaml:"y"`
}

// SetupConfig seeds the live config.Config the orchestrator runs
// against, and the pipeline parameters a scenario cares to override.
// Fields left nil fall back to config.NewDefault's value.
type SetupConfig struct {
	Devices          []DeviceSetup `yaml:"devices"`
	Zones            []ZoneSetup   `yaml:"zones"`
	RegionOfInterest []CornerSetup `yaml:"regionOfInterest"`

	DefaultMinDistanceThreshold float32 `yaml:"defaultMinDistanceThreshold"`

	ClusteringNeighbourhoodRadius *float32 `yaml:"clusteringNeighbourhoodRadius"`
	ClusteringMinNeighbours       *int     `yaml:"clusteringMinNeighbours"`
	ClusteringMaxClusterSize      *float32 `yaml:"clusteringMaxClusterSize"`

	SmoothingDisable            *bool    `yaml:"smoothingDisable"`
	SmoothingMergeRadius        *float32 `yaml:"smoothingMergeRadius"`
	SmoothingWaitBeforeActiveMs *int64   `yaml:"smoothingWaitBeforeActiveMs"`
	SmoothingExpireMs           *int64   `yaml:"smoothingExpireMs"`
	SmoothingLerpFactor         *float32 `yaml:"smoothingLerpFactor"`
	SmoothingEmptySendMode      *string  `yaml:"smoothingEmptySendMode"`
	SmoothingUpdateInterval     *int64   `yaml:"smoothingUpdateInterval"`

	OriginLocation               *string  `yaml:"originLocation"`
	TransformIncludeOutside      *bool    `yaml:"transformIncludeOutside"`
	TransformIgnoreOutsideMargin *float32 `yaml:"transformIgnoreOutsideMargin"`

	AutomaskScansRequired   *int     `yaml:"automaskScansRequired"`
	AutomaskThresholdMargin *float32 `yaml:"automaskThresholdMargin"`

	EnableAverageMovement   *bool  `yaml:"enableAverageMovement"`
	AverageMovementInterval *int64 `yaml:"averageMovementInterval"`
}

// ScanSample is one (angle, distance) pair of an event's scan payload.
type ScanSample struct {
	Angle    float32 `yaml:"angle"`
	Distance float32 `yaml:"distance"`
}

// BodySample is one body position of an event's bodyFrame payload
// (only the 3D position matters downstream; keypoints are not
// consumed by the pipeline).
type BodySample struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	Z float32 `yaml:"z"`
}

// ConfigPatch is the config a "saveConfig" event applies, expressed
// the same way as SetupConfig so scenarios can reconfigure mid-run.
type ConfigPatch struct {
	Devices          []DeviceSetup `yaml:"devices"`
	Zones            []ZoneSetup   `yaml:"zones"`
	RegionOfInterest []CornerSetup `yaml:"regionOfInterest"`
	SetupConfig      `yaml:",inline"`
}

// Event is one inbound message played at AtMs milliseconds into the
// scenario.
type Event struct {
	AtMs         int64        `yaml:"atMs"`
	Type         string       `yaml:"type"` // "scan" | "bodyFrame" | "saveConfig" | "automaskRequest"
	Description  string       `yaml:"description"`
	Serial       string       `yaml:"serial"`
	Scan         []ScanSample `yaml:"scan"`
	Body         []BodySample `yaml:"body"`
	AutomaskType string       `yaml:"automaskType"` // "new" | "clear"
	ConfigPatch  *ConfigPatch `yaml:"configPatch"`
}

// WaitPeriod is a pure time marker used only for timeline narration.
type WaitPeriod struct {
	AtMs        int64  `yaml:"atMs"`
	Description string `yaml:"description"`
}

// Expectation checks the publishes to Topic as observed at AtMs
// milliseconds into the scenario.
type Expectation struct {
	AtMs  int64  `yaml:"atMs"`
	Topic string `yaml:"topic"`

	// Count, if set, asserts the number of publishes observed to
	// Topic so far equals this value (e.g. "no clusters published").
	Count *int `yaml:"count"`

	// Index selects which element of a list-shaped payload (clusters,
	// trackedPoints, smoothedTrackedPoints) Payload is matched
	// against. Defaults to 0.
	Index int `yaml:"index"`

	// Payload maps field name to expected value, matched with
	// checker.MatchValue (supports literal equality, "~regex~", and
	// ">"/"<"/">="/"<=" numeric comparisons).
	Payload map[string]interface{} `yaml:"payload"`

	// Active checks a presence publish's single boolean byte.
	Active *bool `yaml:"active"`

	// ListLength, if set, asserts the length of the latest publish's
	// decoded list-shaped payload (e.g. "clusters is now empty"),
	// independent of Count's total-publishes-observed check.
	ListLength *int `yaml:"listLength"`
}

// ExpectationResult is the outcome of checking one Expectation.
type ExpectationResult struct {
	Layer         string
	Expectation   Expectation
	Passed        bool
	Reason        string
	ActualPayload interface{}
}

// TestResult is the outcome of running one Scenario.
type TestResult struct {
	Scenario     *Scenario
	StartTime    time.Time
	EndTime      time.Time
	Passed       bool
	PassedCount  int
	FailedCount  int
	Expectations []ExpectationResult
}

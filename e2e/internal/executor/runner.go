package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/checker"
	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/reporter"
	"github.com/saaga0h/lidar2d-consolidation/e2e/internal/scenario"
	"github.com/saaga0h/lidar2d-consolidation/internal/orchestrator"
	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/pkg/config"
	"github.com/saaga0h/lidar2d-consolidation/pkg/statecache"
)

// Runner drives one Scenario against a fresh in-process orchestrator,
// wired to a bus.FakeClient instead of a live broker connection.
type Runner struct {
	logger *slog.Logger
}

// NewRunner constructs a Runner. A nil logger falls back to slog.Default().
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// Run executes s to completion and returns its result and timeline.
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Info("starting scenario", "name", s.Name, "description", s.Description)

	cfg := buildConfig(s.Setup)
	fake := bus.NewFakeClient()
	orch := orchestrator.New(cfg, fake, statecache.NopCache{}, s.Setup.DefaultMinDistanceThreshold, r.logger)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	orchErr := make(chan error, 1)
	go func() { orchErr <- orch.Run(runCtx) }()
	// Give Run's subscribeAll a moment to register before the first
	// scenario event is delivered (mirrors the teacher's "wait for
	// agents to start up" settle period, scaled down since the
	// orchestrator starts in-process rather than as a separate agent).
	time.Sleep(5 * time.Millisecond)

	start := time.Now()
	var timeline []reporter.TimelineEvent

	for _, ev := range s.Events {
		WaitUntil(start, ev.AtMs)
		elapsed := ElapsedMs(start)

		if err := r.publishEvent(fake, cfg, ev); err != nil {
			cancel()
			return nil, nil, fmt.Errorf("failed to publish event: %w", err)
		}

		r.logger.Info("published event", "elapsedMs", elapsed, "type", ev.Type, "description", ev.Description)
		timeline = append(timeline, reporter.TimelineEvent{
			ElapsedMs:   elapsed,
			Layer:       "event",
			Description: fmt.Sprintf("%s/%s (%s)", ev.Type, ev.Serial, ev.Description),
		})
	}

	for _, w := range s.Wait {
		WaitUntil(start, w.AtMs)
		elapsed := ElapsedMs(start)
		r.logger.Info("wait", "elapsedMs", elapsed, "description", w.Description)
		timeline = append(timeline, reporter.TimelineEvent{
			ElapsedMs:   elapsed,
			Layer:       "wait",
			Description: w.Description,
		})
	}

	type layerExp struct {
		layer string
		exp   scenario.Expectation
	}
	var all []layerExp
	for layer, exps := range s.Expectations {
		for _, exp := range exps {
			all = append(all, layerExp{layer, exp})
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].exp.AtMs < all[j].exp.AtMs })

	var results []scenario.ExpectationResult
	for _, le := range all {
		WaitUntil(start, le.exp.AtMs)
		elapsed := ElapsedMs(start)

		publishes := fake.AllPublished(le.exp.Topic)
		passed, reason, actual := checker.CheckExpectation(le.exp, publishes)

		results = append(results, scenario.ExpectationResult{
			Layer:         le.layer,
			Expectation:   le.exp,
			Passed:        passed,
			Reason:        reason,
			ActualPayload: actual,
		})

		status := "PASS"
		if !passed {
			status = "FAIL: " + reason
		}
		r.logger.Info("checked expectation", "elapsedMs", elapsed, "layer", le.layer, "topic", le.exp.Topic, "status", status)
		timeline = append(timeline, reporter.TimelineEvent{
			ElapsedMs:   elapsed,
			Layer:       le.layer,
			Description: le.exp.Topic,
			IsCheck:     true,
			Success:     passed,
		})
	}

	end := time.Now()
	cancel()

	passedCount, failedCount := 0, 0
	for _, res := range results {
		if res.Passed {
			passedCount++
		} else {
			failedCount++
		}
	}

	return &scenario.TestResult{
		Scenario:     s,
		StartTime:    start,
		EndTime:      end,
		Passed:       failedCount == 0,
		PassedCount:  passedCount,
		FailedCount:  failedCount,
		Expectations: results,
	}, timeline, nil
}

func (r *Runner) publishEvent(fake *bus.FakeClient, cfg *config.Config, ev scenario.Event) error {
	switch ev.Type {
	case "scan":
		samples := make([]bus.ScanSample, len(ev.Scan))
		for i, s := range ev.Scan {
			samples[i] = bus.ScanSample{Angle: s.Angle, Distance: s.Distance}
		}
		payload, err := bus.Marshal(samples)
		if err != nil {
			return err
		}
		fake.Deliver(bus.ScanTopic(ev.Serial), payload)

	case "bodyFrame":
		bodies := make([]bus.Body, len(ev.Body))
		for i, b := range ev.Body {
			bodies[i] = bus.Body{BodyXyz: [3]float32{b.X, b.Y, b.Z}}
		}
		payload, err := bus.Marshal(bodies)
		if err != nil {
			return err
		}
		fake.Deliver(bus.BodyFrameTopic(ev.Serial), payload)

	case "saveConfig":
		patched := applyPatch(cfg, ev.ConfigPatch)
		payload, err := bus.Marshal(patched)
		if err != nil {
			return err
		}
		fake.Deliver(bus.TopicSaveLidarConfig, payload)

	case "automaskRequest":
		payload, err := bus.Marshal(bus.AutoMaskRequest{Type: ev.AutomaskType})
		if err != nil {
			return err
		}
		fake.Deliver(bus.TopicRequestAutoMask, payload)

	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// buildConfig seeds a fresh config.Config from a scenario's setup
// block, defaulting every unset pipeline parameter.
func buildConfig(setup scenario.SetupConfig) *config.Config {
	cfg := config.NewDefault()
	cfg.Devices = devicesFrom(setup.Devices)
	cfg.Zones = zonesFrom(setup.Zones)
	cfg.RegionOfInterest = roiFrom(setup.RegionOfInterest)
	applySetup(cfg, setup)
	return cfg
}

func applyPatch(cfg *config.Config, patch *scenario.ConfigPatch) *config.Config {
	patched := *cfg
	if patch.Devices != nil {
		patched.Devices = devicesFrom(patch.Devices)
	}
	if patch.Zones != nil {
		patched.Zones = zonesFrom(patch.Zones)
	}
	if patch.RegionOfInterest != nil {
		patched.RegionOfInterest = roiFrom(patch.RegionOfInterest)
	}
	applySetup(&patched, patch.SetupConfig)
	return &patched
}

func applySetup(cfg *config.Config, setup scenario.SetupConfig) {
	if setup.ClusteringNeighbourhoodRadius != nil {
		cfg.ClusteringNeighbourhoodRadius = *setup.ClusteringNeighbourhoodRadius
	}
	if setup.ClusteringMinNeighbours != nil {
		cfg.ClusteringMinNeighbours = *setup.ClusteringMinNeighbours
	}
	if setup.ClusteringMaxClusterSize != nil {
		cfg.ClusteringMaxClusterSize = *setup.ClusteringMaxClusterSize
	}
	if setup.SmoothingDisable != nil {
		cfg.SmoothingDisable = *setup.SmoothingDisable
	}
	if setup.SmoothingMergeRadius != nil {
		cfg.SmoothingMergeRadius = *setup.SmoothingMergeRadius
	}
	if setup.SmoothingWaitBeforeActiveMs != nil {
		cfg.SmoothingWaitBeforeActiveMs = *setup.SmoothingWaitBeforeActiveMs
	}
	if setup.SmoothingExpireMs != nil {
		cfg.SmoothingExpireMs = *setup.SmoothingExpireMs
	}
	if setup.SmoothingLerpFactor != nil {
		cfg.SmoothingLerpFactor = *setup.SmoothingLerpFactor
	}
	if setup.SmoothingEmptySendMode != nil {
		cfg.SmoothingEmptySendMode = *setup.SmoothingEmptySendMode
	}
	if setup.SmoothingUpdateInterval != nil {
		cfg.SmoothingUpdateInterval = *setup.SmoothingUpdateInterval
	}
	if setup.OriginLocation != nil {
		cfg.OriginLocation = *setup.OriginLocation
	}
	if setup.TransformIncludeOutside != nil {
		cfg.TransformIncludeOutside = *setup.TransformIncludeOutside
	}
	if setup.TransformIgnoreOutsideMargin != nil {
		cfg.TransformIgnoreOutsideMargin = *setup.TransformIgnoreOutsideMargin
	}
	if setup.AutomaskScansRequired != nil {
		cfg.AutomaskScansRequired = *setup.AutomaskScansRequired
	}
	if setup.AutomaskThresholdMargin != nil {
		cfg.AutomaskThresholdMargin = *setup.AutomaskThresholdMargin
	}
	if setup.EnableAverageMovement != nil {
		cfg.EnableAverageMovement = *setup.EnableAverageMovement
	}
	if setup.AverageMovementInterval != nil {
		cfg.AverageMovementInterval = *setup.AverageMovementInterval
	}
}

func devicesFrom(devices []scenario.DeviceSetup) []config.DeviceDef {
	if devices == nil {
		return nil
	}
	out := make([]config.DeviceDef, len(devices))
	for i, d := range devices {
		def := config.DeviceDef{
			Serial:               d.Serial,
			Name:                 d.Name,
			Rotation:             d.Rotation,
			X:                    d.X,
			Y:                    d.Y,
			MinDistanceThreshold: d.MinDistanceThreshold,
		}
		if len(d.ScanMaskThresholds) > 0 {
			def.ScanMaskThresholds = make(map[string]float32, len(d.ScanMaskThresholds))
			for _, t := range d.ScanMaskThresholds {
				def.ScanMaskThresholds[strconv.Itoa(t.Angle)] = t.Threshold
			}
		}
		out[i] = def
	}
	return out
}

func zonesFrom(zones []scenario.ZoneSetup) []config.ZoneDef {
	if zones == nil {
		return nil
	}
	out := make([]config.ZoneDef, len(zones))
	for i, z := range zones {
		out[i] = config.ZoneDef{ID: z.ID, X: z.X, Y: z.Y, Width: z.Width, Height: z.Height}
	}
	return out
}

func roiFrom(corners []scenario.CornerSetup) []config.CornerPoint {
	if corners == nil {
		return nil
	}
	out := make([]config.CornerPoint, len(corners))
	for i, c := range corners {
		out[i] = config.CornerPoint{Corner: c.Corner, X: c.X, Y: c.Y}
	}
	return out
}

// Package orchestrator implements the single-threaded event loop
// (spec.md §4.8, §5) that wires every pipeline stage together: automask
// sampling, per-device point generation, clustering, quad remapping,
// tracking smoothing, presence detection, and movement aggregation.
// Grounded on original_source/src/bin/lidar2d-backend/main.rs's
// poll-loop structure (check-messages, then conditionally tick),
// translated into a Go select-driven loop per the teacher's
// internal/collector/agent.go Start(ctx)/handleMessage split — message
// delivery from the bus's own callback goroutine is funneled through a
// buffered channel so all pipeline work still runs on one goroutine.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/automask"
	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/pkg/clustering"
	"github.com/saaga0h/lidar2d-consolidation/pkg/config"
	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/metrics"
	"github.com/saaga0h/lidar2d-consolidation/pkg/movement"
	"github.com/saaga0h/lidar2d-consolidation/pkg/presence"
	"github.com/saaga0h/lidar2d-consolidation/pkg/quad"
	"github.com/saaga0h/lidar2d-consolidation/pkg/smoothing"
	"github.com/saaga0h/lidar2d-consolidation/pkg/statecache"
)

// inboxCapacity bounds the buffered channel feeding the single-
// goroutine loop; the bus's own handler goroutines must never block
// for longer than a channel send (spec.md §5 "no component may block
// longer than one scan or one tick").
const inboxCapacity = 256

type inboundMessage struct {
	topic   string
	payload []byte
}

// Orchestrator owns every pipeline stage and drives them from one
// goroutine (spec.md §5 "Shared resources").
type Orchestrator struct {
	cfg     *config.Config
	bus     bus.Client
	cache   statecache.Cache
	metrics *metrics.Metrics
	logger  *slog.Logger

	defaultMinDistance float32

	clusterEngine *clustering.Engine
	transformer   *quad.Transformer
	smoother      *smoothing.Smoother
	presenceDet   *presence.Detector
	movementAgg   *movement.Aggregator

	samplers map[string]*automask.Sampler

	inbox chan inboundMessage

	// nowFunc is overridable in tests; production code leaves it nil
	// and falls back to time.Now.
	nowFunc func() time.Time
}

// New constructs an orchestrator wired against cfg's current pipeline
// parameters. cfg is owned by the orchestrator from this point on; all
// mutation must go through its message handlers (spec.md §5).
func New(cfg *config.Config, busClient bus.Client, cache statecache.Cache, defaultMinDistance float32, logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:                cfg,
		bus:                busClient,
		cache:              cache,
		metrics:            metrics.Get(),
		logger:             logger,
		defaultMinDistance: defaultMinDistance,
		samplers:           make(map[string]*automask.Sampler),
		inbox:              make(chan inboundMessage, inboxCapacity),
	}
	o.rebuildFromConfig()
	return o
}

func (o *Orchestrator) now() time.Time {
	if o.nowFunc != nil {
		return o.nowFunc()
	}
	return time.Now()
}

// rebuildFromConfig (re)constructs the clustering engine, transformer,
// smoother, and presence detector from the live config (spec.md §4.5
// "parameters... rebuilt on config reload"). Per-device point caches
// and in-flight smoothed identities are intentionally discarded: a
// config reload changes pipeline semantics enough that continuity
// across it is not guaranteed by spec.md.
func (o *Orchestrator) rebuildFromConfig() {
	o.clusterEngine = clustering.NewEngine(clustering.Config{
		NeighbourhoodRadius: o.cfg.ClusteringNeighbourhoodRadius,
		MinNeighbours:       o.cfg.ClusteringMinNeighbours,
		MaxClusterSize:      o.cfg.ClusteringMaxClusterSize,
	})

	o.transformer = quad.NewTransformer(o.cfg.TransformIncludeOutside, o.cfg.TransformIgnoreOutsideMargin)
	if src, ok := roiQuad(o.cfg); ok {
		dst := quad.DestinationQuad(src, parseOrigin(o.cfg.OriginLocation), o.cfg.SmoothingUseRealUnits)
		if err := o.transformer.SetQuad(src, dst); err != nil {
			o.logger.Error("failed to compute ROI homography", "error", err)
		}
	}

	o.smoother = smoothing.New(smootherSettings(o.cfg))
	o.presenceDet = presence.New(presenceZones(o.cfg), presence.DefaultTimeout)
	o.movementAgg = movement.New()

	if o.nowFunc != nil {
		o.smoother.SetNowFunc(o.nowFunc)
		o.presenceDet.SetNowFunc(o.nowFunc)
		o.movementAgg.SetNowFunc(o.nowFunc)
	}
}

// SetNowFunc overrides the orchestrator's clock and every stage's
// clock in lockstep, for deterministic testing.
func (o *Orchestrator) SetNowFunc(f func() time.Time) {
	o.nowFunc = f
	o.smoother.SetNowFunc(f)
	o.presenceDet.SetNowFunc(f)
	o.movementAgg.SetNowFunc(f)
}

// Run subscribes to every input topic and drains the inbox until ctx
// is cancelled, checking whether a smoother tick is due after every
// handled message and on every tick of a 1 ms ticker.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.subscribeAll(); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-o.inbox:
			o.handleMessage(m)
			o.maybeTick()
		case <-ticker.C:
			o.maybeTick()
		}
	}
}

func (o *Orchestrator) subscribeAll() error {
	subscriptions := []struct {
		topic   string
		handler bus.MessageHandler
	}{
		{bus.ScanTopic("+"), o.deliver},
		{bus.BodyFrameTopic("+"), o.deliver},
		{bus.TopicSaveLidarConfig, o.deliver},
		{bus.TopicRequestAutoMask, o.deliver},
	}
	for _, s := range subscriptions {
		if err := o.bus.Subscribe(s.topic, bus.QoSAtMostOnce, s.handler); err != nil {
			return fmt.Errorf("orchestrator: subscribe %s: %w", s.topic, err)
		}
	}
	return nil
}

// deliver is the bus callback: its only job is a non-blocking hand-off
// to the single-goroutine loop (spec.md §5 suspension-point rule).
func (o *Orchestrator) deliver(msg bus.Message) {
	select {
	case o.inbox <- inboundMessage{topic: msg.Topic(), payload: msg.Payload()}:
	default:
		o.logger.Warn("inbox full, dropping message", "topic", msg.Topic())
	}
}

func (o *Orchestrator) handleMessage(m inboundMessage) {
	switch {
	case matchesPrefix(m.topic, bus.TopicScans):
		o.handleScan(bus.SerialFromTopic(m.topic), m.payload)
	case matchesPrefix(m.topic, bus.TopicBodyFrames):
		o.handleBodyFrame(bus.SerialFromTopic(m.topic), m.payload)
	case m.topic == bus.TopicSaveLidarConfig:
		o.handleSaveConfig(m.payload)
	case m.topic == bus.TopicRequestAutoMask:
		o.handleAutomaskRequest(m.payload)
	default:
		o.logger.Debug("unhandled topic", "topic", m.topic)
	}
}

func matchesPrefix(topic, prefix string) bool {
	if topic == prefix {
		return true
	}
	return len(topic) > len(prefix) && topic[:len(prefix)+1] == prefix+"/"
}

// handleScan runs 4.1-4.4 for one device's scan and feeds the result
// into the smoother (spec.md §4.8 scan-message handler).
func (o *Orchestrator) handleScan(serial string, payload []byte) {
	var wire []bus.ScanSample
	if err := bus.Unmarshal(payload, &wire); err != nil {
		o.logger.Error("failed to decode scan message", "serial", serial, "error", err)
		return
	}
	o.metrics.FramesTotal.WithLabelValues(serial).Inc()

	created := o.ensureDevice(serial)
	if created {
		o.publishConfig()
	}

	samples := make([]automask.Sample, len(wire))
	for i, s := range wire {
		samples[i] = automask.Sample{Angle: s.Angle, Distance: s.Distance}
	}
	o.feedAutomask(serial, samples)

	dev := o.cfg.Devices[o.cfg.FindDevice(serial)].ToDevice()
	points := make([]geometry.Point, 0, len(wire))
	for _, s := range wire {
		if p, ok := dev.PointFromSample(s.Angle, s.Distance); ok {
			points = append(points, p)
		}
	}

	o.clusterEngine.SetDevicePoints(serial, points)
	o.clusterAndTrack()
}

// handleBodyFrame runs 4.3-4.5 for an external 3D tracker's bodies,
// skipping the per-device angle/distance pipeline entirely (spec.md
// §4.8: "project each body's (x, z) -> (x, y)... then run through
// 4.3-4.5 the same way").
func (o *Orchestrator) handleBodyFrame(serial string, payload []byte) {
	var bodies []bus.Body
	if err := bus.Unmarshal(payload, &bodies); err != nil {
		o.logger.Error("failed to decode body-frame message", "serial", serial, "error", err)
		return
	}

	points := make([]geometry.Point, 0, len(bodies))
	for _, b := range bodies {
		points = append(points, geometry.Point{X: b.BodyXyz[0], Y: b.BodyXyz[2]})
	}

	o.clusterEngine.SetDevicePoints(serial, points)
	o.clusterAndTrack()
}

// clusterAndTrack runs 4.3 (cluster the fused cloud), publishes
// clusters, then 4.4 (quad remap) feeding surviving points into 4.5
// ingest, publishing raw tracked points (spec.md §4.3-§4.5, §7
// "Transformer unready... skip remap stage").
func (o *Orchestrator) clusterAndTrack() {
	clusters := o.clusterEngine.Cluster()
	o.publishClusters(clusters)
	o.metrics.ClustersEmitted.Set(float64(len(clusters)))

	if !o.transformer.IsReady() {
		o.metrics.TransformerUnready.Inc()
		return
	}

	tracked := make([]bus.TrackedPointOut, 0, len(clusters))
	remapped := make([]geometry.Point, 0, len(clusters))
	for _, c := range clusters {
		p, err := o.transformer.Transform(c.Centre)
		if err != nil {
			o.logger.Error("transform failed", "error", err)
			continue
		}
		inside, err := o.transformer.IsInside(p)
		if err != nil || !inside {
			continue
		}
		tracked = append(tracked, bus.TrackedPointOut{ID: c.ID, X: p.X, Y: p.Y})
		remapped = append(remapped, p)
	}
	o.publishTrackedPoints(tracked)
	o.smoother.Ingest(remapped)
}

// feedAutomask folds one scan into the device's active sampler, if any,
// applying and republishing the learned mask on completion (spec.md
// §4.8: "feed 4.1 if that device's sampler is active and if complete,
// update device mask and republish").
func (o *Orchestrator) feedAutomask(serial string, samples []automask.Sample) {
	sampler, active := o.samplers[serial]
	if !active {
		return
	}
	mask, complete := sampler.AddSamples(samples)
	ctx := context.Background()
	if !complete {
		remaining, thresholds := sampler.Progress()
		if err := o.cache.SaveAutomaskProgress(ctx, serial, remaining, thresholds); err != nil {
			o.logger.Warn("failed to checkpoint automask progress", "serial", serial, "error", err)
		}
		return
	}
	delete(o.samplers, serial)
	if err := o.cache.ClearAutomaskProgress(ctx, serial); err != nil {
		o.logger.Warn("failed to clear automask checkpoint", "serial", serial, "error", err)
	}
	if o.cfg.ApplyMask(serial, mask) {
		o.metrics.AutomaskCompleted.WithLabelValues(serial).Inc()
		o.publishConfig()
	} else {
		o.logger.Error("automask completed for a device no longer in config", "serial", serial)
	}
}

// ensureDevice auto-creates a default device on first sight of an
// unknown serial (spec.md §4.8, §7 "Unknown device serial").
func (o *Orchestrator) ensureDevice(serial string) bool {
	_, created := o.cfg.EnsureDevice(serial, o.defaultMinDistance)
	if created {
		o.metrics.Devices.Set(float64(len(o.cfg.Devices)))
	}
	return created
}

// handleSaveConfig replaces the live configuration, recomputes the
// transformer's destination quad, persists to disk, and republishes
// (spec.md §4.8 save-config handler).
func (o *Orchestrator) handleSaveConfig(payload []byte) {
	var incoming config.Config
	if err := bus.Unmarshal(payload, &incoming); err != nil {
		o.logger.Error("failed to decode save-config message", "error", err)
		return
	}
	o.cfg.ReplaceFrom(&incoming)
	o.rebuildFromConfig()
	o.samplers = make(map[string]*automask.Sampler)

	if o.cfg.FilePath != "" {
		if err := o.cfg.Save(); err != nil {
			o.logger.Error("failed to persist config", "error", err)
		}
	}
	o.publishConfig()
}

// handleAutomaskRequest implements the "new"/"clear" automask-request
// message (spec.md §4.8).
func (o *Orchestrator) handleAutomaskRequest(payload []byte) {
	var req bus.AutoMaskRequest
	if err := bus.Unmarshal(payload, &req); err != nil {
		o.logger.Error("failed to decode automask-request message", "error", err)
		return
	}
	switch req.Type {
	case "new":
		o.samplers = make(map[string]*automask.Sampler)
		ctx := context.Background()
		for _, d := range o.cfg.Devices {
			o.samplers[d.Serial] = o.newOrResumeSampler(ctx, d.Serial)
		}
	case "clear":
		o.cfg.ClearAllMasks()
		ctx := context.Background()
		for _, d := range o.cfg.Devices {
			if err := o.cache.ClearAutomaskProgress(ctx, d.Serial); err != nil {
				o.logger.Warn("failed to clear automask checkpoint", "serial", d.Serial, "error", err)
			}
		}
		o.publishConfig()
	default:
		o.logger.Warn("unknown automask-request type", "type", req.Type)
	}
}

// newOrResumeSampler resumes serial's sampler from its last checkpoint
// if one exists (a sampling run interrupted by a restart continues
// rather than starting over), otherwise starts fresh.
func (o *Orchestrator) newOrResumeSampler(ctx context.Context, serial string) *automask.Sampler {
	remaining, thresholds, ok, err := o.cache.LoadAutomaskProgress(ctx, serial)
	if err != nil {
		o.logger.Warn("failed to load automask checkpoint", "serial", serial, "error", err)
	} else if ok {
		return automask.Resume(serial, remaining, thresholds, o.cfg.AutomaskThresholdMargin)
	}
	return automask.New(serial, o.cfg.AutomaskScansRequired, o.cfg.AutomaskThresholdMargin)
}

// maybeTick runs the periodic smoother tick/emit and, from its result,
// presence detection and movement aggregation, matching
// original_source/src/bin/lidar2d-backend/main.rs's branch over
// Option<Vec<SmoothedPoint>> (spec.md §4.8 periodic-tick handler).
func (o *Orchestrator) maybeTick() {
	if o.cfg.SmoothingDisable {
		return
	}
	if o.now().Sub(o.smoother.LastTick()).Milliseconds() <= o.cfg.SmoothingUpdateInterval {
		return
	}

	o.smoother.Tick()
	o.metrics.SmoothingTicksTotal.Inc()
	points := o.smoother.Emit()
	o.metrics.TrackedPoints.Set(float64(o.smoother.Count()))

	if points != nil {
		o.publishSmoothedPoints(points)
		o.updateMovement(points)
		o.updatePresence(positionsOf(points))
		return
	}
	o.updateMovement(nil)
	o.updatePresence(nil)
}

func (o *Orchestrator) updateMovement(points []smoothing.TrackedPoint) {
	if !o.cfg.EnableAverageMovement {
		return
	}
	if o.movementAgg.Elapsed().Milliseconds() < o.cfg.AverageMovementInterval {
		return
	}
	sum := movement.Calculate(points)
	o.publishMovement(sum)
	o.movementAgg.ResetTimer()
}

func (o *Orchestrator) updatePresence(points []geometry.Point) {
	for _, z := range o.presenceDet.Update(points) {
		o.publishPresence(z)
		direction := "exit"
		if z.Active {
			direction = "enter"
		}
		o.metrics.ZoneTransitionsTotal.WithLabelValues(z.Name, direction).Inc()
	}
}

func positionsOf(points []smoothing.TrackedPoint) []geometry.Point {
	out := make([]geometry.Point, len(points))
	for i, p := range points {
		out[i] = p.Position
	}
	return out
}

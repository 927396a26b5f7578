package orchestrator

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/pkg/config"
	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/statecache"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(cfg *config.Config) (*Orchestrator, *bus.FakeClient) {
	fake := bus.NewFakeClient()
	o := New(cfg, fake, statecache.NopCache{}, 20, testLogger())
	c := time.Unix(1_700_000_000, 0)
	o.SetNowFunc(func() time.Time { return c })
	return o, fake
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := bus.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestScanFromUnknownDeviceCreatesDeviceAndRepublishesConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.SmoothingWaitBeforeActiveMs = 0
	o, fake := newTestOrchestrator(cfg)

	payload := mustMarshal(t, []bus.ScanSample{{Angle: 0, Distance: 500}})
	o.handleMessage(inboundMessage{topic: bus.ScanTopic("dev1"), payload: payload})

	if len(cfg.Devices) != 1 || cfg.Devices[0].Serial != "dev1" {
		t.Fatalf("expected device dev1 to be auto-created, got %+v", cfg.Devices)
	}
	if fake.LastPublished(bus.TopicProvideLidarConfig) == nil {
		t.Fatal("expected config republish on first-seen device")
	}
	if fake.LastPublished(bus.TopicClusters) == nil {
		t.Fatal("expected a clusters publish for the frame")
	}
}

func TestScanBelowMinDistanceProducesNoClusterPoints(t *testing.T) {
	cfg := config.NewDefault()
	o, fake := newTestOrchestrator(cfg)

	payload := mustMarshal(t, []bus.ScanSample{{Angle: 0, Distance: 5}})
	o.handleMessage(inboundMessage{topic: bus.ScanTopic("dev1"), payload: payload})

	var out []bus.ClusterOut
	pub := fake.LastPublished(bus.TopicClusters)
	if pub == nil {
		t.Fatal("expected a clusters publish even when empty")
	}
	if err := bus.Unmarshal(pub.Payload, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no clusters from a below-threshold sample, got %d", len(out))
	}
}

func TestTrackedPointsSkippedWhenTransformerNotReady(t *testing.T) {
	cfg := config.NewDefault()
	o, fake := newTestOrchestrator(cfg)

	scan := make([]bus.ScanSample, 0, 8)
	for i := 0; i < 8; i++ {
		scan = append(scan, bus.ScanSample{Angle: float32(i * 10), Distance: 500})
	}
	payload := mustMarshal(t, scan)
	o.handleMessage(inboundMessage{topic: bus.ScanTopic("dev1"), payload: payload})

	if fake.LastPublished(bus.TopicTrackedPoints) != nil {
		t.Fatal("expected no trackedPoints publish before a ROI is configured")
	}
}

func TestSaveConfigPersistsAndRepublishes(t *testing.T) {
	cfg := config.NewDefault()
	cfg.FilePath = filepath.Join(t.TempDir(), "lidar2d-config.json")
	o, fake := newTestOrchestrator(cfg)

	incoming := config.NewDefault()
	incoming.Devices = []config.DeviceDef{{Serial: "dev9", Name: "dev9"}}
	payload := mustMarshal(t, incoming)

	o.handleMessage(inboundMessage{topic: bus.TopicSaveLidarConfig, payload: payload})

	if len(cfg.Devices) != 1 || cfg.Devices[0].Serial != "dev9" {
		t.Fatalf("expected live config to be replaced, got %+v", cfg.Devices)
	}
	if _, err := os.Stat(cfg.FilePath); err != nil {
		t.Fatalf("expected config persisted to %s: %v", cfg.FilePath, err)
	}
	if fake.LastPublished(bus.TopicProvideLidarConfig) == nil {
		t.Fatal("expected config republish after save-config")
	}
}

func TestAutomaskRequestNewCreatesSamplersForEveryDevice(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Devices = []config.DeviceDef{{Serial: "dev1"}, {Serial: "dev2"}}
	o, _ := newTestOrchestrator(cfg)

	payload := mustMarshal(t, bus.AutoMaskRequest{Type: "new"})
	o.handleMessage(inboundMessage{topic: bus.TopicRequestAutoMask, payload: payload})

	if len(o.samplers) != 2 {
		t.Fatalf("expected a sampler per device, got %d", len(o.samplers))
	}
}

func TestAutomaskRequestClearWipesMasksAndRepublishes(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Devices = []config.DeviceDef{{Serial: "dev1", ScanMaskThresholds: map[string]float32{"10": 900}}}
	o, fake := newTestOrchestrator(cfg)

	payload := mustMarshal(t, bus.AutoMaskRequest{Type: "clear"})
	o.handleMessage(inboundMessage{topic: bus.TopicRequestAutoMask, payload: payload})

	if cfg.Devices[0].ScanMaskThresholds != nil {
		t.Fatal("expected mask to be cleared")
	}
	if fake.LastPublished(bus.TopicProvideLidarConfig) == nil {
		t.Fatal("expected config republish after clear")
	}
}

func TestMaybeTickSkipsWhenSmoothingDisabled(t *testing.T) {
	cfg := config.NewDefault()
	cfg.SmoothingDisable = true
	o, fake := newTestOrchestrator(cfg)

	o.maybeTick()

	if fake.LastPublished(bus.TopicSmoothedPoints) != nil {
		t.Fatal("expected no smoothed-points publish while smoothing is disabled")
	}
}

func TestMaybeTickPublishesSmoothedPointsAfterInterval(t *testing.T) {
	cfg := config.NewDefault()
	cfg.SmoothingUpdateInterval = 1
	cfg.SmoothingWaitBeforeActiveMs = 0
	o, fake := newTestOrchestrator(cfg)

	start := time.Unix(1_700_000_000, 0)
	cur := start
	o.SetNowFunc(func() time.Time { return cur })

	o.smoother.Ingest([]geometry.Point{{X: 10, Y: 10}})
	cur = cur.Add(2 * time.Millisecond)
	o.maybeTick()

	if fake.LastPublished(bus.TopicSmoothedPoints) == nil {
		t.Fatal("expected a smoothedTrackedPoints publish once the update interval elapses")
	}
}

func TestPresenceTransitionPublishesOneBytePayload(t *testing.T) {
	cfg := config.NewDefault()
	cfg.SmoothingUpdateInterval = 1
	cfg.SmoothingWaitBeforeActiveMs = 0
	cfg.Zones = []config.ZoneDef{{ID: "doorway", X: 0, Y: 0, Width: 1000, Height: 1000}}
	o, fake := newTestOrchestrator(cfg)

	start := time.Unix(1_700_000_000, 0)
	cur := start
	o.SetNowFunc(func() time.Time { return cur })

	o.smoother.Ingest([]geometry.Point{{X: 100, Y: 100}})
	cur = cur.Add(2 * time.Millisecond)
	o.maybeTick()

	pub := fake.LastPublished(bus.PresenceTopic("doorway"))
	if pub == nil {
		t.Fatal("expected a presence publish for the doorway zone")
	}
	if len(pub.Payload) != 1 || pub.Payload[0] != 0x01 {
		t.Fatalf("expected a single 0x01 byte for zone entry, got %v", pub.Payload)
	}
}

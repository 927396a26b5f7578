package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchSpecValues(t *testing.T) {
	c := NewDefault()
	if c.ClusteringNeighbourhoodRadius != 200 || c.ClusteringMinNeighbours != 4 || c.ClusteringMaxClusterSize != 2500 {
		t.Fatalf("clustering defaults wrong: %+v", c)
	}
	if c.SmoothingMergeRadius != 100 || c.SmoothingWaitBeforeActiveMs != 100 || c.SmoothingExpireMs != 3000 {
		t.Fatalf("smoothing defaults wrong: %+v", c)
	}
	if c.SmoothingEmptySendMode != "Once" || c.OriginLocation != "Centre" {
		t.Fatalf("string-enum defaults wrong: %+v", c)
	}
	if c.AutomaskScansRequired != 60 || c.AutomaskThresholdMargin != 50 {
		t.Fatalf("automask defaults wrong: %+v", c)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := NewDefault()
	c.FilePath = path
	c.EnsureDevice("lidar-1", 150)
	if err := c.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Devices) != 1 || loaded.Devices[0].Serial != "lidar-1" {
		t.Fatalf("loaded devices = %+v", loaded.Devices)
	}
}

func TestLoadMissingFileReturnsNotExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !os.IsNotExist(err) {
		t.Fatalf("expected IsNotExist error, got %v", err)
	}
}

func TestEnsureDeviceCreatesOnceAndCyclesColour(t *testing.T) {
	c := NewDefault()
	i1, created1 := c.EnsureDevice("dev-a", 100)
	if !created1 || i1 != 0 {
		t.Fatalf("expected first device created at index 0, got %d, %v", i1, created1)
	}
	i2, created2 := c.EnsureDevice("dev-a", 100)
	if created2 || i2 != 0 {
		t.Fatal("expected EnsureDevice to be idempotent for a known serial")
	}
	_, created3 := c.EnsureDevice("dev-b", 100)
	if !created3 {
		t.Fatal("expected second distinct serial to be created")
	}
	if c.Devices[0].Colour == c.Devices[1].Colour {
		t.Fatal("expected palette-cycled distinct colours for distinct devices")
	}
}

func TestApplyMaskAndClearAllMasks(t *testing.T) {
	c := NewDefault()
	c.EnsureDevice("dev-a", 100)
	if !c.ApplyMask("dev-a", map[string]float32{"90": 1950}) {
		t.Fatal("expected mask applied")
	}
	if c.ApplyMask("dev-missing", map[string]float32{}) {
		t.Fatal("expected false for unknown device")
	}
	c.ClearAllMasks()
	if c.Devices[0].ScanMaskThresholds != nil {
		t.Fatal("expected mask cleared")
	}
}

func TestCLIOptionsValidate(t *testing.T) {
	o := DefaultCLIOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("expected defaults valid, got %v", err)
	}
	o.BrokerPort = 0
	if err := o.Validate(); err == nil {
		t.Fatal("expected invalid port to fail validation")
	}
}

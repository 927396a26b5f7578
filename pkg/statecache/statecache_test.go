package statecache

import (
	"context"
	"testing"
)

func TestNopCacheIsAlwaysANoOp(t *testing.T) {
	var c Cache = NopCache{}
	ctx := context.Background()

	if err := c.SaveAutomaskProgress(ctx, "dev1", 5, map[string]float32{"90": 1950}); err != nil {
		t.Fatalf("SaveAutomaskProgress: %v", err)
	}
	_, _, ok, err := c.LoadAutomaskProgress(ctx, "dev1")
	if err != nil {
		t.Fatalf("LoadAutomaskProgress: %v", err)
	}
	if ok {
		t.Fatal("expected NopCache to never report a saved checkpoint")
	}
	if err := c.ClearAutomaskProgress(ctx, "dev1"); err != nil {
		t.Fatalf("ClearAutomaskProgress: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

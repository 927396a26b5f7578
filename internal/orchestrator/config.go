package orchestrator

import (
	"github.com/saaga0h/lidar2d-consolidation/pkg/config"
	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/presence"
	"github.com/saaga0h/lidar2d-consolidation/pkg/quad"
	"github.com/saaga0h/lidar2d-consolidation/pkg/smoothing"
)

// parseOrigin maps the on-disk originLocation string (spec.md §6) to
// the quad package's enum, defaulting to centre on an unrecognised
// value the way the rest of this orchestrator prefers a safe default
// over aborting on a malformed config field.
func parseOrigin(s string) quad.OriginLocation {
	switch s {
	case "Corner":
		return quad.OriginCorner
	case "CloseCentre":
		return quad.OriginCloseCentre
	default:
		return quad.OriginCentre
	}
}

// parseEmptySendMode maps the on-disk smoothingEmptySendMode string to
// the smoothing package's enum.
func parseEmptySendMode(s string) smoothing.EmptyListSendMode {
	switch s {
	case "Never":
		return smoothing.EmptyListNever
	case "Always":
		return smoothing.EmptyListAlways
	default:
		return smoothing.EmptyListOnce
	}
}

// smootherSettings builds smoothing.Settings from the live config
// (spec.md §4.5 "parameters... rebuilt on config reload").
func smootherSettings(cfg *config.Config) smoothing.Settings {
	return smoothing.Settings{
		MergeRadius:        cfg.SmoothingMergeRadius,
		WaitBeforeActiveMs: cfg.SmoothingWaitBeforeActiveMs,
		ExpireMs:           cfg.SmoothingExpireMs,
		LerpFactor:         cfg.SmoothingLerpFactor,
		EmptyListSendMode:  parseEmptySendMode(cfg.SmoothingEmptySendMode),
		CalculateVelocity:  cfg.EnableVelocity || cfg.EnableAverageMovement,
		CalculateHeading:   cfg.EnableHeading,
	}
}

// presenceZones builds the detector's zone list from the live config.
func presenceZones(cfg *config.Config) []*presence.Zone {
	zones := make([]*presence.Zone, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		zones = append(zones, &presence.Zone{
			Name:   z.ID,
			X:      z.X,
			Y:      z.Y,
			Width:  z.Width,
			Height: z.Height,
		})
	}
	return zones
}

// roiQuad extracts the four region-of-interest corners from the live
// config in A, B, C, D order (spec.md §6: "in order A, B, C, D
// (bottom-left, bottom-right, top-right, top-left...)"), reporting
// ok=false if the ROI is not fully defined.
func roiQuad(cfg *config.Config) (quad.Quad, bool) {
	if len(cfg.RegionOfInterest) != 4 {
		return quad.Quad{}, false
	}
	byCorner := make(map[int]config.CornerPoint, 4)
	for _, c := range cfg.RegionOfInterest {
		byCorner[c.Corner] = c
	}
	var q quad.Quad
	for i := 0; i < 4; i++ {
		c, ok := byCorner[i]
		if !ok {
			return quad.Quad{}, false
		}
		q[i] = geometry.Point{X: c.X, Y: c.Y}
	}
	return q, true
}

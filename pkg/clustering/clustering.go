// Package clustering fuses per-device world-frame point clouds and
// runs DBSCAN over the combined cloud to isolate physical objects
// (spec.md §4.3). The DBSCAN visited/expand-cluster structure is
// grounded on the teacher's internal/behavior/clustering/dbscan.go,
// generalised from anchor-UUID/distance-matrix lookups to direct
// Euclidean distance over dense point-cloud indices.
package clustering

import (
	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
)

// Cluster is one emitted, bounded-size cluster of fused points.
type Cluster struct {
	ID     int
	Centre geometry.Point
	Size   float32 // max(bounding-box width, height)
}

// Config holds the DBSCAN and size-bound parameters for one engine.
type Config struct {
	NeighbourhoodRadius float32 // DBSCAN eps
	MinNeighbours       int     // DBSCAN min_samples
	MaxClusterSize      float32
}

// Engine fuses per-device point caches and clusters the combined
// cloud on each frame. It owns no history beyond the per-device point
// cache (spec.md §4.3: "retains only the per-device point caches
// between frames").
type Engine struct {
	cfg    Config
	byDev  map[string][]geometry.Point
}

// NewEngine constructs a clustering engine with the given parameters.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, byDev: make(map[string][]geometry.Point)}
}

// SetDevicePoints replaces the cached point cloud for one device,
// leaving every other device's cache untouched (spec.md §4.3 step 1).
func (e *Engine) SetDevicePoints(serial string, points []geometry.Point) {
	e.byDev[serial] = points
}

// RemoveDevice drops a device's cached point cloud entirely.
func (e *Engine) RemoveDevice(serial string) {
	delete(e.byDev, serial)
}

// fusedPoints concatenates every device's cached points; order is not
// significant to DBSCAN.
func (e *Engine) fusedPoints() []geometry.Point {
	total := 0
	for _, pts := range e.byDev {
		total += len(pts)
	}
	fused := make([]geometry.Point, 0, total)
	for _, pts := range e.byDev {
		fused = append(fused, pts...)
	}
	return fused
}

// Cluster runs DBSCAN over the currently fused point cloud and returns
// the bounded-size clusters, dense frame-local ids starting at 0
// (spec.md §4.3 steps 2-5).
func (e *Engine) Cluster() []Cluster {
	points := e.fusedPoints()
	groups := dbscan(points, e.cfg.NeighbourhoodRadius, e.cfg.MinNeighbours)

	clusters := make([]Cluster, 0, len(groups))
	id := 0
	for _, members := range groups {
		c := boundingBoxCluster(points, members, id)
		if c.Size > e.cfg.MaxClusterSize {
			continue
		}
		clusters = append(clusters, c)
		id++
	}
	return clusters
}

// boundingBoxCluster computes a Cluster's centre and size from the
// axis-aligned bounding box of its member point indices.
func boundingBoxCluster(points []geometry.Point, members []int, id int) Cluster {
	first := points[members[0]]
	minX, maxX := first.X, first.X
	minY, maxY := first.Y, first.Y
	for _, idx := range members[1:] {
		p := points[idx]
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	width := maxX - minX
	height := maxY - minY
	size := width
	if height > size {
		size = height
	}
	return Cluster{
		ID:     id,
		Centre: geometry.Point{X: minX + width/2, Y: minY + height/2},
		Size:   size,
	}
}

// dbscan runs DBSCAN over points with the given eps/minSamples and
// returns the member-index lists of the discovered (non-noise)
// clusters. Grounded on the teacher's visited-set + expand-cluster-
// queue structure (internal/behavior/clustering/dbscan.go), adapted to
// operate directly on point indices with an inline distance check
// rather than a precomputed string-keyed distance matrix.
func dbscan(points []geometry.Point, eps float32, minSamples int) [][]int {
	n := len(points)
	visited := make([]bool, n)
	clusterOf := make([]int, n)
	for i := range clusterOf {
		clusterOf[i] = -1
	}

	// neighboursOf excludes the query point itself; minSamples counts it
	// (standard DBSCAN semantics, matching petal_clustering::Dbscan's
	// range query), so callers compare len(neighbours)+1 against
	// minSamples rather than len(neighbours) alone.
	neighboursOf := func(i int) []int {
		var neighbours []int
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if geometry.Distance(points[i], points[j]) <= eps {
				neighbours = append(neighbours, j)
			}
		}
		return neighbours
	}

	currentCluster := -1
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbours := neighboursOf(i)
		if len(neighbours)+1 < minSamples {
			continue // noise; leave clusterOf[i] == -1
		}

		currentCluster++
		clusterOf[i] = currentCluster

		queue := append([]int{}, neighbours...)
		for qi := 0; qi < len(queue); qi++ {
			j := queue[qi]
			if !visited[j] {
				visited[j] = true
				jNeighbours := neighboursOf(j)
				if len(jNeighbours)+1 >= minSamples {
					queue = append(queue, jNeighbours...)
				}
			}
			if clusterOf[j] == -1 {
				clusterOf[j] = currentCluster
			}
		}
	}

	if currentCluster < 0 {
		return nil
	}
	groups := make([][]int, currentCluster+1)
	for i, c := range clusterOf {
		if c >= 0 {
			groups[c] = append(groups[c], i)
		}
	}
	return groups
}

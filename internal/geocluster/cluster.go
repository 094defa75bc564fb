// Package geocluster groups geographic coordinates into spatially coherent
// clusters and assigns ambiguous geocodings to the cluster arrangement that
// maximizes cohesion.
package geocluster

import "math"

// EarthRadiusKm is the Earth's mean radius.
const EarthRadiusKm = 6371.0088

const (
	// DefaultMaxDistKm is the maximum distance between directly reachable
	// cluster points.
	DefaultMaxDistKm = 150.0
	// DefaultMinSize is the minimum neighborhood size to form a cluster.
	DefaultMinSize = 1
)

// Point is a geodetic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// haversineAngle returns the central angle between two points in radians.
func haversineAngle(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(a, b Point) float64 {
	return EarthRadiusKm * haversineAngle(a, b)
}

// Clusterer performs density-based clustering on the haversine metric.
// The metric compares angular distances, so MaxDistKm is converted to
// radians using the Earth's mean radius.
type Clusterer struct {
	MaxDistKm float64
	MinSize   int
}

// NewClusterer returns a Clusterer, substituting defaults for non-positive
// parameters.
func NewClusterer(maxDistKm float64, minSize int) Clusterer {
	if maxDistKm <= 0 {
		maxDistKm = DefaultMaxDistKm
	}
	if minSize <= 0 {
		minSize = DefaultMinSize
	}
	return Clusterer{MaxDistKm: maxDistKm, MinSize: minSize}
}

// Cluster groups the input points by density reachability. Points not within
// MaxDistKm of any MinSize-satisfying neighborhood are treated as outliers
// and returned in no group. The input is not mutated.
func (c Clusterer) Cluster(points []Point) [][]Point {
	const (
		unclassified = 0
		noise        = -1
	)
	epsRadians := c.MaxDistKm / EarthRadiusKm

	labels := make([]int, len(points))
	neighborsOf := func(i int) []int {
		var nbrs []int
		for j := range points {
			if haversineAngle(points[i], points[j]) <= epsRadians {
				nbrs = append(nbrs, j)
			}
		}
		return nbrs
	}

	clusterID := 0
	for i := range points {
		if labels[i] != unclassified {
			continue
		}
		nbrs := neighborsOf(i)
		if len(nbrs) < c.MinSize {
			labels[i] = noise
			continue
		}
		clusterID++
		labels[i] = clusterID

		// Expand the cluster over the density-reachable frontier.
		for k := 0; k < len(nbrs); k++ {
			j := nbrs[k]
			if labels[j] == noise {
				labels[j] = clusterID // border point
			}
			if labels[j] != unclassified {
				continue
			}
			labels[j] = clusterID
			jNbrs := neighborsOf(j)
			if len(jNbrs) >= c.MinSize {
				nbrs = append(nbrs, jNbrs...)
			}
		}
	}

	groups := make([][]Point, clusterID)
	for i, l := range labels {
		if l > 0 {
			groups[l-1] = append(groups[l-1], points[i])
		}
	}
	var out [][]Point
	for _, g := range groups {
		if len(g) > 0 {
			out = append(out, g)
		}
	}
	return out
}

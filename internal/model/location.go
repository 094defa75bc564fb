// Package model defines the data types shared across the geolocation pipeline.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Place is a named entity extracted from article text that may denote a
// geographic location. Immutable input to the pipeline.
type Place struct {
	Text      string   `json:"text"`
	Relevance float64  `json:"relevance"`
	Subtype   []string `json:"subtype,omitempty"`
}

// BoundingBox is a geographic extent in (minlon, minlat, maxlon, maxlat) order.
type BoundingBox struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Candidate is one proposed coordinate/address resolution for a place name,
// returned by an external geocoder. Ordering within a slice is significant
// only after filtering (best first).
type Candidate struct {
	Address     string            `json:"address"`
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	BoundingBox *BoundingBox      `json:"boundingbox,omitempty"`
	Components  map[string]string `json:"components,omitempty"`
	Source      string            `json:"source,omitempty"`
	Similarity  float64           `json:"similarity,omitempty"`
}

// ResolvedLocation is a candidate accepted into a cluster, merged with the
// originating place's metadata and its cluster co-membership.
type ResolvedLocation struct {
	Name         string             `json:"name"`
	Address      string             `json:"address"`
	Lat          float64            `json:"lat"`
	Lon          float64            `json:"lon"`
	BoundingBox  *BoundingBox       `json:"boundingbox,omitempty"`
	Source       string             `json:"source,omitempty"`
	Text         string             `json:"text"`
	Relevance    float64            `json:"relevance"`
	Mentions     []string           `json:"mentions,omitempty"`
	Cluster      []string           `json:"cluster"`
	ClusterRatio float64            `json:"cluster_ratio"`
	MapRelevance map[string]float64 `json:"map_relevance,omitempty"`
}

// CoreLocation is the trimmed field set of the story's single best location,
// suitable for display or indexing.
type CoreLocation struct {
	Text         string             `json:"text"`
	Address      string             `json:"address"`
	Lat          float64            `json:"lat"`
	Lon          float64            `json:"lon"`
	BoundingBox  *BoundingBox       `json:"boundingbox,omitempty"`
	Mentions     []string           `json:"mentions,omitempty"`
	MapRelevance map[string]float64 `json:"map_relevance,omitempty"`
}

// Story is one news article together with its resolved locations.
type Story struct {
	ID           string                      `json:"id"`
	URL          string                      `json:"url"`
	Title        string                      `json:"title,omitempty"`
	Text         string                      `json:"text"`
	Places       map[string]Place            `json:"places,omitempty"`
	Locations    map[string]ResolvedLocation `json:"locations,omitempty"`
	CoreLocation *CoreLocation               `json:"core_location,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
}

// SpatialExtent is either a bounding box or a bare point. Geocoders do not
// always return bounds, so proximity checks fall back to the point form.
type SpatialExtent struct {
	bounds   *geom.Bounds
	lat, lon float64
}

// Extent returns the candidate's spatial extent: its bounding box when one
// was returned, otherwise its point coordinates.
func (c Candidate) Extent() SpatialExtent {
	if c.BoundingBox != nil {
		b := geom.NewBounds(geom.XY)
		b.Set(c.BoundingBox.MinLon, c.BoundingBox.MinLat, c.BoundingBox.MaxLon, c.BoundingBox.MaxLat)
		return SpatialExtent{bounds: b, lat: c.Lat, lon: c.Lon}
	}
	return SpatialExtent{lat: c.Lat, lon: c.Lon}
}

// Intersects reports whether two extents overlap. Box/box and box/point pairs
// use planar bounds overlap; two bare points intersect only when equal.
func (e SpatialExtent) Intersects(o SpatialExtent) bool {
	switch {
	case e.bounds != nil && o.bounds != nil:
		return e.bounds.Overlaps(geom.XY, o.bounds)
	case e.bounds != nil:
		return e.bounds.OverlapsPoint(geom.XY, geom.Coord{o.lon, o.lat})
	case o.bounds != nil:
		return o.bounds.OverlapsPoint(geom.XY, geom.Coord{e.lon, e.lat})
	default:
		return e.lat == o.lat && e.lon == o.lon
	}
}

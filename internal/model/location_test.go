package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpatialExtent_Intersects(t *testing.T) {
	box := func(minLon, minLat, maxLon, maxLat float64) Candidate {
		return Candidate{
			Lat: (minLat + maxLat) / 2, Lon: (minLon + maxLon) / 2,
			BoundingBox: &BoundingBox{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat},
		}
	}
	point := func(lat, lon float64) Candidate {
		return Candidate{Lat: lat, Lon: lon}
	}

	tests := []struct {
		name string
		a, b Candidate
		want bool
	}{
		{
			name: "overlapping boxes",
			a:    box(0, 0, 2, 2),
			b:    box(1, 1, 3, 3),
			want: true,
		},
		{
			name: "touching boxes",
			a:    box(0, 0, 1, 1),
			b:    box(1, 1, 2, 2),
			want: true,
		},
		{
			name: "disjoint boxes",
			a:    box(0, 0, 1, 1),
			b:    box(2, 2, 3, 3),
			want: false,
		},
		{
			name: "point inside box",
			a:    box(0, 0, 2, 2),
			b:    point(1, 1),
			want: true,
		},
		{
			name: "point outside box",
			a:    box(0, 0, 2, 2),
			b:    point(5, 5),
			want: false,
		},
		{
			name: "equal points",
			a:    point(46.2, 6.1),
			b:    point(46.2, 6.1),
			want: true,
		},
		{
			name: "distinct points",
			a:    point(46.2, 6.1),
			b:    point(46.5, 6.6),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Extent().Intersects(tt.b.Extent()))
			assert.Equal(t, tt.want, tt.b.Extent().Intersects(tt.a.Extent()), "intersection is symmetric")
		})
	}
}

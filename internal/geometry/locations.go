package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"estateinsight/server/config"
	"estateinsight/server/internal/models"
)

type locationStats struct {
	count   int
	years   map[int]bool
	latSum  float64
	lngSum  float64
	located int
}

// BuildLocationMap returns one Point feature per catalog location. A point
// sits at the mean of the non-zero coordinates stored for the location, or
// at the catalog center when none are stored.
func BuildLocationMap(locations []config.Location, records []models.Record) *geojson.FeatureCollection {
	stats := make(map[string]*locationStats, len(locations))
	for _, loc := range locations {
		stats[loc.Name] = &locationStats{years: make(map[int]bool)}
	}

	for _, r := range records {
		s, ok := stats[r.FinalLocation]
		if !ok {
			continue
		}
		s.count++
		s.years[r.Year] = true
		if r.LocLat != 0 && r.LocLng != 0 {
			s.latSum += r.LocLat
			s.lngSum += r.LocLng
			s.located++
		}
	}

	fc := geojson.NewFeatureCollection()
	points := make(orb.MultiPoint, 0, len(locations))
	for _, loc := range locations {
		s := stats[loc.Name]

		var point orb.Point
		switch {
		case s.located > 0:
			// orb points are lng, lat
			point = orb.Point{s.lngSum / float64(s.located), s.latSum / float64(s.located)}
		case len(loc.Center) == 2:
			point = orb.Point{loc.Center[1], loc.Center[0]}
		default:
			continue
		}

		feature := geojson.NewFeature(point)
		feature.Properties = geojson.Properties{
			"name":         loc.Name,
			"record_count": s.count,
			"years":        sortedYears(s.years),
		}
		fc.Append(feature)
		points = append(points, point)
	}

	if len(points) > 0 {
		fc.BBox = geojson.NewBBox(points.Bound())
	}
	return fc
}

func sortedYears(set map[int]bool) []int {
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

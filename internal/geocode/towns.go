package geocode

import "math"

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// jitterRange is the full width of the random offset applied to town centres.
const jitterRange = 0.006

var townCenters = map[string]Point{
	"Danbury":       {Lat: 41.4015, Lng: -73.4540},
	"Bethel":        {Lat: 41.3714, Lng: -73.4130},
	"Brookfield":    {Lat: 41.4182, Lng: -73.3970},
	"Kent":          {Lat: 41.7245, Lng: -73.4769},
	"New Fairfield": {Lat: 41.4666, Lng: -73.4859},
	"New Milford":   {Lat: 41.5770, Lng: -73.4085},
	"Newtown":       {Lat: 41.4139, Lng: -73.3116},
	"Redding":       {Lat: 41.3050, Lng: -73.3830},
	"Ridgefield":    {Lat: 41.2815, Lng: -73.4984},
	"Sherman":       {Lat: 41.5800, Lng: -73.4950},
}

// Danbury is the proximity bias for forward geocoding.
var Danbury = townCenters["Danbury"]

// TownCenter returns the centre of a covered town.
func TownCenter(town string) (Point, bool) {
	p, ok := townCenters[town]
	return p, ok
}

// Jitter offsets p by up to ±0.003° on each axis so fallback pins do not stack.
// rnd must return values in [0, 1).
func Jitter(p Point, rnd func() float64) Point {
	return Point{
		Lat: round6(p.Lat + (rnd()-0.5)*jitterRange),
		Lng: round6(p.Lng + (rnd()-0.5)*jitterRange),
	}
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

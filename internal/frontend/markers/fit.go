package markers

import (
	"math"

	"github.com/zatekoja/eventfinder/pkg/geo"
)

const tileSize = 256

// mercator projects a point onto the unit square of the web mercator world
func mercator(p geo.Point) (x, y float64) {
	lat := math.Max(-85.05112878, math.Min(85.05112878, p.Lat))
	rad := lat * math.Pi / 180
	x = (p.Lon + 180) / 360
	y = (1 - math.Log(math.Tan(rad)+1/math.Cos(rad))/math.Pi) / 2
	return x, y
}

// fitZoom returns the highest whole zoom at which b fits a width x height
// viewport with padding on every side, capped at maxZoom. ok is false when
// the viewport leaves no room once padded.
func fitZoom(b geo.Bounds, width, height, padding, maxZoom int) (zoom int, ok bool) {
	usableW := float64(width - 2*padding)
	usableH := float64(height - 2*padding)
	if usableW <= 0 || usableH <= 0 {
		return 0, false
	}

	x1, y1 := mercator(geo.Point{Lat: b.North, Lon: b.West})
	x2, y2 := mercator(geo.Point{Lat: b.South, Lon: b.East})
	dx, dy := math.Abs(x2-x1), math.Abs(y2-y1)

	scale := math.Inf(1)
	if dx > 0 {
		scale = math.Min(scale, usableW/(dx*tileSize))
	}
	if dy > 0 {
		scale = math.Min(scale, usableH/(dy*tileSize))
	}
	if math.IsInf(scale, 1) {
		return maxZoom, true
	}

	zoom = int(math.Floor(math.Log2(scale)))
	if zoom > maxZoom {
		zoom = maxZoom
	}
	if zoom < 0 {
		zoom = 0
	}
	return zoom, true
}

// Package geo turns action geometry into simple features and places the
// local simulation frame on the globe.
//
// Geometry is stored as WKB so the same column works in SQLite, which has
// no spatial types, and Postgres.
package geo

import (
	"errors"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"

	"github.com/IqraJilani-aai/open-simulation-interface/pkg/osi"
)

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// PointFromVector converts a position to an XYZ point.
func PointFromVector(v osi.Vector3d) geom.Point {
	return geom.NewPoint(geom.Coordinates{
		XY:   geom.XY{X: v.X, Y: v.Y},
		Z:    v.Z,
		Type: geom.DimXYZ,
	})
}

// PathFromStatePoints builds the geometry traced by points. Points without
// a position are skipped. No positions give an empty geometry, one gives a
// point, more give an XYZ line string.
func PathFromStatePoints(points []osi.StatePoint) geom.Geometry {
	coords := make([]float64, 0, len(points)*3)
	for _, p := range points {
		if p.Position == nil {
			continue
		}
		coords = append(coords, p.Position.X, p.Position.Y, p.Position.Z)
	}

	switch len(coords) {
	case 0:
		return geom.Geometry{}
	case 3:
		return PointFromVector(osi.Vector3d{X: coords[0], Y: coords[1], Z: coords[2]}).AsGeometry()
	}
	seq := geom.NewSequence(coords, geom.DimXYZ)
	return geom.NewLineString(seq).AsGeometry()
}

// ActionGeometry returns the geometry an action targets. Lane changes
// carry no geometry.
func ActionGeometry(a osi.TrafficAction) (geom.Geometry, bool) {
	if t, ok := a.FollowTrajectory(); ok {
		return PathFromStatePoints(t.TrajectoryPoints), true
	}
	if p, ok := a.FollowPath(); ok {
		return PathFromStatePoints(p.PathPoints), true
	}
	if g, ok := a.AcquireGlobalPosition(); ok && g.Position != nil {
		return PointFromVector(*g.Position).AsGeometry(), true
	}
	return geom.Geometry{}, false
}

// Target returns the position an action ends at: the acquired position,
// or the last positioned point of a trajectory or path.
func Target(a osi.TrafficAction) (osi.Vector3d, bool) {
	if g, ok := a.AcquireGlobalPosition(); ok {
		if g.Position == nil {
			return osi.Vector3d{}, false
		}
		return *g.Position, true
	}

	var points []osi.StatePoint
	if t, ok := a.FollowTrajectory(); ok {
		points = t.TrajectoryPoints
	} else if p, ok := a.FollowPath(); ok {
		points = p.PathPoints
	}
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].Position != nil {
			return *points[i].Position, true
		}
	}
	return osi.Vector3d{}, false
}

// HorizontalLength returns the planar (XY) length of g in frame units.
func HorizontalLength(g geom.Geometry) float64 {
	return g.Length()
}

// WKB encodes g. Empty geometries encode to nil.
func WKB(g geom.Geometry) []byte {
	if g.IsEmpty() {
		return nil
	}
	return g.AsBinary()
}

// Georeference anchors the local frame (x east, y north, metres) at a
// WGS84 origin. Offsets are applied in Web Mercator scaled by the origin
// latitude, which is accurate to well under a metre over a few kilometres.
type Georeference struct {
	originX, originY float64
	scale            float64
	to4326           func(a, b, c float64) (float64, float64, float64)
}

// NewGeoreference anchors the frame at lon/lat degrees.
func NewGeoreference(longitude, latitude float64) (*Georeference, error) {
	if math.IsNaN(longitude) || math.IsNaN(latitude) ||
		longitude < -180 || longitude > 180 || latitude <= -85 || latitude >= 85 {
		return nil, ErrInvalidCoordinates
	}

	epsg := wgs84.EPSG()
	x, y, _ := epsg.Transform(4326, 3857)(longitude, latitude, 0)

	return &Georeference{
		originX: x,
		originY: y,
		scale:   1 / math.Cos(latitude*math.Pi/180),
		to4326:  epsg.Transform(3857, 4326),
	}, nil
}

// ToWGS84 converts a frame position to longitude, latitude and height.
func (g *Georeference) ToWGS84(v osi.Vector3d) (longitude, latitude, height float64) {
	lon, lat, _ := g.to4326(g.originX+v.X*g.scale, g.originY+v.Y*g.scale, 0)
	return lon, lat, v.Z
}

// PointWGS84 converts a frame position to a WGS84 XYZ point (x=lon, y=lat).
func (g *Georeference) PointWGS84(v osi.Vector3d) geom.Point {
	lon, lat, h := g.ToWGS84(v)
	return PointFromVector(osi.Vector3d{X: lon, Y: lat, Z: h})
}

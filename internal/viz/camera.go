package viz

import (
	"math"

	"github.com/golang/geo/r3"
)

// Camera projects space-frame points orthographically onto the canvas. Yaw
// turns the scene about the vertical z axis and Pitch tilts it towards the
// viewer.
type Camera struct {
	Yaw, Pitch float64
	// Scale is the number of dots per metre at Zoom 1.
	Scale float64
	Zoom  float64
	// Center is the world point drawn at the middle of the canvas.
	Center r3.Vector
}

func NewCamera(scale float64) *Camera {
	return &Camera{Yaw: -math.Pi / 6, Pitch: math.Pi / 8, Scale: scale, Zoom: 1}
}

func (c *Camera) Rotate(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+dpitch))
}

func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// view returns p in camera coordinates: x to the right, y up, z towards the
// viewer.
func (c *Camera) view(p r3.Vector) r3.Vector {
	p = p.Sub(c.Center)
	cy, sy := math.Cos(c.Yaw), math.Sin(c.Yaw)
	// yaw about world z, then look along world -y with z up
	x, depth, up := cy*p.X-sy*p.Y, sy*p.X+cy*p.Y, p.Z
	cp, sp := math.Cos(c.Pitch), math.Sin(c.Pitch)
	return r3.Vector{X: x, Y: cp*up - sp*depth, Z: sp*up + cp*depth}
}

// Project returns the dot coordinates of p on a canvas w by h dots.
func (c *Camera) Project(p r3.Vector, w, h int) (int, int) {
	v := c.view(p)
	s := c.Scale * c.Zoom
	return w/2 + int(math.Round(v.X*s)), h/2 - int(math.Round(v.Y*s))
}

// DrawArm draws the links between consecutive frame origins and marks every
// joint.
func DrawArm(cv *Canvas, cam *Camera, points []r3.Vector) {
	w, h := cv.Dots()
	for i := 1; i < len(points); i++ {
		x0, y0 := cam.Project(points[i-1], w, h)
		x1, y1 := cam.Project(points[i], w, h)
		cv.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range points {
		x, y := cam.Project(p, w, h)
		cv.DrawDisc(x, y, 1)
	}
}

// DrawGround draws the two horizontal axes through the base.
func DrawGround(cv *Canvas, cam *Camera, length float64) {
	w, h := cv.Dots()
	o := r3.Vector{}
	for _, axis := range []r3.Vector{{X: length}, {Y: length}} {
		x0, y0 := cam.Project(o, w, h)
		x1, y1 := cam.Project(axis, w, h)
		cv.DrawLine(x0, y0, x1, y1)
	}
}

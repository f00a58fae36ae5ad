// Package geom holds the small vector and rotation types shared by the
// simulation, sorting and rendering packages.
package geom

import "math"

// Vec3 is a 3D vector. Y is up; the ground is the X-Z plane.
type Vec3 struct {
	X, Y, Z float64
}

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

var (
	Zero    = Vec3{}
	Up      = Vec3{0, 1, 0}
	Right   = Vec3{1, 0, 0}
	Forward = Vec3{0, 0, 1}
)

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) Len() float64    { return math.Sqrt(v.LenSqr()) }
func (v Vec3) LenSqr() float64 { return v.X*v.X + v.Y*v.Y + v.Z*v.Z }
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-10 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t, v.Z + (o.Z-v.Z)*t}
}

// Flat drops the vertical component.
func (v Vec3) Flat() Vec3 { return Vec3{v.X, 0, v.Z} }

// DistXZSqr is the squared distance between v and o on the ground plane.
func (v Vec3) DistXZSqr(o Vec3) float64 {
	dx := v.X - o.X
	dz := v.Z - o.Z
	return dx*dx + dz*dz
}

// Clamp limits x to [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Lerp interpolates between a and b with t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*Clamp(t, 0, 1)
}

// SmoothStep is the Hermite ease between from and to, t clamped to [0, 1].
func SmoothStep(from, to, t float64) float64 {
	t = Clamp(t, 0, 1)
	t = t * t * (3 - 2*t)
	return to*t + from*(1-t)
}

// Deg converts degrees to radians.
func Deg(d float64) float64 { return d * math.Pi / 180 }

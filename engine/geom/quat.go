package geom

import "math"

// Quat is a unit rotation quaternion.
type Quat struct {
	X, Y, Z, W float64
}

// Identity is the zero rotation.
var Identity = Quat{W: 1}

// AxisAngle builds a rotation of angle radians around axis.
func AxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{a.X * s, a.Y * s, a.Z * s, math.Cos(angle / 2)}
}

// Euler builds a rotation from pitch (X), yaw (Y) and roll (Z) in radians,
// applied roll first, then pitch, then yaw.
func Euler(pitch, yaw, roll float64) Quat {
	return AxisAngle(Up, yaw).Mul(AxisAngle(Right, pitch)).Mul(AxisAngle(Forward, roll))
}

// Mul composes q after o: (q*o).Rotate(v) == q.Rotate(o.Rotate(v)).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Inverse returns the conjugate, which is the inverse of a unit quaternion.
func (q Quat) Inverse() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

// Rotate applies the rotation to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

func (q Quat) Forward() Vec3 { return q.Rotate(Forward) }
func (q Quat) Right() Vec3   { return q.Rotate(Right) }
func (q Quat) Up() Vec3      { return q.Rotate(Up) }

// Normalize rescales q to unit length; a degenerate q becomes Identity.
func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < 1e-12 {
		return Identity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// LookRotation returns the rotation whose forward axis points along forward
// and whose up axis is as close to up as possible. A zero forward, or one
// parallel to up, yields Identity.
func LookRotation(forward, up Vec3) Quat {
	z := forward.Normalize()
	x := up.Cross(z).Normalize()
	if z.LenSqr() == 0 || x.LenSqr() == 0 {
		return Identity
	}
	y := z.Cross(x)

	// rotation matrix with columns x, y, z
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q Quat
	tr := m00 + m11 + m22
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quat{(m21 - m12) / s, (m02 - m20) / s, (m10 - m01) / s, s / 4}
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1+m00-m11-m22) * 2
		q = Quat{s / 4, (m01 + m10) / s, (m02 + m20) / s, (m21 - m12) / s}
	case m11 > m22:
		s := math.Sqrt(1+m11-m00-m22) * 2
		q = Quat{(m01 + m10) / s, s / 4, (m12 + m21) / s, (m02 - m20) / s}
	default:
		s := math.Sqrt(1+m22-m00-m11) * 2
		q = Quat{(m02 + m20) / s, (m12 + m21) / s, s / 4, (m10 - m01) / s}
	}
	return q.Normalize()
}

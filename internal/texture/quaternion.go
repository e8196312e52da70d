package texture

import "math"

// Quaternion is a rotation stored as a unit quaternion (W + Xi + Yj + Zk).
// Antipodal quaternions (q and -q) describe the same rotation and compare
// equal throughout this package.
type Quaternion struct {
	W, X, Y, Z float64
}

// Identity is the zero rotation.
var Identity = Quaternion{W: 1}

// Vec3 is a direction in crystal or specimen coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Norm returns the quaternion's Euclidean length.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.W*q.W + q.X*q.X + q.Y*q.Y + q.Z*q.Z)
}

// Normalize scales q to unit length. Zero-length quaternions cannot be
// normalized and are reported by IsFinite/validate paths instead.
func (q Quaternion) Normalize() Quaternion {
	n := q.Norm()
	if n == 0 {
		return q
	}
	return Quaternion{q.W / n, q.X / n, q.Y / n, q.Z / n}
}

// IsFinite reports whether all components are finite and the length is
// usefully far from zero.
func (q Quaternion) IsFinite() bool {
	for _, c := range [4]float64{q.W, q.X, q.Y, q.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return q.Norm() > 1e-9
}

// Mul composes two rotations: (q.Mul(r)) applies r first, then q.
// The result is renormalized to keep long composition chains on the unit
// sphere.
func (q Quaternion) Mul(r Quaternion) Quaternion {
	return Quaternion{
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
	}.Normalize()
}

// Inverse returns the reverse rotation. For unit quaternions this is the
// conjugate.
func (q Quaternion) Inverse() Quaternion {
	return Quaternion{q.W, -q.X, -q.Y, -q.Z}
}

// Dot returns the 4-component dot product.
func (q Quaternion) Dot(r Quaternion) float64 {
	return q.W*r.W + q.X*r.X + q.Y*r.Y + q.Z*r.Z
}

// Angle returns the rotation angle in radians, in [0, pi].
func (q Quaternion) Angle() float64 {
	w := math.Abs(q.W)
	if w > 1 {
		w = 1
	}
	return 2 * math.Acos(w)
}

// Axis returns the unit rotation axis. The identity rotation has no
// preferred axis; +Z is returned so callers always see a valid direction.
// The axis sign is chosen so that the quaternion scalar part is
// non-negative, making the (angle, axis) pair unique per rotation.
func (q Quaternion) Axis() Vec3 {
	if q.W < 0 {
		q = Quaternion{-q.W, -q.X, -q.Y, -q.Z}
	}
	n := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z)
	if n < 1e-12 {
		return Vec3{0, 0, 1}
	}
	return Vec3{q.X / n, q.Y / n, q.Z / n}
}

// FromAxisAngle builds a rotation of angle radians about axis.
func FromAxisAngle(axis Vec3, angle float64) Quaternion {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quaternion{
		W: math.Cos(angle / 2),
		X: a.X * s,
		Y: a.Y * s,
		Z: a.Z * s,
	}.Normalize()
}

// FromEuler builds a rotation from Bunge Euler angles (phi1, Phi, phi2),
// in radians, using the Z-X-Z convention standard in texture analysis.
func FromEuler(phi1, phi, phi2 float64) Quaternion {
	z1 := FromAxisAngle(Vec3{0, 0, 1}, phi1)
	x := FromAxisAngle(Vec3{1, 0, 0}, phi)
	z2 := FromAxisAngle(Vec3{0, 0, 1}, phi2)
	return z1.Mul(x).Mul(z2)
}

// Matrix returns the equivalent 3x3 rotation matrix in row-major order.
func (q Quaternion) Matrix() [9]float64 {
	w, x, y, z := q.W, q.X, q.Y, q.Z
	return [9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// FromMatrix converts a proper-orthogonal 3x3 row-major matrix to a
// quaternion using Shepperd's method, which stays stable near 180 degree
// rotations.
func FromMatrix(m [9]float64) Quaternion {
	tr := m[0] + m[4] + m[8]
	var q Quaternion
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = Quaternion{s / 4, (m[7] - m[5]) / s, (m[2] - m[6]) / s, (m[3] - m[1]) / s}
	case m[0] > m[4] && m[0] > m[8]:
		s := math.Sqrt(1+m[0]-m[4]-m[8]) * 2
		q = Quaternion{(m[7] - m[5]) / s, s / 4, (m[1] + m[3]) / s, (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := math.Sqrt(1+m[4]-m[0]-m[8]) * 2
		q = Quaternion{(m[2] - m[6]) / s, (m[1] + m[3]) / s, s / 4, (m[5] + m[7]) / s}
	default:
		s := math.Sqrt(1+m[8]-m[0]-m[4]) * 2
		q = Quaternion{(m[3] - m[1]) / s, (m[2] + m[6]) / s, (m[5] + m[7]) / s, s / 4}
	}
	return q.Normalize()
}

// Rotate applies the rotation to a direction.
func (q Quaternion) Rotate(v Vec3) Vec3 {
	m := q.Matrix()
	return Vec3{
		m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// EqualRotation reports whether q and r describe the same rotation within
// tol radians, treating q and -q as identical.
func (q Quaternion) EqualRotation(r Quaternion, tol float64) bool {
	return q.AngleTo(r) <= tol
}

// AngleTo returns the angle of the relative rotation between q and r,
// without any symmetry reduction.
func (q Quaternion) AngleTo(r Quaternion) float64 {
	d := math.Abs(q.Dot(r))
	if d > 1 {
		d = 1
	}
	return 2 * math.Acos(d)
}

// Vec3 helpers.

// Norm returns the vector length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Normalize returns the unit vector pointing along v. The zero vector is
// returned unchanged.
func (v Vec3) Normalize() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return Vec3{v.X / n, v.Y / n, v.Z / n}
}

// Dot returns the scalar product.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the vector product v x w.
func (v Vec3) Cross(w Vec3) Vec3 {
	return Vec3{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// AngleTo returns the angle in radians between two directions.
func (v Vec3) AngleTo(w Vec3) float64 {
	d := v.Normalize().Dot(w.Normalize())
	if d > 1 {
		d = 1
	} else if d < -1 {
		d = -1
	}
	return math.Acos(d)
}

// AxisAngleTo returns the angle between two axes, treating v and -v as the
// same axis.
func (v Vec3) AxisAngleTo(w Vec3) float64 {
	a := v.AngleTo(w)
	if a > math.Pi/2 {
		return math.Pi - a
	}
	return a
}

package texture

import (
	"errors"
	"math"
	"testing"
)

func TestMisorientationOfEquivalentOrientations(t *testing.T) {
	cubic := CubicSymmetry()
	o, err := OrientationFromEuler(0.3, 0.8, 1.4, cubic)
	if err != nil {
		t.Fatal(err)
	}

	// Every symmetry equivalent must be at zero misorientation.
	for i, eq := range o.Equivalents() {
		other := Orientation{Q: eq, Sym: cubic}
		a, err := MisorientationAngle(o, other)
		if err != nil {
			t.Fatal(err)
		}
		if a > 1e-7 {
			t.Errorf("equivalent %d: misorientation %g rad, want 0", i, a)
		}
	}
}

func TestMisorientationReducesSymmetryRotations(t *testing.T) {
	cubic := CubicSymmetry()
	base, _ := NewOrientation(Identity, cubic)

	tests := []struct {
		name  string
		axis  Vec3
		angle float64
		want  float64
	}{
		{"90 deg about z is a cubic symmetry", Vec3{0, 0, 1}, math.Pi / 2, 0},
		{"45 deg about z", Vec3{0, 0, 1}, math.Pi / 4, math.Pi / 4},
		{"60 deg about 111 (twin)", Vec3{1, 1, 1}, math.Pi / 3, math.Pi / 3},
		{"10 deg about x", Vec3{1, 0, 0}, math.Pi / 18, math.Pi / 18},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, _ := NewOrientation(FromAxisAngle(tt.axis, tt.angle), cubic)
			a, err := MisorientationAngle(base, o)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(a-tt.want) > 1e-7 {
				t.Errorf("got %g rad, want %g", a, tt.want)
			}
		})
	}
}

func TestMisorientationHexagonal(t *testing.T) {
	hex := HexagonalSymmetry()
	base, _ := NewOrientation(Identity, hex)

	// 60 degrees about c is a hexagonal symmetry rotation, 30 is not.
	o, _ := NewOrientation(FromAxisAngle(Vec3{0, 0, 1}, math.Pi/3), hex)
	if a, _ := MisorientationAngle(base, o); a > 1e-7 {
		t.Errorf("60 deg about c: misorientation %g, want 0", a)
	}
	o, _ = NewOrientation(FromAxisAngle(Vec3{0, 0, 1}, math.Pi/6), hex)
	if a, _ := MisorientationAngle(base, o); math.Abs(a-math.Pi/6) > 1e-7 {
		t.Errorf("30 deg about c: misorientation %g, want pi/6", a)
	}
}

func TestMisorientationIsSymmetric(t *testing.T) {
	cubic := CubicSymmetry()
	a, _ := OrientationFromEuler(0.1, 0.7, 2.0, cubic)
	b, _ := OrientationFromEuler(1.9, 0.4, 0.6, cubic)

	ab, _ := MisorientationAngle(a, b)
	ba, _ := MisorientationAngle(b, a)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("misorientation not symmetric: %g vs %g", ab, ba)
	}
}

func TestMisorientationCrossPhase(t *testing.T) {
	// Parent and child may carry different groups; reduction runs over both.
	cubic, hex := CubicSymmetry(), HexagonalSymmetry()
	a, _ := NewOrientation(Identity, cubic)
	b, _ := NewOrientation(FromAxisAngle(Vec3{0, 0, 1}, math.Pi/2), hex)
	// 90 about z equals a cubic symmetry element, so the pair reduces to 0.
	if angle, _ := MisorientationAngle(a, b); angle > 1e-7 {
		t.Errorf("cross-phase misorientation %g, want 0", angle)
	}
}

func TestOrientationValidation(t *testing.T) {
	if _, err := NewOrientation(Identity, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("nil symmetry: got %v, want ErrInvalidInput", err)
	}
	if _, err := NewOrientation(Quaternion{}, CubicSymmetry()); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("zero quaternion: got %v, want ErrNumericDegeneracy", err)
	}
	if _, err := NewOrientation(Quaternion{W: math.Inf(1)}, CubicSymmetry()); !errors.Is(err, ErrNumericDegeneracy) {
		t.Errorf("infinite quaternion: got %v, want ErrNumericDegeneracy", err)
	}
}

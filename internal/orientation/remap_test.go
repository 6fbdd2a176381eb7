package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allRotations = []ScreenRotation{Rotation0, Rotation90, Rotation180, Rotation270}

func TestRemap_Table(t *testing.T) {
	m := MatrixFromOrientation(Pose{Yaw: 0.4, Pitch: -0.3, Roll: 0.9})
	assert.Equal(t, m, Remap(m, Rotation0))

	requireMatInDelta(t, Mat3{
		0, 1, 0,
		-1, 0, 0,
		0, 0, 1,
	}, Remap(Identity(), Rotation90), 0)
	requireMatInDelta(t, Mat3{
		-1, 0, 0,
		0, -1, 0,
		0, 0, 1,
	}, Remap(Identity(), Rotation180), 0)
	requireMatInDelta(t, Mat3{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	}, Remap(Identity(), Rotation270), 0)
}

func TestRemap_PreservesRotation(t *testing.T) {
	for _, p := range testPoses {
		for _, r := range allRotations {
			requireOrthonormal(t, Remap(MatrixFromOrientation(p), r))
		}
	}
}

func TestRemap_RoundTrip(t *testing.T) {
	m := MatrixFromOrientation(Pose{Yaw: -1.1, Pitch: 0.6, Roll: 0.2})
	requireMatInDelta(t, m, Remap(Remap(m, Rotation90), Rotation270), 0)
	requireMatInDelta(t, m, Remap(Remap(m, Rotation270), Rotation90), 0)
	requireMatInDelta(t, m, Remap(Remap(m, Rotation180), Rotation180), 0)
}

func TestRemap_UnknownRotation(t *testing.T) {
	m := MatrixFromOrientation(Pose{Yaw: 1})
	assert.Equal(t, m, Remap(m, ScreenRotation(7)))
}

func TestRemapAxes_Errors(t *testing.T) {
	m := Identity()
	for name, axes := range map[string][2]Axis{
		"same axis":     {AxisX, AxisX},
		"negated twin":  {AxisY, AxisMinusY},
		"zero axis":     {0, AxisY},
		"out of range":  {Axis(0x04), AxisY},
		"garbage flags": {AxisX, Axis(0x42)},
	} {
		out, err := RemapAxes(m, axes[0], axes[1])
		assert.Error(t, err, name)
		assert.Equal(t, m, out, name)
	}
}

func TestRemapVector_MatchesRemappedRotation(t *testing.T) {
	m := MatrixFromOrientation(Pose{Yaw: 0.7, Pitch: 0.1, Roll: -0.5})
	rate := Vec3{0.3, -0.2, 0.9}
	delta := DeltaRotation(rate, 0.05)
	for _, r := range allRotations {
		want := Remap(m.Mul(delta), r)
		got := Remap(m, r).Mul(DeltaRotation(RemapVector(rate, r), 0.05))
		requireMatInDelta(t, want, got, 1e-12)
	}
	assert.Equal(t, Vec3{0, 1, 0}, RemapVector(Vec3{1, 0, 0}, Rotation90))
}

func TestParseScreenRotation(t *testing.T) {
	for deg, want := range map[int]ScreenRotation{
		0: Rotation0, 90: Rotation90, 180: Rotation180, 270: Rotation270,
		360: Rotation0, -90: Rotation270, 450: Rotation90,
	} {
		got, err := ParseScreenRotation(deg)
		require.NoError(t, err, deg)
		assert.Equal(t, want, got, deg)
	}
	_, err := ParseScreenRotation(45)
	assert.Error(t, err)

	assert.Equal(t, 270, Rotation270.Degrees())
	assert.Equal(t, "90°", Rotation90.String())
}

package wheel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-traffic/vmath"
)

type fakeSource struct {
	pos   vmath.Vec3F
	steer float64
}

func (f *fakeSource) Position() vmath.Vec3F   { return f.pos }
func (f *fakeSource) SteerVisualDeg() float64 { return f.steer }

func TestSpeedMeter(t *testing.T) {
	var m SpeedMeter
	assert.Zero(t, m.Sample(vmath.Vec3F{Z: 5}, 0.1), "first sample")
	assert.InDelta(t, 10.0, m.Sample(vmath.Vec3F{Z: 6}, 0.1), 1e-9)
	assert.InDelta(t, 10.0, m.Sample(vmath.Vec3F{Z: 9}, 0), 1e-9, "zero dt keeps last value")
	assert.InDelta(t, 5.0, m.Sample(vmath.Vec3F{Z: 6.5}, 0.1), 1e-9)
}

func TestSpinAngle(t *testing.T) {
	// v/r * 57.2958 * dt
	w := DefaultWheel("fl")
	assert.InDelta(t, 9.0/0.33*57.2958*0.02, w.SpinDelta(9, 0.02, 1), 1e-3)
	assert.InDelta(t, -9.0/0.33*57.2958*0.02, w.SpinDelta(9, 0.02, -1), 1e-3)
}

func TestEffectiveRadius(t *testing.T) {
	tests := []struct {
		name  string
		wheel Wheel
		want  float64
	}{
		{"default", DefaultWheel("w"), 0.33},
		{"scaled on axis", Wheel{Radius: 0.5, SpinAxis: AxisY, Scale: vmath.Vec3F{X: 4, Y: -2, Z: 4}, ScaleRadius: true}, 1.0},
		{"scale ignored", Wheel{Radius: 0.5, Scale: vmath.Vec3F{X: 4}}, 0.5},
		{"floored", Wheel{Radius: -1}, 0.001},
		{"zero scale floored", Wheel{Radius: 0.5, ScaleRadius: true}, 0.001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.wheel.EffectiveRadius(), 1e-12)
		})
	}
}

func TestAnimatorSpinsFromObservedMotion(t *testing.T) {
	src := &fakeSource{}
	front := []Wheel{DefaultWheel("fl"), DefaultWheel("fr")}
	rear := []Wheel{DefaultWheel("rl")}
	rear[0].Radius = 0.66
	a := NewAnimator(DefaultConfig(), src, front, rear)

	a.Update(0.02)
	assert.Zero(t, a.Front[0].Angle, "first frame has no speed")

	src.pos = vmath.Vec3F{Z: 0.18} // 9 m/s
	a.Update(0.02)
	assert.InDelta(t, 9.0, a.Speed(), 1e-9)
	assert.InDelta(t, 9.0/0.33*vmath.Rad2Deg*0.02, a.Front[0].Angle, 1e-9)
	assert.Equal(t, a.Front[0].Angle, a.Front[1].Angle)
	assert.InDelta(t, a.Front[0].Angle/2, a.Rear[0].Angle, 1e-9)

	before := a.Front[0].Angle
	a.Update(0)
	assert.Equal(t, before, a.Front[0].Angle, "zero dt never spins")
}

func TestAnimatorSmoothsSteer(t *testing.T) {
	src := &fakeSource{steer: 30}
	a := NewAnimator(DefaultConfig(), src, nil, nil)

	a.Update(0.02)
	assert.InDelta(t, 30*0.2, a.SmoothSteer(), 1e-9)

	for i := 0; i < 100; i++ {
		a.Update(0.02)
	}
	assert.InDelta(t, 30, a.SmoothSteer(), 1e-6)

	// Large dt saturates instead of overshooting
	src.steer = -10
	a.Update(1)
	assert.InDelta(t, -10.0, a.SmoothSteer(), 1e-9)
}

func TestAnimatorNeverWritesSource(t *testing.T) {
	src := &fakeSource{pos: vmath.Vec3F{X: 1}, steer: 12}
	a := NewAnimator(DefaultConfig(), src, []Wheel{DefaultWheel("fl")}, nil)
	for i := 0; i < 5; i++ {
		a.Update(0.02)
	}
	assert.Equal(t, vmath.Vec3F{X: 1}, src.pos)
	assert.Equal(t, 12.0, src.steer)
}

func TestParseAxis(t *testing.T) {
	for in, want := range map[string]Axis{"x": AxisX, "Y": AxisY, " z ": AxisZ, "": AxisX} {
		got, err := ParseAxis(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAxis("w")
	assert.Error(t, err)
	assert.Equal(t, vmath.Vec3F{Z: 1}, AxisZ.Unit())
}

package sensors

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu      sync.Mutex
	samples []Sample
}

func (c *collector) OnSample(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = append(c.samples, s)
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

func TestDispatcher_Register(t *testing.T) {
	d := NewDispatcher(Accelerometer, Gyroscope)
	assert.True(t, d.Available(Accelerometer))
	assert.False(t, d.Available(MagneticField))

	_, err := d.Register(MagneticField, DelayGame, &collector{})
	assert.Error(t, err)
	_, err = d.Register(Accelerometer, DelayGame, nil)
	assert.Error(t, err)

	c := &collector{}
	reg, err := d.Register(Accelerometer, DelayGame, c)
	require.NoError(t, err)

	d.Dispatch(Sample{Type: Accelerometer, Timestamp: time.Millisecond})
	d.Dispatch(Sample{Type: Gyroscope})
	assert.Equal(t, 1, c.len())

	reg.Unregister()
	reg.Unregister()
	d.Dispatch(Sample{Type: Accelerometer})
	assert.Equal(t, 1, c.len())
}

func TestDispatcher_Fastest(t *testing.T) {
	d := NewDispatcher(AllTypes...)
	_, ok := d.Fastest(Accelerometer)
	assert.False(t, ok)

	ui, err := d.Register(Accelerometer, DelayUI, &collector{})
	require.NoError(t, err)
	fast, err := d.Register(Accelerometer, DelayFastest, &collector{})
	require.NoError(t, err)

	delay, ok := d.Fastest(Accelerometer)
	require.True(t, ok)
	assert.Equal(t, DelayFastest, delay)

	fast.Unregister()
	delay, ok = d.Fastest(Accelerometer)
	require.True(t, ok)
	assert.Equal(t, DelayUI, delay)

	ui.Unregister()
	_, ok = d.Fastest(Accelerometer)
	assert.False(t, ok)
}

func TestDispatcher_OnChange(t *testing.T) {
	d := NewDispatcher(Gyroscope)
	var changes []Type
	d.OnChange = func(t Type) { changes = append(changes, t) }

	reg, err := d.Register(Gyroscope, DelayGame, &collector{})
	require.NoError(t, err)
	reg.Unregister()
	reg.Unregister()
	assert.Equal(t, []Type{Gyroscope, Gyroscope}, changes)
}

func TestDispatcher_ListenerMayUnregisterItself(t *testing.T) {
	d := NewDispatcher(Accelerometer)
	var reg Registration
	calls := 0
	reg, err := d.Register(Accelerometer, DelayGame, ListenerFunc(func(Sample) {
		calls++
		reg.Unregister()
	}))
	require.NoError(t, err)

	d.Dispatch(Sample{Type: Accelerometer})
	d.Dispatch(Sample{Type: Accelerometer})
	assert.Equal(t, 1, calls)
}

func TestParseTypes(t *testing.T) {
	types, err := ParseTypes("accelerometer, mag,gyro,rotation_vector,")
	require.NoError(t, err)
	assert.Equal(t, AllTypes, types)

	for _, ty := range AllTypes {
		got, err := ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}

	_, err = ParseTypes("accelerometer,barometer")
	assert.Error(t, err)
}

func TestParseDelay(t *testing.T) {
	for _, d := range []Delay{DelayNormal, DelayUI, DelayGame, DelayFastest} {
		got, err := ParseDelay(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err := ParseDelay("ludicrous")
	assert.Error(t, err)

	assert.Equal(t, 20*time.Millisecond, DelayGame.Period())
	assert.Less(t, DelayFastest.Period(), DelayGame.Period())
	assert.Less(t, DelayUI.Period(), DelayNormal.Period())
}

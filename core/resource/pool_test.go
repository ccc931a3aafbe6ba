package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolBindsEveryKey(t *testing.T) {
	p := NewPool(DefaultHistorySize)
	for _, k := range Keys {
		r := p.Get(k)
		require.NotNil(t, r, k.String())
		assert.Equal(t, k, r.Key())
		assert.Equal(t, DefaultHistorySize, r.Capacity())
	}
}

func TestPoolRecord(t *testing.T) {
	p := NewPool(3)
	p.Battery().Set(10)
	p.Velocity().Set(5)
	require.NoError(t, p.Record(0))
	p.Battery().Set(9)
	require.NoError(t, p.Record(60))

	assert.Equal(t, 60.0, p.ElapsedTime().Value())
	h := p.Battery().History()
	assert.Equal(t, []Sample{{0, 0}, {0, 10}, {60, 9}}, h)
	assert.Equal(t, []Sample{{0, 0}, {0, 0}, {60, 60}}, p.ElapsedTime().History())
}

func TestPoolRecordRejectsRegression(t *testing.T) {
	p := NewPool(2)
	require.NoError(t, p.Record(10))
	require.NoError(t, p.Record(10))
	err := p.Record(5)
	assert.ErrorIs(t, err, ErrTimeRegression)
	assert.Equal(t, 10.0, p.ElapsedTime().Value())
}

func TestPoolRecordCapacityOverflow(t *testing.T) {
	p := NewPool(100)
	for i := 0; i < 150; i++ {
		p.Velocity().Set(float64(i))
		require.NoError(t, p.Record(float64(i)))
	}
	h := p.Velocity().History()
	require.Len(t, h, 100)
	assert.Equal(t, 50.0, h[0].Value)
	assert.Equal(t, 149.0, h[99].Value)
	for i := 1; i < len(h); i++ {
		assert.Less(t, h[i-1].Elapsed, h[i].Elapsed)
	}
}

func TestPoolSet(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Set(CabinTemp, 42))
	assert.Equal(t, 42.0, p.Get(CabinTemp).Value())
	assert.ErrorIs(t, p.Set(Key(99), 1), ErrUnknownKey)
}

func TestPoolTable(t *testing.T) {
	p := NewPool(2)
	p.Battery().Set(3)
	require.NoError(t, p.Record(1))
	p.Battery().Set(2)
	require.NoError(t, p.Record(2))

	tbl := p.Table()
	require.Len(t, tbl.Columns, len(Keys))
	assert.Equal(t, "elapsed", tbl.Columns[0])
	assert.Equal(t, "battery charge", tbl.Columns[1])
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, 1.0, tbl.Rows[0][0])
	assert.Equal(t, 3.0, tbl.Rows[0][1])
	assert.Equal(t, 2.0, tbl.Rows[1][0])
	assert.Equal(t, 2.0, tbl.Rows[1][1])
}

func TestPoolSnapshot(t *testing.T) {
	p := NewPool(1)
	require.NoError(t, p.Set(BatteryVolt, 58))
	snap := p.Snapshot()
	assert.Equal(t, 58.0, snap["bat volt"])
	assert.Len(t, snap, len(Keys))
}

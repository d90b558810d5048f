package weight

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeight_Arithmetic(t *testing.T) {
	a := FromParts(10, 20)
	b := FromParts(3, 30)

	assert.Equal(t, FromParts(13, 50), a.SaturatingAdd(b))
	assert.Equal(t, FromParts(7, 0), a.SaturatingSub(b))
	assert.Equal(t, FromParts(30, 60), a.Mul(3))
	assert.Equal(t, Zero, a.Mul(0))

	t.Run("saturates at max", func(t *testing.T) {
		big := FromParts(math.MaxUint64-1, 1)
		assert.Equal(t, FromParts(math.MaxUint64, 2), big.SaturatingAdd(FromParts(5, 1)))
		assert.Equal(t, FromParts(math.MaxUint64, 2), big.Mul(2))
	})
}

func TestWeight_Compare(t *testing.T) {
	assert.True(t, FromParts(1, 1).AllLTE(FromParts(1, 1)))
	assert.True(t, FromParts(1, 0).AllLTE(FromParts(2, 5)))
	// One dimension over the limit is enough to exceed it.
	assert.False(t, FromParts(1, 6).AllLTE(FromParts(2, 5)))
	assert.True(t, FromParts(1, 6).AnyGT(FromParts(2, 5)))
	assert.True(t, Zero.IsZero())
}

func TestCounter_CheckAccrue(t *testing.T) {
	c := NewCounter(FromParts(100, 100))

	require.True(t, c.CheckAccrue(FromParts(60, 10)))
	assert.Equal(t, FromParts(60, 10), c.Consumed())

	// Would exceed: counter must be left untouched.
	require.False(t, c.CheckAccrue(FromParts(41, 0)))
	assert.Equal(t, FromParts(60, 10), c.Consumed())

	require.True(t, c.CheckAccrue(FromParts(40, 90)))
	assert.Equal(t, Zero, c.Remaining())
	assert.False(t, c.CanAccrue(FromParts(1, 0)))
	assert.True(t, c.CanAccrue(Zero))
}

func TestCounter_CanAccrueDoesNotMutate(t *testing.T) {
	c := NewCounter(FromRefTime(10))
	assert.True(t, c.CanAccrue(FromRefTime(10)))
	assert.True(t, c.CanAccrue(FromRefTime(10)))
	assert.Equal(t, Zero, c.Consumed())
	assert.Equal(t, FromRefTime(10), c.Remaining())

	c.Accrue(FromRefTime(15))
	assert.Equal(t, FromRefTime(15), c.Consumed())
	assert.Equal(t, Zero, c.Remaining())
}

func TestServiceTask(t *testing.T) {
	table := ZeroTable()
	table.TaskBase.Base = FromRefTime(10)
	table.TaskFetched = Linear{Base: FromRefTime(100), PerItem: FromRefTime(2)}
	table.TaskNamed.Base = FromRefTime(15)
	table.TaskPeriodic.Base = FromRefTime(13)

	assert.Equal(t, FromRefTime(10), ServiceTask(table, nil, false, false))

	length := uint32(50)
	assert.Equal(t, FromRefTime(200), ServiceTask(table, &length, false, false))

	// Surcharges are the difference over the base cost.
	assert.Equal(t, FromRefTime(10+5+3), ServiceTask(table, nil, true, true))
	assert.Equal(t, FromRefTime(200+5), ServiceTask(table, &length, true, false))
}

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()
	assert.True(t, table.ServiceAgendaBase(0).AllLTE(table.ServiceAgendaBase(50)))
	assert.Equal(t, table.AgendaBase.Base.SaturatingAdd(table.AgendaBase.PerItem.Mul(3)), table.ServiceAgendaBase(3))
	assert.False(t, table.ServiceTaskFetched(1024).AllLTE(table.ServiceTaskBase()))
}

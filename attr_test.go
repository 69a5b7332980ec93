package uthread_test

import (
	"testing"

	"github.com/alphadose-labs/uthread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrDefaults(t *testing.T) {
	a := uthread.NewAttr()
	assert.EqualValues(t, uthread.StackSizeDefault, a.StackSize())
	assert.Equal(t, uthread.PriorityDefault, a.Priority())
	assert.Equal(t, 0, a.Nice())
	assert.Equal(t, uthread.CreateJoinable, a.DetachState())
}

func TestAttrStackSizeRange(t *testing.T) {
	a := uthread.NewAttr()
	require.ErrorIs(t, a.SetStackSize(uthread.StackSizeMin-1), uthread.ErrInvalidArgument)
	require.ErrorIs(t, a.SetStackSize(uthread.StackSizeMax+1), uthread.ErrInvalidArgument)
	require.NoError(t, a.SetStackSize(uthread.StackSizeMin))
	assert.EqualValues(t, uthread.StackSizeMin, a.StackSize())
	require.NoError(t, a.SetStackSize(uthread.StackSizeMax))
	assert.EqualValues(t, uthread.StackSizeMax, a.StackSize())
}

func TestAttrPriorityRange(t *testing.T) {
	a := uthread.NewAttr()
	require.ErrorIs(t, a.SetPriority(uthread.PriorityMin-1), uthread.ErrInvalidArgument)
	require.ErrorIs(t, a.SetPriority(uthread.PriorityMax+1), uthread.ErrInvalidArgument)
	require.NoError(t, a.SetPriority(uthread.PriorityMax))
	assert.Equal(t, uthread.PriorityMax, a.Priority())
}

func TestAttrNiceRange(t *testing.T) {
	a := uthread.NewAttr()
	require.ErrorIs(t, a.SetNice(uthread.NiceMin-1), uthread.ErrInvalidArgument)
	require.ErrorIs(t, a.SetNice(uthread.NiceMax+1), uthread.ErrInvalidArgument)
	require.NoError(t, a.SetNice(uthread.NiceMin))
	assert.Equal(t, uthread.NiceMin, a.Nice())
}

func TestAttrDetachState(t *testing.T) {
	a := uthread.NewAttr()
	require.NoError(t, a.SetDetachState(uthread.CreateDetached))
	assert.Equal(t, uthread.CreateDetached, a.DetachState())
	require.ErrorIs(t, a.SetDetachState(uthread.DetachState(99)), uthread.ErrInvalidArgument)
}

func TestAttrNameTruncation(t *testing.T) {
	a := uthread.NewAttr()
	long := make([]byte, uthread.NameMax+10)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, a.SetName(string(long)))
	assert.Less(t, len(a.Name()), uthread.NameMax)
}

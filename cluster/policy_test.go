package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type keyedTask struct {
	countingTask
	key int64
}

func (t *keyedTask) SchedulingKey() int64 { return t.key }

func TestRealTimePolicy_OrdersBySchedulingKey(t *testing.T) {
	var p RealTimePolicy
	require.True(t, p.Empty())

	hi := &keyedTask{key: 10}
	lo := &keyedTask{key: 1}
	mid := &keyedTask{key: 5}
	p.Add(hi)
	p.Add(lo)
	p.Add(mid)

	first, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, Runnable(lo), first)

	second, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, Runnable(mid), second)

	third, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, Runnable(hi), third)

	require.True(t, p.Empty())
}

func TestRealTimePolicy_FIFOAmongEqualKeys(t *testing.T) {
	var p RealTimePolicy
	a := &keyedTask{key: 1}
	b := &keyedTask{key: 1}
	p.Add(a)
	p.Add(b)

	first, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, Runnable(a), first)

	second, ok := p.Drop()
	require.True(t, ok)
	require.Same(t, Runnable(b), second)
}

func TestRealTimePolicy_AddPanicsWithoutPrioritized(t *testing.T) {
	var p RealTimePolicy
	require.Panics(t, func() {
		p.Add(&countingTask{})
	})
}

func TestRealTimePolicy_Compare(t *testing.T) {
	var p RealTimePolicy
	a := &keyedTask{key: 1}
	b := &keyedTask{key: 2}
	require.True(t, p.Compare(a, b))
	require.False(t, p.Compare(b, a))
	require.False(t, p.Compare(&countingTask{}, b))
}

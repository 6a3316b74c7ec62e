package uxx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joeycumines/uxx/cluster"
	"github.com/joeycumines/uxx/task"
)

func TestThisTask_NilOutsideTask(t *testing.T) {
	require.Nil(t, ThisTask())
	require.Nil(t, ThisCoroutine())
	require.Nil(t, ThisCluster())
	require.Nil(t, ThisProcessor())
}

func TestThisTask_InsideTask(t *testing.T) {
	c := cluster.New(nil)
	defer c.Shutdown()
	c.StartProcessor()

	done := make(chan struct{})
	var got *task.Task
	var gotCluster *cluster.Cluster
	var gotProcessor *cluster.Processor

	expect := task.Start(c, "probe", func(self *task.Task) error {
		got = ThisTask()
		gotCluster = ThisCluster()
		gotProcessor = ThisProcessor()
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("probe task never ran")
	}
	require.Same(t, expect, got)
	require.Same(t, c, gotCluster)
	require.NotNil(t, gotProcessor)
}

func TestParsePositiveInt(t *testing.T) {
	n, err := parsePositiveInt("1234")
	require.NoError(t, err)
	require.Equal(t, 1234, n)

	_, err = parsePositiveInt("")
	require.Error(t, err)

	_, err = parsePositiveInt("-5")
	require.Error(t, err)

	_, err = parsePositiveInt("12x")
	require.Error(t, err)
}

func TestEnvInt_FallsBackWhenUnset(t *testing.T) {
	require.Equal(t, 42, envInt("UXX_TEST_ENV_INT_NEVER_SET", 42))
}

func TestEnvInt_ParsesOverride(t *testing.T) {
	t.Setenv("UXX_TEST_ENV_INT", "77")
	require.Equal(t, 77, envInt("UXX_TEST_ENV_INT", 42))
}

func TestEnvInt_IgnoresUnparsableOverride(t *testing.T) {
	t.Setenv("UXX_TEST_ENV_INT_BAD", "not-a-number")
	require.Equal(t, 42, envInt("UXX_TEST_ENV_INT_BAD", 42))
}

func TestDefaultClusterConfig_Defaults(t *testing.T) {
	cfg := DefaultClusterConfig()
	require.Equal(t, 30000, cfg.DefaultStackSize)
	require.Equal(t, 10, cfg.Preemption)
	require.Equal(t, 1000, cfg.SpinCount)
	require.Equal(t, 1, cfg.Processors)
	require.Equal(t, 1<<20, cfg.HeapExpansion)
}

func TestDefaultClusterConfig_RespectsOverride(t *testing.T) {
	t.Setenv("UXX_DEFAULT_PROCESSORS", "4")
	cfg := DefaultClusterConfig()
	require.Equal(t, 4, cfg.Processors)
}

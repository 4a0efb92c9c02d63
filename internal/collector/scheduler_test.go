package collector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"housekeeper/internal/clock"
	"housekeeper/internal/model"
	"housekeeper/internal/stream"
)

var testIntervals = TierIntervals{Fast: time.Second, Slow: 5 * time.Second, VerySlow: 30 * time.Second}

func cpuTask(name string, tier model.Tier, total float64) Task {
	return Task{Name: name, Tier: tier, Collect: func(context.Context) Update {
		return func(f *model.Frame) { f.CPU = []model.CPUUsage{{Label: name, Total: total}} }
	}}
}

func TestCollectTierAppliesOnePass(t *testing.T) {
	board := stream.NewBoard()
	tasks := []Task{
		cpuTask("cpu", model.TierFast, 10),
		{Name: "memory", Tier: model.TierFast, Collect: func(context.Context) Update {
			return func(f *model.Frame) { f.Memory.TotalBytes = 42 }
		}},
		{Name: "pcie", Tier: model.TierSlow, Collect: func(context.Context) Update {
			return func(f *model.Frame) { f.PCIe = []model.PCIeDevice{{BDF: "x"}} }
		}},
	}
	s := NewScheduler(discardLogger(), board, clock.Fake(at(0)), tasks, testIntervals, false, 0)

	require.NoError(t, s.CollectTier(context.Background(), model.TierFast))
	f := board.Latest()
	assert.Equal(t, uint64(1), f.Seq, "one apply per pass")
	assert.Equal(t, uint64(42), f.Memory.TotalBytes)
	assert.Len(t, f.CPU, 1)
	assert.Empty(t, f.PCIe)
	assert.Empty(t, f.Timings)
	assert.Equal(t, map[model.Tier]uint64{model.TierFast: 1}, f.Passes)

	require.NoError(t, s.CollectTier(context.Background(), model.TierSlow))
	f = board.Latest()
	assert.Equal(t, map[model.Tier]uint64{model.TierFast: 1, model.TierSlow: 1}, f.Passes)
}

func TestCollectTierIsolatesPanics(t *testing.T) {
	board := stream.NewBoard()
	tasks := []Task{
		{Name: "broken", Tier: model.TierFast, Collect: func(context.Context) Update { panic("index out of range") }},
		cpuTask("cpu", model.TierFast, 5),
	}
	s := NewScheduler(discardLogger(), board, clock.Fake(at(0)), tasks, testIntervals, true, 0)

	err := s.CollectTier(context.Background(), model.TierFast)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken panicked")
	f := board.Latest()
	require.Len(t, f.CPU, 1)
	assert.Contains(t, f.Timings, "cpu")
	assert.NotContains(t, f.Timings, "broken")
}

func TestCollectAllRunsEveryTier(t *testing.T) {
	board := stream.NewBoard()
	var tiers []model.Tier
	s := NewScheduler(discardLogger(), board, clock.Fake(at(0)), []Task{
		cpuTask("cpu", model.TierFast, 1),
		cpuTask("slow", model.TierSlow, 2),
		cpuTask("temps", model.TierVerySlow, 3),
	}, testIntervals, false, 0)
	s.OnPass(func(tier model.Tier, _ time.Time) { tiers = append(tiers, tier) })

	require.NoError(t, s.CollectAll(context.Background()))
	assert.Equal(t, []model.Tier{model.TierFast, model.TierSlow, model.TierVerySlow}, tiers)
	assert.Equal(t, "temps", board.Latest().CPU[0].Label, "later tiers overwrite")
}

func TestFastIntervalAdjustable(t *testing.T) {
	s := NewScheduler(discardLogger(), stream.NewBoard(), clock.Real(), nil, testIntervals, false, 0)
	assert.Equal(t, time.Second, s.FastInterval())
	s.SetFastInterval(250 * time.Millisecond)
	assert.Equal(t, 250*time.Millisecond, s.FastInterval())
	assert.Equal(t, 5*time.Second, s.interval(model.TierSlow))
}

func TestRunTicksTiersIndependently(t *testing.T) {
	clk := clock.Fake(at(0))
	board := stream.NewBoard()
	s := NewScheduler(discardLogger(), board, clk, []Task{
		cpuTask("cpu", model.TierFast, 1),
		cpuTask("pcie", model.TierSlow, 2),
	}, testIntervals, false, 0)

	var mu sync.Mutex
	passes := map[model.Tier]int{}
	s.OnPass(func(tier model.Tier, _ time.Time) {
		mu.Lock()
		passes[tier]++
		mu.Unlock()
	})
	count := func(tier model.Tier) int {
		mu.Lock()
		defer mu.Unlock()
		return passes[tier]
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		return count(model.TierFast) == 1 && count(model.TierSlow) == 1
	}, time.Second, time.Millisecond, "initial passes prime the stores")

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return count(model.TierFast) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, count(model.TierSlow))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSetTasksFollowEnabledCollectors(t *testing.T) {
	set := Set{
		Memory:      NewMemoryCollector(fakeMemory{}, discardLogger()),
		Temperature: &TemperatureCollector{},
	}
	tasks := set.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "memory", tasks[0].Name)
	assert.Equal(t, model.TierFast, tasks[0].Tier)
	assert.Equal(t, "temperature", tasks[1].Name)
	assert.Equal(t, model.TierVerySlow, tasks[1].Tier)
}

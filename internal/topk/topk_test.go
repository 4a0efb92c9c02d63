package topk

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(scores ...float64) []Item[int] {
	out := make([]Item[int], len(scores))
	for i, s := range scores {
		out[i] = Item[int]{Score: s, Value: i}
	}
	return out
}

func values(in []Item[int]) []int {
	out := make([]int, len(in))
	for i, it := range in {
		out[i] = it.Value
	}
	return out
}

func reference(in []Item[int], k int) []Item[int] {
	out := make([]Item[int], len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out
}

func TestSelectMatchesSortThenSlice(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		n := r.Intn(60)
		in := make([]Item[int], n)
		for i := range in {
			// Small range so ties are common.
			in[i] = Item[int]{Score: float64(r.Intn(10)), Value: i}
		}
		for _, k := range []int{0, 1, 3, n / 2, n, n + 5} {
			assert.Equal(t, reference(in, k), Select(in, k), "n=%d k=%d", n, k)
		}
	}
}

func TestSelectBoundaryReturnsAllDescending(t *testing.T) {
	in := items(3, 9, 1, 9, 4)
	all := Select(in, 0)
	assert.Equal(t, []int{1, 3, 4, 0, 2}, values(all))
	assert.Equal(t, all, Select(in, len(in)))
	assert.Equal(t, all, Select(in, 100))
}

func TestSelectTiesKeepInputOrder(t *testing.T) {
	in := items(5, 5, 5, 5, 5)
	assert.Equal(t, []int{0, 1}, values(Select(in, 2)))

	in = items(1, 7, 7, 2, 7)
	assert.Equal(t, []int{1, 2}, values(Select(in, 2)))
	assert.Equal(t, []int{1, 2, 4}, values(Select(in, 3)))
}

func TestSelectDoesNotMutateInput(t *testing.T) {
	in := items(1, 2, 3, 4)
	before := append([]Item[int](nil), in...)
	Select(in, 2)
	Select(in, 0)
	assert.Equal(t, before, in)
}

func TestSelectEmpty(t *testing.T) {
	assert.Empty(t, Select[int](nil, 3))
	assert.Empty(t, Select(items(), 0))
}

func TestBy(t *testing.T) {
	type conn struct {
		ip    string
		total float64
	}
	in := []conn{{"a", 1}, {"b", 30}, {"c", 20}, {"d", 30}}
	got := By(in, func(c conn) float64 { return c.total }, 3)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"b", "d", "c"}, []string{got[0].ip, got[1].ip, got[2].ip})
}

func TestSelectSmallKIsCheaperThanFullSort(t *testing.T) {
	if testing.Short() {
		t.Skip("timing smoke test")
	}
	r := rand.New(rand.NewSource(1))
	in := make([]Item[int], 200_000)
	for i := range in {
		in[i] = Item[int]{Score: r.Float64(), Value: i}
	}

	start := time.Now()
	got := Select(in, 10)
	partial := time.Since(start)

	start = time.Now()
	ref := reference(in, 10)
	full := time.Since(start)

	assert.Equal(t, ref, got)
	t.Logf("heap select %v, full sort %v", partial, full)
	// Generous bound; only catches an accidental full sort on a loaded machine.
	assert.Less(t, partial, full*3+50*time.Millisecond)
}

package plugin

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fake struct {
	name   string
	scores map[string]int
}

func byHint(p *fake, args ...any) int {
	if len(args) == 0 {
		return 0
	}
	hint, _ := args[0].(string)
	return p.scores[hint]
}

func TestSelect_HighestPriorityRegardlessOfOrder(t *testing.T) {
	low := &fake{name: "low", scores: map[string]int{"x.yaml": 1}}
	mid := &fake{name: "mid", scores: map[string]int{"x.yaml": 5}}
	high := &fake{name: "high", scores: map[string]int{"x.yaml": 9}}

	orders := [][]*fake{
		{low, mid, high},
		{high, mid, low},
		{mid, high, low},
	}
	for i, order := range orders {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			r := New(byHint)
			for _, p := range order {
				r.Register(p)
			}
			got, ok := r.Select("x.yaml")
			require.True(t, ok)
			assert.Equal(t, "high", got.name)
		})
	}
}

func TestSelect_TieGoesToFirstRegistered(t *testing.T) {
	a := &fake{name: "a", scores: map[string]int{"f": 3}}
	b := &fake{name: "b", scores: map[string]int{"f": 3}}

	r := New(byHint)
	r.Register(a)
	r.Register(b)
	for range 10 {
		got, ok := r.Select("f")
		require.True(t, ok)
		assert.Equal(t, "a", got.name)
	}

	r = New(byHint)
	r.Register(b)
	r.Register(a)
	got, _ := r.Select("f")
	assert.Equal(t, "b", got.name)
}

func TestSelect_NonPositiveIsNotApplicable(t *testing.T) {
	r := New(byHint)
	r.Register(&fake{name: "zero", scores: map[string]int{"f": 0}})
	r.Register(&fake{name: "neg", scores: map[string]int{"f": -4}})

	got, ok := r.Select("f")
	assert.False(t, ok)
	assert.Nil(t, got)

	_, ok = New(byHint).Select("f")
	assert.False(t, ok)
}

func TestRanked(t *testing.T) {
	r := New(byHint)
	r.Register(&fake{name: "a", scores: map[string]int{"f": 2}})
	r.Register(&fake{name: "b", scores: map[string]int{"f": 7}})
	r.Register(&fake{name: "c", scores: map[string]int{"f": 2}})
	r.Register(&fake{name: "d"})

	var names []string
	for _, s := range r.Ranked("f") {
		names = append(names, fmt.Sprintf("%s=%d", s.Plugin.name, s.Priority))
	}
	assert.Equal(t, "b=7 a=2 c=2", strings.Join(names, " "))
	assert.Equal(t, 4, r.Len())
}

func TestAll_ReturnsCopy(t *testing.T) {
	r := New(Ordered[string]())
	r.Register("one")
	r.Register("two")

	all := r.All()
	all[0] = "changed"
	assert.Equal(t, []string{"one", "two"}, r.All())
}

func TestRegistry_ConcurrentSelectAndRegister(t *testing.T) {
	r := New(byHint)
	r.Register(&fake{name: "base", scores: map[string]int{"f": 1}})

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Register(&fake{name: fmt.Sprint(i), scores: map[string]int{"f": 1}})
		}()
		go func() {
			defer wg.Done()
			got, ok := r.Select("f")
			assert.True(t, ok)
			assert.Equal(t, "base", got.name)
		}()
	}
	wg.Wait()
	assert.Equal(t, 9, r.Len())
}

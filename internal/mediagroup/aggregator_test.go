package mediagroup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorKeepsFirstPhoto(t *testing.T) {
	flushed := make(chan Group, 1)
	ag := New(Options{
		Debounce: 20 * time.Millisecond,
		OnFlush:  func(g Group) { flushed <- g },
	})

	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "g1", FileID: "first"})
	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "g1", FileID: "second", Caption: "late caption"})
	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "g1", FileID: "third"})

	select {
	case g := <-flushed:
		assert.Equal(t, "first", g.FileID)
		assert.Equal(t, 2, g.Dropped)
		assert.Equal(t, "late caption", g.Caption)
	case <-time.After(time.Second):
		t.Fatal("group was not flushed")
	}
}

func TestAggregatorSeparatesGroups(t *testing.T) {
	flushed := make(chan Group, 2)
	ag := New(Options{
		Debounce: 20 * time.Millisecond,
		OnFlush:  func(g Group) { flushed <- g },
	})

	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "g1", FileID: "a"})
	ag.Add(Item{ChatID: 2, UserID: 10, MediaGroupID: "g1", FileID: "b"})

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case g := <-flushed:
			seen[g.FileID] = true
			assert.Zero(t, g.Dropped)
		case <-time.After(time.Second):
			t.Fatal("group was not flushed")
		}
	}
	require.True(t, seen["a"] && seen["b"])
}

func TestAggregatorIgnoresIncompleteItems(t *testing.T) {
	flushed := make(chan Group, 1)
	ag := New(Options{
		Debounce: 20 * time.Millisecond,
		OnFlush:  func(g Group) { flushed <- g },
	})

	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "", FileID: "a"})
	ag.Add(Item{ChatID: 1, UserID: 10, MediaGroupID: "g1", FileID: ""})

	select {
	case <-flushed:
		t.Fatal("incomplete items must not create a group")
	case <-time.After(100 * time.Millisecond):
	}
}

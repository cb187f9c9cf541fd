package historybuffer

import (
	"testing"

	"github.com/asgard/heimdall/internal/clock"
)

func TestSearchScenario(t *testing.T) {
	b := New[clock.Local, string](100, 0)
	mustAdd(t, b, 100, "A")
	mustAdd(t, b, 200, "B")
	mustAdd(t, b, 400, "C")

	assertSearch(t, b, 150, "B") // tie broken toward later
	assertSearch(t, b, 250, "B")
	assertSearch(t, b, 100, "A")

	if _, ok := b.Search(clock.New[clock.Local](500)); ok {
		t.Fatalf("expected no entry for out-of-range query")
	}

	if err := b.Add(clock.New[clock.Local](100), "X"); err != ErrEntryTooOld {
		t.Fatalf("expected ErrEntryTooOld, got %v", err)
	}
}

func mustAdd(t *testing.T, b *Buffer[clock.Local, string], micros int64, v string) {
	t.Helper()
	if err := b.Add(clock.New[clock.Local](micros), v); err != nil {
		t.Fatalf("Add(%d, %q): %v", micros, v, err)
	}
}

func assertSearch(t *testing.T, b *Buffer[clock.Local, string], micros int64, want string) {
	t.Helper()
	got, ok := b.Search(clock.New[clock.Local](micros))
	if !ok {
		t.Fatalf("Search(%d): no entry found, wanted %q", micros, want)
	}
	if got != want {
		t.Fatalf("Search(%d) = %q, want %q", micros, got, want)
	}
}

func TestMonotonicKeyEnforced(t *testing.T) {
	b := New[clock.Local, int](100, 0)
	mustAddInt(t, b, 10, 1)
	if err := b.Add(clock.New[clock.Local](10), 2); err != ErrEntryTooOld {
		t.Fatalf("expected ErrEntryTooOld on equal key, got %v", err)
	}
	if err := b.Add(clock.New[clock.Local](5), 2); err != ErrEntryTooOld {
		t.Fatalf("expected ErrEntryTooOld on earlier key, got %v", err)
	}
	if n := b.NumEntries(); n != 1 {
		t.Fatalf("rejected add mutated buffer, size=%d", n)
	}
}

func mustAddInt(t *testing.T, b *Buffer[clock.Local, int], micros int64, v int) {
	t.Helper()
	if err := b.Add(clock.New[clock.Local](micros), v); err != nil {
		t.Fatalf("Add: %v", err)
	}
}

func TestEvictionByMaxEntries(t *testing.T) {
	b := New[clock.Local, int](2, 0)
	mustAddInt(t, b, 1, 1)
	mustAddInt(t, b, 2, 2)
	mustAddInt(t, b, 3, 3)
	if n := b.NumEntries(); n != 2 {
		t.Fatalf("expected eviction to cap size at 2, got %d", n)
	}
	if oldest, _ := b.OldestTimestamp(); oldest.Micros != 2 {
		t.Fatalf("expected oldest surviving key 2, got %d", oldest.Micros)
	}
}

func TestEvictionByMaxAge(t *testing.T) {
	b := New[clock.Local, int](100, 10)
	mustAddInt(t, b, 0, 1)
	mustAddInt(t, b, 5, 2)
	mustAddInt(t, b, 15, 3) // oldest (0) is now 15us old, exceeds maxEntryAge=10; 5 is 10us old and stays
	if n := b.NumEntries(); n != 2 {
		t.Fatalf("expected age eviction to drop entry 0, size=%d", n)
	}
	if oldest, _ := b.OldestTimestamp(); oldest.Micros != 5 {
		t.Fatalf("expected oldest surviving key 5, got %d", oldest.Micros)
	}
}

func TestClearEmptiesBuffer(t *testing.T) {
	b := New[clock.Local, int](10, 0)
	mustAddInt(t, b, 1, 1)
	b.Clear()
	if n := b.NumEntries(); n != 0 {
		t.Fatalf("expected empty buffer after Clear, got %d", n)
	}
	if _, ok := b.OldestTimestamp(); ok {
		t.Fatalf("expected no oldest timestamp after Clear")
	}
}

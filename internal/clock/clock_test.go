package clock

import (
	"testing"
	"time"
)

func TestRealNowAdvances(t *testing.T) {
	var r Real
	t1 := r.Now()
	time.Sleep(time.Millisecond)
	t2 := r.Now()
	if !t2.After(t1) {
		t.Errorf("expected successive Real.Now() calls to advance")
	}
}

func TestFakeOnlyAdvancesWhenTold(t *testing.T) {
	start := time.Unix(1000, 0)
	f := NewFake(start)

	if !f.Now().Equal(start) {
		t.Fatalf("expected Fake to start at %v, got %v", start, f.Now())
	}

	f.Advance(5 * time.Second)
	want := start.Add(5 * time.Second)
	if !f.Now().Equal(want) {
		t.Errorf("expected Fake to have advanced to %v, got %v", want, f.Now())
	}
}

func TestDefaultIsReal(t *testing.T) {
	if _, ok := Default.(Real); !ok {
		t.Errorf("expected Default to be Real, got %T", Default)
	}
}

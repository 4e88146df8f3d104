package plan

import (
	"testing"
	"time"
)

func TestSortedStableByOrderThenInsertion(t *testing.T) {
	entries := []Entry{
		{Order: 2, TransformName: "b"},
		{Order: 1, TransformName: "a1"},
		{Order: 1, TransformName: "a2"},
		{Order: 0, TransformName: "z"},
	}
	got := Sorted(entries)
	want := []string{"z", "a1", "a2", "b"}
	for i, name := range want {
		if got[i].TransformName != name {
			t.Errorf("index %d: got %s, want %s", i, got[i].TransformName, name)
		}
	}
}

func TestEffectiveFailureModePrecedence(t *testing.T) {
	e := Entry{}
	d := Detail{}
	if mode := EffectiveFailureMode(e, d, Continue); mode != Continue {
		t.Errorf("expected global default Continue, got %v", mode)
	}

	d.FailureModeSet = true
	d.FailureMode = LogAndSkip
	if mode := EffectiveFailureMode(e, d, Continue); mode != LogAndSkip {
		t.Errorf("expected detail default LogAndSkip, got %v", mode)
	}

	e.FailureModeSet = true
	e.FailureMode = StopPipeline
	if mode := EffectiveFailureMode(e, d, Continue); mode != StopPipeline {
		t.Errorf("expected entry override StopPipeline, got %v", mode)
	}
}

func TestEffectiveTimeoutFallsBackToGlobal(t *testing.T) {
	e := Entry{}
	if got := EffectiveTimeout(e, 5*time.Second); got != 5*time.Second {
		t.Errorf("expected 5s global default, got %v", got)
	}
	e.Timeout = 2 * time.Second
	if got := EffectiveTimeout(e, 5*time.Second); got != 2*time.Second {
		t.Errorf("expected entry override 2s, got %v", got)
	}
}

func TestParseFailureMode(t *testing.T) {
	cases := map[string]FailureMode{
		"stop-pipeline": StopPipeline,
		"continue":      Continue,
		"log-and-skip":  LogAndSkip,
	}
	for s, want := range cases {
		got, err := ParseFailureMode(s)
		if err != nil {
			t.Fatalf("ParseFailureMode(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseFailureMode(%q) = %v, want %v", s, got, want)
		}
	}
	if _, err := ParseFailureMode("bogus"); err == nil {
		t.Error("expected error for unknown failure mode")
	}
}

func TestDetailEqual(t *testing.T) {
	d1 := Detail{Request: []Entry{{Order: 1, TransformName: "a"}}}
	d2 := Detail{Request: []Entry{{Order: 1, TransformName: "a"}}}
	if !d1.Equal(d2) {
		t.Error("expected equal details to compare equal")
	}
	d3 := Detail{Request: []Entry{{Order: 2, TransformName: "a"}}}
	if d1.Equal(d3) {
		t.Error("expected differing details to compare unequal")
	}
}

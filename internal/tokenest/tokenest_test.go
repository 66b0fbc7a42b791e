package tokenest_test

import (
	"strings"
	"testing"

	"github.com/chatloop-ai/chatloop/internal/tokenest"
)

func TestEstimate_Empty(t *testing.T) {
	t.Parallel()

	e := tokenest.New(tokenest.MethodMax)
	if got := e.Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
}

func TestEstimate_SingleWord(t *testing.T) {
	t.Parallel()

	// "hello": 1 word / 0.75 = 1.33; 5 chars / 4 = 1.25; no structural
	// characters. Max → floor(1.33) = 1.
	e := tokenest.New(tokenest.MethodMax)
	if got := e.Estimate("hello"); got != 1 {
		t.Errorf("Estimate(\"hello\") = %d, want 1", got)
	}
}

func TestEstimate_StructuralCharactersCounted(t *testing.T) {
	t.Parallel()

	e := tokenest.New(tokenest.MethodMax)

	plain := e.Estimate("hello")
	punctuated := e.Estimate("hello!")
	if punctuated <= plain {
		t.Errorf("punctuation should raise the estimate: %d <= %d", punctuated, plain)
	}
}

func TestEstimate_Methods(t *testing.T) {
	t.Parallel()

	// "one two three four": 4 words, 18 chars, 3 spaces.
	// words: 4/0.75 + 3 = 8.33 → 8
	// chars: 18/4 + 3 = 7.5 → 7
	text := "one two three four"

	tests := []struct {
		method tokenest.Method
		want   int
	}{
		{tokenest.MethodWords, 8},
		{tokenest.MethodChars, 7},
		{tokenest.MethodMax, 8},
		{tokenest.MethodMin, 7},
		{tokenest.MethodAverage, 7}, // (8.33 + 7.5) / 2 = 7.9 → 7
	}

	for _, tt := range tests {
		e := tokenest.New(tt.method)
		if got := e.Estimate(text); got != tt.want {
			t.Errorf("method %s: Estimate(%q) = %d, want %d", tt.method, text, got, tt.want)
		}
	}
}

func TestEstimate_UnknownMethodFallsBackToMax(t *testing.T) {
	t.Parallel()

	fallback := tokenest.New(tokenest.Method("bogus"))
	maxEst := tokenest.New(tokenest.MethodMax)

	text := "some text, with punctuation."
	if got, want := fallback.Estimate(text), maxEst.Estimate(text); got != want {
		t.Errorf("unknown method estimate = %d, want max estimate %d", got, want)
	}
}

func TestEstimate_MonotonicUnderAppend(t *testing.T) {
	t.Parallel()

	e := tokenest.New(tokenest.MethodMax)

	var b strings.Builder
	prev := 0
	for i := 0; i < 200; i++ {
		b.WriteString("word ")
		got := e.Estimate(b.String())
		if got < prev {
			t.Fatalf("estimate decreased from %d to %d at length %d", prev, got, b.Len())
		}
		prev = got
	}
}

package generate

import (
	"context"
	"strings"
	"testing"
)

func TestExtractive_NoUsableLinesReturnsFallback(t *testing.T) {
	got, err := Extractive{}.Generate(context.Background(), "q", "   \n\n  ")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != noSourcesFallback {
		t.Errorf("got %q, want fallback message", got)
	}
}

func TestExtractive_PicksSubstantialLinesAsBullets(t *testing.T) {
	ctx := "short\nThis is a sufficiently long line to qualify for extraction.\nalso short"
	got, err := Extractive{}.Generate(context.Background(), "q", ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.HasPrefix(got, "- This is a sufficiently long line") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestExtractive_FallsBackToFirstSixLinesWhenNoneQualify(t *testing.T) {
	ctx := "a\nb\nc\nd\ne\nf\ng\nh"
	got, err := Extractive{}.Generate(context.Background(), "q", ctx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(strings.Split(got, "\n")) != 6 {
		t.Errorf("expected 6 fallback lines, got %q", got)
	}
}

func TestExtractive_CapsAt8Lines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 20; i++ {
		b.WriteString("this line is long enough to qualify for extraction purposes\n")
	}
	got, err := Extractive{}.Generate(context.Background(), "q", b.String())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(strings.Split(got, "\n")) != 8 {
		t.Errorf("expected 8 lines, got %d", len(strings.Split(got, "\n")))
	}
}

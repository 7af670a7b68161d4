package validation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

func TestTitle(t *testing.T) {
	got, err := Title("  <b>Write</b> report  ")
	if err != nil {
		t.Fatalf("title failed: %v", err)
	}
	if got != "Write report" {
		t.Fatalf("unexpected title: %q", got)
	}

	for _, raw := range []any{"", "   ", 42, nil, "<br>", strings.Repeat("a", model.MaxTitleLength+1)} {
		if _, err := Title(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %#v, got %v", raw, err)
		}
	}
}

func TestDuration(t *testing.T) {
	cases := []struct {
		raw  any
		want *int
	}{
		{nil, nil},
		{"", nil},
		{25, model.IntPtr(25)},
		{float64(90), model.IntPtr(90)},
		{"45", model.IntPtr(45)},
		{model.IntPtr(15), model.IntPtr(15)},
	}
	for _, tc := range cases {
		got, err := Duration(tc.raw)
		if err != nil {
			t.Fatalf("duration %#v failed: %v", tc.raw, err)
		}
		if (got == nil) != (tc.want == nil) || (got != nil && *got != *tc.want) {
			t.Fatalf("duration %#v = %v, want %v", tc.raw, got, tc.want)
		}
	}

	for _, raw := range []any{0, -5, 1441, 2.5, "abc", math.NaN(), math.Inf(1), true} {
		if _, err := Duration(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %#v, got %v", raw, err)
		}
	}
}

func TestTimeRemaining(t *testing.T) {
	got, err := TimeRemaining(12.9)
	if err != nil || got == nil || *got != 12 {
		t.Fatalf("expected floored 12, got %v (%v)", got, err)
	}
	got, err = TimeRemaining(nil)
	if err != nil || got != nil {
		t.Fatalf("expected nil for absent value, got %v (%v)", got, err)
	}
	for _, raw := range []any{-1, model.MaxTimeSeconds + 1, "x"} {
		if _, err := TimeRemaining(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %#v, got %v", raw, err)
		}
	}
}

func TestID(t *testing.T) {
	if got, err := ID(" abc-123_X "); err != nil || got != "abc-123_X" {
		t.Fatalf("unexpected id result: %q %v", got, err)
	}
	for _, raw := range []any{"", "../etc", "a b", 7} {
		if _, err := ID(raw); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %#v, got %v", raw, err)
		}
	}
}

func TestTagsAndPriority(t *testing.T) {
	tags, err := Tags([]any{" Deep ", "deep", "", "work"})
	if err != nil {
		t.Fatalf("tags failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "deep" || tags[1] != "work" {
		t.Fatalf("unexpected tags: %#v", tags)
	}
	if _, err := Tags([]any{1}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for non-string tag, got %v", err)
	}

	p, err := Priority("HIGH")
	if err != nil || p != model.PriorityHigh {
		t.Fatalf("unexpected priority: %q %v", p, err)
	}
	if p, err := Priority("none"); err != nil || p != model.PriorityNone {
		t.Fatalf("unexpected none priority: %q %v", p, err)
	}
	var verr *Error
	if _, err := Priority("urgent"); !errors.As(err, &verr) || verr.Field != "priority" {
		t.Fatalf("expected priority validation error, got %v", err)
	}
}

package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent @25", TypeAdd},
		{"start 2", TypeStart},
		{"stop 2", TypePause},
		{"reset 1", TypeReset},
		{"done 3", TypeDone},
		{"/delete 3", TypeRemove},
		{"pin 1", TypePin},
		{"prio 1 high", TypePrio},
		{"tag 1 work deep", TypeTag},
		{"rename 1 new title here", TypeRename},
		{"time 1 none", TypeTime},
		{"mv 3 1", TypeMove},
		{"undo", TypeUndo},
		{"find rep", TypeFind},
		{"find", TypeFind},
		{"clear", TypeClear},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseArgumentErrors(t *testing.T) {
	for _, in := range []string{"start", "start 1 2", "prio 1", "move 1", "undo now", "add"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument, got %v", in, err)
		}
	}
	if _, err := Parse("  / "); err == nil {
		t.Fatal("expected empty input error")
	}
}

func TestParseQuickAddTokens(t *testing.T) {
	add, err := ParseQuickAdd("Write report 1h30m !High #work #deep")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if add.Title != "Write report" {
		t.Fatalf("unexpected title %q", add.Title)
	}
	if add.Duration == nil || *add.Duration != 90 {
		t.Fatalf("unexpected duration %v", add.Duration)
	}
	if add.Priority != "high" || len(add.Tags) != 2 || add.Tags[1] != "deep" {
		t.Fatalf("unexpected tokens %+v", add)
	}

	plain, err := ParseQuickAdd("Read chapter 3")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if plain.Title != "Read chapter 3" || plain.Duration != nil {
		t.Fatalf("bare numbers must stay in the title, got %+v", plain)
	}

	if _, err := ParseQuickAdd("Stretch @abc"); err == nil {
		t.Fatal("expected invalid duration error")
	}
	if _, err := ParseQuickAdd("Stretch 90s"); err != nil {
		t.Fatalf("seconds token is not a timer and stays in title: %v", err)
	}
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in     string
		want   int
		isTime bool
		fails  bool
	}{
		{"@25", 25, true, false},
		{"25m", 25, true, false},
		{"45min", 45, true, false},
		{"2h", 120, true, false},
		{"1.5h", 90, true, false},
		{"30s", 0, false, false},
		{"0.5m", 0, true, true},
		{"room", 0, false, false},
		{"@x", 0, true, true},
	}
	for _, tc := range cases {
		got, ok, err := ParseMinutes(tc.in)
		if ok != tc.isTime || (err != nil) != tc.fails {
			t.Fatalf("%q: ok=%v err=%v", tc.in, ok, err)
		}
		if !tc.fails && got != tc.want {
			t.Fatalf("%q: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs 25m")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Title != "write docs" || a.Duration == nil || *a.Duration != 25 {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteRoutesTargetCommands(t *testing.T) {
	var gotType Type
	var gotTarget string
	handlers := Handlers{
		Act: func(kind Type, a TargetArgs) (Result, error) {
			gotType, gotTarget = kind, a.Target
			return Result{}, nil
		},
	}
	cmd, err := Parse("go 4")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, err := Execute(cmd, handlers); err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if gotType != TypeStart || gotTarget != "4" {
		t.Fatalf("unexpected routing %s %s", gotType, gotTarget)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("undo")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}

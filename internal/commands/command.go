package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

type Type string

const (
	TypeAdd    Type = "add"
	TypeStart  Type = "start"
	TypePause  Type = "pause"
	TypeReset  Type = "reset"
	TypeDone   Type = "done"
	TypeRemove Type = "rm"
	TypePin    Type = "pin"
	TypePrio   Type = "prio"
	TypeTag    Type = "tag"
	TypeRename Type = "rename"
	TypeTime   Type = "time"
	TypeMove   Type = "move"
	TypeUndo   Type = "undo"
	TypeFind   Type = "find"
	TypeClear  Type = "clear"
)

var aliases = map[string]Type{
	"new":      TypeAdd,
	"go":       TypeStart,
	"stop":     TypePause,
	"toggle":   TypeDone,
	"delete":   TypeRemove,
	"del":      TypeRemove,
	"priority": TypePrio,
	"tags":     TypeTag,
	"title":    TypeRename,
	"duration": TypeTime,
	"mv":       TypeMove,
	"search":   TypeFind,
	"filter":   TypeFind,
}

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func argError(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// AddArgs is a parsed quick-add line. Duration is in minutes.
type AddArgs struct {
	Title    string
	Duration *int
	Priority string
	Tags     []string
}

// TargetArgs names a task by its 1-based row in the current view or by id.
type TargetArgs struct {
	Target string
}

type EditArgs struct {
	Target string
	Value  string
}

type MoveArgs struct {
	Target string
	To     string
}

type FindArgs struct {
	Query string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Target *TargetArgs
	Edit   *EditArgs
	Move   *MoveArgs
	Find   *FindArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := Type(strings.ToLower(parts[0]))
	if alias, ok := aliases[string(head)]; ok {
		head = alias
	}
	args := parts[1:]

	switch head {
	case TypeAdd:
		add, err := ParseQuickAdd(strings.Join(args, " "))
		if err != nil {
			return Command{}, err
		}
		return Command{Type: head, Raw: input, Add: &add}, nil
	case TypeStart, TypePause, TypeReset, TypeDone, TypeRemove, TypePin:
		if len(args) != 1 {
			return Command{}, argError("%s requires exactly one task", head)
		}
		return Command{Type: head, Raw: input, Target: &TargetArgs{Target: args[0]}}, nil
	case TypePrio, TypeTag, TypeRename, TypeTime:
		if len(args) < 2 {
			return Command{}, argError("%s requires a task and a value", head)
		}
		return Command{Type: head, Raw: input, Edit: &EditArgs{Target: args[0], Value: strings.Join(args[1:], " ")}}, nil
	case TypeMove:
		if len(args) != 2 {
			return Command{}, argError("move requires a task and a destination")
		}
		return Command{Type: head, Raw: input, Move: &MoveArgs{Target: args[0], To: args[1]}}, nil
	case TypeFind:
		return Command{Type: head, Raw: input, Find: &FindArgs{Query: strings.Join(args, " ")}}, nil
	case TypeUndo, TypeClear:
		if len(args) != 0 {
			return Command{}, argError("%s takes no arguments", head)
		}
		return Command{Type: head, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// ParseQuickAdd reads a title with optional trailing tokens:
// "@25" or "25m" or "1h30m" for a timer, "!high" for priority, "#tag" for tags.
// Tokens are only recognised after the first title word.
func ParseQuickAdd(input string) (AddArgs, error) {
	fields := strings.Fields(input)
	var out AddArgs
	title := make([]string, 0, len(fields))
	for i, field := range fields {
		if i == 0 {
			title = append(title, field)
			continue
		}
		switch {
		case strings.HasPrefix(field, "#") && len(field) > 1:
			out.Tags = append(out.Tags, field[1:])
			continue
		case strings.HasPrefix(field, "!") && len(field) > 1:
			out.Priority = strings.ToLower(field[1:])
			continue
		}
		if minutes, ok, err := ParseMinutes(field); ok {
			if err != nil {
				return AddArgs{}, err
			}
			out.Duration = model.IntPtr(minutes)
			continue
		}
		title = append(title, field)
	}
	out.Title = strings.Join(title, " ")
	if out.Title == "" {
		return AddArgs{}, argError("add requires a title")
	}
	return out, nil
}

// ParseMinutes recognises "@25", "25m", "25min" and Go durations such as
// "1h30m". ok is false when the token is not a duration at all.
func ParseMinutes(token string) (minutes int, ok bool, err error) {
	lower := strings.ToLower(strings.TrimSpace(token))
	switch {
	case strings.HasPrefix(lower, "@"):
		n, convErr := strconv.Atoi(lower[1:])
		if convErr != nil {
			return 0, true, argError("invalid duration %q", token)
		}
		return n, true, nil
	case strings.HasSuffix(lower, "min"):
		n, convErr := strconv.Atoi(strings.TrimSuffix(lower, "min"))
		if convErr != nil {
			return 0, false, nil
		}
		return n, true, nil
	case strings.HasSuffix(lower, "m") || strings.HasSuffix(lower, "h"):
		d, parseErr := time.ParseDuration(lower)
		if parseErr != nil || lower[0] < '0' || lower[0] > '9' {
			return 0, false, nil
		}
		if d%time.Minute != 0 {
			return 0, true, argError("duration %q is not whole minutes", token)
		}
		return int(d / time.Minute), true, nil
	}
	return 0, false, nil
}

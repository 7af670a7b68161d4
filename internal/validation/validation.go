// Package validation normalizes raw field values before they enter the
// task model. Every gate accepts untyped input because values arrive from
// command arguments, decoded JSON and key-value patches alike.
package validation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

var ErrInvalid = errors.New("validation: invalid input")

type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func invalid(field, format string, args ...any) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	htmlTag   = regexp.MustCompile(`<[^>]*>`)
	idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// Title trims, bounds and strips markup from a task title.
func Title(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", invalid("title", "must be a string")
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", invalid("title", "cannot be empty")
	}
	if utf8.RuneCountInString(trimmed) > model.MaxTitleLength {
		return "", invalid("title", "too long (max %d characters)", model.MaxTitleLength)
	}
	clean := strings.TrimSpace(htmlTag.ReplaceAllString(trimmed, ""))
	if clean == "" {
		return "", invalid("title", "cannot be empty")
	}
	return clean, nil
}

// Duration returns nil for an absent duration, otherwise whole minutes in
// [1, MaxDurationMinutes].
func Duration(raw any) (*int, error) {
	n, present, err := number("duration", raw)
	if err != nil || !present {
		return nil, err
	}
	if n < 1 || n > model.MaxDurationMinutes {
		return nil, invalid("duration", "must be between 1 and %d minutes", model.MaxDurationMinutes)
	}
	if n != math.Trunc(n) {
		return nil, invalid("duration", "must be a whole number")
	}
	return model.IntPtr(int(n)), nil
}

// TimeRemaining returns nil when absent, otherwise seconds floored into
// [0, MaxTimeSeconds].
func TimeRemaining(raw any) (*int, error) {
	n, present, err := number("timeRemaining", raw)
	if err != nil || !present {
		return nil, err
	}
	if n < 0 || n > model.MaxTimeSeconds {
		return nil, invalid("timeRemaining", "must be between 0 and %d seconds", model.MaxTimeSeconds)
	}
	return model.IntPtr(int(math.Floor(n))), nil
}

func ID(raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", invalid("id", "must be a string")
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", invalid("id", "cannot be empty")
	}
	if !idPattern.MatchString(trimmed) {
		return "", invalid("id", "invalid format")
	}
	return trimmed, nil
}

func Priority(raw any) (model.Priority, error) {
	if raw == nil {
		return model.PriorityNone, nil
	}
	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case model.Priority:
		s = string(v)
	default:
		return "", invalid("priority", "must be a string")
	}
	p := model.Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "none" {
		p = model.PriorityNone
	}
	if !p.IsValid() {
		return "", invalid("priority", "unknown priority %q", s)
	}
	return p, nil
}

// Tags trims, lowercases and de-duplicates tags, dropping empty entries.
func Tags(raw any) ([]string, error) {
	var items []string
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		items = v
	case []any:
		items = make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, invalid("tags", "entries must be strings")
			}
			items = append(items, s)
		}
	case string:
		items = strings.Split(v, ",")
	default:
		return nil, invalid("tags", "must be a list of strings")
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		tag := strings.ToLower(strings.TrimSpace(htmlTag.ReplaceAllString(item, "")))
		if tag == "" || seen[tag] {
			continue
		}
		if utf8.RuneCountInString(tag) > model.MaxTagLength {
			return nil, invalid("tags", "tag %q too long (max %d characters)", tag, model.MaxTagLength)
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) > model.MaxTags {
		return nil, invalid("tags", "too many tags (max %d)", model.MaxTags)
	}
	return out, nil
}

// Bool accepts booleans and their common string spellings.
func Bool(field string, raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
	}
	return false, invalid(field, "must be a boolean")
}

func number(field string, raw any) (float64, bool, error) {
	var n float64
	switch v := raw.(type) {
	case nil:
		return 0, false, nil
	case *int:
		if v == nil {
			return 0, false, nil
		}
		n = float64(*v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case float64:
		n = v
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false, nil
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false, invalid(field, "must be a number")
		}
		n = parsed
	default:
		return 0, false, invalid(field, "must be a number")
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false, invalid(field, "must be a valid number")
	}
	return n, true, nil
}

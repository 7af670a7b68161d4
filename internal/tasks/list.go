// Package tasks holds the ordered task collection and its read-only views.
// A List is not safe for concurrent use; its owner serializes access.
package tasks

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sandeepkv93/taskfloat/internal/model"
)

var (
	ErrNotFound  = errors.New("tasks: task not found")
	ErrCapacity  = errors.New("tasks: task limit reached")
	ErrDuplicate = errors.New("tasks: duplicate task id")
	ErrAmbiguous = errors.New("tasks: ambiguous task reference")
)

type List struct {
	items []model.Task
	max   int
}

// NewList copies the given tasks, keeping their order. A max of zero or
// less falls back to model.MaxTasks.
func NewList(items []model.Task, max int) *List {
	if max <= 0 {
		max = model.MaxTasks
	}
	l := &List{items: make([]model.Task, 0, len(items)), max: max}
	for _, item := range items {
		l.items = append(l.items, item.Clone())
	}
	return l
}

func (l *List) Len() int { return len(l.items) }

func (l *List) Max() int { return l.max }

func (l *List) Full() bool { return len(l.items) >= l.max }

func (l *List) Index(id string) int {
	for i := range l.items {
		if l.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *List) Get(id string) (model.Task, bool) {
	i := l.Index(id)
	if i < 0 {
		return model.Task{}, false
	}
	return l.items[i].Clone(), true
}

// At returns the task at position i without bounds recovery.
func (l *List) At(i int) model.Task {
	return l.items[i].Clone()
}

// Snapshot returns a deep copy of the list in order.
func (l *List) Snapshot() []model.Task {
	out := make([]model.Task, len(l.items))
	for i := range l.items {
		out[i] = l.items[i].Clone()
	}
	return out
}

func (l *List) Append(task model.Task) error {
	if l.Full() {
		return fmt.Errorf("%w: %d tasks", ErrCapacity, l.max)
	}
	if l.Index(task.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicate, task.ID)
	}
	l.items = append(l.items, task.Clone())
	return nil
}

// Mutate applies fn to the stored task in place.
func (l *List) Mutate(id string, fn func(*model.Task)) error {
	i := l.Index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	fn(&l.items[i])
	return nil
}

// Each calls fn for every stored task in order, allowing in-place edits.
func (l *List) Each(fn func(*model.Task)) {
	for i := range l.items {
		fn(&l.items[i])
	}
}

func (l *List) Remove(id string) (model.Task, error) {
	i := l.Index(id)
	if i < 0 {
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	return removed, nil
}

// RemoveWhere drops every matching task and returns the removed ones.
func (l *List) RemoveWhere(match func(model.Task) bool) []model.Task {
	kept := l.items[:0]
	removed := make([]model.Task, 0)
	for _, item := range l.items {
		if match(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	l.items = kept
	return removed
}

// Move takes the dragged task out and re-inserts it at the target's
// original index, so it lands before the target when moving up and after
// it when moving down. It reports whether the order changed.
func (l *List) Move(draggedID, targetID string) bool {
	if draggedID == targetID {
		return false
	}
	from := l.Index(draggedID)
	to := l.Index(targetID)
	if from < 0 || to < 0 {
		return false
	}
	dragged := l.items[from]
	l.items = append(l.items[:from], l.items[from+1:]...)
	l.items = append(l.items[:to], append([]model.Task{dragged}, l.items[to:]...)...)
	return true
}

// Running returns the ids of every task flagged as running, in list order.
func (l *List) Running() []string {
	out := make([]string, 0, 1)
	for _, item := range l.items {
		if item.IsTimerRunning {
			out = append(out, item.ID)
		}
	}
	return out
}

// NextTimed returns the first incomplete timed task after position from,
// wrapping to the start of the list and skipping the task at from.
func (l *List) NextTimed(from int) (model.Task, bool) {
	n := len(l.items)
	for step := 1; step < n+1; step++ {
		i := (from + step) % n
		if i == from {
			continue
		}
		item := l.items[i]
		if !item.Completed && item.HasTimer() && item.Remaining() > 0 {
			return item.Clone(), true
		}
	}
	return model.Task{}, false
}

type Stats struct {
	Total     int
	Active    int
	Completed int
	Timed     int
}

func (l *List) Stats() Stats {
	var s Stats
	for _, item := range l.items {
		s.Total++
		if item.Completed {
			s.Completed++
		} else {
			s.Active++
		}
		if item.HasTimer() {
			s.Timed++
		}
	}
	return s
}

func Active(list []model.Task) []model.Task {
	return where(list, func(t model.Task) bool { return !t.Completed })
}

func Completed(list []model.Task) []model.Task {
	return where(list, func(t model.Task) bool { return t.Completed })
}

// Filter keeps tasks whose title contains query, case-insensitively.
func Filter(list []model.Task, query string) []model.Task {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append([]model.Task(nil), list...)
	}
	return where(list, func(t model.Task) bool {
		return strings.Contains(strings.ToLower(t.Title), q)
	})
}

// Sorted orders pinned tasks first, then the running task, then by
// priority; completed tasks always trail. Ties keep list order.
func Sorted(list []model.Task) []model.Task {
	out := append([]model.Task(nil), list...)
	sort.SliceStable(out, func(i, j int) bool {
		return bucket(out[i]) < bucket(out[j])
	})
	return out
}

func bucket(t model.Task) int {
	switch {
	case t.Completed:
		return 10
	case t.Pinned:
		return 0
	case t.IsTimerRunning:
		return 1
	default:
		return 2 + t.Priority.Rank()
	}
}

// Lookup resolves ref against rows as shown to the user: a 1-based row
// number, a full id or a unique id prefix.
func Lookup(rows []model.Task, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("%w: empty reference", ErrNotFound)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(rows) {
			return model.Task{}, fmt.Errorf("%w: no row %d", ErrNotFound, n)
		}
		return rows[n-1], nil
	}
	var match []model.Task
	for _, row := range rows {
		if row.ID == ref {
			return row, nil
		}
		if strings.HasPrefix(row.ID, ref) {
			match = append(match, row)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	default:
		return model.Task{}, fmt.Errorf("%w: %q matches %d tasks", ErrAmbiguous, ref, len(match))
	}
}

func where(list []model.Task, keep func(model.Task) bool) []model.Task {
	out := make([]model.Task, 0, len(list))
	for _, item := range list {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

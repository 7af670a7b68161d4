package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskfloat/internal/commands"
	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/storage"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
)

func newAddCmd(o *options) *cobra.Command {
	var (
		minutes  int
		priority string
		tagList  []string
		pinned   bool
	)
	cmd := &cobra.Command{
		Use:   "add <title> [@25|25m] [!high] [#tag]...",
		Short: "Add a task, optionally with a countdown timer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := commands.ParseQuickAdd(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("minutes") {
				parsed.Duration = model.IntPtr(minutes)
			}
			if priority != "" {
				parsed.Priority = priority
			}
			parsed.Tags = append(parsed.Tags, tagList...)

			var opts []engine.AddOption
			if parsed.Priority != "" {
				opts = append(opts, engine.WithPriority(parsed.Priority))
			}
			if len(parsed.Tags) > 0 {
				opts = append(opts, engine.WithTags(parsed.Tags))
			}
			if pinned {
				opts = append(opts, engine.WithPinned(true))
			}
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				task, err := eng.Add(parsed.Title, parsed.Duration, opts...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s: %s\n", shortID(task.ID), describe(task))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "timer length in minutes")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority: high, medium or low")
	cmd.Flags().StringSliceVarP(&tagList, "tag", "t", nil, "tag to attach (repeatable)")
	cmd.Flags().BoolVar(&pinned, "pin", false, "pin the task to the top")
	return cmd
}

func newListCmd(o *options) *cobra.Command {
	var (
		all    bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   "List tasks in display order",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				ordered := rows(eng)
				shown := tasks.Filter(ordered, query)
				if !all {
					shown = tasks.Active(shown)
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(shown)
				}
				printList(cmd.OutOrStdout(), ordered, shown, eng.Stats())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print tasks as JSON")
	return cmd
}

// printList numbers rows by their position in the full display order so
// the numbers stay valid as references when a filter is applied.
func printList(out io.Writer, ordered, shown []model.Task, stats tasks.Stats) {
	if len(shown) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return
	}
	index := make(map[string]int, len(ordered))
	for i, task := range ordered {
		index[task.ID] = i + 1
	}
	for _, task := range shown {
		fmt.Fprintf(out, "%3d. %s\n", index[task.ID], describe(task))
	}
	fmt.Fprintf(out, "\n%d/%d done\n", stats.Completed, stats.Total)
}

func describe(task model.Task) string {
	var b strings.Builder
	if task.Completed {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	if task.Pinned {
		b.WriteString("* ")
	}
	b.WriteString(task.Title)
	switch task.TimerState() {
	case model.TimerRunning:
		fmt.Fprintf(&b, "  %s running", model.FormatClock(task.Remaining()))
	case model.TimerPaused:
		fmt.Fprintf(&b, "  %s paused", model.FormatClock(task.Remaining()))
	case model.TimerIdle:
		fmt.Fprintf(&b, "  %dm", *task.Duration)
	case model.TimerCompleted:
		b.WriteString("  0:00")
	}
	if task.Priority != model.PriorityNone {
		fmt.Fprintf(&b, "  !%s", task.Priority)
	}
	for _, tag := range task.Tags {
		fmt.Fprintf(&b, " #%s", tag)
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// newRefCmd builds a subcommand acting on one task reference: a row
// number from list, a full id or a unique id prefix.
func newRefCmd(o *options, use, short string, aliases []string, act func(*engine.Engine, model.Task) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <row|id>",
		Aliases: aliases,
		Short:   short,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				task, err := lookup(eng, args[0])
				if err != nil {
					return err
				}
				msg, err := act(eng, task)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), msg)
				return nil
			})
		},
	}
}

func newDoneCmd(o *options) *cobra.Command {
	return newRefCmd(o, "done", "Toggle a task between active and completed", []string{"toggle"},
		func(eng *engine.Engine, task model.Task) (string, error) {
			updated, err := eng.Toggle(task.ID)
			if err != nil {
				return "", err
			}
			if updated.Completed {
				return "completed: " + updated.Title, nil
			}
			return "reopened: " + updated.Title, nil
		})
}

func newRemoveCmd(o *options) *cobra.Command {
	return newRefCmd(o, "rm", "Delete a task", []string{"delete", "del"},
		func(eng *engine.Engine, task model.Task) (string, error) {
			removed, err := eng.Delete(task.ID)
			if err != nil {
				return "", err
			}
			return "deleted: " + removed.Title, nil
		})
}

func newPauseCmd(o *options) *cobra.Command {
	return newRefCmd(o, "pause", "Pause a task's timer", []string{"stop"},
		func(eng *engine.Engine, task model.Task) (string, error) {
			if err := eng.PauseTimer(task.ID); err != nil {
				return "", err
			}
			return "paused: " + task.Title, nil
		})
}

func newResetCmd(o *options) *cobra.Command {
	return newRefCmd(o, "reset", "Stop a task's timer and refill it", nil,
		func(eng *engine.Engine, task model.Task) (string, error) {
			if err := eng.ResetTimer(task.ID); err != nil {
				return "", err
			}
			return "reset: " + task.Title, nil
		})
}

func newPinCmd(o *options) *cobra.Command {
	return newRefCmd(o, "pin", "Toggle whether a task is pinned to the top", nil,
		func(eng *engine.Engine, task model.Task) (string, error) {
			updated, err := eng.TogglePin(task.ID)
			if err != nil {
				return "", err
			}
			if updated.Pinned {
				return "pinned: " + updated.Title, nil
			}
			return "unpinned: " + updated.Title, nil
		})
}

func newPriorityCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "prio <row|id> <high|medium|low|none>",
		Aliases: []string{"priority"},
		Short:   "Set a task's priority",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level := strings.ToLower(args[1])
			if level == "none" {
				level = ""
			}
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				task, err := lookup(eng, args[0])
				if err != nil {
					return err
				}
				updated, err := eng.SetPriority(task.ID, level)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "priority %s: %s\n", args[1], updated.Title)
				return nil
			})
		},
	}
}

func newClearCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				n := eng.ClearCompleted()
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d completed task(s)\n", n)
				return nil
			})
		},
	}
}

func newExportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <file>",
		Short: "Write every task to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				snapshot := eng.Snapshot()
				if err := storage.Export(args[0], snapshot); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d task(s) to %s\n", len(snapshot), args[0])
				return nil
			})
		},
	}
}

func newImportCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Merge tasks from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := storage.ReadExport(args[0])
			if err != nil {
				return err
			}
			return o.withEngine(cmd, nil, func(eng *engine.Engine) error {
				res, err := eng.Import(items)
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d\n", res.Added, res.Skipped)
				if errors.Is(err, engine.ErrCapacity) {
					return fmt.Errorf("import stopped early: %w", err)
				}
				return err
			})
		},
	}
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
)

var errNothingRunning = errors.New("no timer is running; name a task to start one")

// countdown prints a single self-overwriting status line.
type countdown struct {
	mu    sync.Mutex
	out   io.Writer
	label string
}

func (c *countdown) setLabel(label string) {
	c.mu.Lock()
	c.label = label
	c.mu.Unlock()
}

func (c *countdown) tick(remaining int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r%s  %s ", model.FormatClock(remaining), c.label)
}

func (c *countdown) line(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\r"+format+"\n", args...)
}

func newTimerCmd(o *options) *cobra.Command {
	var chain bool
	cmd := &cobra.Command{
		Use:   "timer [row|id]",
		Short: "Run a countdown in the foreground",
		Long: `Start the named task's timer and show the countdown until it finishes.
Without an argument the timer left running by an earlier session is resumed.
Interrupting leaves the timer marked running so the next session picks it up.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return o.runTimer(ctx, cmd, args, chain)
		},
	}
	cmd.Flags().BoolVar(&chain, "chain", false, "keep going through the remaining timed tasks")
	return cmd
}

func (o *options) runTimer(ctx context.Context, cmd *cobra.Command, args []string, chain bool) error {
	view := &countdown{out: cmd.OutOrStdout()}
	finished := make(chan struct{})
	var once sync.Once
	finish := func() { once.Do(func() { close(finished) }) }

	s, err := o.openSession(cmd, func(opts *engine.Options) {
		opts.Confirmer = notify.AutoConfirm(chain)
		opts.Hooks = engine.Hooks{
			OnTick: func(_ string, remaining int) { view.tick(remaining) },
			OnEvent: func(ev engine.Event) {
				switch ev.Kind {
				case engine.EventTimerCompleted:
					view.line("done: %s", ev.Title)
					if !chain {
						finish()
					}
				case engine.EventAutoAdvance:
					view.setLabel(ev.Title)
				case engine.EventAllTimersDone:
					view.line("%s", notify.AllDoneBody)
					finish()
				case engine.EventPersistFailed:
					fmt.Fprintf(cmd.ErrOrStderr(), "\nwarning: %v\n", ev.Err)
				}
			},
		}
	})
	if err != nil {
		return err
	}

	id, err := pickTimer(s.eng, args)
	if err != nil {
		return errors.Join(err, s.close())
	}
	task, _ := s.eng.Get(id)
	view.setLabel(task.Title)
	view.tick(task.Remaining())

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.sched.Start()
	s.eng.Start(runCtx)
	go s.eng.Run(runCtx, s.sched.C())

	select {
	case <-finished:
	case <-ctx.Done():
		view.line("interrupted, timer left running")
	}
	return s.close()
}

func pickTimer(eng *engine.Engine, args []string) (string, error) {
	if len(args) == 0 {
		id, ok := eng.Running()
		if !ok {
			return "", errNothingRunning
		}
		return id, nil
	}
	task, err := lookup(eng, args[0])
	if err != nil {
		return "", err
	}
	if task.IsTimerRunning {
		return task.ID, nil
	}
	if err := eng.StartTimer(task.ID); err != nil {
		return "", err
	}
	return task.ID, nil
}

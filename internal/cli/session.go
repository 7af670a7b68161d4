package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/taskfloat/internal/engine"
	"github.com/sandeepkv93/taskfloat/internal/model"
	"github.com/sandeepkv93/taskfloat/internal/notify"
	"github.com/sandeepkv93/taskfloat/internal/scheduler"
	"github.com/sandeepkv93/taskfloat/internal/storage"
	"github.com/sandeepkv93/taskfloat/internal/tasks"
)

const closeTimeout = 5 * time.Second

func (o *options) engineOptions(logger *log.Logger, out io.Writer) engine.Options {
	opts := engine.Options{
		MaxTasks:         o.cfg.MaxTasks,
		UndoWindow:       o.cfg.UndoWindow,
		AutoAdvanceDelay: o.cfg.AutoAdvanceDelay,
		SaveEveryTicks:   o.cfg.SaveEveryTicks,
		Logger:           logger,
		Notifier:         notify.Noop{},
		Sound:            notify.Noop{},
		Confirmer:        notify.AutoConfirm(false),
	}
	if o.cfg.DesktopNotifications {
		opts.Notifier = notify.NewDesktop()
	}
	if o.cfg.Sound {
		opts.Sound = notify.NewBell(out)
	}
	return opts
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (o *options) openLog() (*log.Logger, func(), error) {
	path := o.cfg.ResolvedLogFile()
	if err := ensureDir(path); err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	return log.New(f, "taskfloat ", log.LstdFlags), func() { _ = f.Close() }, nil
}

// session is one open store with its engine and scheduler.
type session struct {
	eng      *engine.Engine
	sched    *scheduler.Engine
	store    storage.Store
	closeLog func()
}

// openSession loads the stored list. A store that cannot be read is an
// error here so a one-shot command never overwrites it.
func (o *options) openSession(cmd *cobra.Command, customize func(*engine.Options)) (*session, error) {
	logger, closeLog, err := o.openLog()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(o.cfg.StoreBackend, o.cfg.StorePath)
	if err != nil {
		closeLog()
		return nil, err
	}
	s := &session{
		sched:    scheduler.NewEngine(o.cfg.SchedulerBuffer),
		store:    store,
		closeLog: closeLog,
	}
	opts := o.engineOptions(logger, cmd.OutOrStdout())
	if customize != nil {
		customize(&opts)
	}
	s.eng = engine.New(store, s.sched, opts)
	if err := s.eng.Load(cmd.Context()); err != nil {
		_ = store.Close()
		closeLog()
		return nil, err
	}
	return s, nil
}

// close writes the final state, then releases the store and the log.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	err := s.eng.Close(ctx)
	s.sched.Stop()
	err = errors.Join(err, s.store.Close())
	s.closeLog()
	return err
}

func (o *options) withEngine(cmd *cobra.Command, customize func(*engine.Options), fn func(*engine.Engine) error) error {
	s, err := o.openSession(cmd, customize)
	if err != nil {
		return err
	}
	runErr := fn(s.eng)
	return errors.Join(runErr, s.close())
}

// rows is the numbered order shown by list; references resolve against it.
func rows(eng *engine.Engine) []model.Task {
	return eng.View("")
}

func lookup(eng *engine.Engine, ref string) (model.Task, error) {
	return tasks.Lookup(rows(eng), ref)
}

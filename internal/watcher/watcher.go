// Package watcher reloads a circuit file whenever it changes on disk.
package watcher

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/san-kum/circsim/internal/config"
	"github.com/san-kum/circsim/internal/element"
	"github.com/san-kum/circsim/internal/sim"
)

var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrPathNotExist  = errors.New("path does not exist")
	// ErrNoElements is reported for a file that parses to an empty circuit,
	// such as one caught between truncate and rewrite.
	ErrNoElements = errors.New("circuit file has no elements")
)

const DefaultDelay = 100 * time.Millisecond

// Reload is the outcome of re-reading the watched file. Err is set when the
// file could not be read or parsed; Circuit is nil then.
type Reload struct {
	Circuit *config.Circuit
	Err     error
	Time    time.Time
}

type Option func(*Watcher)

// WithDelay sets the debounce window. Changes closer together than this
// produce one reload.
func WithDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// Watcher watches one circuit file. The parent directory is watched rather
// than the file itself so editors that save by rename are still seen.
type Watcher struct {
	mu sync.Mutex

	path    string
	fsw     *fsnotify.Watcher
	delay   time.Duration
	logger  *slog.Logger
	reloads chan Reload
	errors  chan error

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPathNotExist
		}
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		fsw:     fsw,
		delay:   DefaultDelay,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		reloads: make(chan Reload, 1),
		errors:  make(chan error, 10),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.closedWg.Add(1)
	go w.processLoop()
	return w, nil
}

func (w *Watcher) Path() string { return w.path }

// Reloads delivers one Reload per settled change.
func (w *Watcher) Reloads() <-chan Reload { return w.reloads }

func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops the watcher and closes both channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.reloads)
	close(w.errors)
	return w.fsw.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.logger.Debug("circuit file changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				timer.Reset(w.delay)
			}
			fire = timer.C

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
			select {
			case w.errors <- err:
			default:
				// Channel full, drop error
			}

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}

func (w *Watcher) reload() {
	c, err := config.LoadCircuit(w.path)
	if err == nil && len(c.Elements) == 0 {
		err = fmt.Errorf("%s: %w", w.path, ErrNoElements)
	}
	if err != nil {
		w.logger.Warn("circuit reload failed", "path", w.path, "error", err)
		c = nil
	} else {
		w.logger.Info("circuit reloaded", "path", w.path, "elements", len(c.Elements))
	}

	select {
	case w.reloads <- Reload{Circuit: c, Err: err, Time: time.Now()}:
	case <-w.closeCh:
	}
}

// Apply builds the reloaded circuit and swaps it into s, which re-analyzes
// it. A failed reload leaves s untouched.
func Apply(s *sim.Simulator, reg *element.Registry, r Reload) error {
	if r.Err != nil {
		return r.Err
	}
	if r.Circuit == nil || len(r.Circuit.Elements) == 0 {
		return ErrNoElements
	}
	elms, err := r.Circuit.Build(reg)
	if err != nil {
		return err
	}
	return s.SetElements(elms)
}

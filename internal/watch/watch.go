package watch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yang-ling/i3pystatus/internal/pipeline"
	"github.com/yang-ling/i3pystatus/internal/udev"
)

const (
	DefaultInterval = 5 * time.Second
	DefaultDebounce = 500 * time.Millisecond
)

// Scanner runs one scan
type Scanner interface {
	Run(ctx context.Context) (pipeline.Output, error)
}

// EventSource forwards device events to c until ctx is done.
// udev.Monitor is the production source.
type EventSource func(ctx context.Context, c chan<- udev.Event) error

// Watcher rescans on a fixed interval and whenever a block device event
// arrives. Bursts of events within Debounce trigger a single scan.
type Watcher struct {
	Scanner  Scanner
	Interval time.Duration
	Debounce time.Duration
	// Events may be nil, in which case only the interval triggers scans.
	Events EventSource
	Log    *logrus.Entry
}

// Run scans immediately and then on every trigger, handing each result to
// emit. It returns when ctx is done; a scan in progress finishes first.
func (w *Watcher) Run(ctx context.Context, emit func(pipeline.Output, error)) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	log := w.Log
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "watch")

	scan := func(trigger string) {
		log.WithField("trigger", trigger).Debug("scanning")
		emit(w.Scanner.Run(ctx))
	}

	scan("start")

	events := make(chan udev.Event)
	sourceDone := make(chan error, 1)
	if w.Events != nil {
		go func() {
			sourceDone <- w.Events(ctx, events)
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		pending *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if pending != nil {
			pending.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			scan("interval")

		case e := <-events:
			log.WithFields(logrus.Fields{"action": e.Action, "device": e.DevName}).Debug("block device event")
			if pending == nil {
				pending = time.NewTimer(debounce)
				fire = pending.C
			}

		case <-fire:
			pending, fire = nil, nil
			scan("udev")

		case err := <-sourceDone:
			if err != nil && ctx.Err() == nil {
				log.WithError(err).Warn("device events unavailable, falling back to interval scans")
			}
			sourceDone = nil
		}
	}
}

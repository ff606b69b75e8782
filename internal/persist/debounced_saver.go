package persist

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
)

// DebouncedSaver coalesces bursts of mutations into one save after a quiet period.
// Notify takes ownership of the snapshot it is given.
type DebouncedSaver struct {
	sink     Sink
	debounce time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	latest  model.Snapshot

	// saveMu serializes sink saves. Held while reading latest so an older
	// snapshot never lands after a newer one.
	saveMu sync.Mutex
}

type DebouncedSaverOpts struct {
	Debounce time.Duration
	// Timeout bounds each background save. Zero means 30s.
	Timeout time.Duration
	Logger  *log.Logger
}

func NewDebouncedSaver(sink Sink, opts DebouncedSaverOpts) *DebouncedSaver {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &DebouncedSaver{sink: sink, debounce: debounce, timeout: timeout, logger: logger}
}

// Notify records snap as the latest state and (re)arms the timer.
func (d *DebouncedSaver) Notify(snap model.Snapshot) {
	if d == nil {
		return
	}

	d.mu.Lock()
	d.pending = true
	d.latest = snap
	if d.timer == nil {
		d.timer = time.AfterFunc(d.debounce, d.onTimer)
		d.mu.Unlock()
		return
	}
	d.timer.Reset(d.debounce)
	d.mu.Unlock()
}

func (d *DebouncedSaver) onTimer() {
	// The snapshot is read while saveMu is held so saves reach the sink in the
	// order their snapshots were taken.
	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	snap := d.latest
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.sink.Save(ctx, snap); err != nil {
		d.logger.WithError(err).Warn("debounced save failed")
	}
}

// Flush stops the timer and saves any pending snapshot now. It waits for an
// in-flight background save to finish first.
func (d *DebouncedSaver) Flush(ctx context.Context) error {
	if d == nil {
		return nil
	}

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.saveMu.Lock()
	defer d.saveMu.Unlock()

	d.mu.Lock()
	pending := d.pending
	snap := d.latest
	d.pending = false
	d.mu.Unlock()

	if !pending {
		return nil
	}
	return d.sink.Save(ctx, snap)
}

package persist

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"dayplan-cli/internal/model"
)

// Sink persists a full snapshot.
type Sink interface {
	Save(ctx context.Context, snap model.Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snap model.Snapshot) error

func (f SinkFunc) Save(ctx context.Context, snap model.Snapshot) error { return f(ctx, snap) }

type namedSink struct {
	name string
	sink Sink
}

// Multi fans a save out to every sink. Every sink is attempted; failures are logged
// and returned joined.
type Multi struct {
	sinks  []namedSink
	logger *log.Logger
}

func NewMulti(logger *log.Logger) *Multi {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Multi{logger: logger}
}

func (m *Multi) Add(name string, s Sink) *Multi {
	if s != nil {
		m.sinks = append(m.sinks, namedSink{name: name, sink: s})
	}
	return m
}

func (m *Multi) Len() int { return len(m.sinks) }

func (m *Multi) Save(ctx context.Context, snap model.Snapshot) error {
	var errs []error
	for _, ns := range m.sinks {
		if err := ns.sink.Save(ctx, snap); err != nil {
			m.logger.WithError(err).WithField("sink", ns.name).Error("snapshot save failed")
			errs = append(errs, fmt.Errorf("%s: %w", ns.name, err))
			continue
		}
		m.logger.WithField("sink", ns.name).WithField("days", len(snap.Plans)).Debug("snapshot saved")
	}
	return errors.Join(errs...)
}

package repository

import (
	"context"
	"errors"

	"LunarPulse/internal/domain/models"
	"LunarPulse/internal/domain/repository"
)

// MultiSink fans a signal out to every configured sink. Each sink gets its
// own attempt; one failing backend does not stop delivery to the others.
type MultiSink struct {
	sinks []repository.Sink
}

func NewMultiSink(sinks ...repository.Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Publish(ctx context.Context, rec *models.SignalRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

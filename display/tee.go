package meticd

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	Mp "github.com/meticai/meticd/plugin"
	Mt "github.com/meticai/meticd/types"
)

// TeeOutput fans finished shots out to several adapters,
// e.g. the badger store plus the MIDI chime. Queries go to
// the first adapter that can answer them.
type TeeOutput struct {
	Outs []Mp.OutputAdapter
}

func NewTeeOutput(outs ...Mp.OutputAdapter) *TeeOutput {
	t := &TeeOutput{}
	for _, o := range outs {
		if o != nil {
			t.Outs = append(t.Outs, o)
		}
	}
	return t
}

func (t *TeeOutput) WriteShot(shot *Mt.Shot) error {
	var errs []error
	for _, o := range t.Outs {
		if err := o.WriteShot(shot); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *TeeOutput) WriteBatch(shots []*Mt.Shot) error {
	var errs []error
	for _, o := range t.Outs {
		if err := o.WriteBatch(shots); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *TeeOutput) QueryRange(start, end time.Time) ([]*Mt.Shot, error) {
	var lastErr error
	for _, o := range t.Outs {
		shots, err := o.QueryRange(start, end)
		if err == nil {
			return shots, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (t *TeeOutput) Flush() error {
	var errs []error
	for _, o := range t.Outs {
		if err := o.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *TeeOutput) Close() error {
	var errs []error
	for _, o := range t.Outs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *TeeOutput) Type() string { return "tee" }

// CountingOutput wraps an adapter and ticks the shots counter
// as finished extractions pass through to storage.
type CountingOutput struct {
	Next    Mp.OutputAdapter
	Counter prometheus.Counter
}

func NewCountingOutput(next Mp.OutputAdapter, counter prometheus.Counter) *CountingOutput {
	return &CountingOutput{Next: next, Counter: counter}
}

func (c *CountingOutput) WriteShot(shot *Mt.Shot) error {
	c.Counter.Inc()
	return c.Next.WriteShot(shot)
}

func (c *CountingOutput) WriteBatch(shots []*Mt.Shot) error {
	c.Counter.Add(float64(len(shots)))
	return c.Next.WriteBatch(shots)
}

func (c *CountingOutput) QueryRange(start, end time.Time) ([]*Mt.Shot, error) {
	return c.Next.QueryRange(start, end)
}

func (c *CountingOutput) Flush() error { return c.Next.Flush() }
func (c *CountingOutput) Close() error { return c.Next.Close() }
func (c *CountingOutput) Type() string { return "counting:" + c.Next.Type() }

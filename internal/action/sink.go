package action

import (
	"context"
	"sync"

	"github.com/prasenjit/go-hooks/internal/models"
)

// Sink receives the signals emitted by executed actions. Emit is called
// synchronously; the run continues only after it returns.
type Sink interface {
	Emit(ctx context.Context, signal models.Signal) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(ctx context.Context, signal models.Signal) error

// Emit calls f
func (f SinkFunc) Emit(ctx context.Context, signal models.Signal) error {
	return f(ctx, signal)
}

// Collector records signals in memory. It is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	signals []models.Signal
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{}
}

// Emit records signal
func (c *Collector) Emit(_ context.Context, signal models.Signal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = append(c.signals, signal)
	return nil
}

// Signals returns a copy of the recorded signals
func (c *Collector) Signals() []models.Signal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Signal, len(c.signals))
	copy(out, c.signals)
	return out
}

// Lookup returns the value of the newest recorded signal for name. It lets a
// run that is never applied still resolve variables emitted earlier in it.
func (c *Collector) Lookup(name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.signals) - 1; i >= 0; i-- {
		if c.signals[i].Destination == name {
			return c.signals[i].Value, true
		}
	}
	return nil, false
}

// Reset drops all recorded signals
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signals = nil
}

// ChannelSink forwards signals to a channel, blocking until the signal is
// received or ctx is done.
type ChannelSink chan<- models.Signal

// Emit sends signal on the channel
func (ch ChannelSink) Emit(ctx context.Context, signal models.Signal) error {
	select {
	case ch <- signal:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Multi fans a signal out to every sink in order, stopping at the first error
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(ctx context.Context, signal models.Signal) error {
		for _, s := range sinks {
			if err := s.Emit(ctx, signal); err != nil {
				return err
			}
		}
		return nil
	})
}

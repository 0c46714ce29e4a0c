package bridge

import (
	"context"
	"errors"
	"io"

	"github.com/arloliu/go-plcbridge/logger"
)

// Option is a functional option for configuring a Bridge.
type Option interface {
	apply(*Bridge) error
}

type optFunc func(*Bridge) error

func (f optFunc) apply(b *Bridge) error { return f(b) }

// WithLogger sets the logger of the bridge and its workers.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(b *Bridge) error {
		if l == nil {
			return errors.New("bridge: logger must not be nil")
		}
		b.logger = l

		return nil
	})
}

// WithStatusWriter sets the destination of the periodic status report. Default is os.Stdout.
func WithStatusWriter(w io.Writer) Option {
	return optFunc(func(b *Bridge) error {
		if w == nil {
			return errors.New("bridge: status writer must not be nil")
		}
		b.statusWriter = w

		return nil
	})
}

// WithService runs fn under the scope of Run, next to the workers.
//
// fn must return once its context is done. An error returned by fn is logged and
// recorded in the worker registry; it doesn't stop the bridge.
func WithService(name string, fn func(ctx context.Context) error) Option {
	return optFunc(func(b *Bridge) error {
		if name == "" || fn == nil {
			return errors.New("bridge: service needs a name and a function")
		}
		b.services = append(b.services, service{name: name, fn: fn})

		return nil
	})
}

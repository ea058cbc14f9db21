package typeahead

import (
	"log/slog"
	"time"

	"github.com/letmevibethatforyou/typeahead/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultDelay is the debounce window used when WithDelay is not given.
const DefaultDelay = 200 * time.Millisecond

const instrumentationName = "github.com/letmevibethatforyou/typeahead"

// Option configures a Session or Provider.
type Option interface {
	apply(*config)
}

type config struct {
	delay            time.Duration
	clock            clock.Clock
	logger           *slog.Logger
	tracerProvider   trace.TracerProvider
	meterProvider    metric.MeterProvider
	onError          func(term string, err error)
	cancelSuperseded bool
}

type optionFunc func(*config)

func (f optionFunc) apply(cfg *config) {
	f(cfg)
}

func newConfig(opts []Option) config {
	cfg := config{
		delay: DefaultDelay,
		clock: clock.Real(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt.apply(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracerProvider == nil {
		cfg.tracerProvider = otel.GetTracerProvider()
	}
	if cfg.meterProvider == nil {
		cfg.meterProvider = otel.GetMeterProvider()
	}
	return cfg
}

// WithDelay sets the debounce window. Non-positive values keep the default.
func WithDelay(d time.Duration) Option {
	return optionFunc(func(cfg *config) {
		if d > 0 {
			cfg.delay = d
		}
	})
}

// WithClock replaces the wall clock, typically with a clock.Fake in tests.
func WithClock(c clock.Clock) Option {
	return optionFunc(func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	})
}

// WithLogger sets the logger used for debug output. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(cfg *config) {
		cfg.logger = l
	})
}

// WithTracerProvider sets the provider for lookup spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(cfg *config) {
		cfg.tracerProvider = tp
	})
}

// WithMeterProvider sets the provider for lookup metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return optionFunc(func(cfg *config) {
		cfg.meterProvider = mp
	})
}

// WithErrorHandler registers fn to be called, outside the session lock,
// whenever the current lookup fails. Failures of superseded lookups are not
// reported. fn runs after the lookup has been released, so it may call
// Close or release a provider session.
func WithErrorHandler(fn func(term string, err error)) Option {
	return optionFunc(func(cfg *config) {
		cfg.onError = fn
	})
}

// WithCancelSuperseded cancels the context passed to a lookup as soon as
// newer input or ClearSearch makes its result irrelevant. Without it the
// call runs to completion and its result is discarded.
func WithCancelSuperseded() Option {
	return optionFunc(func(cfg *config) {
		cfg.cancelSuperseded = true
	})
}

package tempdeck

import (
	"time"

	"go.uber.org/zap"
)

type options struct {
	logger        *zap.Logger
	readTimeout   time.Duration
	usbIDs        []USBID
	deactivateAck bool
}

func defaultOptions() options {
	return options{
		logger:        zap.NewNop(),
		readTimeout:   DefaultReadTimeout,
		usbIDs:        DefaultUSBIDs,
		deactivateAck: true,
	}
}

func applyOptions(opts []Option) options {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a Controller at construction time.
type Option func(*options)

// WithLogger attaches a logger. Wire traffic is logged at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReadTimeout overrides the per-line read timeout. The firmware
// contract assumes DefaultReadTimeout; raise it only for slow links.
func WithReadTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.readTimeout = timeout
		}
	}
}

// WithUSBIDs overrides the vendor/product pairs used by discovery.
func WithUSBIDs(ids ...USBID) Option {
	return func(o *options) {
		if len(ids) > 0 {
			o.usbIDs = ids
		}
	}
}

// WithDeactivateAck controls whether Deactivate waits for the double ok
// acknowledgment. Enabled by default; disable it for firmware revisions
// that treat M18 as fire-and-forget.
func WithDeactivateAck(wait bool) Option {
	return func(o *options) {
		o.deactivateAck = wait
	}
}

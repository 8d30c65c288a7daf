// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package tsbuffer

import "time"

// MaxFileListBytes bounds the file name blob of a descriptor. It guards against
// corrupt length arithmetic and is not part of the recorder's format.
const MaxFileListBytes = 100_000

const (
	defaultDescriptorRetries  = 10
	defaultRetryDelay         = 5 * time.Millisecond
	defaultOpenTimeout        = 1500 * time.Millisecond
	defaultOpenPollInterval   = 100 * time.Millisecond
	defaultOpenStatRetries    = 20
	defaultOpenStatRetryDelay = 500 * time.Millisecond
)

// Options tunes the retry and wait behaviour of a Stream.
// Zero values are replaced by the defaults.
type Options struct {
	// MaxDescriptorRetries caps re-reads of a torn descriptor per refresh.
	MaxDescriptorRetries int
	// RetryDelay is slept after re-opening a torn descriptor.
	RetryDelay time.Duration
	// OpenTimeout bounds how long Open waits for the first successful refresh.
	OpenTimeout time.Duration
	// OpenPollInterval is the refresh cadence while Open is waiting.
	OpenPollInterval time.Duration
	// OpenStatRetries caps how often Open re-stats an empty or missing descriptor.
	OpenStatRetries int
	// OpenStatRetryDelay is the pause between those stats.
	OpenStatRetryDelay time.Duration
	// MaxFileListBytes overrides the file name blob ceiling.
	MaxFileListBytes int64
}

// DefaultOptions returns the tuning used against a live recorder.
func DefaultOptions() Options {
	return Options{
		MaxDescriptorRetries: defaultDescriptorRetries,
		RetryDelay:           defaultRetryDelay,
		OpenTimeout:          defaultOpenTimeout,
		OpenPollInterval:     defaultOpenPollInterval,
		OpenStatRetries:      defaultOpenStatRetries,
		OpenStatRetryDelay:   defaultOpenStatRetryDelay,
		MaxFileListBytes:     MaxFileListBytes,
	}
}

func normalizeOptions(opts Options) Options {
	def := DefaultOptions()
	if opts.MaxDescriptorRetries <= 0 {
		opts.MaxDescriptorRetries = def.MaxDescriptorRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = def.OpenTimeout
	}
	if opts.OpenPollInterval <= 0 {
		opts.OpenPollInterval = def.OpenPollInterval
	}
	if opts.OpenStatRetries <= 0 {
		opts.OpenStatRetries = def.OpenStatRetries
	}
	if opts.OpenStatRetryDelay <= 0 {
		opts.OpenStatRetryDelay = def.OpenStatRetryDelay
	}
	if opts.MaxFileListBytes <= 0 {
		opts.MaxFileListBytes = def.MaxFileListBytes
	}
	return opts
}

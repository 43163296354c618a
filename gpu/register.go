// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

import "sync"

// Factory creates a new, uninitialized Context for a given
// Backend. Backend packages (gpu/gl, gpu/vk) call Register from
// an init function; client code imports the backend package it
// needs for its side effect.
type Factory func() Context

var (
	mu        sync.Mutex
	factories = make(map[Backend]Factory, 2)
)

// Register registers a Factory for a Backend. If a factory is
// already registered for b, it is replaced and a warning is
// logged.
func Register(b Backend, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := factories[b]; ok {
		warnf("backend %q factory replaced", b)
	}
	factories[b] = f
}

// New creates a Context for the requested backend and validates
// cfg, but does not call Init. It returns ErrNoDevice if no
// factory has been registered for cfg.Backend (i.e. the
// corresponding gpu/gl or gpu/vk package was never imported).
func New(cfg Config) (Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mu.Lock()
	f, ok := factories[cfg.Backend]
	mu.Unlock()
	if !ok {
		return nil, ErrNoDevice
	}
	return f(), nil
}

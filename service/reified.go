package service

import (
	"context"
	"time"
)

// ReifiedService binds a Service to a base context directory and connect
// options (executor prefix, logger, clock), so repeated connect calls don't
// need to carry that context around. Immutable once constructed.
type ReifiedService[C any] struct {
	svc     Service[C]
	baseDir string
	opts    []ConnectOption
}

// Reify binds svc to the given base context directory.
func Reify[C any](svc Service[C], baseDir string, opts ...ConnectOption) *ReifiedService[C] {
	return &ReifiedService[C]{
		svc:     svc,
		baseDir: baseDir,
		opts:    opts,
	}
}

// Connect connects to the service, starting it on demand if needed. See
// Connect for the activation semantics.
func (r *ReifiedService[C]) Connect(ctx context.Context, livenessTimeout time.Duration) (C, error) {
	return Connect(ctx, r.svc, r.baseDir, livenessTimeout, r.opts...)
}

// ConnectToRunning connects to the service only if it is already running.
func (r *ReifiedService[C]) ConnectToRunning(ctx context.Context) (C, error) {
	return ConnectToRunning(ctx, r.svc, r.baseDir, r.opts...)
}

func (r *ReifiedService[C]) Service() Service[C] {
	return r.svc
}

func (r *ReifiedService[C]) BaseDir() string {
	return r.baseDir
}

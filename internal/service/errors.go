package service

import (
	"context"
	"errors"
	"time"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrOutOfStock         = errors.New("out of stock")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

const (
	DefaultTimeout = 5 * time.Second
	eventTimeout   = 5 * time.Second
)

func bounded(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

// detached keeps request values (the logger) but survives client disconnects,
// so side effects of an already committed mutation still go out.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), eventTimeout)
}

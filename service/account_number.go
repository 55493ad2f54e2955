package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/cenkalti/backoff/v4"
)

const (
	accountNumberPrefix = 2200000000 // "22" followed by eight digits
	accountNumberSpan   = 100000000
)

var errNumberTaken = errors.New("account number already taken")

// NumberGenerator produces candidate account numbers.
type NumberGenerator func() int64

// RandomAccountNumber returns a random ten digit number starting with "22".
func RandomAccountNumber() int64 {
	return accountNumberPrefix + rand.Int64N(accountNumberSpan)
}

// retryPolicy allows maxRetries further attempts after the first, with no
// delay between them, and stops early when ctx is done.
func retryPolicy(ctx context.Context, maxRetries uint64) backoff.BackOffContext {
	return backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxRetries), ctx)
}

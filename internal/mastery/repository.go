package mastery

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/avast/retry-go"
)

// AnonymousUser keys the records of a signed-out learner
const AnonymousUser = "anon"

//go:generate mockgen -source=repository.go -destination=../mocks/mastery/mock_repository.go -package=mock_mastery

// Repository persists the mastery map of one deck for one user
type Repository interface {
	// Load returns an empty map when nothing was saved yet
	Load(ctx context.Context, userID string, deckKey string) (Map, error)
	Save(ctx context.Context, userID string, deckKey string, records Map) error
}

func userKey(userID string) string {
	if userID == "" {
		return AnonymousUser
	}
	return userID
}

var errRetryable = errors.New("retryable")

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errRetryable) {
		return true
	}

	errStr := err.Error()
	for _, s := range []string{"connection refused", "connection reset", "i/o timeout", "bad connection", "deadlock"} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}

func withRetry(ctx context.Context, attempts uint, fn func() error) error {
	return retry.Do(
		func() error {
			if err := fn(); err != nil {
				if !isRetryableError(err) {
					return retry.Unrecoverable(err)
				}
				return err
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts+1),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

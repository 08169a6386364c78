package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TimmyIsANerd/chamswap/database"
	"gorm.io/gorm"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrDuplicateTransaction    = errors.New("transaction already recorded")
	ErrAlreadyReferred         = errors.New("user already has a referrer")
	ErrSelfReferral            = errors.New("cannot use your own referral code")
	ErrMutualReferral          = errors.New("cannot use the code of a wallet you referred")
	ErrCodeGenerationExhausted = errors.New("could not generate a unique referral code")
	ErrInvalidRange            = errors.New("fee percentage must be between 0 and 100")
	ErrValidation              = errors.New("validation failed")
	ErrTimeout                 = errors.New("upstream store timed out")
	ErrAlreadyExists           = errors.New("already exists")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrEmailNotVerified        = errors.New("please verify your email first")
	ErrInvalidToken            = errors.New("invalid or expired token")
)

const defaultStoreTimeout = 10 * time.Second

// storeError normalizes errors coming back from gorm so callers can match sentinels.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case database.IsTimeout(err):
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ValidationError describes malformed input; it matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func validationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, d)
}

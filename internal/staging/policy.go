package staging

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes caps a single staged file at 5 MiB.
const DefaultMaxBytes int64 = 5 << 20

// Staging errors reported inside warnings.
var (
	ErrEmptyFile       = errors.New("EMPTY_FILE")
	ErrUnsupportedType = errors.New("UNSUPPORTED_IMAGE_TYPE")
	ErrTooLarge        = errors.New("IMAGE_TOO_LARGE")
	ErrRejected        = errors.New("IMAGE_REJECTED")
	ErrNotStaged       = errors.New("STAGED_IMAGE_NOT_FOUND")
)

// Screener inspects image content before it is staged, e.g. for moderation.
type Screener interface {
	Screen(ctx context.Context, data []byte) error
}

// Policy decides which files may be staged.
type Policy struct {
	Accepted []string
	MaxBytes int64
	Screener Screener
}

// DefaultPolicy accepts the common web image formats up to DefaultMaxBytes.
func DefaultPolicy() Policy {
	return Policy{
		Accepted: []string{"image/png", "image/jpeg", "image/gif", "image/webp"},
		MaxBytes: DefaultMaxBytes,
	}
}

// LogoPolicy matches what the shop logo picker allows: PNG and JPEG only.
func LogoPolicy(maxBytes int64) Policy {
	return Policy{
		Accepted: []string{"image/png", "image/jpeg"},
		MaxBytes: maxBytes,
	}
}

// check returns the sniffed content type of u or the reason it is refused.
// The declared filename extension is ignored.
func (p Policy) check(ctx context.Context, u Upload) (string, error) {
	if len(u.Data) == 0 {
		return "", ErrEmptyFile
	}
	if p.MaxBytes > 0 && int64(len(u.Data)) > p.MaxBytes {
		return "", fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrTooLarge, len(u.Data), p.MaxBytes)
	}

	detected := mimetype.Detect(u.Data)
	if !mimetype.EqualsAny(detected.String(), p.Accepted...) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
	}

	if p.Screener != nil {
		if err := p.Screener.Screen(ctx, u.Data); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRejected, err)
		}
	}
	return detected.String(), nil
}

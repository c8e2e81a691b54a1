// Package form holds the per-instance draft state machines behind the shop
// and product screens, and the confirmation gate that guards deletes.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/individuals-mars/seller-admin/internal/staging"
	"github.com/individuals-mars/seller-admin/internal/validation"
	"github.com/individuals-mars/seller-admin/pkg/marketplace"
)

// State is the lifecycle position of a form instance.
type State int

const (
	Idle State = iota
	Editing
	Validating
	Submitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Editing:
		return "editing"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON views.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for _, v := range []State{Idle, Editing, Validating, Submitting} {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownState, text)
}

var (
	ErrSubmitInFlight     = errors.New("SUBMIT_IN_FLIGHT")
	ErrUnknownState       = errors.New("UNKNOWN_STATE")
	ErrNotConfirmed       = errors.New("DELETE_NOT_CONFIRMED")
	ErrAlreadyDeleted     = errors.New("ALREADY_DELETED")
	ErrUnknownCategory    = errors.New("UNKNOWN_CATEGORY")
	ErrNoCategory         = errors.New("CATEGORY_NOT_SELECTED")
	ErrUnknownSubcategory = errors.New("UNKNOWN_SUBCATEGORY")
	ErrNoCertificateSlot  = errors.New("CERTIFICATE_NOT_ALLOWED")
)

// ValidationError is returned by Submit when the draft did not pass
// validation. No backend call was made.
type ValidationError struct {
	Errors validation.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors.Fields(), ", ")
}

// Result describes a finished submit or delete.
type Result struct {
	Message  string `json:"message"`
	Navigate string `json:"navigate"`
}

// Navigation targets after a successful action.
const (
	ShopsPath    = "/shops"
	ProductsPath = "/products"
)

// ShopPath is the detail page of one shop.
func ShopPath(id string) string {
	return ShopsPath + "/" + id
}

func fileOf(img *staging.Image) *marketplace.File {
	if img == nil {
		return nil
	}
	return &marketplace.File{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Reader:      img.Reader(),
	}
}

func copyErrors(errs validation.Errors) validation.Errors {
	if len(errs) == 0 {
		return nil
	}
	out := make(validation.Errors, len(errs))
	for k, v := range errs {
		out[k] = v
	}
	return out
}

package staging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
)

// InlineLimit is how many staged images are shown next to the form before
// the rest collapse into a gallery.
const InlineLimit = 3

// Upload is one file picked by the user.
type Upload struct {
	Filename string
	Data     []byte
}

// Image is a staged file together with its preview reference.
type Image struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Preview     string `json:"preview"`

	data []byte
}

// Reader returns a fresh reader over the image bytes.
func (i *Image) Reader() io.Reader {
	return bytes.NewReader(i.data)
}

// Data returns the raw image bytes.
func (i *Image) Data() []byte {
	return i.data
}

// Warning describes a file that was not staged. Other files in the same
// selection are unaffected.
type Warning struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
	Err      error  `json:"-"`
}

// Set is an ordered collection of staged images. A single-slot set keeps at
// most one image and releases the previous preview when it is replaced.
// A Set is owned by one form and is not safe for concurrent use.
type Set struct {
	previews *Previews
	policy   Policy
	single   bool
	images   []*Image
}

// NewSet creates a multi-image set.
func NewSet(previews *Previews, policy Policy) *Set {
	return &Set{previews: previews, policy: policy}
}

// NewSingle creates a set holding at most one image.
func NewSingle(previews *Previews, policy Policy) *Set {
	return &Set{previews: previews, policy: policy, single: true}
}

// Add stages every acceptable upload and returns a warning for each one that
// was refused. A single-slot set only considers the first upload.
func (s *Set) Add(ctx context.Context, uploads ...Upload) []Warning {
	var warnings []Warning

	if s.single && len(uploads) > 1 {
		for _, extra := range uploads[1:] {
			warnings = append(warnings, Warning{
				Filename: extra.Filename,
				Reason:   "only one file can be attached here",
			})
		}
		uploads = uploads[:1]
	}

	for _, u := range uploads {
		contentType, err := s.policy.check(ctx, u)
		if err != nil {
			warnings = append(warnings, Warning{Filename: u.Filename, Reason: reason(err), Err: err})
			continue
		}

		img := &Image{
			Filename:    u.Filename,
			ContentType: contentType,
			Size:        int64(len(u.Data)),
			data:        u.Data,
		}
		img.Preview = s.previews.acquire(contentType, u.Data)

		if s.single {
			s.releaseAll()
		}
		s.images = append(s.images, img)
	}
	return warnings
}

// Remove unstages the image at index i, keeping the order of the rest, and
// releases its preview.
func (s *Set) Remove(i int) error {
	if i < 0 || i >= len(s.images) {
		return fmt.Errorf("%w: index %d", ErrNotStaged, i)
	}
	s.previews.Release(s.images[i].Preview)

	remaining := make([]*Image, 0, len(s.images)-1)
	remaining = append(remaining, s.images[:i]...)
	remaining = append(remaining, s.images[i+1:]...)
	s.images = remaining
	return nil
}

// Images returns the staged images in selection order.
func (s *Set) Images() []*Image {
	out := make([]*Image, len(s.images))
	copy(out, s.images)
	return out
}

// First returns the only image of a single-slot set, or nil.
func (s *Set) First() *Image {
	if len(s.images) == 0 {
		return nil
	}
	return s.images[0]
}

// Len reports the number of staged images.
func (s *Set) Len() int {
	return len(s.images)
}

// Inline returns the images shown inline and how many more sit behind the
// overflow indicator.
func (s *Set) Inline() ([]*Image, int) {
	if len(s.images) <= InlineLimit {
		return s.Images(), 0
	}
	shown := make([]*Image, InlineLimit)
	copy(shown, s.images[:InlineLimit])
	return shown, len(s.images) - InlineLimit
}

// Close releases every preview and empties the set.
func (s *Set) Close() {
	s.releaseAll()
}

func (s *Set) releaseAll() {
	for _, img := range s.images {
		s.previews.Release(img.Preview)
	}
	s.images = nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, ErrEmptyFile):
		return "file is empty"
	case errors.Is(err, ErrTooLarge):
		return "file is too large"
	case errors.Is(err, ErrUnsupportedType):
		return "file type is not accepted"
	case errors.Is(err, ErrRejected):
		return "image was rejected by content screening"
	default:
		return err.Error()
	}
}

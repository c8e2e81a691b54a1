package staging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegData  = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	gifData   = []byte("GIF89a\x01\x00\x01\x00")
)

func png(name string) Upload {
	return Upload{Filename: name, Data: append([]byte(nil), pngHeader...)}
}

type rejectAll struct{}

func (rejectAll) Screen(context.Context, []byte) error { return errors.New("explicit content") }

func TestSetRemovePreservesOrderAndReleasesPreview(t *testing.T) {
	previews := NewPreviews("/v1/previews")
	set := NewSet(previews, DefaultPolicy())

	warnings := set.Add(context.Background(), png("a.png"), png("b.png"), png("c.png"))
	require.Empty(t, warnings)
	require.Equal(t, 3, previews.Len())

	removed := set.Images()[1].Preview
	require.NoError(t, set.Remove(1))

	images := set.Images()
	require.Len(t, images, 2)
	assert.Equal(t, "a.png", images[0].Filename)
	assert.Equal(t, "c.png", images[1].Filename)

	_, _, ok := previews.Resolve(removed, "")
	assert.False(t, ok, "removed preview must be released")
	assert.Equal(t, 2, previews.Len())
}

func TestSetRemoveOutOfRange(t *testing.T) {
	set := NewSet(NewPreviews("/p"), DefaultPolicy())
	set.Add(context.Background(), png("a.png"))

	err := set.Remove(3)
	assert.ErrorIs(t, err, ErrNotStaged)
	assert.Equal(t, 1, set.Len())
}

func TestSetAddKeepsGoodFilesWhenOneIsBad(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxBytes = 64
	set := NewSet(NewPreviews("/p"), policy)

	big := Upload{Filename: "huge.png", Data: append(append([]byte(nil), pngHeader...), make([]byte, 128)...)}
	text := Upload{Filename: "notes.png", Data: []byte("plain text pretending to be an image")}
	empty := Upload{Filename: "empty.jpg"}

	warnings := set.Add(context.Background(), png("a.png"), big, text, Upload{Filename: "b.jpg", Data: jpegData}, empty)

	require.Len(t, warnings, 3)
	assert.ErrorIs(t, warnings[0].Err, ErrTooLarge)
	assert.ErrorIs(t, warnings[1].Err, ErrUnsupportedType)
	assert.ErrorIs(t, warnings[2].Err, ErrEmptyFile)
	assert.Equal(t, "huge.png", warnings[0].Filename)

	images := set.Images()
	require.Len(t, images, 2)
	assert.Equal(t, "image/png", images[0].ContentType)
	assert.Equal(t, "image/jpeg", images[1].ContentType)
}

func TestSingleSlotReplacesAndReleases(t *testing.T) {
	previews := NewPreviews("/p")
	logo := NewSingle(previews, LogoPolicy(DefaultMaxBytes))

	require.Empty(t, logo.Add(context.Background(), png("first.png")))
	first := logo.First().Preview

	require.Empty(t, logo.Add(context.Background(), Upload{Filename: "second.jpg", Data: jpegData}))
	assert.Equal(t, 1, logo.Len())
	assert.Equal(t, "second.jpg", logo.First().Filename)

	_, _, ok := previews.Resolve(first, "")
	assert.False(t, ok)
	assert.Equal(t, 1, previews.Len())
}

func TestSingleSlotRejectsInvalidAndKeepsCurrent(t *testing.T) {
	previews := NewPreviews("/p")
	logo := NewSingle(previews, LogoPolicy(DefaultMaxBytes))
	logo.Add(context.Background(), png("logo.png"))

	warnings := logo.Add(context.Background(), Upload{Filename: "anim.gif", Data: gifData})
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0].Err, ErrUnsupportedType)
	assert.Equal(t, "logo.png", logo.First().Filename)
}

func TestSingleSlotOnlyTakesFirstUpload(t *testing.T) {
	logo := NewSingle(NewPreviews("/p"), LogoPolicy(DefaultMaxBytes))

	warnings := logo.Add(context.Background(), png("a.png"), png("b.png"))
	require.Len(t, warnings, 1)
	assert.Equal(t, "b.png", warnings[0].Filename)
	assert.Equal(t, "a.png", logo.First().Filename)
}

func TestInlineOverflow(t *testing.T) {
	set := NewSet(NewPreviews("/p"), DefaultPolicy())
	set.Add(context.Background(), png("1.png"), png("2.png"))

	shown, overflow := set.Inline()
	assert.Len(t, shown, 2)
	assert.Zero(t, overflow)

	set.Add(context.Background(), png("3.png"), png("4.png"), png("5.png"))
	shown, overflow = set.Inline()
	require.Len(t, shown, InlineLimit)
	assert.Equal(t, "3.png", shown[2].Filename)
	assert.Equal(t, 2, overflow)
}

func TestCloseReleasesEverything(t *testing.T) {
	previews := NewPreviews("/p")
	set := NewSet(previews, DefaultPolicy())
	set.Add(context.Background(), png("a.png"), png("b.png"))

	set.Close()
	assert.Zero(t, set.Len())
	assert.Zero(t, previews.Len())

	set.Close()
}

func TestScreenerRejection(t *testing.T) {
	policy := DefaultPolicy()
	policy.Screener = rejectAll{}
	set := NewSet(NewPreviews("/p"), policy)

	warnings := set.Add(context.Background(), png("a.png"))
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0].Err, ErrRejected)
	assert.Zero(t, set.Len())
}

func TestPreviewResolveByRefAndID(t *testing.T) {
	previews := NewPreviews("/v1/previews/")
	set := NewSet(previews, DefaultPolicy())
	set.Add(context.Background(), png("a.png"))

	ref := set.First().Preview
	assert.Contains(t, ref, "/v1/previews/")

	data, contentType, ok := previews.Resolve(ref, "")
	require.True(t, ok)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, pngHeader, data)

	_, _, ok = previews.Resolve(ref[len("/v1/previews/"):], "")
	assert.True(t, ok)

	assert.True(t, previews.Release(ref))
	assert.False(t, previews.Release(ref))
}

func TestPreviewResolvesOnlyForOwner(t *testing.T) {
	previews := NewPreviews("/v1/previews")
	set := NewSingle(previews.For("owner-a"), LogoPolicy(DefaultMaxBytes))
	set.Add(context.Background(), png("a.png"))
	ref := set.First().Preview

	_, _, ok := previews.Resolve(ref, "owner-a")
	assert.True(t, ok)
	_, _, ok = previews.Resolve(ref, "owner-b")
	assert.False(t, ok)
	_, _, ok = previews.Resolve(ref, "")
	assert.False(t, ok)

	assert.Equal(t, 1, previews.Len())
	set.Close()
	assert.Zero(t, previews.Len())
}

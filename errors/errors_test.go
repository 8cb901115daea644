package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_IsMatchesTypeAndCode(t *testing.T) {
	err := NewNoVariants("icons/tiny.png", 64)

	assert.True(t, errors.Is(err, ErrNoVariants))
	assert.False(t, errors.Is(err, ErrPlaceholderMismatch))
	assert.True(t, errors.Is(err, New(ErrorTypeValidation, "").WithCode("")), "empty code matches on type")
}

func TestAppError_IsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("build: %w", NewPlaceholderMismatch("lqip", "color"))
	assert.True(t, errors.Is(err, ErrPlaceholderMismatch))
}

func TestAppError_ErrorIncludesPathAndCause(t *testing.T) {
	err := NewDecode("photos/broken.jpg", fs.ErrInvalid)

	assert.Contains(t, err.Error(), "photos/broken.jpg")
	assert.Contains(t, err.Error(), fs.ErrInvalid.Error())
	assert.Equal(t, "photos/broken.jpg", err.Path())
	assert.True(t, errors.Is(err, fs.ErrInvalid))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	plain := FromError(fs.ErrNotExist)
	assert.Equal(t, ErrorTypeUnknown, plain.Type)

	wrapped := fmt.Errorf("ctx: %w", NewNotFound("a.jpg"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrorTypeNotFound, appErr.Type)
	assert.Equal(t, CodeSourceMissing, appErr.Code)
}

func TestWrapKeepsType(t *testing.T) {
	err := Wrap(NewIO("out/a_100w.jpg", fs.ErrPermission), "write variant")
	assert.Equal(t, ErrorTypeIO, err.Type)
	assert.Equal(t, CodeStoreFailed, err.Code)
	assert.True(t, errors.Is(err, fs.ErrPermission))
}

func TestErrorFormatter(t *testing.T) {
	f := NewErrorFormatter(true)
	out := f.Format(NewEncode("hero.png", fs.ErrClosed))

	assert.Contains(t, out, "[encode]")
	assert.Contains(t, out, "code="+CodeEncodeFailed)
	assert.Contains(t, out, "path=hero.png")
	assert.Contains(t, out, "caused_by:")
	assert.Empty(t, f.Format(nil))
}

func TestErrorChain(t *testing.T) {
	chain := NewErrorChain()
	require.NoError(t, chain.Err())

	chain.Add(nil)
	assert.False(t, chain.HasErrors())

	chain.Add(NewNotFound("a.jpg"))
	assert.Equal(t, CodeSourceMissing, FromError(chain.Err()).Code)

	chain.Add(NewNoVariants("b.png", 50))
	require.Len(t, chain.Errors(), 2)
	assert.Equal(t, "a.jpg", chain.First().Path())
	assert.True(t, errors.Is(chain.Err(), ErrNoVariants))
	assert.Contains(t, chain.Error(), " | ")
}

package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	key := objectKey("orders/abc", "IMG_0001.JPG")
	assert.True(t, strings.HasPrefix(key, "orders/abc/IMG_0001_"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.NotEqual(t, key, objectKey("orders/abc", "IMG_0001.JPG"))

	traversal := objectKey("orders/abc", "../../etc/passwd")
	assert.True(t, strings.HasPrefix(traversal, "orders/abc/passwd_"), traversal)
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType("image/jpeg"))
	assert.NoError(t, ValidateContentType("IMAGE/HEIC; charset=binary"))
	assert.ErrorIs(t, ValidateContentType("application/pdf"), ErrInvalidUpload)
	assert.Error(t, ValidateContentType(""))
}

func TestValidateFileSize(t *testing.T) {
	s := &MinIOService{maxFileSize: 1024}
	assert.NoError(t, s.ValidateFileSize(512))
	assert.Error(t, s.ValidateFileSize(0))
	assert.ErrorIs(t, s.ValidateFileSize(2048), ErrInvalidUpload)
}

func TestReadGPSRejectsNonExifInput(t *testing.T) {
	_, _, err := ReadGPS(strings.NewReader("definitely not a jpeg"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGPS))
}

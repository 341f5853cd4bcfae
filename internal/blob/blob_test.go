package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beesmart/beesmart/internal/config"
)

// exerciseStore runs the behaviour every driver shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	info, err := s.Put(ctx, "hives/1/frente.jpg", strings.NewReader("jpeg-bytes"), PutOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.Equal(t, "hives/1/frente.jpg", info.Key)
	assert.Equal(t, int64(10), info.Size)

	got, rc, err := s.Get(ctx, "hives/1/frente.jpg")
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "jpeg-bytes", string(body))
	assert.Equal(t, "image/jpeg", got.ContentType)

	// Put replaces an existing blob.
	_, err = s.Put(ctx, "hives/1/frente.jpg", strings.NewReader("new"), PutOptions{ContentType: "image/jpeg"})
	require.NoError(t, err)
	head, err := s.Head(ctx, "hives/1/frente.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(3), head.Size)

	_, err = s.Put(ctx, "hives/2/lado.png", strings.NewReader("png"), PutOptions{ContentType: "image/png"})
	require.NoError(t, err)
	_, err = s.Put(ctx, "apiaries/1/vista.png", strings.NewReader("png"), PutOptions{ContentType: "image/png"})
	require.NoError(t, err)

	list, err := s.List(ctx, "hives/")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hives/1/frente.jpg", list[0].Key)
	assert.Equal(t, "hives/2/lado.png", list[1].Key)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	existed, err := s.Delete(ctx, "hives/1/frente.jpg")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = s.Delete(ctx, "hives/1/frente.jpg")
	require.NoError(t, err)
	assert.False(t, existed)

	_, _, err = s.Get(ctx, "hives/1/frente.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Head(ctx, "hives/1/frente.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	assert.Equal(t, DriverMemory, s.Driver())
	exerciseStore(t, s)

	_, err := s.PresignURL(context.Background(), "x", 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFilesystem(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())
	exerciseStore(t, s)

	_, err = s.PresignURL(context.Background(), "x", 0)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFilesystem_RejectsUnsafeKeys(t *testing.T) {
	s, err := NewFilesystem(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"", "../escape", "/abs", "a/../../b", `a\b`, "x.meta"} {
		_, err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestPhotoKey(t *testing.T) {
	assert.Equal(t, "apiaries/3/vista-norte.jpg", PhotoKey(OwnerApiary, 3, "vista norte.JPG"))
	assert.Equal(t, "hives/12/passwd", PhotoKey(OwnerHive, 12, "../../passwd"))
	assert.Equal(t, "hives/12/", PhotoPrefix(OwnerHive, 12))
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.Blob{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, s.Driver())

	s, err = Open(ctx, config.Blob{Driver: "fs", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DriverFilesystem, s.Driver())

	_, err = Open(ctx, config.Blob{Driver: "s3"})
	assert.Error(t, err)

	_, err = Open(ctx, config.Blob{Driver: "ftp"})
	assert.Error(t, err)
}

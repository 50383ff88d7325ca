package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-backend/internal/config"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs := NewLocalStorage(dir)

	key, err := fs.Save(ctx, "alice", "f1", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "alice/f1", key)
	assert.FileExists(t, filepath.Join(dir, "alice", "f1"))

	r, err := fs.Open(ctx, key)
	require.NoError(t, err)
	b, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, "hello", string(b))

	require.NoError(t, fs.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(dir, "alice"))
	assert.True(t, os.IsNotExist(err), "empty owner directory is removed")

	assert.NoError(t, fs.Delete(ctx, key), "deleting twice is not an error")
	_, err = fs.Open(ctx, key)
	assert.Error(t, err)
}

func TestObjectKeySanitizes(t *testing.T) {
	tests := []struct {
		owner, id, want string
	}{
		{"alice", "f1", "alice/f1"},
		{"alice", "../../etc/passwd", "alice/.._.._etc_passwd"},
		{"..", "f1", "_/f1"},
		{`dir\owner`, "", "dir_owner/_"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectKey(tt.owner, tt.id))
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	fs := NewLocalStorage(t.TempDir())

	_, err := fs.Open(ctx, "../outside.txt")
	assert.Error(t, err)
	assert.Error(t, fs.Delete(ctx, "../../outside.txt"))
}

func TestNewSelectsDriver(t *testing.T) {
	ctx := context.Background()

	fs, err := New(ctx, config.StorageConfig{Driver: "local", LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, fs)

	_, err = New(ctx, config.StorageConfig{Driver: "s3"})
	assert.Error(t, err, "bucket is required")

	s3fs, err := New(ctx, config.StorageConfig{Driver: "s3", S3: config.S3Config{
		Bucket: "research", Endpoint: "http://localhost:9000", AccessKeyID: "k", SecretAccessKey: "s", PathStyle: true,
	}})
	require.NoError(t, err)
	assert.IsType(t, &S3Storage{}, s3fs)

	_, err = New(ctx, config.StorageConfig{Driver: "ftp"})
	assert.Error(t, err)
}

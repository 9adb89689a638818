package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"contractguard-backend/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedID = uuid.MustParse("3f2a9c1e-7b4d-4e2a-9c3b-1d2e3f4a5b6c")

func TestArtifactKey(t *testing.T) {
	assert.Equal(t,
		"laws/3f/3f2a9c1e-7b4d-4e2a-9c3b-1d2e3f4a5b6c_Commercial_Law_No_17.pdf",
		artifactKey(KindLawDocument, fixedID, "/data/laws/Commercial Law No 17.pdf"))
	assert.Equal(t,
		"harnesses/3f/3f2a9c1e-7b4d-4e2a-9c3b-1d2e3f4a5b6c_policy_harness.go",
		artifactKey(KindHarness, fixedID, "policy_harness.go"))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("law.PDF"))
	assert.Equal(t, "text/x-go; charset=utf-8", ContentType("harness.go"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(filepath.Join(t.TempDir(), "artifacts"))
	require.NoError(t, err)

	key, err := s.Put(ctx, KindHarness, fixedID, "harness.go", strings.NewReader("package main\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "harnesses/3f/"))

	rc, err := s.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "package main\n", string(data))

	require.NoError(t, s.Delete(ctx, key))
	require.NoError(t, s.Delete(ctx, key))

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(filepath.Join(dir, "artifacts"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secret.txt"), []byte("x"), 0o644))

	for _, key := range []string{"../secret.txt", "/etc/passwd", "", "laws/../../secret.txt"} {
		_, err := s.Get(context.Background(), key)
		assert.ErrorContains(t, err, "invalid storage key", key)
	}
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: TypeLocal, LocalPath: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &LocalStorage{}, s)

	_, err = New(context.Background(), config.StorageConfig{Type: TypeS3})
	assert.ErrorContains(t, err, "AWS_S3_BUCKET")

	_, err = New(context.Background(), config.StorageConfig{Type: "ftp"})
	assert.ErrorContains(t, err, "unknown storage type")
}

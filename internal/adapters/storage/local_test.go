package storage_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/storage"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestLocalStorage_UploadAndList(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())

	path, err := store.Upload(ctx, "exports/store-1/a.xlsx", strings.NewReader("first"), "")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(content))

	_, err = store.Upload(ctx, "exports/store-1/b.xlsx", strings.NewReader("second"), "")
	require.NoError(t, err)
	_, err = store.Upload(ctx, "exports/store-2/c.xlsx", strings.NewReader("third"), "")
	require.NoError(t, err)

	keys, err := store.List(ctx, "exports/store-1/")
	require.NoError(t, err)
	assert.Equal(t, []string{"exports/store-1/a.xlsx", "exports/store-1/b.xlsx"}, keys)

	url, err := store.GetPresignedURL(ctx, "exports/store-1/a.xlsx", time.Hour)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
}

func TestLocalStorage_KeysStayInsideBase(t *testing.T) {
	ctx := context.Background()
	base := t.TempDir()
	store := storage.NewLocalStorage(base, helpers.TestLogger())

	path, err := store.Upload(ctx, "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, base))

	_, err = store.Upload(ctx, "", strings.NewReader("x"), "")
	assert.Error(t, err)
}

func TestLocalStorage_MissingFile(t *testing.T) {
	store := storage.NewLocalStorage(t.TempDir(), helpers.TestLogger())

	_, err := store.GetPresignedURL(context.Background(), "nope.xlsx", time.Minute)
	assert.Error(t, err)

	keys, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

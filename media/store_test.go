package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LocalStorage, string) {
	t.Helper()
	base := filepath.Join(t.TempDir(), "media")
	store, err := NewLocalStorage(base, map[AssetType]string{
		AssetTypeSnapshot:  "snapshots",
		AssetTypeThumbnail: "thumbnails",
	})
	require.NoError(t, err)
	return store, base
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	store, base := newTestStore(t)

	rel, err := store.Save(AssetTypeSnapshot, "photo.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "snapshots/photo.jpg", rel)

	reader, info, err := store.Get(rel)
	require.NoError(t, err)
	defer reader.Close()
	assert.Equal(t, int64(len("jpeg bytes")), info.Size())

	full, err := store.GetFullPath(rel)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(full, base+string(os.PathSeparator)))
}

func TestGetFullPathRejectsEscapes(t *testing.T) {
	store, base := newTestStore(t)

	// a sibling directory sharing the base as a name prefix must not pass
	sibling := "../" + filepath.Base(base) + "-evil/secret.jpg"

	for _, rel := range []string{
		"../outside.jpg",
		"../../etc/passwd",
		sibling,
	} {
		_, err := store.GetFullPath(rel)
		assert.Error(t, err, "path %q must be rejected", rel)
	}
}

func TestDeleteMissingAssetIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Delete("snapshots/never-existed.jpg"))
}

package streetview

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exposure-scout/internal/geosample"
)

func TestRemoteReferencePrefersDirectURL(t *testing.T) {
	a := &RemoteAcquirer{Client: NewClient("test-key")}
	b := geosample.Building{ID: 1, Latitude: 40.0, Longitude: -3.0}

	ref := a.Reference(b, 0, 20, true)
	assert.Contains(t, ref, "heading=20")
	assert.Contains(t, ref, "key=test-key")

	fallback := a.Reference(b, 0, 20, false)
	assert.Contains(t, fallback, "map_action=pano")
	assert.NotContains(t, fallback, "key=")
}

func TestLocalAcquirerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.jpg"), []byte("jpeg-bytes"), 0o644))

	a := &LocalAcquirer{Store: NewLocalStore(dir, 1)}
	b := geosample.Building{ID: 7, Latitude: 40.0, Longitude: -3.0}
	ctx := context.Background()

	avail, err := a.Available(ctx, b)
	require.NoError(t, err)
	assert.True(t, avail)

	data, err := a.Fetch(ctx, b, 0, 180)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), data)

	assert.Equal(t, "7", a.Reference(b, 0, 180, true))
}

func TestLocalAcquirerServesDistinctViews(t *testing.T) {
	dir := t.TempDir()
	// Building 2 with two images per building owns rows 3 and 4.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.jpg"), []byte("left"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4.jpg"), []byte("center"), 0o644))

	a := &LocalAcquirer{Store: NewLocalStore(dir, 2)}
	b := geosample.Building{ID: 2}
	ctx := context.Background()

	left, err := a.Fetch(ctx, b, 0, 150)
	require.NoError(t, err)
	assert.Equal(t, []byte("left"), left)

	center, err := a.Fetch(ctx, b, 1, 180)
	require.NoError(t, err)
	assert.Equal(t, []byte("center"), center)

	// The third view reuses the building's last image.
	last, err := a.Fetch(ctx, b, 2, 210)
	require.NoError(t, err)
	assert.Equal(t, []byte("center"), last)

	assert.Equal(t, "3", a.Reference(b, 0, 150, true))
	assert.Equal(t, "4", a.Reference(b, 1, 180, true))
	assert.Equal(t, "4", a.Reference(b, 2, 210, true))
}

func TestLocalAcquirerMissingImage(t *testing.T) {
	a := &LocalAcquirer{Store: NewLocalStore(t.TempDir(), 1)}
	avail, err := a.Available(context.Background(), geosample.Building{ID: 3})
	require.NoError(t, err)
	assert.False(t, avail)
}

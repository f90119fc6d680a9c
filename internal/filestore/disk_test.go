package filestore

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskPutOpen(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	stored, err := disk.Put(ctx, "requests/7", "Proposal.TXT", strings.NewReader("Abstract\nhello world"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(stored.Path, "requests/7/"), stored.Path)
	assert.True(t, strings.HasSuffix(stored.Path, ".txt"), stored.Path)
	assert.Equal(t, int64(20), stored.Size)
	assert.True(t, strings.HasPrefix(stored.MimeType, "text/plain"), stored.MimeType)

	rc, err := disk.Open(ctx, stored.Path)
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Abstract\nhello world", string(data))
}

func TestDiskPathsStayInsideRoot(t *testing.T) {
	ctx := context.Background()
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)

	stored, err := disk.Put(ctx, "../../etc", "x.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Path, "etc/"), stored.Path)

	_, err = disk.Open(ctx, "../../does-not-exist")
	assert.Error(t, err)
}

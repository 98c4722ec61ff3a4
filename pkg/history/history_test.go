package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "captures.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	capturedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Add(ctx, Record{
		RunID:      "run-1",
		URL:        "https://example.com",
		OutputPath: "/tmp/example_com.png",
		Format:     "png",
		Engine:     "chromedp",
		Success:    true,
		CapturedAt: capturedAt,
	}))
	require.NoError(t, store.Add(ctx, Record{
		RunID:   "run-1",
		URL:     "https://broken.example.com",
		Format:  "png",
		Engine:  "chromedp",
		Success: false,
		Error:   "net::ERR_NAME_NOT_RESOLVED",
	}))
	require.NoError(t, store.Add(ctx, Record{
		RunID:   "run-2",
		URL:     "https://other.example.com",
		Format:  "jpeg",
		Engine:  "rod",
		Success: true,
	}))

	records, err := store.ListRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, "https://example.com", records[0].URL)
	require.Equal(t, "/tmp/example_com.png", records[0].OutputPath)
	require.True(t, records[0].Success)
	require.True(t, records[0].CapturedAt.Equal(capturedAt))

	require.Equal(t, "https://broken.example.com", records[1].URL)
	require.False(t, records[1].Success)
	require.Equal(t, "net::ERR_NAME_NOT_RESOLVED", records[1].Error)
	require.False(t, records[1].CapturedAt.IsZero(), "zero timestamp must be filled in")
}

func TestListRunUnknownID(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "captures.db"))
	require.NoError(t, err)
	defer store.Close()

	records, err := store.ListRun(context.Background(), "missing")
	require.NoError(t, err)
	require.Empty(t, records)
}

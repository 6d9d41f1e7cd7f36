package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"audio-capture-go/internal/ledger"
)

func seededLedger(t *testing.T, records []ledger.ConversationRecord) *ledger.Ledger {
	t.Helper()
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json"))
	require.NoError(t, store.Save(records))
	return ledger.New(store)
}

func record(id string, at time.Time, seconds float64, sizeBytes int64) ledger.ConversationRecord {
	return ledger.ConversationRecord{
		ConversationID: id,
		CapturedAt:     at,
		Agent:          ledger.ChannelInfo{Present: true, SizeBytes: sizeBytes / 2, DurationSeconds: seconds},
		Customer:       ledger.ChannelInfo{Present: true, SizeBytes: sizeBytes / 2, DurationSeconds: seconds},
		Total:          ledger.Aggregate{SizeBytes: sizeBytes, DurationSeconds: seconds},
	}
}

func TestBuildWithProgress(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	led := seededLedger(t, []ledger.ConversationRecord{
		record("conv-1", at, 1800, 10<<20),
		record("conv-2", at.Add(time.Hour), 1800, 10<<20),
	})

	snap, err := New(led, t.TempDir()).Build(100)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Stats.TotalConversations)
	require.NotNil(t, snap.Progress)
	assert.InDelta(t, 1.0, snap.Progress.CurrentHours, 0.001)
	assert.InDelta(t, 99.0, snap.Progress.RemainingHours, 0.001)
	assert.Nil(t, snap.Changes, "first snapshot has nothing to compare against")
}

func TestPersistAndDeltas(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	led := seededLedger(t, []ledger.ConversationRecord{record("conv-1", at, 3600, 5 << 20)})

	rep := New(led, dir)
	rep.now = func() time.Time { return at }
	first, err := rep.Build(0)
	require.NoError(t, err)
	path, err := rep.Persist(first)
	require.NoError(t, err)
	assert.FileExists(t, path)

	// Grow the ledger, then build again two hours later.
	grown := seededLedger(t, []ledger.ConversationRecord{
		record("conv-1", at, 3600, 5 << 20),
		record("conv-2", at.Add(time.Hour), 3600, 5 << 20),
	})
	rep2 := New(grown, dir)
	rep2.now = func() time.Time { return at.Add(2 * time.Hour) }
	second, err := rep2.Build(0)
	require.NoError(t, err)

	require.NotNil(t, second.Changes)
	assert.Equal(t, 1, second.Changes.NewConversations)
	assert.InDelta(t, 1.0, second.Changes.NewHours, 0.001)
	assert.InDelta(t, 2.0, second.Changes.HoursElapsed, 0.001)
}

func TestRenderMentionsTargetState(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	led := seededLedger(t, []ledger.ConversationRecord{record("conv-1", at, 3600, 5 << 20)})

	snap, err := New(led, t.TempDir()).Build(1)
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, snap)
	out := buf.String()
	assert.Contains(t, out, "COLLECTION PROGRESS REPORT")
	assert.Contains(t, out, "Target reached")
}

func TestRenderEmptyLedger(t *testing.T) {
	t.Parallel()
	led := seededLedger(t, []ledger.ConversationRecord{})

	snap, err := New(led, t.TempDir()).Build(0)
	require.NoError(t, err)

	var buf bytes.Buffer
	Render(&buf, snap)
	assert.Contains(t, buf.String(), "Conversations:        0")
}

package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

func sampleResults() ([]scanner.Result, scanner.RunSummary) {
	results := []scanner.Result{
		{SequenceNo: 1, RawURL: "a.example", NormalizedURL: "https://a.example", Status: scanner.StatusPass,
			ConnectionTimeMS: scanner.ConnectionTime{Millis: 12.5, Valid: true},
			Certificate:      &scanner.CertificateFacts{Issuer: "CN=R3,O=Let's Encrypt,C=US", IssuerCommonName: "R3"}},
		{SequenceNo: 2, RawURL: "b.example", NormalizedURL: "https://b.example", Status: scanner.StatusFail,
			Error: "Connection Refused"},
	}
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return results, scanner.Summarize(results, start, start.Add(time.Second))
}

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewManager(time.Hour, nil)

	run := m.Create([]string{"a.example", "b.example"}, "Encrypt")
	_, err := uuid.Parse(run.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPending, run.Status)

	got, err := m.Get(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"a.example", "b.example"}, got.Hosts)

	started, err := m.Start(run.ID, ModeBatch)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, started.Status)

	_, err = m.Start(run.ID, ModeStream)
	require.ErrorIs(t, err, ErrRunInProgress)

	results, summary := sampleResults()
	done, err := m.Complete(ctx, run.ID, results, summary)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, ModeBatch, done.Mode)
	require.Len(t, done.Results, 2)
	require.Equal(t, 1, done.Summary.PassCount)

	_, err = m.Start(run.ID, ModeBatch)
	require.ErrorIs(t, err, ErrRunCompleted)

	_, err = m.Complete(ctx, run.ID, results, summary)
	require.Error(t, err)
}

func TestManager_UnknownRun(t *testing.T) {
	m := NewManager(time.Hour, nil)

	_, err := m.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRunNotFound)

	_, err = m.Start("missing", ModeBatch)
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestManager_IndependentRuns(t *testing.T) {
	m := NewManager(time.Hour, nil)

	a := m.Create([]string{"a.example"}, "")
	b := m.Create([]string{"b.example"}, "DigiCert")
	require.NotEqual(t, a.ID, b.ID)

	_, err := m.Start(a.ID, ModeBatch)
	require.NoError(t, err)
	_, err = m.Start(b.ID, ModeStream)
	require.NoError(t, err)

	got, err := m.Get(context.Background(), b.ID)
	require.NoError(t, err)
	require.Equal(t, "DigiCert", got.PassCriterion)
}

func TestManager_Prune(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, nil)
	m.now = func() time.Time { return now }

	old := m.Create([]string{"a.example"}, "")
	_, err := m.Start(old.ID, ModeBatch)
	require.NoError(t, err)
	results, summary := sampleResults()
	_, err = m.Complete(ctx, old.ID, results, summary)
	require.NoError(t, err)

	pending := m.Create([]string{"b.example"}, "")

	now = now.Add(2 * time.Hour)
	require.Equal(t, 1, m.Prune())
	require.Equal(t, 1, m.Len())

	_, err = m.Get(ctx, old.ID)
	require.ErrorIs(t, err, ErrRunNotFound)
	_, err = m.Get(ctx, pending.ID)
	require.NoError(t, err)
}

func TestManager_List(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour, nil)
	m.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	first := m.Create([]string{"a"}, "")
	second := m.Create([]string{"b", "c"}, "")

	infos, err := m.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, second.ID, infos[0].ID)
	require.Equal(t, first.ID, infos[1].ID)
	require.Equal(t, 2, infos[0].Total)

	infos, err = m.List(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestManager_ListMergesArchive(t *testing.T) {
	ctx := context.Background()
	archive, err := OpenSQLite(filepath.Join(t.TempDir(), "certcheck.db"))
	require.NoError(t, err)

	m := NewManager(time.Hour, archive)
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time {
		now = now.Add(time.Minute)
		return now
	}

	done := m.Create([]string{"a.example", "b.example"}, "")
	_, err = m.Start(done.ID, ModeBatch)
	require.NoError(t, err)
	results, summary := sampleResults()
	_, err = m.Complete(ctx, done.ID, results, summary)
	require.NoError(t, err)

	running := m.Create([]string{"c.example"}, "")
	_, err = m.Start(running.ID, ModeStream)
	require.NoError(t, err)
	pending := m.Create([]string{"d.example"}, "")

	infos, err := m.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	require.Equal(t, pending.ID, infos[0].ID)
	require.Equal(t, StatusPending, infos[0].Status)
	require.Equal(t, running.ID, infos[1].ID)
	require.Equal(t, StatusRunning, infos[1].Status)
	require.Equal(t, done.ID, infos[2].ID)
	require.Equal(t, StatusCompleted, infos[2].Status)
	require.Equal(t, 1, infos[2].PassCount)

	infos, err = m.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	require.Equal(t, pending.ID, infos[0].ID)
}

func TestSQLiteArchive(t *testing.T) {
	ctx := context.Background()
	archive, err := OpenSQLite(filepath.Join(t.TempDir(), "runs", "certcheck.db"))
	require.NoError(t, err)

	m := NewManager(time.Hour, archive)
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	run := m.Create([]string{"a.example", "b.example"}, "Encrypt")
	_, err = m.Start(run.ID, ModeStream)
	require.NoError(t, err)
	results, summary := sampleResults()
	_, err = m.Complete(ctx, run.ID, results, summary)
	require.NoError(t, err)

	// fall back to the archive once the run leaves memory
	now = now.Add(2 * time.Hour)
	require.Equal(t, 1, m.Prune())

	got, err := m.Get(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, ModeStream, got.Mode)
	require.Equal(t, "Encrypt", got.PassCriterion)
	require.Len(t, got.Results, 2)
	require.Equal(t, "R3", got.Results[0].Certificate.IssuerCommonName)
	require.True(t, got.Results[0].ConnectionTimeMS.Valid)
	require.False(t, got.Results[1].ConnectionTimeMS.Valid)
	require.Equal(t, 1, got.Summary.ExceptionHistogram["Connection Refused"])

	infos, err := m.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, run.ID, infos[0].ID)
	require.Equal(t, 2, infos[0].Total)
	require.Equal(t, 1, infos[0].PassCount)
	require.Equal(t, 1, infos[0].FailCount)
	require.True(t, infos[0].CreatedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))

	_, err = archive.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

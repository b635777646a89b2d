package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/herbal-board/internal/app/bootstrap"
	"github.com/wolfman30/herbal-board/internal/archive"
	appconfig "github.com/wolfman30/herbal-board/internal/config"
	"github.com/wolfman30/herbal-board/internal/patients"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func testCLI(t *testing.T, repo patients.Repository) *cli {
	t.Helper()
	return &cli{
		cfg:    &appconfig.Config{OwnerKey: "clinic"},
		logger: logging.NewWithWriter(&bytes.Buffer{}, "error", logging.FormatText),
		now:    func() time.Time { return fixedNow },
		openStorage: func(context.Context) (*bootstrap.Storage, error) {
			return &bootstrap.Storage{Repo: repo}, nil
		},
		openArchive: func(context.Context) (*archive.Store, error) { return nil, nil },
	}
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := c.rootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestScheduleCommand(t *testing.T) {
	out, err := run(t, testCLI(t, nil), "schedule",
		"--start", "2026-10-05", "--period", "1", "--cadence", "2주에 1회", "--today", "2026-10-17")
	require.NoError(t, err)

	assert.Contains(t, out, "WEEK")
	assert.Contains(t, out, "2026-10-05")
	assert.Contains(t, out, "2026-10-26")
	assert.NotContains(t, out, "2026-11-02", "slots past the horizon are omitted")
	assert.Contains(t, out, "current")
	assert.Contains(t, out, "cadence 2주에 1회, horizon 4 weeks, 2 due, 2 skipped")
}

func TestScheduleCommandRejectsBadInput(t *testing.T) {
	_, err := run(t, testCLI(t, nil), "schedule", "--cadence", "weekly")
	assert.ErrorContains(t, err, "unsupported cadence")

	_, err = run(t, testCLI(t, nil), "schedule", "--start", "2026-13-40")
	assert.ErrorContains(t, err, "invalid start date")
}

func writeDump(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	dump := `[{"id": 1, "name": "홍길동", "treatmentStartDate": "2026-09-07"}, {"name": "  "}, {"id": 2, "name": "김하나"}]`
	require.NoError(t, os.WriteFile(path, []byte(dump), 0o600))
	return path
}

func TestImportLegacyCommand(t *testing.T) {
	repo := patients.NewInMemoryRepository()
	c := testCLI(t, repo)

	out, err := run(t, c, "import-legacy", writeDump(t))
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 of 3 records into clinic")

	list, err := repo.LoadAll(context.Background(), "clinic")
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestImportLegacyDryRun(t *testing.T) {
	repo := patients.NewInMemoryRepository()
	out, err := run(t, testCLI(t, repo), "import-legacy", "--dry-run", writeDump(t))
	require.NoError(t, err)
	assert.Contains(t, out, "2 of 3 records would be imported")

	list, err := repo.LoadAll(context.Background(), "clinic")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExportCommandWritesSnapshot(t *testing.T) {
	repo := patients.NewInMemoryRepository()
	p, err := patients.Register(patients.RegisterRequest{Name: "홍길동"}, "clinic", fixedNow)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), "clinic", p))

	out, err := run(t, testCLI(t, repo), "export")
	require.NoError(t, err)

	var snap archive.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "clinic", snap.OwnerKey)
	assert.Equal(t, archive.SnapshotVersion, snap.Version)
	require.Len(t, snap.Patients, 1)
	assert.Equal(t, "홍길동", snap.Patients[0].Name)
}

func TestExportCommandWithoutBucket(t *testing.T) {
	_, err := run(t, testCLI(t, patients.NewInMemoryRepository()), "export", "--s3")
	assert.ErrorContains(t, err, "EXPORT_BUCKET")
}

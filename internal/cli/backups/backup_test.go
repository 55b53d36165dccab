package backups

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/streaklit/internal/backup"
	"github.com/julianstephens/streaklit/internal/cli"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
)

func setupBackupTest(t *testing.T) (*cli.Context, *storage.SQLStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "streaklit.db")
	store := storage.NewSQLiteStore(dbPath)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return &cli.Context{Store: store}, store, dbPath
}

func TestBackupCreateAndList(t *testing.T) {
	ctx, _, dbPath := setupBackupTest(t)

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	list, err := backup.NewManager(dbPath).ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 backup, got %d", len(list))
	}
}

func TestBackupRestore(t *testing.T) {
	ctx, store, dbPath := setupBackupTest(t)
	bg := context.Background()

	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	list, err := backup.NewManager(dbPath).ListBackups()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListBackups = %v, %v", list, err)
	}

	err = store.AddHabit(bg, models.Habit{
		ID:          "h1",
		Title:       "Read",
		TargetCount: 1,
		Frequency:   models.Daily{},
		CreatedAt:   utils.DateOf(2026, time.January, 5),
	})
	if err != nil {
		t.Fatalf("failed to add habit: %v", err)
	}

	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(list[0].Path), Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	if err := store.Load(bg); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if _, err := store.GetHabit(bg, "h1"); err == nil {
		t.Error("habit added after the backup should be gone after restore")
	}
}

func TestBackupRestore_NotFound(t *testing.T) {
	ctx, _, _ := setupBackupTest(t)

	if err := (&BackupRestoreCmd{BackupFile: "missing.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for a missing backup file")
	}
}

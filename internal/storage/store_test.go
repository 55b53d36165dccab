package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

func setupTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("failed to initialize test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testHabit(id, title string) models.Habit {
	return models.Habit{
		ID:          id,
		Title:       title,
		TargetCount: 1,
		Frequency:   models.Daily{},
		CreatedAt:   utils.DateOf(2024, time.January, 1),
	}
}

func mustAddHabit(t *testing.T, store *SQLStore, h models.Habit) {
	t.Helper()
	if err := store.AddHabit(context.Background(), h); err != nil {
		t.Fatalf("failed to add habit %s: %v", h.ID, err)
	}
}

func TestInitWritesDefaultSettings(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("expected default settings %+v, got %+v", models.DefaultSettings(), settings)
	}

	// a second Init is a no-op
	if err := store.Init(ctx); err != nil {
		t.Fatalf("second Init failed: %v", err)
	}
}

func TestLoadUninitialized(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "missing.db"))
	if err := store.Load(context.Background()); err == nil {
		t.Fatal("expected Load to fail for a store that was never initialized")
	}
}

func TestLoadInitialized(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")
	store := NewSQLiteStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	mustAddHabit(t, store, testHabit("h1", "Read"))
	store.Close()

	reopened := NewSQLiteStore(path)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.GetHabit(ctx, "h1"); err != nil {
		t.Errorf("expected habit after reload, got %v", err)
	}
	current, latest, err := reopened.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if current != latest || current == 0 {
		t.Errorf("expected schema at latest version, got current=%d latest=%d", current, latest)
	}
}

func TestGlobalEnabled(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	enabled, err := store.GlobalEnabled(ctx)
	if err != nil {
		t.Fatalf("GlobalEnabled failed: %v", err)
	}
	if !enabled {
		t.Error("expected reminders enabled by default")
	}

	if err := store.SetGlobalEnabled(ctx, false); err != nil {
		t.Fatalf("SetGlobalEnabled failed: %v", err)
	}
	enabled, _ = store.GlobalEnabled(ctx)
	if enabled {
		t.Error("expected reminders disabled")
	}

	settings, err := store.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings failed: %v", err)
	}
	if settings.NotificationsEnabled {
		t.Error("settings should reflect the disabled toggle")
	}
}

func TestHabitRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	weekly, _ := models.NewWeekly(models.NewWeekdaySet(time.Monday, time.Wednesday, time.Friday))
	h := testHabit("h1", "Gym")
	h.TargetCount = 2
	h.Frequency = weekly
	h.Reminder = &models.NotificationConfig{
		HabitID: "h1",
		Time:    "07:30",
		Enabled: true,
		Period:  models.SelectedDays{Days: models.NewWeekdaySet(time.Monday)},
	}
	mustAddHabit(t, store, h)

	got, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("GetHabit failed: %v", err)
	}
	if got.Title != "Gym" || got.TargetCount != 2 {
		t.Errorf("unexpected habit %+v", got)
	}
	if got.Frequency != models.RecurrenceRule(weekly) {
		t.Errorf("expected frequency %v, got %v", weekly, got.Frequency)
	}
	if !got.CreatedAt.Equal(h.CreatedAt) {
		t.Errorf("expected created %v, got %v", h.CreatedAt, got.CreatedAt)
	}
	if got.Reminder == nil {
		t.Fatal("expected reminder to be loaded")
	}
	if got.Reminder.Time != "07:30" || !got.Reminder.Enabled {
		t.Errorf("unexpected reminder %+v", got.Reminder)
	}
	if got.Reminder.Period != models.NotificationPeriod(models.SelectedDays{Days: models.NewWeekdaySet(time.Monday)}) {
		t.Errorf("unexpected period %v", got.Reminder.Period)
	}

	byTitle, err := store.GetHabitByTitle(ctx, "gym")
	if err != nil {
		t.Fatalf("GetHabitByTitle failed: %v", err)
	}
	if byTitle.ID != "h1" {
		t.Errorf("expected h1, got %s", byTitle.ID)
	}
}

func TestAddHabitValidation(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	mustAddHabit(t, store, testHabit("h1", "Read"))

	tests := []struct {
		name  string
		habit models.Habit
		kind  apperr.Kind
	}{
		{"missing id", testHabit("", "Read"), apperr.KindInvalidInput},
		{"empty title", testHabit("h2", "  "), apperr.KindInvalidInput},
		{"zero target", func() models.Habit { h := testHabit("h3", "Run"); h.TargetCount = 0; return h }(), apperr.KindInvalidInput},
		{"duplicate id", testHabit("h1", "Read again"), apperr.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.AddHabit(ctx, tt.habit)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("expected kind %v, got %v (%v)", tt.kind, apperr.KindOf(err), err)
			}
		})
	}
}

func TestGetHabitNotFound(t *testing.T) {
	store := setupTestStore(t)
	_, err := store.GetHabit(context.Background(), "nope")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestHabitLifecycle(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	mustAddHabit(t, store, testHabit("h1", "Read"))
	mustAddHabit(t, store, testHabit("h2", "Walk"))

	if err := store.ArchiveHabit(ctx, "h1"); err != nil {
		t.Fatalf("ArchiveHabit failed: %v", err)
	}
	habits, err := store.ListHabits(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListHabits failed: %v", err)
	}
	if len(habits) != 1 || habits[0].ID != "h2" {
		t.Errorf("expected only h2 listed, got %v", habits)
	}
	habits, _ = store.ListHabits(ctx, ListOptions{IncludeArchived: true})
	if len(habits) != 2 {
		t.Errorf("expected 2 habits including archived, got %d", len(habits))
	}
	archived, err := store.GetHabit(ctx, "h1")
	if err != nil {
		t.Fatalf("archived habit should still be readable: %v", err)
	}
	if archived.ArchivedAt == nil {
		t.Error("expected ArchivedAt to be set")
	}
	if err := store.UnarchiveHabit(ctx, "h1"); err != nil {
		t.Fatalf("UnarchiveHabit failed: %v", err)
	}

	if err := store.DeleteHabit(ctx, "h2"); err != nil {
		t.Fatalf("DeleteHabit failed: %v", err)
	}
	if _, err := store.GetHabit(ctx, "h2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected deleted habit to be NotFound, got %v", err)
	}
	if err := store.DeleteHabit(ctx, "h2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected second delete to be NotFound, got %v", err)
	}
	habits, _ = store.ListHabits(ctx, ListOptions{IncludeDeleted: true})
	if len(habits) != 2 {
		t.Errorf("expected 2 habits including deleted, got %d", len(habits))
	}

	if err := store.RestoreHabit(ctx, "h2"); err != nil {
		t.Fatalf("RestoreHabit failed: %v", err)
	}
	if _, err := store.GetHabit(ctx, "h2"); err != nil {
		t.Errorf("expected restored habit, got %v", err)
	}
	if err := store.RestoreHabit(ctx, "h2"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("restoring a live habit should be NotFound, got %v", err)
	}
}

func TestUpdateHabit(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	mustAddHabit(t, store, testHabit("h1", "Read"))

	custom, _ := models.NewCustom(3, models.UnitDays)
	h := testHabit("h1", "Read more")
	h.TargetCount = 3
	h.Frequency = custom
	if err := store.UpdateHabit(ctx, h); err != nil {
		t.Fatalf("UpdateHabit failed: %v", err)
	}

	got, _ := store.GetHabit(ctx, "h1")
	if got.Title != "Read more" || got.TargetCount != 3 || got.Frequency != models.RecurrenceRule(custom) {
		t.Errorf("update not applied: %+v", got)
	}

	if err := store.UpdateHabit(ctx, testHabit("missing", "x")); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestListHabitsWithReminders(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	withReminder := func(id string, enabled bool) models.Habit {
		h := testHabit(id, id)
		h.Reminder = &models.NotificationConfig{HabitID: id, Time: "09:00", Enabled: enabled, Period: models.EveryDay{}}
		return h
	}
	mustAddHabit(t, store, withReminder("a", true))
	mustAddHabit(t, store, withReminder("b", false))
	mustAddHabit(t, store, testHabit("c", "c"))
	mustAddHabit(t, store, withReminder("d", true))
	if err := store.ArchiveHabit(ctx, "d"); err != nil {
		t.Fatal(err)
	}

	habits, err := store.ListHabitsWithReminders(ctx)
	if err != nil {
		t.Fatalf("ListHabitsWithReminders failed: %v", err)
	}
	ids := map[string]bool{}
	for _, h := range habits {
		ids[h.ID] = true
	}
	if len(ids) != 2 || !ids["a"] || !ids["b"] {
		t.Errorf("expected a and b, got %v", ids)
	}
}

func TestNotificationConfigUpsert(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	mustAddHabit(t, store, testHabit("h1", "Read"))

	cfg := models.NotificationConfig{HabitID: "h1", Time: "08:00", Enabled: true, Period: models.ActiveDaysOnly{}}
	if err := store.SaveNotificationConfig(ctx, cfg); err != nil {
		t.Fatalf("SaveNotificationConfig failed: %v", err)
	}
	if err := store.SaveNotificationConfig(ctx, cfg.WithEnabled(false)); err != nil {
		t.Fatalf("second SaveNotificationConfig failed: %v", err)
	}

	got, _ := store.GetHabit(ctx, "h1")
	if got.Reminder == nil || got.Reminder.Enabled || got.Reminder.Time != "08:00" {
		t.Errorf("unexpected reminder %+v", got.Reminder)
	}

	if err := store.SaveNotificationConfig(ctx, models.NotificationConfig{HabitID: "h1", Time: "08:00"}); err == nil {
		t.Error("expected error for missing period")
	}

	if err := store.DeleteNotificationConfig(ctx, "h1"); err != nil {
		t.Fatalf("DeleteNotificationConfig failed: %v", err)
	}
	got, _ = store.GetHabit(ctx, "h1")
	if got.Reminder != nil {
		t.Errorf("expected reminder removed, got %+v", got.Reminder)
	}
}

func TestRecords(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	h := testHabit("h1", "Water")
	h.TargetCount = 2
	mustAddHabit(t, store, h)

	day := func(d int) time.Time { return utils.DateOf(2024, time.March, d) }

	for _, r := range []models.HabitRecord{
		{HabitID: "h1", Date: day(1), CompletedCount: 2},
		{HabitID: "h1", Date: day(2), CompletedCount: 1},
		{HabitID: "h1", Date: day(3), CompletedCount: 3},
		{HabitID: "h1", Date: day(4), CompletedCount: 0},
	} {
		if err := store.UpsertRecord(ctx, r); err != nil {
			t.Fatalf("UpsertRecord(%v) failed: %v", r.Date, err)
		}
	}

	// replaces the existing record for the day
	if err := store.UpsertRecord(ctx, models.HabitRecord{HabitID: "h1", Date: day(2), CompletedCount: 2, Note: "caught up"}); err != nil {
		t.Fatalf("UpsertRecord failed: %v", err)
	}

	r, err := store.GetRecord(ctx, "h1", day(2))
	if err != nil {
		t.Fatalf("GetRecord failed: %v", err)
	}
	if r == nil || r.CompletedCount != 2 || r.Note != "caught up" {
		t.Errorf("unexpected record %+v", r)
	}

	missing, err := store.GetRecord(ctx, "h1", day(20))
	if err != nil || missing != nil {
		t.Errorf("expected (nil, nil) for a missing record, got (%v, %v)", missing, err)
	}

	dates, err := store.FullyCompletedDates(ctx, "h1")
	if err != nil {
		t.Fatalf("FullyCompletedDates failed: %v", err)
	}
	want := []time.Time{day(1), day(2), day(3)}
	if len(dates) != len(want) {
		t.Fatalf("expected %d dates, got %v", len(want), dates)
	}
	for i := range want {
		if !dates[i].Equal(want[i]) {
			t.Errorf("date %d: expected %v, got %v", i, want[i], dates[i])
		}
	}

	records, err := store.ListRecords(ctx, "h1", day(2), day(3))
	if err != nil {
		t.Fatalf("ListRecords failed: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records in range, got %d", len(records))
	}
	all, _ := store.ListRecords(ctx, "h1", time.Time{}, time.Time{})
	if len(all) != 4 {
		t.Errorf("expected 4 records unbounded, got %d", len(all))
	}

	if err := store.DeleteRecord(ctx, "h1", day(1)); err != nil {
		t.Fatalf("DeleteRecord failed: %v", err)
	}
	if err := store.DeleteRecord(ctx, "h1", day(1)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected NotFound on second delete, got %v", err)
	}
}

func TestUpsertRecordValidation(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	mustAddHabit(t, store, testHabit("h1", "Read"))

	tests := []struct {
		name   string
		record models.HabitRecord
		kind   apperr.Kind
	}{
		{"negative count", models.HabitRecord{HabitID: "h1", Date: utils.DateOf(2024, 1, 2), CompletedCount: -1}, apperr.KindInvalidInput},
		{"missing date", models.HabitRecord{HabitID: "h1", CompletedCount: 1}, apperr.KindInvalidInput},
		{"unknown habit", models.HabitRecord{HabitID: "nope", Date: utils.DateOf(2024, 1, 2), CompletedCount: 1}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.UpsertRecord(ctx, tt.record)
			if apperr.KindOf(err) != tt.kind {
				t.Errorf("expected kind %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestAlarms(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	base := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.Local)

	if err := store.ArmOneShot(ctx, "h1", base, `{"habit_id":"h1"}`); err != nil {
		t.Fatalf("ArmOneShot failed: %v", err)
	}
	if err := store.ArmOneShot(ctx, "h2", base.Add(2*time.Hour), ""); err != nil {
		t.Fatalf("ArmOneShot failed: %v", err)
	}

	armed, err := store.IsArmed(ctx, "h1")
	if err != nil || !armed {
		t.Errorf("expected h1 armed, got %v (%v)", armed, err)
	}

	// re-arming replaces the previous alarm
	if err := store.ArmOneShot(ctx, "h1", base.Add(24*time.Hour), "next"); err != nil {
		t.Fatalf("re-arm failed: %v", err)
	}
	alarm, err := store.GetAlarm(ctx, "h1")
	if err != nil || alarm == nil {
		t.Fatalf("GetAlarm failed: %v", err)
	}
	if !alarm.At.Equal(base.Add(24*time.Hour)) || alarm.Payload != "next" {
		t.Errorf("unexpected alarm %+v", alarm)
	}

	due, err := store.DueAlarms(ctx, base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("DueAlarms failed: %v", err)
	}
	if len(due) != 1 || due[0].HabitID != "h2" {
		t.Fatalf("expected only h2 due, got %+v", due)
	}

	claimed, err := store.ClaimAlarm(ctx, due[0])
	if err != nil || !claimed {
		t.Fatalf("expected claim to succeed, got %v (%v)", claimed, err)
	}
	claimed, _ = store.ClaimAlarm(ctx, due[0])
	if claimed {
		t.Error("an alarm can only be claimed once")
	}

	// a re-armed alarm is not claimed with a stale read
	stale := *alarm
	if err := store.ArmOneShot(ctx, "h1", base.Add(48*time.Hour), ""); err != nil {
		t.Fatal(err)
	}
	if claimed, _ := store.ClaimAlarm(ctx, stale); claimed {
		t.Error("stale alarm should not be claimable after re-arm")
	}

	if err := store.Cancel(ctx, "h1"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if err := store.Cancel(ctx, "h1"); err != nil {
		t.Errorf("cancelling twice should be a no-op, got %v", err)
	}
	alarms, _ := store.ListAlarms(ctx)
	if len(alarms) != 0 {
		t.Errorf("expected no alarms left, got %+v", alarms)
	}
}

func TestIsPostgresConnString(t *testing.T) {
	tests := []struct {
		conn string
		want bool
	}{
		{"postgres://user@localhost/db", true},
		{"postgresql://localhost/db", true},
		{"host=localhost dbname=streaklit", true},
		{"/home/me/.config/streaklit/streaklit.db", false},
		{"streaklit.db", false},
	}
	for _, tt := range tests {
		if got := IsPostgresConnString(tt.conn); got != tt.want {
			t.Errorf("IsPostgresConnString(%q) = %v, want %v", tt.conn, got, tt.want)
		}
	}
}

func TestOpenPicksDialect(t *testing.T) {
	if Open("postgres://localhost/db").Dialect() != DialectPostgres {
		t.Error("expected postgres dialect")
	}
	if Open(filepath.Join(t.TempDir(), "x.db")).Dialect() != DialectSQLite {
		t.Error("expected sqlite dialect")
	}
}

package notification

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/utils"
)

type fakeStore struct {
	mu       sync.Mutex
	habits   map[string]models.Habit
	records  map[string]models.HabitRecord
	global   bool
	saves    int
	SaveFunc func(cfg models.NotificationConfig) error
	SetFunc  func(enabled bool) error
	GetFunc  func(id string) error
}

func newFakeStore(habits ...models.Habit) *fakeStore {
	s := &fakeStore{habits: map[string]models.Habit{}, records: map[string]models.HabitRecord{}, global: true}
	for _, h := range habits {
		s.habits[h.ID] = h
	}
	return s
}

func (s *fakeStore) GetHabit(_ context.Context, id string) (*models.Habit, error) {
	if s.GetFunc != nil {
		if err := s.GetFunc(id); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.habits[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (s *fakeStore) ListHabitsWithReminders(context.Context) ([]models.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Habit
	for _, h := range s.habits {
		if h.Reminder != nil {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) GetRecord(_ context.Context, habitID string, date time.Time) (*models.HabitRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[habitID+"|"+utils.FormatDay(date)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *fakeStore) SaveNotificationConfig(_ context.Context, cfg models.NotificationConfig) error {
	if s.SaveFunc != nil {
		if err := s.SaveFunc(cfg); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	h := s.habits[cfg.HabitID]
	s.habits[cfg.HabitID] = h.WithReminder(&cfg)
	return nil
}

func (s *fakeStore) SetGlobalEnabled(_ context.Context, enabled bool) error {
	if s.SetFunc != nil {
		if err := s.SetFunc(enabled); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global = enabled
	return nil
}

func (s *fakeStore) GlobalEnabled(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.global, nil
}

func (s *fakeStore) habit(id string) models.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habits[id]
}

func (s *fakeStore) saveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

type fakeAlarms struct {
	mu      sync.Mutex
	armed   map[string]time.Time
	ArmFunc func(ctx context.Context, habitID string) error
}

func newFakeAlarms() *fakeAlarms {
	return &fakeAlarms{armed: map[string]time.Time{}}
}

func (a *fakeAlarms) ArmOneShot(ctx context.Context, habitID string, at time.Time, _ string) error {
	if a.ArmFunc != nil {
		if err := a.ArmFunc(ctx, habitID); err != nil {
			return err
		}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.armed[habitID] = at
	return nil
}

func (a *fakeAlarms) Cancel(_ context.Context, habitID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.armed, habitID)
	return nil
}

func (a *fakeAlarms) IsArmed(_ context.Context, habitID string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.armed[habitID]
	return ok, nil
}

func (a *fakeAlarms) at(habitID string) (time.Time, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.armed[habitID]
	return t, ok
}

type fakePermissions struct {
	mu          sync.Mutex
	has         bool
	global      bool
	outcome     RequestOutcome
	err         error
	checks      int
	requests    int
	openedCount int
	permanent   bool
}

func (p *fakePermissions) HasSystemPermission(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks++
	return p.has, p.err
}

func (p *fakePermissions) RequestSystemPermission(context.Context) (RequestOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests++
	if p.outcome == RequestGranted {
		p.has = true
	}
	return p.outcome, nil
}

func (p *fakePermissions) PermissionPermanentlyDenied(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.permanent, nil
}

func (p *fakePermissions) IsGloballyEnabled(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.global, p.err
}

func (p *fakePermissions) OpenSystemSettings(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.openedCount++
	return true, nil
}

func (p *fakePermissions) set(has, global bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.has, p.global = has, global
}

type fakePresenter struct {
	mu    sync.Mutex
	shown []Notification
	err   error
}

func (p *fakePresenter) Show(_ context.Context, n Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.shown = append(p.shown, n)
	return nil
}

func (p *fakePresenter) last() (Notification, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.shown) == 0 {
		return Notification{}, false
	}
	return p.shown[len(p.shown)-1], true
}

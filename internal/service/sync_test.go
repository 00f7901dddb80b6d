package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"fieldpulse/internal/models"
	"fieldpulse/internal/service"
)

type mockRepo struct {
	UpsertProfileFunc  func(ctx context.Context, p models.Profile) error
	UpsertItemsFunc    func(ctx context.Context, key string, items []models.Item) error
	UpsertSettingFunc  func(ctx context.Context, key string, value json.RawMessage) error
	ProfileFunc        func(ctx context.Context) (*models.Profile, error)
	TimeEntriesFunc    func(ctx context.Context) ([]models.TimeEntry, error)
	MileageEntriesFunc func(ctx context.Context) ([]models.MileageEntry, error)
	FuelLogsFunc       func(ctx context.Context) ([]models.FuelLog, error)
	DailyNotesFunc     func(ctx context.Context) ([]models.DailyNote, error)
	SavedLocationsFunc func(ctx context.Context) ([]models.SavedLocation, error)
	VehiclesFunc       func(ctx context.Context) ([]models.Vehicle, error)
	LocationLogsFunc   func(ctx context.Context) ([]models.LocationLog, error)
	SettingsFunc       func(ctx context.Context) (map[string]json.RawMessage, error)
}

func (m *mockRepo) UpsertProfile(ctx context.Context, p models.Profile) error {
	return m.UpsertProfileFunc(ctx, p)
}
func (m *mockRepo) UpsertItems(ctx context.Context, key string, items []models.Item) error {
	return m.UpsertItemsFunc(ctx, key, items)
}
func (m *mockRepo) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	return m.UpsertSettingFunc(ctx, key, value)
}
func (m *mockRepo) Profile(ctx context.Context) (*models.Profile, error) {
	return m.ProfileFunc(ctx)
}
func (m *mockRepo) TimeEntries(ctx context.Context) ([]models.TimeEntry, error) {
	return m.TimeEntriesFunc(ctx)
}
func (m *mockRepo) MileageEntries(ctx context.Context) ([]models.MileageEntry, error) {
	return m.MileageEntriesFunc(ctx)
}
func (m *mockRepo) FuelLogs(ctx context.Context) ([]models.FuelLog, error) {
	return m.FuelLogsFunc(ctx)
}
func (m *mockRepo) DailyNotes(ctx context.Context) ([]models.DailyNote, error) {
	return m.DailyNotesFunc(ctx)
}
func (m *mockRepo) SavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	return m.SavedLocationsFunc(ctx)
}
func (m *mockRepo) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	return m.VehiclesFunc(ctx)
}
func (m *mockRepo) LocationLogs(ctx context.Context) ([]models.LocationLog, error) {
	return m.LocationLogsFunc(ctx)
}
func (m *mockRepo) Settings(ctx context.Context) (map[string]json.RawMessage, error) {
	return m.SettingsFunc(ctx)
}

// emptyPullRepo returns a repo whose pull side yields empty collections.
func emptyPullRepo() *mockRepo {
	return &mockRepo{
		ProfileFunc:        func(ctx context.Context) (*models.Profile, error) { return nil, nil },
		TimeEntriesFunc:    func(ctx context.Context) ([]models.TimeEntry, error) { return []models.TimeEntry{}, nil },
		MileageEntriesFunc: func(ctx context.Context) ([]models.MileageEntry, error) { return []models.MileageEntry{}, nil },
		FuelLogsFunc:       func(ctx context.Context) ([]models.FuelLog, error) { return []models.FuelLog{}, nil },
		DailyNotesFunc:     func(ctx context.Context) ([]models.DailyNote, error) { return []models.DailyNote{}, nil },
		SavedLocationsFunc: func(ctx context.Context) ([]models.SavedLocation, error) { return []models.SavedLocation{}, nil },
		VehiclesFunc:       func(ctx context.Context) ([]models.Vehicle, error) { return []models.Vehicle{}, nil },
		LocationLogsFunc:   func(ctx context.Context) ([]models.LocationLog, error) { return []models.LocationLog{}, nil },
		SettingsFunc: func(ctx context.Context) (map[string]json.RawMessage, error) {
			return map[string]json.RawMessage{}, nil
		},
	}
}

func TestPull_AssemblesSnapshot(t *testing.T) {
	repo := emptyPullRepo()
	repo.ProfileFunc = func(ctx context.Context) (*models.Profile, error) {
		p := models.DefaultProfile()
		p.Name = "Sam"
		return &p, nil
	}
	repo.TimeEntriesFunc = func(ctx context.Context) ([]models.TimeEntry, error) {
		return []models.TimeEntry{{ID: "t1", StartTime: "2026-08-01T08:00:00Z"}}, nil
	}
	repo.SettingsFunc = func(ctx context.Context) (map[string]json.RawMessage, error) {
		return map[string]json.RawMessage{"customTags": json.RawMessage(`["CA"]`)}, nil
	}

	s := service.NewSyncService(repo)
	snap, err := s.Pull(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Profile == nil || snap.Profile.Name != "Sam" {
		t.Errorf("unexpected profile: %+v", snap.Profile)
	}
	if len(snap.TimeEntries) != 1 || snap.TimeEntries[0].ID != "t1" {
		t.Errorf("unexpected time entries: %+v", snap.TimeEntries)
	}
	if string(snap.Settings["customTags"]) != `["CA"]` {
		t.Errorf("unexpected settings: %+v", snap.Settings)
	}
}

func TestPull_TableErrorFailsWholePull(t *testing.T) {
	repo := emptyPullRepo()
	repo.FuelLogsFunc = func(ctx context.Context) ([]models.FuelLog, error) {
		return nil, errors.New("relation missing")
	}

	s := service.NewSyncService(repo)
	if _, err := s.Pull(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestPush_AppliesInPayloadOrder(t *testing.T) {
	var gotProfile bool
	var gotKeys []string
	var gotSettings []string

	repo := &mockRepo{
		UpsertProfileFunc: func(ctx context.Context, p models.Profile) error {
			gotProfile = true
			return nil
		},
		UpsertItemsFunc: func(ctx context.Context, key string, items []models.Item) error {
			gotKeys = append(gotKeys, key)
			return nil
		},
		UpsertSettingFunc: func(ctx context.Context, key string, value json.RawMessage) error {
			gotSettings = append(gotSettings, key)
			return nil
		},
	}

	profile := models.DefaultProfile()
	req := &models.PushRequest{
		Profile:     &profile,
		TimeEntries: []models.Item{{"id": "t1", "date": "2026-08-01"}},
		FuelLogs:    []models.Item{{"id": "f1", "gallons": 10.0}},
		Settings:    map[string]json.RawMessage{"customTags": json.RawMessage(`[]`)},
	}

	s := service.NewSyncService(repo)
	if err := s.Push(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !gotProfile {
		t.Error("expected profile upsert")
	}
	want := []string{models.ColTimeEntries, models.ColFuelLogs}
	if !reflect.DeepEqual(gotKeys, want) {
		t.Errorf("collections = %v; want %v", gotKeys, want)
	}
	if !reflect.DeepEqual(gotSettings, []string{"customTags"}) {
		t.Errorf("settings = %v; want [customTags]", gotSettings)
	}
}

func TestPush_NilProfileSkipsProfileUpsert(t *testing.T) {
	repo := &mockRepo{
		UpsertProfileFunc: func(ctx context.Context, p models.Profile) error {
			t.Error("profile upsert should not be called")
			return nil
		},
		UpsertItemsFunc: func(ctx context.Context, key string, items []models.Item) error {
			return nil
		},
	}

	s := service.NewSyncService(repo)
	if err := s.Push(context.Background(), &models.PushRequest{
		Vehicles: []models.Item{{"id": "v1", "name": "Truck"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// A mid-push failure aborts the remaining tables but leaves the earlier
// ones applied; no rollback exists.
func TestPush_StopsOnFirstTableError(t *testing.T) {
	var gotKeys []string
	repo := &mockRepo{
		UpsertItemsFunc: func(ctx context.Context, key string, items []models.Item) error {
			gotKeys = append(gotKeys, key)
			if key == models.ColFuelLogs {
				return errors.New("db down")
			}
			return nil
		},
		UpsertSettingFunc: func(ctx context.Context, key string, value json.RawMessage) error {
			t.Error("settings should not be reached after a table failure")
			return nil
		},
	}

	req := &models.PushRequest{
		TimeEntries: []models.Item{{"id": "t1", "date": "2026-08-01"}},
		FuelLogs:    []models.Item{{"id": "f1", "gallons": 10.0}},
		DailyNotes:  []models.Item{{"id": "n1", "content": "x"}},
		Settings:    map[string]json.RawMessage{"customTags": json.RawMessage(`[]`)},
	}

	s := service.NewSyncService(repo)
	if err := s.Push(context.Background(), req); err == nil {
		t.Fatal("expected error, got nil")
	}
	want := []string{models.ColTimeEntries, models.ColFuelLogs}
	if !reflect.DeepEqual(gotKeys, want) {
		t.Errorf("collections = %v; want %v", gotKeys, want)
	}
}

// Package service implements sync business logic, delegating persistence to
// repository interfaces.
package service

import (
	"context"
	"encoding/json"

	"fieldpulse/internal/models"
)

// SyncRepository defines the persistence operations needed by the SyncService.
type SyncRepository interface {
	// Push side. UpsertItems must only touch columns present in each item.
	UpsertProfile(ctx context.Context, p models.Profile) error
	UpsertItems(ctx context.Context, key string, items []models.Item) error
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error

	// Pull side.
	Profile(ctx context.Context) (*models.Profile, error)
	TimeEntries(ctx context.Context) ([]models.TimeEntry, error)
	MileageEntries(ctx context.Context) ([]models.MileageEntry, error)
	FuelLogs(ctx context.Context) ([]models.FuelLog, error)
	DailyNotes(ctx context.Context) ([]models.DailyNote, error)
	SavedLocations(ctx context.Context) ([]models.SavedLocation, error)
	Vehicles(ctx context.Context) ([]models.Vehicle, error)
	LocationLogs(ctx context.Context) ([]models.LocationLog, error)
	Settings(ctx context.Context) (map[string]json.RawMessage, error)
}

// SyncService assembles pull snapshots and applies push snapshots.
type SyncService struct {
	repo SyncRepository
}

// NewSyncService constructs a SyncService with the provided SyncRepository.
func NewSyncService(repo SyncRepository) *SyncService {
	return &SyncService{repo: repo}
}

// Pull reads every collection plus the profile and settings into one
// snapshot. Any table-level failure fails the whole pull; the client treats
// it as a retryable network-class error.
func (s *SyncService) Pull(ctx context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	var err error

	if snap.Profile, err = s.repo.Profile(ctx); err != nil {
		return nil, err
	}
	if snap.TimeEntries, err = s.repo.TimeEntries(ctx); err != nil {
		return nil, err
	}
	if snap.MileageEntries, err = s.repo.MileageEntries(ctx); err != nil {
		return nil, err
	}
	if snap.FuelLogs, err = s.repo.FuelLogs(ctx); err != nil {
		return nil, err
	}
	if snap.DailyNotes, err = s.repo.DailyNotes(ctx); err != nil {
		return nil, err
	}
	if snap.SavedLocations, err = s.repo.SavedLocations(ctx); err != nil {
		return nil, err
	}
	if snap.Vehicles, err = s.repo.Vehicles(ctx); err != nil {
		return nil, err
	}
	if snap.LocationLogs, err = s.repo.LocationLogs(ctx); err != nil {
		return nil, err
	}
	if snap.Settings, err = s.repo.Settings(ctx); err != nil {
		return nil, err
	}
	return snap, nil
}

// Push applies a client snapshot: profile first, then each collection in
// payload order, then settings. Tables are upserted independently, so a
// failure mid-push leaves earlier tables applied. The error names the
// failing step for the caller to log; nothing is rolled back.
func (s *SyncService) Push(ctx context.Context, req *models.PushRequest) error {
	if req.Profile != nil {
		if err := s.repo.UpsertProfile(ctx, *req.Profile); err != nil {
			return err
		}
	}

	for _, key := range models.CollectionKeys {
		items := req.Collection(key)
		if len(items) == 0 {
			continue
		}
		if err := s.repo.UpsertItems(ctx, key, items); err != nil {
			return err
		}
	}

	for key, value := range req.Settings {
		if err := s.repo.UpsertSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

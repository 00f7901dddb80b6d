package store

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldpulse/internal/models"
)

func TestMergeRemote_UnionByID_LocalWins(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "storage.json"))
	localID := s.AddFuelLog(models.FuelLog{Gallons: 10, CostPerGallon: 3.5, Station: "Local Shell"})

	remote := &models.Snapshot{
		FuelLogs: []models.FuelLog{
			// Same id with different fields: must not overwrite local.
			{ID: localID, Gallons: 99, Station: "Remote Station"},
			{ID: "remote-1", Gallons: 8, CostPerGallon: 3, TotalCost: 24, Station: "Chevron"},
		},
	}
	s.MergeRemote(remote)

	logs := s.FuelLogs()
	require.Len(t, logs, 2)

	byID := map[string]models.FuelLog{}
	for _, l := range logs {
		byID[l.ID] = l
	}
	assert.Equal(t, "Local Shell", byID[localID].Station)
	assert.Equal(t, 10.0, byID[localID].Gallons)
	assert.Equal(t, "Chevron", byID["remote-1"].Station)
}

func TestMergeRemote_ProfileAndSettingsServerWin(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "storage.json"))
	p := s.Profile()
	p.Name = "Local Name"
	s.SetProfile(p)
	s.AddTag("LocalOnly")

	remoteProfile := models.DefaultProfile()
	remoteProfile.Name = "Server Name"
	remoteProfile.HourlyRate = 31.25

	s.MergeRemote(&models.Snapshot{
		Profile: &remoteProfile,
		Settings: map[string]json.RawMessage{
			SettingCustomTags:    json.RawMessage(`["CA","FL"]`),
			SettingPinnedNoteIDs: json.RawMessage(`["n9"]`),
		},
	})

	assert.Equal(t, "Server Name", s.Profile().Name)
	assert.Equal(t, 31.25, s.Profile().HourlyRate)
	assert.Equal(t, []string{"CA", "FL"}, s.CustomTags())
	assert.Equal(t, []string{"n9"}, s.PinnedNoteIDs())
}

func TestMergeRemote_NilProfileKeepsLocal(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "storage.json"))
	p := s.Profile()
	p.Name = "Keep Me"
	s.SetProfile(p)

	s.MergeRemote(&models.Snapshot{})
	assert.Equal(t, "Keep Me", s.Profile().Name)
}

func TestMergeRemote_HydratesEmptyStore(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "storage.json"))
	end := "2026-08-01T17:00:00Z"
	s.MergeRemote(&models.Snapshot{
		TimeEntries: []models.TimeEntry{
			{ID: "t1", StartTime: "2026-08-01T08:00:00Z", EndTime: &end, Date: "2026-08-01"},
		},
		Vehicles: []models.Vehicle{{ID: "v1", Name: "Truck"}},
	})

	require.Len(t, s.TimeEntries(), 1)
	assert.Equal(t, "t1", s.TimeEntries()[0].ID)
	require.Len(t, s.Vehicles(), 1)
}

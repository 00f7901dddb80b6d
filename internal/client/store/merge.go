package store

import (
	"encoding/json"

	"fieldpulse/internal/models"
)

// MergeRemote reconciles a pulled server snapshot into the store. Profile
// and settings are overwritten (server wins); collections are merged by id
// union: a remote record is appended only when its id is not already present
// locally, and an id collision keeps the local record untouched. There is no
// field-level merge and no timestamp comparison.
func (s *Store) MergeRemote(snap *models.Snapshot) {
	s.mu.Lock()

	if snap.Profile != nil {
		s.state.Profile = *snap.Profile
	}

	if raw, ok := snap.Settings[SettingCustomTags]; ok {
		var tags []string
		if err := json.Unmarshal(raw, &tags); err == nil {
			s.state.CustomTags = tags
		}
	}
	if raw, ok := snap.Settings[SettingPinnedNoteIDs]; ok {
		var ids []string
		if err := json.Unmarshal(raw, &ids); err == nil {
			s.state.PinnedNoteIDs = ids
		}
	}

	s.state.TimeEntries = unionByID(s.state.TimeEntries, snap.TimeEntries,
		func(e models.TimeEntry) string { return e.ID })
	s.state.MileageEntries = unionByID(s.state.MileageEntries, snap.MileageEntries,
		func(e models.MileageEntry) string { return e.ID })
	s.state.FuelLogs = unionByID(s.state.FuelLogs, snap.FuelLogs,
		func(l models.FuelLog) string { return l.ID })
	s.state.DailyNotes = unionByID(s.state.DailyNotes, snap.DailyNotes,
		func(n models.DailyNote) string { return n.ID })
	s.state.SavedLocations = unionByID(s.state.SavedLocations, snap.SavedLocations,
		func(l models.SavedLocation) string { return l.ID })
	s.state.Vehicles = unionByID(s.state.Vehicles, snap.Vehicles,
		func(v models.Vehicle) string { return v.ID })
	s.state.LocationLogs = unionByID(s.state.LocationLogs, snap.LocationLogs,
		func(l models.LocationLog) string { return l.ID })

	s.mu.Unlock()
	s.notify()
}

// unionByID appends every remote record whose id is absent locally.
func unionByID[T any](local, remote []T, key func(T) string) []T {
	seen := make(map[string]struct{}, len(local))
	for _, item := range local {
		seen[key(item)] = struct{}{}
	}
	for _, item := range remote {
		if _, ok := seen[key(item)]; !ok {
			local = append(local, item)
		}
	}
	return local
}

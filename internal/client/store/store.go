// Package store holds the canonical client-side state: every synchronized
// collection plus the ephemeral timer/trip flags and local-only extras
// (streak, recent stations). It is the single source of truth for the UI;
// the sync engine observes it through a change callback.
package store

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldpulse/internal/models"
)

// Settings keys persisted to the server's settings table.
const (
	SettingCustomTags    = "customTags"
	SettingPinnedNoteIDs = "pinnedNoteIds"
)

// State is the persisted client document. It is restored verbatim on start,
// so a running timer or trip survives a restart.
type State struct {
	Profile models.Profile `json:"profile"`

	ActiveTimerStart *string  `json:"activeTimerStart"`
	IsTimerRunning   bool     `json:"isTimerRunning"`
	ActiveTripStart  *float64 `json:"activeTripStart"`
	IsTripRunning    bool     `json:"isTripRunning"`

	TimeEntries    []models.TimeEntry    `json:"timeEntries"`
	MileageEntries []models.MileageEntry `json:"mileageEntries"`
	FuelLogs       []models.FuelLog      `json:"fuelLogs"`
	DailyNotes     []models.DailyNote    `json:"dailyNotes"`
	SavedLocations []models.SavedLocation `json:"savedLocations"`
	Vehicles       []models.Vehicle      `json:"vehicles"`
	LocationLogs   []models.LocationLog  `json:"locationLogs"`

	CustomTags    []string `json:"customTags"`
	PinnedNoteIDs []string `json:"pinnedNoteIds"`

	// Local-only: never included in sync payloads.
	RecentStations []string `json:"recentStations"`
	StreakCount    int      `json:"streakCount"`
	LastLogDate    *string  `json:"lastLogDate"`
}

// defaultTags seeds a fresh store with the stock tag set.
var defaultTags = []string{
	"CA", "FL", "TX", "NY", "Advance", "Travel", "Office",
	"Field", "Per Diem", "Jobsite", "Meeting",
}

// Store is the mutex-guarded state container. All mutations are synchronous
// and fire the subscribed change callbacks before returning.
type Store struct {
	mu          sync.Mutex
	state       State
	path        string
	subscribers []func()

	// now is swappable for tests.
	now func() time.Time
}

// New creates a Store with default state, persisted at path.
func New(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
		state: State{
			Profile:    models.DefaultProfile(),
			CustomTags: append([]string(nil), defaultTags...),
		},
	}
}

// Subscribe registers a callback fired after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// notify must be called without the lock held.
func (s *Store) notify() {
	s.mu.Lock()
	subs := append([]func(){}, s.subscribers...)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

func (s *Store) today() string {
	return s.now().Format("2006-01-02")
}

// newID returns a fresh collection-unique identifier.
func newID() string {
	return uuid.NewString()
}

// Snapshot assembles the full sync payload from the current state. Local-only
// fields (streak, recent stations, running flags) are not part of it.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile := s.state.Profile
	tags, _ := json.Marshal(s.state.CustomTags)
	pinned, _ := json.Marshal(s.state.PinnedNoteIDs)

	return models.Snapshot{
		Profile:        &profile,
		TimeEntries:    append([]models.TimeEntry(nil), s.state.TimeEntries...),
		MileageEntries: append([]models.MileageEntry(nil), s.state.MileageEntries...),
		FuelLogs:       append([]models.FuelLog(nil), s.state.FuelLogs...),
		DailyNotes:     append([]models.DailyNote(nil), s.state.DailyNotes...),
		SavedLocations: append([]models.SavedLocation(nil), s.state.SavedLocations...),
		Vehicles:       append([]models.Vehicle(nil), s.state.Vehicles...),
		LocationLogs:   append([]models.LocationLog(nil), s.state.LocationLogs...),
		Settings: map[string]json.RawMessage{
			SettingCustomTags:    tags,
			SettingPinnedNoteIDs: pinned,
		},
	}
}

// Profile returns a copy of the current profile.
func (s *Store) Profile() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Profile
}

// SetProfile replaces the profile wholesale.
func (s *Store) SetProfile(p models.Profile) {
	s.mu.Lock()
	s.state.Profile = p
	s.mu.Unlock()
	s.notify()
}

// --- Timer ---

// TimerRunning reports whether a shift timer is active and since when.
func (s *Store) TimerRunning() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsTimerRunning || s.state.ActiveTimerStart == nil {
		return false, ""
	}
	return true, *s.state.ActiveTimerStart
}

// StartTimer begins a shift. Starting while one is running overwrites the
// previous start value.
func (s *Store) StartTimer() {
	start := s.now().UTC().Format(time.RFC3339)
	s.mu.Lock()
	s.state.ActiveTimerStart = &start
	s.state.IsTimerRunning = true
	s.mu.Unlock()
	s.notify()
}

// StopTimer finalizes the running shift into a TimeEntry and returns its id.
// Worked hours are the elapsed time minus breakMinutes; the entry is flagged
// overtime when worked hours exceed the profile threshold. Returns "" if no
// timer is running.
func (s *Store) StopTimer(breakMinutes int) string {
	s.mu.Lock()
	if !s.state.IsTimerRunning || s.state.ActiveTimerStart == nil {
		s.mu.Unlock()
		return ""
	}

	startStr := *s.state.ActiveTimerStart
	end := s.now().UTC()
	endStr := end.Format(time.RFC3339)

	hours := 0.0
	if start, err := time.Parse(time.RFC3339, startStr); err == nil {
		hours = end.Sub(start).Hours() - float64(breakMinutes)/60
	}

	var rate *float64
	if s.state.Profile.HourlyRate != 0 {
		r := s.state.Profile.HourlyRate
		rate = &r
	}

	entry := models.TimeEntry{
		ID:           newID(),
		StartTime:    startStr,
		EndTime:      &endStr,
		BreakMinutes: breakMinutes,
		Notes:        "",
		Tags:         []string{},
		Date:         s.today(),
		IsOvertime:   hours > s.state.Profile.OvertimeThreshold,
		HourlyRate:   rate,
	}
	s.state.TimeEntries = append([]models.TimeEntry{entry}, s.state.TimeEntries...)
	s.state.ActiveTimerStart = nil
	s.state.IsTimerRunning = false
	s.updateStreakLocked()
	s.mu.Unlock()
	s.notify()
	return entry.ID
}

// --- Trip ---

// TripRunning reports whether a trip is active and its start odometer.
func (s *Store) TripRunning() (bool, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsTripRunning || s.state.ActiveTripStart == nil {
		return false, 0
	}
	return true, *s.state.ActiveTripStart
}

// StartTrip begins a mileage trip at the given odometer reading. Only one
// trip runs at a time; starting again overwrites the pending start value.
func (s *Store) StartTrip(startMileage float64) {
	s.mu.Lock()
	s.state.ActiveTripStart = &startMileage
	s.state.IsTripRunning = true
	s.mu.Unlock()
	s.notify()
}

// EndTrip finalizes the running trip into a MileageEntry and returns its id,
// or "" if no trip is running.
func (s *Store) EndTrip(endMileage float64) string {
	s.mu.Lock()
	if !s.state.IsTripRunning || s.state.ActiveTripStart == nil {
		s.mu.Unlock()
		return ""
	}
	start := *s.state.ActiveTripStart
	end := endMileage
	entry := models.MileageEntry{
		ID:            newID(),
		Date:          s.today(),
		StartMileage:  start,
		EndMileage:    &end,
		TripMiles:     end - start,
		StartLocation: "",
		EndLocation:   "",
		Notes:         "",
		Purpose:       "work",
	}
	s.state.MileageEntries = append([]models.MileageEntry{entry}, s.state.MileageEntries...)
	s.state.ActiveTripStart = nil
	s.state.IsTripRunning = false
	s.updateStreakLocked()
	s.mu.Unlock()
	s.notify()
	return entry.ID
}

// --- Collections ---

// TimeEntries returns a copy of the time entries, most recent first.
func (s *Store) TimeEntries() []models.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TimeEntry(nil), s.state.TimeEntries...)
}

// AddTimeEntry stores the entry under a fresh id and returns it.
func (s *Store) AddTimeEntry(e models.TimeEntry) string {
	e.ID = newID()
	s.mu.Lock()
	s.state.TimeEntries = append([]models.TimeEntry{e}, s.state.TimeEntries...)
	s.mu.Unlock()
	s.notify()
	return e.ID
}

// UpdateTimeEntry applies fn to the matching entry; no-op if id is absent.
func (s *Store) UpdateTimeEntry(id string, fn func(*models.TimeEntry)) {
	s.mu.Lock()
	for i := range s.state.TimeEntries {
		if s.state.TimeEntries[i].ID == id {
			fn(&s.state.TimeEntries[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteTimeEntry removes the matching entry; no-op if id is absent. The
// removal only affects local state: the server row, if any, is not deleted
// on the next push.
func (s *Store) DeleteTimeEntry(id string) {
	s.mu.Lock()
	s.state.TimeEntries = deleteByID(s.state.TimeEntries, id, func(e models.TimeEntry) string { return e.ID })
	s.mu.Unlock()
	s.notify()
}

// MileageEntries returns a copy of the mileage entries, most recent first.
func (s *Store) MileageEntries() []models.MileageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.MileageEntry(nil), s.state.MileageEntries...)
}

// AddMileageEntry stores the entry under a fresh id and returns it.
func (s *Store) AddMileageEntry(e models.MileageEntry) string {
	e.ID = newID()
	s.mu.Lock()
	s.state.MileageEntries = append([]models.MileageEntry{e}, s.state.MileageEntries...)
	s.mu.Unlock()
	s.notify()
	return e.ID
}

// UpdateMileageEntry applies fn to the matching entry; no-op if id is absent.
func (s *Store) UpdateMileageEntry(id string, fn func(*models.MileageEntry)) {
	s.mu.Lock()
	for i := range s.state.MileageEntries {
		if s.state.MileageEntries[i].ID == id {
			fn(&s.state.MileageEntries[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteMileageEntry removes the matching entry; no-op if id is absent.
func (s *Store) DeleteMileageEntry(id string) {
	s.mu.Lock()
	s.state.MileageEntries = deleteByID(s.state.MileageEntries, id, func(e models.MileageEntry) string { return e.ID })
	s.mu.Unlock()
	s.notify()
}

// FuelLogs returns a copy of the fuel logs, most recent first.
func (s *Store) FuelLogs() []models.FuelLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FuelLog(nil), s.state.FuelLogs...)
}

// AddFuelLog stores the log under a fresh id, computing TotalCost from
// gallons and unit price, and returns the id.
func (s *Store) AddFuelLog(l models.FuelLog) string {
	l.ID = newID()
	l.TotalCost = l.Gallons * l.CostPerGallon
	s.mu.Lock()
	s.state.FuelLogs = append([]models.FuelLog{l}, s.state.FuelLogs...)
	if l.Station != "" {
		s.addRecentStationLocked(l.Station)
	}
	s.updateStreakLocked()
	s.mu.Unlock()
	s.notify()
	return l.ID
}

// UpdateFuelLog applies fn to the matching log; no-op if id is absent.
func (s *Store) UpdateFuelLog(id string, fn func(*models.FuelLog)) {
	s.mu.Lock()
	for i := range s.state.FuelLogs {
		if s.state.FuelLogs[i].ID == id {
			fn(&s.state.FuelLogs[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteFuelLog removes the matching log; no-op if id is absent.
func (s *Store) DeleteFuelLog(id string) {
	s.mu.Lock()
	s.state.FuelLogs = deleteByID(s.state.FuelLogs, id, func(l models.FuelLog) string { return l.ID })
	s.mu.Unlock()
	s.notify()
}

// DailyNotes returns a copy of the daily notes, most recent first.
func (s *Store) DailyNotes() []models.DailyNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.DailyNote(nil), s.state.DailyNotes...)
}

// AddDailyNote stores the note under a fresh id with creation timestamps and
// returns the id.
func (s *Store) AddDailyNote(n models.DailyNote) string {
	n.ID = newID()
	nowStr := s.now().UTC().Format(time.RFC3339)
	if n.CreatedAt == "" {
		n.CreatedAt = nowStr
	}
	if n.UpdatedAt == "" {
		n.UpdatedAt = nowStr
	}
	if n.Date == "" {
		n.Date = s.today()
	}
	s.mu.Lock()
	s.state.DailyNotes = append([]models.DailyNote{n}, s.state.DailyNotes...)
	s.mu.Unlock()
	s.notify()
	return n.ID
}

// UpdateDailyNote applies fn to the matching note and refreshes its
// UpdatedAt; no-op if id is absent.
func (s *Store) UpdateDailyNote(id string, fn func(*models.DailyNote)) {
	s.mu.Lock()
	for i := range s.state.DailyNotes {
		if s.state.DailyNotes[i].ID == id {
			fn(&s.state.DailyNotes[i])
			s.state.DailyNotes[i].UpdatedAt = s.now().UTC().Format(time.RFC3339)
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteDailyNote removes the matching note and its pin; no-op if id is
// absent.
func (s *Store) DeleteDailyNote(id string) {
	s.mu.Lock()
	s.state.DailyNotes = deleteByID(s.state.DailyNotes, id, func(n models.DailyNote) string { return n.ID })
	s.state.PinnedNoteIDs = removeString(s.state.PinnedNoteIDs, id)
	s.mu.Unlock()
	s.notify()
}

// SavedLocations returns a copy of the saved locations.
func (s *Store) SavedLocations() []models.SavedLocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SavedLocation(nil), s.state.SavedLocations...)
}

// AddLocation stores the location under a fresh id and returns it.
func (s *Store) AddLocation(l models.SavedLocation) string {
	l.ID = newID()
	s.mu.Lock()
	s.state.SavedLocations = append([]models.SavedLocation{l}, s.state.SavedLocations...)
	s.mu.Unlock()
	s.notify()
	return l.ID
}

// RemoveLocation removes the matching location; no-op if id is absent.
func (s *Store) RemoveLocation(id string) {
	s.mu.Lock()
	s.state.SavedLocations = deleteByID(s.state.SavedLocations, id, func(l models.SavedLocation) string { return l.ID })
	s.mu.Unlock()
	s.notify()
}

// Vehicles returns a copy of the vehicles.
func (s *Store) Vehicles() []models.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Vehicle(nil), s.state.Vehicles...)
}

// AddVehicle stores the vehicle under a fresh id and returns it.
func (s *Store) AddVehicle(v models.Vehicle) string {
	v.ID = newID()
	s.mu.Lock()
	s.state.Vehicles = append([]models.Vehicle{v}, s.state.Vehicles...)
	s.mu.Unlock()
	s.notify()
	return v.ID
}

// UpdateVehicle applies fn to the matching vehicle; no-op if id is absent.
func (s *Store) UpdateVehicle(id string, fn func(*models.Vehicle)) {
	s.mu.Lock()
	for i := range s.state.Vehicles {
		if s.state.Vehicles[i].ID == id {
			fn(&s.state.Vehicles[i])
			break
		}
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteVehicle removes the matching vehicle; no-op if id is absent.
func (s *Store) DeleteVehicle(id string) {
	s.mu.Lock()
	s.state.Vehicles = deleteByID(s.state.Vehicles, id, func(v models.Vehicle) string { return v.ID })
	s.mu.Unlock()
	s.notify()
}

// LocationLogs returns a copy of the shift location pins.
func (s *Store) LocationLogs() []models.LocationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.LocationLog(nil), s.state.LocationLogs...)
}

// AddLocationLog stores the pin under a fresh id and returns it.
func (s *Store) AddLocationLog(l models.LocationLog) string {
	l.ID = newID()
	if l.Timestamp == "" {
		l.Timestamp = s.now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	s.state.LocationLogs = append([]models.LocationLog{l}, s.state.LocationLogs...)
	s.mu.Unlock()
	s.notify()
	return l.ID
}

// ClearShiftLocations drops every pin recorded for the given shift.
func (s *Store) ClearShiftLocations(shiftID string) {
	s.mu.Lock()
	kept := s.state.LocationLogs[:0]
	for _, l := range s.state.LocationLogs {
		if l.ShiftID == nil || *l.ShiftID != shiftID {
			kept = append(kept, l)
		}
	}
	s.state.LocationLogs = kept
	s.mu.Unlock()
	s.notify()
}

// --- Tags, pins, stations, streak ---

// CustomTags returns a copy of the tag list.
func (s *Store) CustomTags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.CustomTags...)
}

// AddTag appends a tag if not already present.
func (s *Store) AddTag(tag string) {
	s.mu.Lock()
	found := false
	for _, t := range s.state.CustomTags {
		if t == tag {
			found = true
			break
		}
	}
	if !found {
		s.state.CustomTags = append(s.state.CustomTags, tag)
	}
	s.mu.Unlock()
	if !found {
		s.notify()
	}
}

// RemoveTag drops a tag from the list.
func (s *Store) RemoveTag(tag string) {
	s.mu.Lock()
	s.state.CustomTags = removeString(s.state.CustomTags, tag)
	s.mu.Unlock()
	s.notify()
}

// PinnedNoteIDs returns a copy of the pinned note id list.
func (s *Store) PinnedNoteIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.PinnedNoteIDs...)
}

// TogglePinNote pins the note if unpinned, unpins it otherwise.
func (s *Store) TogglePinNote(id string) {
	s.mu.Lock()
	pinned := false
	for _, p := range s.state.PinnedNoteIDs {
		if p == id {
			pinned = true
			break
		}
	}
	if pinned {
		s.state.PinnedNoteIDs = removeString(s.state.PinnedNoteIDs, id)
	} else {
		s.state.PinnedNoteIDs = append(s.state.PinnedNoteIDs, id)
	}
	s.mu.Unlock()
	s.notify()
}

// RecentStations returns the last fuel stations used, most recent first.
func (s *Store) RecentStations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.state.RecentStations...)
}

// addRecentStationLocked moves station to the front, capped at 5.
func (s *Store) addRecentStationLocked(station string) {
	list := []string{station}
	for _, st := range s.state.RecentStations {
		if st != station {
			list = append(list, st)
		}
	}
	if len(list) > 5 {
		list = list[:5]
	}
	s.state.RecentStations = list
}

// Streak returns the current consecutive-day logging streak.
func (s *Store) Streak() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.StreakCount
}

// updateStreakLocked bumps the streak once per day: +1 if the last log was
// yesterday, reset to 1 otherwise.
func (s *Store) updateStreakLocked() {
	todayStr := s.today()
	if s.state.LastLogDate != nil && *s.state.LastLogDate == todayStr {
		return
	}
	yesterday := s.now().AddDate(0, 0, -1).Format("2006-01-02")
	if s.state.LastLogDate != nil && *s.state.LastLogDate == yesterday {
		s.state.StreakCount++
	} else {
		s.state.StreakCount = 1
	}
	s.state.LastLogDate = &todayStr
}

// --- helpers ---

func deleteByID[T any](list []T, id string, key func(T) string) []T {
	kept := list[:0]
	for _, item := range list {
		if key(item) != id {
			kept = append(kept, item)
		}
	}
	return kept
}

func removeString(list []string, v string) []string {
	kept := list[:0]
	for _, s := range list {
		if s != v {
			kept = append(kept, s)
		}
	}
	return kept
}

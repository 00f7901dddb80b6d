package models

import "encoding/json"

// Collection keys as they appear in the sync payload. The push and pull
// sides iterate collections in this order.
const (
	ColTimeEntries    = "timeEntries"
	ColMileageEntries = "mileageEntries"
	ColFuelLogs       = "fuelLogs"
	ColDailyNotes     = "dailyNotes"
	ColSavedLocations = "savedLocations"
	ColVehicles       = "vehicles"
	ColLocationLogs   = "locationLogs"
)

// CollectionKeys lists every synchronized collection in payload order.
var CollectionKeys = []string{
	ColTimeEntries, ColMileageEntries, ColFuelLogs, ColDailyNotes,
	ColSavedLocations, ColVehicles, ColLocationLogs,
}

// Snapshot is the full typed client state as it travels over the wire:
// the POST /sync body and the `data` object of the GET /sync response.
type Snapshot struct {
	Profile        *Profile                   `json:"profile,omitempty"`
	TimeEntries    []TimeEntry                `json:"timeEntries"`
	MileageEntries []MileageEntry             `json:"mileageEntries"`
	FuelLogs       []FuelLog                  `json:"fuelLogs"`
	DailyNotes     []DailyNote                `json:"dailyNotes"`
	SavedLocations []SavedLocation            `json:"savedLocations"`
	Vehicles       []Vehicle                  `json:"vehicles"`
	LocationLogs   []LocationLog              `json:"locationLogs"`
	Settings       map[string]json.RawMessage `json:"settings"`
}

// Item is one collection record as received on push, kept as a raw map so
// the repository can distinguish an absent field from a zero one. Only
// fields present in the map are written; omitted fields leave the stored
// column untouched.
type Item map[string]any

// PushRequest is the POST /sync body as the server sees it. Collections stay
// untyped to preserve field presence for partial upserts.
type PushRequest struct {
	Profile        *Profile                   `json:"profile"`
	TimeEntries    []Item                     `json:"timeEntries"`
	MileageEntries []Item                     `json:"mileageEntries"`
	FuelLogs       []Item                     `json:"fuelLogs"`
	DailyNotes     []Item                     `json:"dailyNotes"`
	SavedLocations []Item                     `json:"savedLocations"`
	Vehicles       []Item                     `json:"vehicles"`
	LocationLogs   []Item                     `json:"locationLogs"`
	Settings       map[string]json.RawMessage `json:"settings"`
}

// Collection returns the raw items for the named collection key.
func (r *PushRequest) Collection(key string) []Item {
	switch key {
	case ColTimeEntries:
		return r.TimeEntries
	case ColMileageEntries:
		return r.MileageEntries
	case ColFuelLogs:
		return r.FuelLogs
	case ColDailyNotes:
		return r.DailyNotes
	case ColSavedLocations:
		return r.SavedLocations
	case ColVehicles:
		return r.Vehicles
	case ColLocationLogs:
		return r.LocationLogs
	}
	return nil
}

// Package models defines the synchronized field-work entities shared by the
// client store and the sync server. The JSON shape here is the wire shape:
// push payloads and pull responses use the same camel-case fields, and the
// repository layer is the only place they are translated to column names.
package models

// ProfileID is the fixed primary key of the singleton profile row.
const ProfileID = "default"

// TimeEntry is a finished (or imported) work shift.
type TimeEntry struct {
	ID string `json:"id"`
	// StartTime and EndTime are ISO 8601 strings; EndTime is nil while the
	// shift is still active (active shifts live only in the client store).
	StartTime    string   `json:"startTime"`
	EndTime      *string  `json:"endTime"`
	BreakMinutes int      `json:"breakMinutes"`
	Notes        string   `json:"notes"`
	Tags         []string `json:"tags"`
	// Date is the shift day in YYYY-MM-DD form.
	Date       string   `json:"date"`
	IsOvertime bool     `json:"isOvertime"`
	HourlyRate *float64 `json:"hourlyRate"`
}

// MileageEntry is one recorded trip. TripMiles is computed when the trip is
// finalized and stored, not re-derived on read.
type MileageEntry struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	StartMileage      float64  `json:"startMileage"`
	EndMileage        *float64 `json:"endMileage"`
	TripMiles         float64  `json:"tripMiles"`
	StartLocation     string   `json:"startLocation"`
	EndLocation       string   `json:"endLocation"`
	Notes             string   `json:"notes"`
	LinkedTimeEntryID *string  `json:"linkedTimeEntryId"`
	// Purpose is one of "work", "personal", "commute".
	Purpose string `json:"purpose"`
}

// FuelLog is one fill-up. TotalCost = Gallons * CostPerGallon at write time.
type FuelLog struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Mileage       float64 `json:"mileage"`
	Gallons       float64 `json:"gallons"`
	CostPerGallon float64 `json:"costPerGallon"`
	TotalCost     float64 `json:"totalCost"`
	Station       string  `json:"station"`
	Notes         string  `json:"notes"`
	ReceiptPhoto  *string `json:"receiptPhoto"`
	// FuelType is one of "regular", "mid", "premium", "diesel".
	FuelType string `json:"fuelType"`
}

// DailyNote is a free-form journal entry for one day.
type DailyNote struct {
	ID        string   `json:"id"`
	Date      string   `json:"date"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	WhatIDid  string   `json:"whatIDid"`
	CreatedAt string   `json:"createdAt"`
	UpdatedAt string   `json:"updatedAt"`
	// Mood is one of "great", "good", "okay", "tough", or nil.
	Mood    *string `json:"mood"`
	Weather *string `json:"weather"`
}

// SavedLocation is a named address the user logs trips against.
type SavedLocation struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Lat        *float64 `json:"lat"`
	Lng        *float64 `json:"lng"`
	UsageCount int      `json:"usageCount"`
	LastUsed   string   `json:"lastUsed"`
}

// Vehicle is one of the user's vehicles.
type Vehicle struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	Year         int    `json:"year"`
	Color        string `json:"color"`
	LicensePlate string `json:"licensePlate"`
	IsDefault    bool   `json:"isDefault"`
}

// LocationLog is a geo pin captured during a shift.
type LocationLog struct {
	ID        string  `json:"id"`
	ShiftID   *string `json:"shiftId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	PlaceName string  `json:"placeName"`
	PlaceType string  `json:"placeType"`
	Timestamp string  `json:"timestamp"`
}

// WeeklyGoal holds the user's weekly targets.
type WeeklyGoal struct {
	HoursTarget int `json:"hoursTarget"`
	MilesTarget int `json:"milesTarget"`
	FuelBudget  int `json:"fuelBudget"`
}

// Profile is the singleton user profile. It is upserted wholesale on every
// push; there is exactly one row on the server, keyed by ProfileID.
type Profile struct {
	Name               string     `json:"name"`
	Company            string     `json:"company"`
	Role               string     `json:"role"`
	DefaultStartHour   int        `json:"defaultStartHour"`
	DefaultEndHour     int        `json:"defaultEndHour"`
	MileageUnit        string     `json:"mileageUnit"`
	FuelUnit           string     `json:"fuelUnit"`
	OnboardingComplete bool       `json:"onboardingComplete"`
	HourlyRate         float64    `json:"hourlyRate"`
	OvertimeThreshold  float64    `json:"overtimeThreshold"`
	OvertimeMultiplier float64    `json:"overtimeMultiplier"`
	WeeklyGoal         WeeklyGoal `json:"weeklyGoal"`
	Currency           string     `json:"currency"`
	DateFormat         string     `json:"dateFormat"`
}

// DefaultProfile returns the profile a fresh client starts with.
func DefaultProfile() Profile {
	return Profile{
		DefaultStartHour:   7,
		DefaultEndHour:     17,
		MileageUnit:        "miles",
		FuelUnit:           "gallons",
		HourlyRate:         0,
		OvertimeThreshold:  8,
		OvertimeMultiplier: 1.5,
		WeeklyGoal:         WeeklyGoal{HoursTarget: 40, MilesTarget: 500, FuelBudget: 200},
		Currency:           "USD",
		DateFormat:         "US",
	}
}

// Package repository persists sync snapshots in PostgreSQL. It is the only
// layer that knows the storage column names; everything above it speaks the
// camel-case wire shape.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"fieldpulse/internal/models"
)

// column pairs a wire field name with its storage column.
type column struct {
	field string
	name  string
}

// table describes how one collection maps onto its storage table. Columns
// are ordered; the upsert statement binds them in this order so generated
// SQL is deterministic.
type table struct {
	name    string
	columns []column
	// byCreatedAt orders pull results most-recent-first for collections
	// that carry a created_at column.
	byCreatedAt bool
}

var tables = map[string]table{
	models.ColTimeEntries: {
		name:        "fp_time_entries",
		byCreatedAt: true,
		columns: []column{
			{"id", "id"}, {"startTime", "start_time"}, {"endTime", "end_time"},
			{"breakMinutes", "break_minutes"}, {"notes", "notes"}, {"tags", "tags"},
			{"date", "date"}, {"isOvertime", "is_overtime"}, {"hourlyRate", "hourly_rate"},
		},
	},
	models.ColMileageEntries: {
		name:        "fp_mileage_entries",
		byCreatedAt: true,
		columns: []column{
			{"id", "id"}, {"date", "date"}, {"startMileage", "start_mileage"},
			{"endMileage", "end_mileage"}, {"tripMiles", "trip_miles"},
			{"startLocation", "start_location"}, {"endLocation", "end_location"},
			{"notes", "notes"}, {"linkedTimeEntryId", "linked_time_entry_id"},
			{"purpose", "purpose"},
		},
	},
	models.ColFuelLogs: {
		name:        "fp_fuel_logs",
		byCreatedAt: true,
		columns: []column{
			{"id", "id"}, {"date", "date"}, {"time", "time"}, {"mileage", "mileage"},
			{"gallons", "gallons"}, {"costPerGallon", "cost_per_gallon"},
			{"totalCost", "total_cost"}, {"station", "station"}, {"notes", "notes"},
			{"receiptPhoto", "receipt_photo"}, {"fuelType", "fuel_type"},
		},
	},
	models.ColDailyNotes: {
		name:        "fp_daily_notes",
		byCreatedAt: true,
		columns: []column{
			{"id", "id"}, {"date", "date"}, {"content", "content"}, {"tags", "tags"},
			{"whatIDid", "what_i_did"}, {"createdAt", "created_at"},
			{"updatedAt", "updated_at"}, {"mood", "mood"}, {"weather", "weather"},
		},
	},
	models.ColSavedLocations: {
		name: "fp_saved_locations",
		columns: []column{
			{"id", "id"}, {"name", "name"}, {"address", "address"},
			{"lat", "lat"}, {"lng", "lng"}, {"usageCount", "usage_count"},
			{"lastUsed", "last_used"},
		},
	},
	models.ColVehicles: {
		name: "fp_vehicles",
		columns: []column{
			{"id", "id"}, {"name", "name"}, {"make", "make"}, {"model", "model"},
			{"year", "year"}, {"color", "color"}, {"licensePlate", "license_plate"},
			{"isDefault", "is_default"},
		},
	},
	models.ColLocationLogs: {
		name: "fp_location_logs",
		columns: []column{
			{"id", "id"}, {"shiftId", "shift_id"}, {"lat", "lat"}, {"lng", "lng"},
			{"placeName", "place_name"}, {"placeType", "place_type"},
			{"timestamp", "timestamp"},
		},
	},
}

// PostgresSyncRepository implements snapshot persistence against PostgreSQL.
type PostgresSyncRepository struct {
	DB *sql.DB
}

// NewPostgresSyncRepository creates a repository over the provided *sql.DB.
func NewPostgresSyncRepository(db *sql.DB) *PostgresSyncRepository {
	return &PostgresSyncRepository{DB: db}
}

// UpsertItems writes every item of the named collection with an insert-or-
// update by id. Only fields present in an item are bound, so a partial item
// leaves the other stored columns untouched. Items with no updatable column
// besides the id are skipped.
func (r *PostgresSyncRepository) UpsertItems(ctx context.Context, key string, items []models.Item) error {
	t, ok := tables[key]
	if !ok {
		return fmt.Errorf("unknown collection %q", key)
	}

	for _, item := range items {
		cols := make([]string, 0, len(t.columns))
		vals := make([]any, 0, len(t.columns))
		for _, c := range t.columns {
			v, present := item[c.field]
			if !present {
				continue
			}
			cols = append(cols, c.name)
			vals = append(vals, bindValue(v))
		}

		placeholders := make([]string, len(cols))
		updates := make([]string, 0, len(cols))
		for i, name := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			if name != "id" {
				updates = append(updates, fmt.Sprintf("%s = $%d", name, i+1))
			}
		}
		if len(cols) == 0 || len(updates) == 0 {
			continue
		}

		stmt := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
			t.name, strings.Join(cols, ", "), strings.Join(placeholders, ", "),
			strings.Join(updates, ", "),
		)
		if _, err := r.DB.ExecContext(ctx, stmt, vals...); err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}
	return nil
}

// bindValue converts a decoded JSON value into a driver-friendly one. JSON
// arrays become Postgres text arrays (the only array columns are tag lists).
func bindValue(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	ss := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			ss = append(ss, s)
		}
	}
	return pq.Array(ss)
}

// UpsertProfile replaces the singleton profile row wholesale.
func (r *PostgresSyncRepository) UpsertProfile(ctx context.Context, p models.Profile) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO fp_profile (id, name, company, role, default_start_hour, default_end_hour,
			mileage_unit, fuel_unit, onboarding_complete, hourly_rate, overtime_threshold,
			overtime_multiplier, weekly_goal_hours, weekly_goal_miles, weekly_goal_fuel_budget,
			currency, date_format, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (id) DO UPDATE SET
			name = $2, company = $3, role = $4, default_start_hour = $5, default_end_hour = $6,
			mileage_unit = $7, fuel_unit = $8, onboarding_complete = $9, hourly_rate = $10,
			overtime_threshold = $11, overtime_multiplier = $12, weekly_goal_hours = $13,
			weekly_goal_miles = $14, weekly_goal_fuel_budget = $15, currency = $16,
			date_format = $17, updated_at = NOW()
	`, models.ProfileID, p.Name, p.Company, p.Role, p.DefaultStartHour, p.DefaultEndHour,
		p.MileageUnit, p.FuelUnit, p.OnboardingComplete, p.HourlyRate, p.OvertimeThreshold,
		p.OvertimeMultiplier, p.WeeklyGoal.HoursTarget, p.WeeklyGoal.MilesTarget,
		p.WeeklyGoal.FuelBudget, p.Currency, p.DateFormat)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// UpsertSetting stores one settings value as an opaque JSON blob.
func (r *PostgresSyncRepository) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO fp_settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = $2
	`, key, []byte(value))
	if err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}

// Profile fetches the singleton profile row, or nil if none was ever pushed.
func (r *PostgresSyncRepository) Profile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	err := r.DB.QueryRowContext(ctx, `
		SELECT name, company, role, default_start_hour, default_end_hour,
		       mileage_unit, fuel_unit, onboarding_complete, hourly_rate,
		       overtime_threshold, overtime_multiplier, weekly_goal_hours,
		       weekly_goal_miles, weekly_goal_fuel_budget, currency, date_format
		FROM fp_profile WHERE id = $1
	`, models.ProfileID).Scan(
		&p.Name, &p.Company, &p.Role, &p.DefaultStartHour, &p.DefaultEndHour,
		&p.MileageUnit, &p.FuelUnit, &p.OnboardingComplete, &p.HourlyRate,
		&p.OvertimeThreshold, &p.OvertimeMultiplier, &p.WeeklyGoal.HoursTarget,
		&p.WeeklyGoal.MilesTarget, &p.WeeklyGoal.FuelBudget, &p.Currency, &p.DateFormat,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select profile: %w", err)
	}
	return &p, nil
}

// Settings fetches every stored settings key with its raw JSON value.
func (r *PostgresSyncRepository) Settings(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT key, value FROM fp_settings`)
	if err != nil {
		return nil, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]json.RawMessage)
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = json.RawMessage(value)
	}
	return settings, rows.Err()
}

// TimeEntries fetches all time entries, most recent first.
func (r *PostgresSyncRepository) TimeEntries(ctx context.Context) ([]models.TimeEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, start_time, end_time, break_minutes, notes, tags, date, is_overtime, hourly_rate
		FROM fp_time_entries ORDER BY created_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("select time entries: %w", err)
	}
	defer rows.Close()

	entries := []models.TimeEntry{}
	for rows.Next() {
		var e models.TimeEntry
		var end sql.NullString
		var rate sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.StartTime, &end, &e.BreakMinutes, &e.Notes,
			pq.Array(&e.Tags), &e.Date, &e.IsOvertime, &rate); err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		if end.Valid {
			e.EndTime = &end.String
		}
		if rate.Valid {
			e.HourlyRate = &rate.Float64
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MileageEntries fetches all mileage entries, most recent first.
func (r *PostgresSyncRepository) MileageEntries(ctx context.Context) ([]models.MileageEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, date, start_mileage, end_mileage, trip_miles, start_location,
		       end_location, notes, linked_time_entry_id, purpose
		FROM fp_mileage_entries ORDER BY created_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("select mileage entries: %w", err)
	}
	defer rows.Close()

	entries := []models.MileageEntry{}
	for rows.Next() {
		var e models.MileageEntry
		var end sql.NullFloat64
		var linked sql.NullString
		if err := rows.Scan(&e.ID, &e.Date, &e.StartMileage, &end, &e.TripMiles,
			&e.StartLocation, &e.EndLocation, &e.Notes, &linked, &e.Purpose); err != nil {
			return nil, fmt.Errorf("scan mileage entry: %w", err)
		}
		if end.Valid {
			e.EndMileage = &end.Float64
		}
		if linked.Valid {
			e.LinkedTimeEntryID = &linked.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FuelLogs fetches all fuel logs, most recent first.
func (r *PostgresSyncRepository) FuelLogs(ctx context.Context) ([]models.FuelLog, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, date, time, mileage, gallons, cost_per_gallon, total_cost,
		       station, notes, receipt_photo, fuel_type
		FROM fp_fuel_logs ORDER BY created_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("select fuel logs: %w", err)
	}
	defer rows.Close()

	logs := []models.FuelLog{}
	for rows.Next() {
		var l models.FuelLog
		var photo sql.NullString
		if err := rows.Scan(&l.ID, &l.Date, &l.Time, &l.Mileage, &l.Gallons,
			&l.CostPerGallon, &l.TotalCost, &l.Station, &l.Notes, &photo, &l.FuelType); err != nil {
			return nil, fmt.Errorf("scan fuel log: %w", err)
		}
		if photo.Valid {
			l.ReceiptPhoto = &photo.String
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// DailyNotes fetches all daily notes, most recent first.
func (r *PostgresSyncRepository) DailyNotes(ctx context.Context) ([]models.DailyNote, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, date, content, tags, what_i_did, created_at, updated_at, mood, weather
		FROM fp_daily_notes ORDER BY created_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("select daily notes: %w", err)
	}
	defer rows.Close()

	notes := []models.DailyNote{}
	for rows.Next() {
		var n models.DailyNote
		var mood, weather sql.NullString
		if err := rows.Scan(&n.ID, &n.Date, &n.Content, pq.Array(&n.Tags),
			&n.WhatIDid, &n.CreatedAt, &n.UpdatedAt, &mood, &weather); err != nil {
			return nil, fmt.Errorf("scan daily note: %w", err)
		}
		if mood.Valid {
			n.Mood = &mood.String
		}
		if weather.Valid {
			n.Weather = &weather.String
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// SavedLocations fetches all saved locations.
func (r *PostgresSyncRepository) SavedLocations(ctx context.Context) ([]models.SavedLocation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, address, lat, lng, usage_count, last_used FROM fp_saved_locations
	`)
	if err != nil {
		return nil, fmt.Errorf("select saved locations: %w", err)
	}
	defer rows.Close()

	locations := []models.SavedLocation{}
	for rows.Next() {
		var l models.SavedLocation
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &lat, &lng, &l.UsageCount, &l.LastUsed); err != nil {
			return nil, fmt.Errorf("scan saved location: %w", err)
		}
		if lat.Valid {
			l.Lat = &lat.Float64
		}
		if lng.Valid {
			l.Lng = &lng.Float64
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Vehicles fetches all vehicles.
func (r *PostgresSyncRepository) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, make, model, year, color, license_plate, is_default FROM fp_vehicles
	`)
	if err != nil {
		return nil, fmt.Errorf("select vehicles: %w", err)
	}
	defer rows.Close()

	vehicles := []models.Vehicle{}
	for rows.Next() {
		var v models.Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Make, &v.Model, &v.Year, &v.Color,
			&v.LicensePlate, &v.IsDefault); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// LocationLogs fetches all shift location pins.
func (r *PostgresSyncRepository) LocationLogs(ctx context.Context) ([]models.LocationLog, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, shift_id, lat, lng, place_name, place_type, timestamp FROM fp_location_logs
	`)
	if err != nil {
		return nil, fmt.Errorf("select location logs: %w", err)
	}
	defer rows.Close()

	logs := []models.LocationLog{}
	for rows.Next() {
		var l models.LocationLog
		var shift sql.NullString
		if err := rows.Scan(&l.ID, &shift, &l.Lat, &l.Lng, &l.PlaceName,
			&l.PlaceType, &l.Timestamp); err != nil {
			return nil, fmt.Errorf("scan location log: %w", err)
		}
		if shift.Valid {
			l.ShiftID = &shift.String
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

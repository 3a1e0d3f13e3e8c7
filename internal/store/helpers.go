package store

import (
	"database/sql"
	"errors"
	"time"
)

func scanTrack(scanner interface{ Scan(dest ...any) error }) (*Track, error) {
	var (
		id         int64
		title      string
		artist     string
		filePath   sql.NullString
		bpm        sql.NullFloat64
		key        sql.NullString
		bpmTag     sql.NullFloat64
		keyTag     sql.NullString
		bpmSerato  sql.NullFloat64
		keySerato  sql.NullString
		crateNames sql.NullString
		createdRaw sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&title,
		&artist,
		&filePath,
		&bpm,
		&key,
		&bpmTag,
		&keyTag,
		&bpmSerato,
		&keySerato,
		&crateNames,
		&createdRaw,
	); err != nil {
		return nil, err
	}

	track := &Track{
		ID:         id,
		Title:      title,
		Artist:     artist,
		FilePath:   filePath.String,
		BPM:        floatPtr(bpm),
		Key:        key.String,
		BPMTag:     floatPtr(bpmTag),
		KeyTag:     keyTag.String,
		BPMSerato:  floatPtr(bpmSerato),
		KeySerato:  keySerato.String,
		CrateNames: crateNames.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		track.CreatedAt = created
	}
	return track, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableBPM(value *float64) any {
	if value == nil || *value <= 0 {
		return nil
	}
	return *value
}

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(timestampLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

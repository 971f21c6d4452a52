package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"cragcast/internal/modules/weather/types"
)

//go:embed sql/get-latest-snapshot.sql
var getLatestSnapshotSQL string

//go:embed sql/insert-snapshot.sql
var insertSnapshotSQL string

//go:embed sql/delete-snapshots-before.sql
var deleteSnapshotsBeforeSQL string

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000Z"

type WeatherRepository interface {
	// LatestSnapshot returns the newest snapshot for the location; ok is false
	// when none is stored.
	LatestSnapshot(ctx context.Context, locationKey string) (snap types.Snapshot, ok bool, err error)
	InsertSnapshot(ctx context.Context, snap types.Snapshot) error
	DeleteSnapshotsBefore(ctx context.Context, before time.Time) (int64, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) WeatherRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) LatestSnapshot(ctx context.Context, locationKey string) (types.Snapshot, bool, error) {
	var (
		snap                    types.Snapshot
		ts                      string
		temp, hum, precip, wind sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, getLatestSnapshotSQL, locationKey).
		Scan(&snap.LocationKey, &ts, &temp, &hum, &precip, &wind)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Snapshot{}, false, nil
	}
	if err != nil {
		return types.Snapshot{}, false, fmt.Errorf("latest snapshot %q: %w", locationKey, err)
	}

	snap.FetchedAt, err = time.Parse(timeLayout, ts)
	if err != nil {
		return types.Snapshot{}, false, fmt.Errorf("parse fetched_at %q: %w", ts, err)
	}
	snap.Temperature = fromNull(temp)
	snap.Humidity = fromNull(hum)
	snap.Precipitation = fromNull(precip)
	snap.Windspeed = fromNull(wind)
	return snap, true, nil
}

func (r *repositoryImpl) InsertSnapshot(ctx context.Context, snap types.Snapshot) error {
	if snap.LocationKey == "" {
		return errors.New("insert snapshot: empty location key")
	}
	_, err := r.db.ExecContext(ctx, insertSnapshotSQL,
		snap.LocationKey,
		snap.FetchedAt.UTC().Format(timeLayout),
		toNull(snap.Temperature),
		toNull(snap.Humidity),
		toNull(snap.Precipitation),
		toNull(snap.Windspeed),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *repositoryImpl) DeleteSnapshotsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteSnapshotsBeforeSQL, before.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}
	return res.RowsAffected()
}

func toNull(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

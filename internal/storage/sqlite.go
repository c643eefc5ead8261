package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"cartoon_bot/internal/model"
	"cartoon_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateSeries inserts a new series and populates its ID and CreatedAt.
func (s *SQLite) CreateSeries(ctx context.Context, sr *model.Series) error {
	if sr.LastSeason < 1 {
		sr.LastSeason = 1
	}
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO series (name, channel, thumb_file_id, last_season, last_episode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sr.Name, sr.Channel, sr.ThumbFileID, sr.LastSeason, sr.LastEpisode, now,
	)
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	sr.ID = id
	sr.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetSeries returns a single series by its unique name.
func (s *SQLite) GetSeries(ctx context.Context, name string) (*model.Series, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, channel, thumb_file_id, last_season, last_episode, created_at
		 FROM series WHERE name = ?`, name,
	)
	sr, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sr, err
}

// GetSeriesByID returns a single series by its ID.
func (s *SQLite) GetSeriesByID(ctx context.Context, id int64) (*model.Series, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, channel, thumb_file_id, last_season, last_episode, created_at
		 FROM series WHERE id = ?`, id,
	)
	sr, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sr, err
}

// ListSeries returns all series ordered by name.
func (s *SQLite) ListSeries(ctx context.Context) ([]model.Series, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, channel, thumb_file_id, last_season, last_episode, created_at
		 FROM series ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var list []model.Series
	for rows.Next() {
		sr, err := scanSeries(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *sr)
	}
	return list, rows.Err()
}

// UpdateSeries persists changes to an existing series.
func (s *SQLite) UpdateSeries(ctx context.Context, sr *model.Series) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE series SET channel = ?, thumb_file_id = ?, last_season = ?, last_episode = ?
		 WHERE id = ?`,
		sr.Channel, sr.ThumbFileID, sr.LastSeason, sr.LastEpisode, sr.ID,
	)
	if err != nil {
		return fmt.Errorf("update series: %w", err)
	}
	return nil
}

// DeleteSeries removes a series with its watches and processed markers.
// Already-published media is unaffected.
func (s *SQLite) DeleteSeries(ctx context.Context, name string) error {
	sr, err := s.GetSeries(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM processed_items WHERE series_id = ?`, sr.ID); err != nil {
		return fmt.Errorf("delete processed_items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM watches WHERE series_id = ?`, sr.ID); err != nil {
		return fmt.Errorf("delete watches: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM series WHERE id = ?`, sr.ID); err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return tx.Commit()
}

// CreateWatch inserts a new watch and populates its ID and CreatedAt.
func (s *SQLite) CreateWatch(ctx context.Context, w *model.Watch) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO watches (series_id, feed_url, interval_minutes, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		w.SeriesID, w.FeedURL, w.IntervalMinutes, boolToInt(w.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert watch: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	w.ID = id
	w.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListWatches returns all watches ordered by ID.
func (s *SQLite) ListWatches(ctx context.Context) ([]model.Watch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, series_id, feed_url, interval_minutes, is_active, last_check_at, created_at
		 FROM watches ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query watches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanWatches(rows)
}

// ListDueWatches returns all active watches that are due for checking.
func (s *SQLite) ListDueWatches(ctx context.Context) ([]model.Watch, error) {
	now := time.Now().UTC().Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, series_id, feed_url, interval_minutes, is_active, last_check_at, created_at
		 FROM watches
		 WHERE is_active = 1
		   AND (last_check_at IS NULL
		        OR datetime(last_check_at, '+' || interval_minutes || ' minutes') <= datetime(?))`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("query due watches: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanWatches(rows)
}

// UpdateWatch persists changes to an existing watch.
func (s *SQLite) UpdateWatch(ctx context.Context, w *model.Watch) error {
	var lastCheck *string
	if w.LastCheckAt != nil {
		v := w.LastCheckAt.UTC().Format(timeLayout)
		lastCheck = &v
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE watches SET feed_url = ?, interval_minutes = ?, is_active = ?, last_check_at = ?
		 WHERE id = ?`,
		w.FeedURL, w.IntervalMinutes, boolToInt(w.IsActive), lastCheck, w.ID,
	)
	if err != nil {
		return fmt.Errorf("update watch: %w", err)
	}
	return nil
}

// DeleteWatch removes a watch by its ID.
func (s *SQLite) DeleteWatch(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM watches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete watch: %w", err)
	}
	return nil
}

// MarkProcessed records that a source item has been published for a series.
func (s *SQLite) MarkProcessed(ctx context.Context, seriesID int64, sourceKey string) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_items (series_id, source_key, processed_at) VALUES (?, ?, ?)`,
		seriesID, sourceKey, now,
	)
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// IsProcessed checks whether a source item has already been published.
func (s *SQLite) IsProcessed(ctx context.Context, seriesID int64, sourceKey string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_items WHERE series_id = ? AND source_key = ?`,
		seriesID, sourceKey,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return count > 0, nil
}

// CountProcessed returns the number of published items for a series.
func (s *SQLite) CountProcessed(ctx context.Context, seriesID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM processed_items WHERE series_id = ?`, seriesID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count processed: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSeries(row scannable) (*model.Series, error) {
	var sr model.Series
	var created sql.NullString
	err := row.Scan(&sr.ID, &sr.Name, &sr.Channel, &sr.ThumbFileID, &sr.LastSeason, &sr.LastEpisode, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan series: %w", err)
	}
	if created.Valid {
		sr.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &sr, nil
}

func scanWatches(rows *sql.Rows) ([]model.Watch, error) {
	var watches []model.Watch
	for rows.Next() {
		var w model.Watch
		var isActive int
		var lastCheck, created sql.NullString
		err := rows.Scan(&w.ID, &w.SeriesID, &w.FeedURL, &w.IntervalMinutes, &isActive, &lastCheck, &created)
		if err != nil {
			return nil, fmt.Errorf("scan watch: %w", err)
		}
		w.IsActive = isActive == 1
		if lastCheck.Valid {
			t, _ := time.Parse(timeLayout, lastCheck.String)
			w.LastCheckAt = &t
		}
		if created.Valid {
			w.CreatedAt, _ = time.Parse(timeLayout, created.String)
		}
		watches = append(watches, w)
	}
	return watches, rows.Err()
}

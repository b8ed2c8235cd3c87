package repository

import (
	"database/sql"
	"fmt"
	"time"

	"Shelfwave/db"
	"Shelfwave/model"
)

// LibraryRepository defines the interface for catalog data operations.
// The session coordinator resolves ids and writes per-item progress through
// it; it never touches media files directly.
type LibraryRepository interface {
	CreateItem(item *model.MediaItem) (int64, error)
	FindByID(kind model.MediaKind, id int64) (*model.MediaItem, error)
	GetAllByProfileAndKind(profileID int64, kind model.MediaKind) ([]*model.MediaItem, error)
	UpdateProgress(id int64, positionMs, durationMs int64) error
	IncrementPlayCount(id int64) error
	SetMissingByFilePath(filePath string, missing bool) error
}

// mysqlLibraryRepository implements LibraryRepository for MySQL.
type mysqlLibraryRepository struct {
	DB *sql.DB
}

// NewMySQLLibraryRepository creates a new instance of mysqlLibraryRepository.
func NewMySQLLibraryRepository() LibraryRepository {
	return &mysqlLibraryRepository{DB: db.DB}
}

const mediaItemColumns = `id, profile_id, kind, title, artist, album, file_path, cover_art_path, duration_ms, position_ms, play_count, missing, created_at, updated_at`

func scanMediaItem(row interface{ Scan(...interface{}) error }) (*model.MediaItem, error) {
	item := &model.MediaItem{}
	err := row.Scan(&item.ID, &item.ProfileID, &item.Kind, &item.Title, &item.Artist, &item.Album,
		&item.FilePath, &item.CoverArtPath, &item.DurationMs, &item.PositionMs, &item.PlayCount,
		&item.Missing, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// CreateItem adds a new media item to the catalog.
func (r *mysqlLibraryRepository) CreateItem(item *model.MediaItem) (int64, error) {
	query := `INSERT INTO media_items (profile_id, kind, title, artist, album, file_path, cover_art_path, duration_ms, position_ms, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateItem: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(item.ProfileID, item.Kind, item.Title, item.Artist, item.Album,
		item.FilePath, item.CoverArtPath, item.DurationMs, item.PositionMs, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateItem: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateItem: %w", err)
	}
	return id, nil
}

// FindByID retrieves a media item by kind and id. Returns (nil, nil) when the
// item does not exist or its file has gone missing, so restoration can fall
// through to the next candidate without treating this as an error.
func (r *mysqlLibraryRepository) FindByID(kind model.MediaKind, id int64) (*model.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items WHERE id = ? AND kind = ? AND missing = 0`
	row := r.DB.QueryRow(query, id, kind)

	item, err := scanMediaItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Item not found
		}
		return nil, fmt.Errorf("failed to scan media item by ID %d: %w", id, err)
	}
	return item, nil
}

// GetAllByProfileAndKind retrieves all items of one kind for a profile.
func (r *mysqlLibraryRepository) GetAllByProfileAndKind(profileID int64, kind model.MediaKind) ([]*model.MediaItem, error) {
	query := `SELECT ` + mediaItemColumns + ` FROM media_items WHERE profile_id = ? AND kind = ? AND missing = 0 ORDER BY title ASC`
	rows, err := r.DB.Query(query, profileID, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query media items for profile ID %d: %w", profileID, err)
	}
	defer rows.Close()

	items := make([]*model.MediaItem, 0)
	for rows.Next() {
		item, err := scanMediaItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media item in GetAllByProfileAndKind: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in GetAllByProfileAndKind: %w", err)
	}

	return items, nil
}

// UpdateProgress writes the playback position (and duration, once known) for
// a given item ID.
func (r *mysqlLibraryRepository) UpdateProgress(id int64, positionMs, durationMs int64) error {
	query := `UPDATE media_items SET position_ms = ?, duration_ms = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateProgress: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(positionMs, durationMs, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateProgress for item ID %d: %w", id, err)
	}
	return nil
}

// IncrementPlayCount bumps the play counter for a given item ID.
func (r *mysqlLibraryRepository) IncrementPlayCount(id int64) error {
	query := `UPDATE media_items SET play_count = play_count + 1, updated_at = ? WHERE id = ?`
	_, err := r.DB.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute IncrementPlayCount for item ID %d: %w", id, err)
	}
	return nil
}

// SetMissingByFilePath marks catalog rows for a file path as missing (or
// present again). Used by the library watcher when files disappear.
func (r *mysqlLibraryRepository) SetMissingByFilePath(filePath string, missing bool) error {
	query := `UPDATE media_items SET missing = ?, updated_at = ? WHERE file_path = ?`
	_, err := r.DB.Exec(query, missing, time.Now(), filePath)
	if err != nil {
		return fmt.Errorf("failed to execute SetMissingByFilePath for %s: %w", filePath, err)
	}
	return nil
}

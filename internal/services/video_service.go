package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/models"
)

// PublishInput carries the fields needed to publish a video. The media URLs
// are already resolved by the HTTP boundary.
type PublishInput struct {
	Title        string
	Description  string
	VideoURL     string
	ThumbnailURL string
	Duration     float64
}

// VideoServiceProvider defines the interface for catalog services.
type VideoServiceProvider interface {
	Publish(ctx context.Context, ownerID string, in PublishInput) (models.Video, error)
	GetByID(ctx context.Context, id, viewerID string) (models.Video, error)
	ListByChannel(ctx context.Context, channelID string, limit, offset int) ([]models.Video, error)
	RecordView(ctx context.Context, id string) error
	SetPublished(ctx context.Context, id, ownerID string, published bool) (models.Video, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// VideoService provides business logic for the video catalog.
type VideoService struct {
	db *sql.DB
}

// NewVideoService creates a new VideoService.
func NewVideoService(db *sql.DB) *VideoService {
	return &VideoService{db: db}
}

const videoColumns = "id, owner_id, video_url, thumbnail_url, title, description, duration_seconds, views, is_published, created_at, updated_at"

func scanVideo(row *sql.Row) (models.Video, error) {
	var v models.Video
	err := row.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title,
		&v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// Publish stores a new video record pointing at already-uploaded media.
func (s *VideoService) Publish(ctx context.Context, ownerID string, in PublishInput) (models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if title == "" || description == "" {
		return models.Video{}, apperr.E(apperr.KindValidation, "title and description are required")
	}
	if in.VideoURL == "" {
		return models.Video{}, apperr.E(apperr.KindDependency, "video file required")
	}
	if in.ThumbnailURL == "" {
		return models.Video{}, apperr.E(apperr.KindDependency, "thumbnail required")
	}

	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO videos (id, owner_id, video_url, thumbnail_url, title, description, duration_seconds) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, ownerID, in.VideoURL, in.ThumbnailURL, title, description, in.Duration)
	if err != nil {
		return models.Video{}, err
	}

	return s.get(ctx, id)
}

func (s *VideoService) get(ctx context.Context, id string) (models.Video, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+videoColumns+" FROM videos WHERE id = ?", id)
	v, err := scanVideo(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Video{}, apperr.Ef(apperr.KindNotFound, "video %s not found", id)
		}
		return models.Video{}, err
	}
	return v, nil
}

// GetByID returns a video. Unpublished videos are visible to their owner only.
func (s *VideoService) GetByID(ctx context.Context, id, viewerID string) (models.Video, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return models.Video{}, apperr.Ef(apperr.KindNotFound, "video %s not found", id)
	}
	return v, nil
}

// ListByChannel returns a channel's published videos, newest first.
func (s *VideoService) ListByChannel(ctx context.Context, channelID string, limit, offset int) ([]models.Video, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+videoColumns+" FROM videos WHERE owner_id = ? AND is_published = 1 ORDER BY created_at DESC LIMIT ? OFFSET ?",
		channelID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.VideoURL, &v.ThumbnailURL, &v.Title,
			&v.Description, &v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// RecordView atomically increments the view counter.
func (s *VideoService) RecordView(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE videos SET views = views + 1 WHERE id = ? AND is_published = 1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.Ef(apperr.KindNotFound, "video %s not found", id)
	}
	return nil
}

// SetPublished toggles a video's visibility. Only the owner may do this.
func (s *VideoService) SetPublished(ctx context.Context, id, ownerID string, published bool) (models.Video, error) {
	v, err := s.get(ctx, id)
	if err != nil {
		return models.Video{}, err
	}
	if v.OwnerID != ownerID {
		return models.Video{}, apperr.E(apperr.KindUnauthorized, "not the video owner")
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE videos SET is_published = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		published, id)
	if err != nil {
		return models.Video{}, err
	}
	return s.get(ctx, id)
}

// Delete removes a video record. Only the owner may do this.
func (s *VideoService) Delete(ctx context.Context, id, ownerID string) error {
	v, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if v.OwnerID != ownerID {
		return apperr.E(apperr.KindUnauthorized, "not the video owner")
	}

	_, err = s.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	return err
}

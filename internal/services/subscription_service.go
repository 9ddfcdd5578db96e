package services

import (
	"context"
	"database/sql"

	"github.com/rkoshti/cliptube-be/internal/apperr"
	"github.com/rkoshti/cliptube-be/internal/models"
)

// SubscriptionServiceProvider defines the interface for channel subscriptions.
type SubscriptionServiceProvider interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	Counts(ctx context.Context, channelID string) (models.SubscriptionCounts, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// SubscriptionService provides business logic for channel subscriptions.
type SubscriptionService struct {
	db *sql.DB
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(db *sql.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Toggle subscribes when no subscription exists and unsubscribes when one
// does. It returns the resulting state: true means subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if subscriberID == channelID {
		return false, apperr.E(apperr.KindValidation, "cannot subscribe to your own channel")
	}

	var exists string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM users WHERE id = ?", channelID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, apperr.Ef(apperr.KindNotFound, "channel %s not found", channelID)
		}
		return false, err
	}

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?",
		subscriberID, channelID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (subscriber_id, channel_id) VALUES (?, ?)",
		subscriberID, channelID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Counts returns how many users subscribe to the channel and how many
// channels the user subscribes to.
func (s *SubscriptionService) Counts(ctx context.Context, channelID string) (models.SubscriptionCounts, error) {
	var counts models.SubscriptionCounts
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM subscriptions WHERE channel_id = ?),
			(SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = ?)`,
		channelID, channelID).Scan(&counts.Subscribers, &counts.SubscribedTo)
	if err != nil {
		return models.SubscriptionCounts{}, err
	}
	return counts, nil
}

// IsSubscribed reports whether subscriber follows channel.
func (s *SubscriptionService) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM subscriptions WHERE subscriber_id = ? AND channel_id = ?",
		subscriberID, channelID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

package models

import "time"

// Subscription links a subscriber to a channel (both are users).
type Subscription struct {
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// SubscriptionCounts is the aggregate view shown on a channel page.
type SubscriptionCounts struct {
	Subscribers  int64 `json:"subscribers"`
	SubscribedTo int64 `json:"subscribedTo"`
}

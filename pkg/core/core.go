package core

import (
	"context"
	"time"
)

// ListingSource fetches listing announcements from the exchange support pages.
type ListingSource interface {
	// FetchIndex returns the candidate announcements currently shown on the index page.
	FetchIndex(ctx context.Context) ([]Announcement, error)

	// FetchReleaseDate resolves the publication time of a single announcement.
	FetchReleaseDate(ctx context.Context, url string) (time.Time, error)
}

// Notifier receives listing events and free-form messages.
type Notifier interface {
	Notify(text string)
	OnListing(entry ListingEntry)
}

type NotifierWithStart interface {
	Notifier
	Start()
	Stop()
}

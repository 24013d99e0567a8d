package core

import "time"

// Announcement is one entry of the listing index page.
type Announcement struct {
	Title string
	URL   string
}

// ListingEntry is a detected listing and the time its announcement was published.
type ListingEntry struct {
	Symbol     string    `json:"symbol"`
	ReleasedAt time.Time `json:"released_at"`
}

// Age returns the whole number of days between now and the release, ignoring direction.
func (e ListingEntry) Age(now time.Time) int {
	d := now.Sub(e.ReleasedAt)
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}

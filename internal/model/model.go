// Package model defines the domain types used across the application.
package model

import "time"

// Thumbnail is an optional preview image attached to an entry.
// A zero Width or Height means the dimension is unknown.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// FeedInfo describes the feed an entry belongs to.
type FeedInfo struct {
	Name     string
	Website  string
	Category string
}

// Entry is a single ingested feed item. The notifier treats it as a
// read-only view owned by the ingestion side; dispatch never mutates it.
type Entry struct {
	Link      string
	Title     string
	Content   string // original entry body, HTML
	Published time.Time
	Read      bool
	Thumbnail *Thumbnail
	Feed      FeedInfo
}

// Package models defines the domain types for til.
package models

// Note is one catalogued note file. Timestamps are ISO-8601 strings taken
// from version-control history and are not parsed further.
type Note struct {
	Path       string `json:"path"` // relative path with "/" replaced by "_"
	Topic      string `json:"topic"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Body       string `json:"body"`
	Created    string `json:"created"`
	CreatedUTC string `json:"created_utc"`
	Updated    string `json:"updated"`
	UpdatedUTC string `json:"updated_utc"`
}

// NoteFile is a discovered note file on disk.
type NoteFile struct {
	Path  string `json:"path"` // relative, slash-separated: "<topic>/<name>.md"
	Topic string `json:"topic"`
}

// TopicCount is the number of notes filed under one topic.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

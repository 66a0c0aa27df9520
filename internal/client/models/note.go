// Package models defines client-side data models used by the DeepNote CLI.
package models

import (
	"sort"
	"strings"
	"time"
)

// NoteType classifies a note.
type NoteType string

const (
	NoteTypeText  NoteType = "text"
	NoteTypeVoice NoteType = "voice"
)

// Note mirrors a row of the remote notes table. JSON tags match the
// server's /api/notes representation.
type Note struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Transcription *string   `json:"transcription,omitempty"`
	Type          NoteType  `json:"type"`
	Color         string    `json:"color"`
	Pinned        bool      `json:"pinned"`
	Archived      bool      `json:"archived"`
	AudioKey      *string   `json:"audio_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter selects notes for listing. Zero values match everything except
// archived notes: Archived=true lists the archive instead.
type Filter struct {
	Color    string
	Type     NoteType
	Pinned   *bool
	Archived bool
	Query    string
}

// Match reports whether n passes the filter. Query is matched
// case-insensitively against title, content and transcription.
func (f Filter) Match(n *Note) bool {
	if n.Archived != f.Archived {
		return false
	}
	if f.Color != "" && !strings.EqualFold(n.Color, f.Color) {
		return false
	}
	if f.Type != "" && n.Type != f.Type {
		return false
	}
	if f.Pinned != nil && n.Pinned != *f.Pinned {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
		return true
	}
	return n.Transcription != nil && strings.Contains(strings.ToLower(*n.Transcription), q)
}

// SortNotes orders notes pinned first, then by UpdatedAt descending, then by
// ID for a stable result.
func SortNotes(notes []*Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		a, b := notes[i], notes[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})
}

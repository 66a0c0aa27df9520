package models

import "time"

// Note types.
const (
	NoteTypeText  = "text"
	NoteTypeVoice = "voice"
)

// Note is a row of the notes table. The validate tags bound the fields a
// client may write.
type Note struct {
	ID            string    `json:"id" validate:"omitempty,uuid"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title" validate:"max=200"`
	Content       string    `json:"content" validate:"max=100000"`
	Transcription *string   `json:"transcription,omitempty" validate:"omitempty,max=100000"`
	Type          string    `json:"type" validate:"required,oneof=text voice"`
	Color         string    `json:"color" validate:"max=32"`
	Pinned        bool      `json:"pinned"`
	Archived      bool      `json:"archived"`
	AudioKey      *string   `json:"audio_key,omitempty" validate:"omitempty,max=512"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NotePatch lists the fields to change; nil fields keep their value.
type NotePatch struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,max=200"`
	Content       *string `json:"content,omitempty" validate:"omitempty,max=100000"`
	Transcription *string `json:"transcription,omitempty" validate:"omitempty,max=100000"`
	Color         *string `json:"color,omitempty" validate:"omitempty,max=32"`
	Pinned        *bool   `json:"pinned,omitempty"`
	Archived      *bool   `json:"archived,omitempty"`
	AudioKey      *string `json:"audio_key,omitempty" validate:"omitempty,max=512"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Transcription == nil &&
		p.Color == nil && p.Pinned == nil && p.Archived == nil && p.AudioKey == nil
}

// Sync operations.
const (
	SyncOpCreate = "create"
	SyncOpUpdate = "update"
	SyncOpDelete = "delete"
)

// SyncTaskPayload is one offline write replayed by a client through the
// sync endpoint. Note and Patch are validated by the operation they feed.
type SyncTaskPayload struct {
	Op     string     `json:"op" validate:"required,oneof=create update delete"`
	NoteID string     `json:"note_id" validate:"required,uuid"`
	Note   *Note      `json:"note,omitempty" validate:"-"`
	Patch  *NotePatch `json:"patch,omitempty" validate:"-"`
}

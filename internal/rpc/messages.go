package rpc

import "time"

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID string `json:"user_id"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Note is a note row as the server stores it.
type Note struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Transcription *string   `json:"transcription,omitempty"`
	Type          string    `json:"type"`
	Color         string    `json:"color"`
	Pinned        bool      `json:"pinned"`
	Archived      bool      `json:"archived"`
	AudioKey      *string   `json:"audio_key,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NoteInput carries the client-editable fields of a new note. ID may be set
// by the client so that replaying the same create is idempotent.
type NoteInput struct {
	ID            string  `json:"id,omitempty"`
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Transcription *string `json:"transcription,omitempty"`
	Type          string  `json:"type"`
	Color         string  `json:"color"`
	Pinned        bool    `json:"pinned"`
}

// NotePatch lists the fields to change; nil fields are left as they are.
type NotePatch struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Transcription *string `json:"transcription,omitempty"`
	Color         *string `json:"color,omitempty"`
	Pinned        *bool   `json:"pinned,omitempty"`
	Archived      *bool   `json:"archived,omitempty"`
	AudioKey      *string `json:"audio_key,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Transcription == nil &&
		p.Color == nil && p.Pinned == nil && p.Archived == nil && p.AudioKey == nil
}

type CreateNoteRequest struct {
	Note NoteInput `json:"note"`
}

type CreateNoteResponse struct {
	Note Note `json:"note"`
}

type UpdateNoteRequest struct {
	ID    string    `json:"id"`
	Patch NotePatch `json:"patch"`
}

type UpdateNoteResponse struct {
	Note Note `json:"note"`
}

type DeleteNoteRequest struct {
	ID string `json:"id"`
}

type DeleteNoteResponse struct{}

type GetNoteOwnerRequest struct {
	ID string `json:"id"`
}

type GetNoteOwnerResponse struct {
	UserID string `json:"user_id"`
}

type GetAudioUploadURLRequest struct {
	NoteID      string `json:"note_id"`
	ContentType string `json:"content_type"`
}

type GetAudioUploadURLResponse struct {
	URL       string    `json:"url"`
	AudioKey  string    `json:"audio_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

type GetAudioDownloadURLRequest struct {
	NoteID string `json:"note_id"`
}

type GetAudioDownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Sync operations carried by SyncPayload.Op.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// SyncPayload is the body of one queued offline write, POSTed as-is to the
// HTTP sync endpoint.
type SyncPayload struct {
	Op     string     `json:"op"`
	NoteID string     `json:"note_id"`
	Note   *NoteInput `json:"note,omitempty"`
	Patch  *NotePatch `json:"patch,omitempty"`
}

// SyncResult is returned by the sync endpoint on success.
type SyncResult struct {
	Op   string `json:"op"`
	Note *Note  `json:"note,omitempty"`
}

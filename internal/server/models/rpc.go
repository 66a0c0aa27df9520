package models

import "github.com/dmitrijs2005/deepnote/internal/rpc"

// RPC converts the row to its wire form.
func (n *Note) RPC() rpc.Note {
	return rpc.Note{
		ID:            n.ID,
		UserID:        n.UserID,
		Title:         n.Title,
		Content:       n.Content,
		Transcription: n.Transcription,
		Type:          n.Type,
		Color:         n.Color,
		Pinned:        n.Pinned,
		Archived:      n.Archived,
		AudioKey:      n.AudioKey,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

// NoteFromInput builds an unsaved note from client input.
func NoteFromInput(in rpc.NoteInput) Note {
	return Note{
		ID:            in.ID,
		Title:         in.Title,
		Content:       in.Content,
		Transcription: in.Transcription,
		Type:          in.Type,
		Color:         in.Color,
		Pinned:        in.Pinned,
	}
}

// PatchFromRPC converts a wire patch.
func PatchFromRPC(p rpc.NotePatch) NotePatch {
	return NotePatch{
		Title:         p.Title,
		Content:       p.Content,
		Transcription: p.Transcription,
		Color:         p.Color,
		Pinned:        p.Pinned,
		Archived:      p.Archived,
		AudioKey:      p.AudioKey,
	}
}

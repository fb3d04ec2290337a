package note

import "time"

// Note types. Each maps to the role allowed to author it.
const (
	TypeClient       = "client"
	TypeFlowmatrixAI = "flowmatrix_ai"
)

// Types lists every valid note type.
var Types = []string{TypeClient, TypeFlowmatrixAI}

// Note is a comment on a project from either side of the engagement.
type Note struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	AuthorID  string    `json:"author_id"`
	NoteType  string    `json:"note_type"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateNoteInput is the POST body for a new note.
type CreateNoteInput struct {
	ProjectID string `json:"project_id"`
	NoteType  string `json:"note_type"`
	Content   string `json:"content"`
}

// UpdateNoteInput is the PATCH body. Content edits the text; IsRead marks a
// note read or unread.
type UpdateNoteInput struct {
	ID      string  `json:"id"`
	Content *string `json:"content"`
	IsRead  *bool   `json:"is_read"`
}

package automation

import "fmt"

// Request is the single data packet handed from the intake conversation to
// the browser driver to trigger one full submission run. It is constructed
// once per completed conversation and consumed exactly once.
type Request struct {
	IssueID    string `json:"issue_id"`
	NotesCount int    `json:"notes_count"`
	NoteText   string `json:"note_text"`
}

// Result is the outcome of one automation run. ProcessedCount reflects how
// many notes were actually submitted, including on failure, where it counts
// the notes that completed before the run aborted.
type Result struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ProcessedCount int    `json:"processed_count"`
}

// Validate checks the request fields the boundary requires: a numeric issue
// id, a positive note count and non-empty note text.
func (r *Request) Validate() error {
	if r.IssueID == "" || r.NotesCount == 0 || r.NoteText == "" {
		return fmt.Errorf("missing required parameters")
	}
	if !isDigits(r.IssueID) {
		return fmt.Errorf("issue_id must be numeric, got %q", r.IssueID)
	}
	if r.NotesCount < 0 {
		return fmt.Errorf("notes_count must be positive, got %d", r.NotesCount)
	}
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

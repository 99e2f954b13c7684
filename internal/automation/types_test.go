package automation

import "testing"

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"valid", Request{IssueID: "4521", NotesCount: 3, NoteText: "1] a"}, false},
		{"missing issue id", Request{NotesCount: 1, NoteText: "x"}, true},
		{"missing count", Request{IssueID: "1", NoteText: "x"}, true},
		{"missing text", Request{IssueID: "1", NotesCount: 1}, true},
		{"non-numeric issue id", Request{IssueID: "12a", NotesCount: 1, NoteText: "x"}, true},
		{"negative count", Request{IssueID: "1", NotesCount: -2, NoteText: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

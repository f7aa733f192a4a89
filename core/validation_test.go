package core

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				WorkspaceId: 7,
				Title:       "quarterly report",
				Status:      StatusPending,
			},
			wantErr: nil,
		},
		{
			name: "valid document with ID 0",
			doc: &Document{
				Id:          0,
				WorkspaceId: 7,
				Title:       "notes",
				Status:      StatusReady,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrValidation,
		},
		{
			name: "missing workspace",
			doc: &Document{
				Title:  "orphan",
				Status: StatusPending,
			},
			wantErr: ErrValidation,
		},
		{
			name: "empty title",
			doc: &Document{
				WorkspaceId: 7,
				Status:      StatusPending,
			},
			wantErr: ErrValidation,
		},
		{
			name: "invalid status",
			doc: &Document{
				WorkspaceId: 7,
				Title:       "notes",
				Status:      DocumentStatus(42),
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocument() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocument() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateMessage(t *testing.T) {
	valid := &Message{Role: RoleUser, Content: "hi", Status: MessageComplete}
	if err := ValidateMessage(valid); err != nil {
		t.Errorf("ValidateMessage() unexpected error: %v", err)
	}

	if err := ValidateMessage(nil); !errors.Is(err, ErrValidation) {
		t.Errorf("ValidateMessage(nil) error = %v, want ErrValidation", err)
	}

	badRole := &Message{Role: MessageRole(9), Status: MessageComplete}
	if err := ValidateMessage(badRole); !errors.Is(err, ErrValidation) {
		t.Errorf("ValidateMessage(bad role) error = %v, want ErrValidation", err)
	}

	badStatus := &Message{Role: RoleAssistant, Status: MessageStatus(9)}
	if err := ValidateMessage(badStatus); !errors.Is(err, ErrValidation) {
		t.Errorf("ValidateMessage(bad status) error = %v, want ErrValidation", err)
	}
}

func TestTruncateErrorMessage(t *testing.T) {
	short := "download failed: connection refused"
	if got := TruncateErrorMessage(short); got != short {
		t.Errorf("TruncateErrorMessage() modified a short message: %q", got)
	}

	long := strings.Repeat("x", MaxErrorMessageLen*2)
	got := TruncateErrorMessage(long)
	if len(got) != MaxErrorMessageLen {
		t.Errorf("TruncateErrorMessage() length = %d, want %d", len(got), MaxErrorMessageLen)
	}
}

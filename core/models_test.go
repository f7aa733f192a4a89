package core

import (
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "same content produces same ID", content: "test content"},
		{name: "empty string", content: ""},
		{name: "long content", content: "A much longer passage of extracted document text that should still hash consistently"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)
			if id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestDocumentStatus_String(t *testing.T) {
	tests := []struct {
		status DocumentStatus
		want   string
	}{
		{StatusPending, "pending"},
		{StatusProcessing, "processing"},
		{StatusReady, "ready"},
		{StatusFailed, "failed"},
		{DocumentStatus(0), "unknown"},
		{DocumentStatus(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("DocumentStatus(%d).String() = %q, want %q", int(tt.status), got, tt.want)
		}
	}
}

func TestDocumentStatus_Terminal(t *testing.T) {
	if StatusPending.Terminal() || StatusProcessing.Terminal() {
		t.Error("pending/processing must not be terminal")
	}
	if !StatusReady.Terminal() || !StatusFailed.Terminal() {
		t.Error("ready/failed must be terminal")
	}
}

func TestDocument_Deleted(t *testing.T) {
	doc := &Document{}
	if doc.Deleted() {
		t.Error("document with zero DeletedAt must not report deleted")
	}
	doc.DeletedAt = time.Now().UTC()
	if !doc.Deleted() {
		t.Error("document with DeletedAt set must report deleted")
	}
}

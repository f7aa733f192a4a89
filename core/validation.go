// Copyright 2025 The citewell authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// MaxErrorMessageLen bounds the failure reason stored on a document. Raw
// provider errors and stack traces are truncated to this length before they
// are persisted or surfaced through status polling.
const MaxErrorMessageLen = 512

// TruncateErrorMessage sanitizes a failure reason for persistence.
// Newlines are kept; anything beyond MaxErrorMessageLen is dropped.
func TruncateErrorMessage(msg string) string {
	if len(msg) <= MaxErrorMessageLen {
		return msg
	}
	return msg[:MaxErrorMessageLen]
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - WorkspaceId must be set
//   - Title must not be empty
//   - Status must be a known status value
//
// NOT validated (populated by the pipeline):
//   - ChunksCreated, ErrorMessage
//   - ID (0 is valid before the repository assigns one)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrValidation)
	}
	if doc.WorkspaceId == 0 {
		return fmt.Errorf("%w: document workspace id is required", ErrValidation)
	}
	if doc.Title == "" {
		return fmt.Errorf("%w: document title is required", ErrValidation)
	}
	if err := ValidateDocumentStatus(doc.Status); err != nil {
		return err
	}
	return nil
}

// ValidateDocumentStatus checks that a status is one of the known values.
func ValidateDocumentStatus(status DocumentStatus) error {
	switch status {
	case StatusPending, StatusProcessing, StatusReady, StatusFailed:
		return nil
	default:
		return fmt.Errorf("%w: invalid document status %d", ErrValidation, int(status))
	}
}

// ValidateMessage validates a conversation message.
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrValidation)
	}
	switch msg.Role {
	case RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("%w: invalid message role %d", ErrValidation, int(msg.Role))
	}
	switch msg.Status {
	case MessageComplete, MessageCancelled, MessageErrored:
	default:
		return fmt.Errorf("%w: invalid message status %d", ErrValidation, int(msg.Status))
	}
	return nil
}

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

import "errors"

// Error taxonomy. Every error crossing a package boundary wraps exactly one
// of these sentinels so callers can classify failures with errors.Is.
var (
	// ErrValidation indicates malformed or oversized input.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a missing or soft-deleted document, conversation,
	// or workspace-scoped record.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates an illegal state transition, such as cancelling a
	// document that is not processing.
	ErrConflict = errors.New("conflict")

	// ErrServiceUnavailable indicates an unconfigured dependency or a
	// dependency whose retries were exhausted.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrDataIntegrity indicates inconsistent data such as an embedding
	// dimension mismatch or a chunk/embedding count mismatch.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrSecurityPolicy indicates content rejected by the injection detector
	// while running in block mode.
	ErrSecurityPolicy = errors.New("security policy violation")
)

// Package mock provides test doubles for the ai package interfaces.
//
// The mocks produce deterministic output by default (hash-derived unit
// vectors, a canned streamed answer) and support behavior injection through
// function fields for error-path testing.
package mock

package controller

import "github.com/cockroachdb/errors"

// Sentinel errors for the controller package's error kinds (spec.md §7).
var (
	// ErrNoDisc names the precondition failure of a navigation command
	// issued before any disc was loaded. No Controller method returns it.
	ErrNoDisc = errors.New("controller: no disc loaded")
	// ErrNoTransport is a precondition failure: a command was issued
	// before a backend was bound via Bind.
	ErrNoTransport = errors.New("controller: no transport bound")
	// ErrIndexOutOfRange is a precondition failure on Goto.
	ErrIndexOutOfRange = errors.New("controller: track index out of range")
)

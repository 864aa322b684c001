package domain

import "time"

// EchoLog records a successfully authenticated echo ping from a terminal.
// The timestamp is server time at verification, not anything the terminal
// claims.
type EchoLog struct {
	ID         string
	TerminalID string
	Timestamp  time.Time
}

// EchoLogFilter narrows an echo log listing. Zero values mean "no filter".
type EchoLogFilter struct {
	TerminalID string
	From       *time.Time
	To         *time.Time
}

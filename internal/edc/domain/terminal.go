package domain

import (
	"fmt"
	"strings"
	"time"
)

// TerminalStatus is the operational state of a terminal.
type TerminalStatus string

const (
	// StatusActive terminal is operational and available for transactions.
	StatusActive TerminalStatus = "ACTIVE"

	// StatusInactive terminal is temporarily disabled or offline. New
	// terminals default to this state until commissioned.
	StatusInactive TerminalStatus = "INACTIVE"

	// StatusMaintenance terminal is under maintenance or repair.
	StatusMaintenance TerminalStatus = "MAINTENANCE"

	// StatusOutOfService terminal is permanently out of service.
	StatusOutOfService TerminalStatus = "OUT_OF_SERVICE"
)

// ParseTerminalStatus maps a string onto a TerminalStatus,
// case-insensitively.
func ParseTerminalStatus(s string) (TerminalStatus, error) {
	switch TerminalStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	case StatusMaintenance:
		return StatusMaintenance, nil
	case StatusOutOfService:
		return StatusOutOfService, nil
	default:
		return "", fmt.Errorf(
			"invalid terminal status: %s. Valid values are: ACTIVE, INACTIVE, MAINTENANCE, OUT_OF_SERVICE", s)
	}
}

// Operational reports whether the terminal can take transactions.
func (s TerminalStatus) Operational() bool { return s == StatusActive }

// Terminal is a registered physical terminal. The terminal ID doubles as the
// primary key and follows the termid wire format.
type Terminal struct {
	ID              string
	Location        string
	Status          TerminalStatus
	SerialNumber    string
	Model           string
	Manufacturer    string
	LastMaintenance *time.Time
	IPAddress       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TerminalFilter narrows a terminal listing. Zero values mean "no filter".
// Location, Manufacturer, Model and SerialNumber are contains-searches;
// IPAddress is an exact match; Type matches the ID prefix.
type TerminalFilter struct {
	Status              TerminalStatus
	Location            string
	Manufacturer        string
	Model               string
	SerialNumber        string
	Type                string
	IPAddress           string
	CreatedFrom         *time.Time
	CreatedTo           *time.Time
	LastMaintenanceFrom *time.Time
	LastMaintenanceTo   *time.Time
}

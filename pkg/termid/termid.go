// Package termid generates and validates terminal identifiers.
//
// Terminal IDs follow the pattern {TYPE}-{LOCATION}-{SEQUENCE}, e.g.
// EDC-JKT-001, ATM-BDG-045, POS-SBY-123. The location code is exactly three
// uppercase letters and the sequence runs 001-999.
package termid

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// Type is the class of terminal hardware encoded in the identifier.
type Type string

const (
	TypeEDC   Type = "EDC"
	TypeATM   Type = "ATM"
	TypePOS   Type = "POS"
	TypeKiosk Type = "KIOSK"
)

var (
	ErrInvalidLocation = errors.New("termid: location code must be exactly 3 uppercase letters")
	ErrInvalidSequence = errors.New("termid: sequence must be between 1 and 999")
	ErrInvalidFormat   = errors.New("termid: invalid terminal id format")
)

var (
	idPattern       = regexp.MustCompile(`^(EDC|ATM|POS|KIOSK)-[A-Z]{3}-[0-9]{3}$`)
	locationPattern = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Generate builds a terminal ID from its parts.
func Generate(t Type, locationCode string, sequence int) (string, error) {
	if !ValidLocationCode(locationCode) {
		return "", ErrInvalidLocation
	}
	if sequence < 1 || sequence > 999 {
		return "", ErrInvalidSequence
	}
	return fmt.Sprintf("%s-%s-%03d", t, locationCode, sequence), nil
}

// GenerateRandom builds a terminal ID with a random sequence number.
func GenerateRandom(t Type, locationCode string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(999))
	if err != nil {
		return "", err
	}
	return Generate(t, locationCode, int(n.Int64())+1)
}

// Valid reports whether id matches the terminal ID wire format.
func Valid(id string) bool {
	return idPattern.MatchString(strings.TrimSpace(id))
}

// ValidLocationCode reports whether the location code is well formed.
func ValidLocationCode(code string) bool {
	return locationPattern.MatchString(code)
}

// Parse splits a terminal ID into its type and location code.
func Parse(id string) (Type, string, error) {
	if !Valid(id) {
		return "", "", ErrInvalidFormat
	}
	parts := strings.SplitN(id, "-", 3)
	return Type(parts[0]), parts[1], nil
}

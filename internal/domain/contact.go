package domain

import (
	"strconv"
	"strings"
)

// Status is the per-contact delivery outcome persisted in the contact table.
// The numeric values are part of the table format and must not change.
type Status int

const (
	// StatusUnset marks a contact the engine has never written a status for.
	// It is represented by a blank cell in the table, never by a number.
	StatusUnset Status = -1

	StatusInvalid Status = 0
	StatusSent    Status = 1
	StatusRetry   Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "INVALID"
	case StatusSent:
		return "SENT"
	case StatusRetry:
		return "RETRY"
	case StatusUnset:
		return "UNSET"
	}
	return "UNKNOWN(" + strconv.Itoa(int(s)) + ")"
}

// Resolved reports whether the engine considers this contact done.
// Resolved contacts are skipped by every pass.
func (s Status) Resolved() bool {
	return s == StatusSent || s == StatusInvalid
}

// Cell returns the table representation of the status: the numeric code,
// or an empty string for StatusUnset.
func (s Status) Cell() string {
	if s == StatusUnset {
		return ""
	}
	return strconv.Itoa(int(s))
}

// ParseStatus converts a table cell into a Status. Blank or unrecognized
// cells map to StatusUnset.
func ParseStatus(cell string) Status {
	switch strings.TrimSpace(cell) {
	case "0":
		return StatusInvalid
	case "1":
		return StatusSent
	case "2":
		return StatusRetry
	}
	return StatusUnset
}

// Contact is one row of the campaign contact list. All code fields are
// normalized strings where "0" means "not applicable".
type Contact struct {
	Phone     string // canonical digits-only identity
	Name      string
	Sender    string
	Course    string
	MsgCode   string
	DocCode   string
	MediaCode string
	Status    Status
}

// AllCodesZero reports whether the contact has nothing to send at all.
func (c Contact) AllCodesZero() bool {
	return c.MsgCode == "0" && c.DocCode == "0" && c.MediaCode == "0"
}

// NormalizeValue canonicalizes a raw cell value. Spreadsheet exports render
// numeric cells as floats, so a whole-number float like "60123456789.0" must
// compare equal to "60123456789".
func NormalizeValue(raw string) string {
	v := strings.TrimSpace(raw)
	if !strings.Contains(v, ".") {
		return v
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return v
	}
	return strconv.FormatInt(int64(f), 10)
}

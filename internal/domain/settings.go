package domain

import "fmt"

// RunSettings is the per-campaign configuration loaded from the workbook's
// SETTINGS sheet. The engine treats the selector strings and the invalid
// marker as opaque: they are handed to the channel untouched.
type RunSettings struct {
	TextBoxXPath    string // message input field
	SendButtonXPath string // text send button
	AttachXPath     string // attach (paperclip) button
	AttachSendXPath string // send button inside the attach preview
	DocsXPath       string // "document" option in the attach menu
	MediaXPath      string // "photos & videos" option in the attach menu

	// InvalidMarker is a substring of the page shown for unreachable numbers.
	InvalidMarker string

	// Pacing delay range in seconds; each worker sleeps a uniform random
	// duration from this range after every contact.
	MinDelaySec float64
	MaxDelaySec float64
}

// Validate checks the pacing range. Selector strings are deliberately not
// validated: they are opaque to the engine.
func (s RunSettings) Validate() error {
	if s.MinDelaySec < 0 || s.MaxDelaySec < 0 {
		return fmt.Errorf("pacing delay must not be negative (min=%v max=%v)", s.MinDelaySec, s.MaxDelaySec)
	}
	if s.MinDelaySec > s.MaxDelaySec {
		return fmt.Errorf("pacing delay min %v exceeds max %v", s.MinDelaySec, s.MaxDelaySec)
	}
	return nil
}

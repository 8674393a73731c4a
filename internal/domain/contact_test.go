package domain

import "testing"

func TestNormalizeValue(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"60123456789", "60123456789"},
		{"60123456789.0", "60123456789"},
		{"  60123456789.0  ", "60123456789"},
		{"2.0", "2"},
		{"2.5", "2.5"},    // fractional values stay as written
		{"D1", "D1"},      // alphanumeric codes untouched
		{"v1.2", "v1.2"},  // dotted but not numeric
		{"", ""},
		{"0", "0"},
		{"0.0", "0"},
	}
	for _, c := range cases {
		if got := NormalizeValue(c.raw); got != c.want {
			t.Errorf("NormalizeValue(%q) = %q, want %q", c.raw, got, c.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := []struct {
		cell string
		want Status
	}{
		{"0", StatusInvalid},
		{"1", StatusSent},
		{"2", StatusRetry},
		{" 1 ", StatusSent},
		{"", StatusUnset},
		{"7", StatusUnset},
		{"done", StatusUnset},
	}
	for _, c := range cases {
		if got := ParseStatus(c.cell); got != c.want {
			t.Errorf("ParseStatus(%q) = %s, want %s", c.cell, got, c.want)
		}
	}
}

func TestStatusCellRoundTrip(t *testing.T) {
	for _, st := range []Status{StatusUnset, StatusInvalid, StatusSent, StatusRetry} {
		if got := ParseStatus(st.Cell()); got != st {
			t.Errorf("ParseStatus(%s.Cell()) = %s", st, got)
		}
	}
}

func TestStatusResolved(t *testing.T) {
	if !StatusSent.Resolved() || !StatusInvalid.Resolved() {
		t.Error("SENT and INVALID must be resolved")
	}
	if StatusRetry.Resolved() || StatusUnset.Resolved() {
		t.Error("RETRY and UNSET must not be resolved")
	}
}

func TestContactAllCodesZero(t *testing.T) {
	c := Contact{MsgCode: "0", DocCode: "0", MediaCode: "0"}
	if !c.AllCodesZero() {
		t.Error("all-zero contact not detected")
	}
	c.MediaCode = "M1"
	if c.AllCodesZero() {
		t.Error("contact with a media code reported as all zero")
	}
}

func TestRunSettingsValidate(t *testing.T) {
	ok := RunSettings{MinDelaySec: 1, MaxDelaySec: 3}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	if err := (RunSettings{MinDelaySec: 5, MaxDelaySec: 2}).Validate(); err == nil {
		t.Error("min > max accepted")
	}
	if err := (RunSettings{MinDelaySec: -1, MaxDelaySec: 2}).Validate(); err == nil {
		t.Error("negative delay accepted")
	}
}

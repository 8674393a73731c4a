package template

import (
	"errors"
	"strings"
	"testing"

	"github.com/Kuruzyy/excelwablaster/internal/domain"
)

func TestRender_PlaceholderSubstitution(t *testing.T) {
	c := domain.Contact{Name: "Alice", Sender: "Bob", Course: "Physics"}

	// "hi {name}" in wire form
	got, err := Render("hi+%7Bname%7D", c)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "hi+Alice" {
		t.Fatalf("expected %q, got %q", "hi+Alice", got)
	}
}

func TestRender_AllPlaceholders(t *testing.T) {
	c := domain.Contact{Name: "Alice", Sender: "Bob", Course: "Physics"}

	got, err := Render(Encode("{name} {sender} {course}"), c)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != Encode("Alice Bob Physics") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestRender_EmptyAttributeSubstitutesEmpty(t *testing.T) {
	got, err := Render(Encode("hi {name}!"), domain.Contact{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != Encode("hi !") {
		t.Fatalf("expected empty substitution, got %q", got)
	}
}

func TestRender_UnknownPlaceholderFails(t *testing.T) {
	_, err := Render(Encode("hi {phone}"), domain.Contact{})
	if err == nil {
		t.Fatal("expected error for unknown placeholder")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *template.Error, got %T", err)
	}
}

func TestRender_VariationMembership(t *testing.T) {
	encoded := Encode("[hello|hi]")

	for i := 0; i < 20; i++ {
		got, err := Render(encoded, domain.Contact{})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if got != "hello" && got != "hi" {
			t.Fatalf("output %q is not one of the alternatives", got)
		}
	}
}

func TestRender_VariationEventuallyCoversBothAlternatives(t *testing.T) {
	encoded := Encode("[a|b]")
	seen := map[string]bool{}

	for i := 0; i < 200 && len(seen) < 2; i++ {
		got, err := Render(encoded, domain.Contact{})
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		seen[got] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Fatalf("expected both alternatives over repeated renders, saw %v", seen)
	}
}

func TestRender_SequentialGroupsResolvedIndependently(t *testing.T) {
	encoded := Encode("[a|b] [c|d]")

	got, err := Render(encoded, domain.Contact{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.ContainsAny(got, "[]%") {
		t.Fatalf("residual bracket group in %q", got)
	}
	valid := map[string]bool{"a+c": true, "a+d": true, "b+c": true, "b+d": true}
	if !valid[got] {
		t.Fatalf("unexpected combination %q", got)
	}
}

func TestRender_AlternativesTrimmed(t *testing.T) {
	got, err := Render(Encode("[ spaced | padded ]"), domain.Contact{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got != "spaced" && got != "padded" {
		t.Fatalf("alternative not trimmed: %q", got)
	}
}

func TestRender_NestedGroupRejected(t *testing.T) {
	_, err := Render(Encode("[a|[b|c]]"), domain.Contact{})
	if err == nil {
		t.Fatal("expected error for nested variation group")
	}
	var terr *Error
	if !errors.As(err, &terr) {
		t.Fatalf("expected *template.Error, got %T", err)
	}
}

func TestRender_MalformedEncodingRejected(t *testing.T) {
	if _, err := Render("bad%zz", domain.Contact{}); err == nil {
		t.Fatal("expected error for malformed percent encoding")
	}
}

func TestEncode_SpaceBecomesPlus(t *testing.T) {
	if got := Encode("hello world"); got != "hello+world" {
		t.Fatalf("expected hello+world, got %q", got)
	}
}

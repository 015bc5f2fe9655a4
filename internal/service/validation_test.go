package service

import (
	"errors"
	"strings"
	"testing"
)

func TestEmailValidator(t *testing.T) {
	v := newEmailValidator(nil)

	tests := []struct {
		email   string
		wantErr error
	}{
		{"alice@gmail.com", nil},
		{"bob.smith@ridecell.com", nil},
		{"first-last@gmail.com", nil},
		{"Alice@GMAIL.com", nil},
		{"eve@example.org", ErrInvalidEmail},
		{"no-at-sign", ErrInvalidEmail},
		{"@gmail.com", ErrInvalidEmail},
		{"alice@gmail", ErrInvalidEmail},
		{"alice@gmail.comxx", ErrInvalidEmail},
		{"alice..b@gmail.com", ErrInvalidEmail},
		{"", ErrInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			err := v.validate(tt.email)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("validate(%q) = %v, want %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestEmailValidator_CustomDomains(t *testing.T) {
	v := newEmailValidator([]string{" Example.org ", ""})

	if err := v.validate("eve@example.org"); err != nil {
		t.Fatalf("expected custom domain to be allowed, got %v", err)
	}
	if err := v.validate("alice@gmail.com"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected default domains to be replaced, got %v", err)
	}
}

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{"valid", "Daily standup", nil},
		{"empty", "", ErrMissingField},
		{"blank", "  ", ErrInvalidTitle},
		{"slash", "team/sync", ErrInvalidTitle},
		{"newline", "a\nb", ErrInvalidTitle},
		{"too long", strings.Repeat("x", maxTitleLength+1), ErrInvalidTitle},
		{"max length", strings.Repeat("x", maxTitleLength), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateTitle(tt.title); !errors.Is(err, tt.wantErr) {
				t.Fatalf("validateTitle(%q) = %v, want %v", tt.title, err, tt.wantErr)
			}
		})
	}
}

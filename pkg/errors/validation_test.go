package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "Home", false},
		{"empty", "", false},
		{"unicode", "Über uns", false},
		{"tab", "a\tb", false},

		{"too long", strings.Repeat("x", MaxLabelLength+1), true},
		{"newline", "foo\nbar", true},
		{"null byte", "foo\x00bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidOutline) {
				t.Errorf("ValidateLabel(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidOutline)
			}
		})
	}
}

func TestValidateHref(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"relative", "/about.html", false},
		{"absolute", "https://example.com/a?b=c", false},
		{"fragment", "#top", false},

		{"javascript", "javascript:alert(1)", true},
		{"javascript upper", " JavaScript:alert(1)", true},
		{"newline", "/a\nb", true},
		{"too long", "/" + strings.Repeat("a", MaxHrefLength), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHref(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHref(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "site/outline.html", false},
		{"absolute", "/tmp/map.svg", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "a\x00b", true},
		{"control", "a\x01b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

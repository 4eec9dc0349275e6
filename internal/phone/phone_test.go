package phone

import (
	"errors"
	"testing"
)

func TestIsPhoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		// Valid phone numbers
		{"10 digits", "2025550143", true},
		{"10 digits with dashes", "202-555-0143", true},
		{"10 digits with parens", "(202) 555-0143", true},
		{"E.164 format", "+12025550143", true},
		{"UK mobile with spaces", "07911 123456", true},

		// Invalid - emails
		{"simple email", "user@example.com", false},
		{"numeric local part email", "2025550143@carrier.com", false},

		// Invalid - too short
		{"empty string", "", false},
		{"9 digits", "202555014", false},

		// Invalid - letters
		{"letters only", "abcdefghij", false},
		{"letters mixed in", "202abc5550143", false},
		{"plus in the middle", "202+5550143", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPhoneNumber(tt.input)
			if got != tt.expected {
				t.Errorf("IsPhoneNumber(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		region   string
		expected string
	}{
		{"US plain", "2025550143", "US", "+12025550143"},
		{"US formatted", "(202) 555-0143", "US", "+12025550143"},
		{"US E.164 passthrough", "+1 202 555 0143", "GB", "+12025550143"},
		{"UK mobile national", "07911 123456", "GB", "+447911123456"},
		{"UK mobile lowercase region", "07911123456", "gb", "+447911123456"},
		{"UK E.164", "+447911123456", "US", "+447911123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input, tt.region)
			if err != nil {
				t.Fatalf("Normalize(%q, %q): %v", tt.input, tt.region, err)
			}
			if got != tt.expected {
				t.Errorf("Normalize(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.expected)
			}
		})
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, input := range []string{"", "123", "user@example.com", "call me maybe"} {
		if _, err := Normalize(input, "GB"); !errors.Is(err, ErrInvalidNumber) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidNumber", input, err)
		}
	}
}

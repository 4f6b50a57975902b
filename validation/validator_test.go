package validation

import (
	"strings"
	"testing"
	"time"
)

func TestValidateInput(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple title", "COVID-19 Cases", false},
		{"punctuation", "State Drug Utilization Data (2020): Q1 & Q2", false},
		{"accents", "Céleri", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("ab", 501), true},
		{"script tag", "<script>alert(1)</script>", true},
		{"sql injection", "x' OR 1=1", true},
		{"path traversal", "../../etc/passwd", true},
		{"control character", "abc\x00def", true},
		{"excessive repetition", "aaaaaaaaaaaaaaa", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInput(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInput(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSearchTerm(t *testing.T) {
	v := NewValidator()

	long := strings.Repeat("Monthly enrollment in Medicaid and CHIP by state. ", 25)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple title", "COVID-19 Cases", false},
		{"longer than free-text limit", long, false},
		{"possessive before or", "Counts of members enrolled in states' or territories' CHIP programs", false},
		{"dash rule", "Monthly totals ----------- by state", false},
		{"multi-line description", "First line\r\nSecond line\tend", false},
		{"empty", "", true},
		{"whitespace only", " \t ", true},
		{"control character", "abc\x00def", true},
		{"too long", strings.Repeat("a", maxSearchTermLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateSearchTerm(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSearchTerm(%.40q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSchema(t *testing.T) {
	v := NewValidator()

	for _, ok := range []string{"dataset", "distribution", "data-dictionary", "theme"} {
		if err := v.ValidateSchema(ok); err != nil {
			t.Errorf("ValidateSchema(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "Dataset", "1dataset", "data set", "../items"} {
		if err := v.ValidateSchema(bad); err == nil {
			t.Errorf("ValidateSchema(%q) should fail", bad)
		}
	}
}

func TestValidateIdentifier(t *testing.T) {
	v := NewValidator()

	for _, ok := range []string{"a4b2-3xz9", "3f1c9d2e-1b6a-4c5e-9f2a-0d8b7c6a5e4f", "ds_covid.v2"} {
		if err := v.ValidateIdentifier(ok); err != nil {
			t.Errorf("ValidateIdentifier(%q) unexpected error: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "-leading", "has space", "a/b", strings.Repeat("a", 129)} {
		if err := v.ValidateIdentifier(bad); err == nil {
			t.Errorf("ValidateIdentifier(%q) should fail", bad)
		}
	}
}

func TestValidateNDC(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"59148-006-13", "59148-006-13", false},
		{"0093-7146-56", "0093-7146-56", false},
		{"59148000613", "59148000613", false},
		{" 5914800613 ", "5914800613", false},
		{"", "", true},
		{"59148-006", "", true},
		{"59148--00613", "", true},
		{"-59148-00613", "", true},
		{"59148-006-1", "", true},
		{"5914A-006-13", "", true},
		{"591480061300", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.ValidateNDC(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateNDC(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateNDC(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateApplicationNumber(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"021436", "21436", false},
		{"N021436", "21436", false},
		{"nda021436", "21436", false},
		{"BLA 125057", "125057", false},
		{"ANDA076477", "76477", false},
		{"", "", true},
		{"NDA", "", true},
		{"1234567", "", true},
		{"XYZ123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := v.ValidateApplicationNumber(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateApplicationNumber(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateApplicationNumber(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	v := NewValidator()

	if err := v.ValidateURL("https://data.medicaid.gov/files/nadac.csv"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, bad := range []string{"", "ftp://example.gov/a.csv", "/relative/path.csv", "https://"} {
		if err := v.ValidateURL(bad); err == nil {
			t.Errorf("ValidateURL(%q) should fail", bad)
		}
	}
}

func TestValidateDate(t *testing.T) {
	v := NewValidator()

	got, err := v.ValidateDate("2020-01-04")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(time.Date(2020, 1, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ValidateDate() = %v", got)
	}

	for _, bad := range []string{"", "04/01/2020", "2020-13-01", "2020-01-04T00:00:00"} {
		if _, err := v.ValidateDate(bad); err == nil {
			t.Errorf("ValidateDate(%q) should fail", bad)
		}
	}
}

package triage

import (
	"errors"
	"testing"
)

func TestExtractIP(t *testing.T) {
	cases := []struct {
		title  string
		want   string
		wantOK bool
	}{
		{"Contactformulier KPN voor het IP adres [203.0.113.5]", "203.0.113.5", true},
		{"Contactformulier KPN voor het IP adres 10.0.0.1", "10.0.0.1", true},
		{"two addresses [192.0.2.1] and [192.0.2.2]", "192.0.2.1", true},
		{"no octet range check 999.999.999.999", "999.999.999.999", true},
		{"any separator 10-1-2-3 works", "10-1-2-3", true},
		{"Misbruik van uw internetverbinding [198.51.100.7]", "198.51.100.7", true},
		{"Contactformulier KPN voor het IP adres []", "", false},
		{"only three 10.0.0", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := ExtractIP(c.title)
		if got != c.want || ok != c.wantOK {
			t.Errorf("ExtractIP(%q) = %q, %v, want %q, %v", c.title, got, ok, c.want, c.wantOK)
		}
	}
}

func TestValidateFilter(t *testing.T) {
	cases := []struct {
		filter string
		valid  bool
	}{
		{"%", true},
		{"203.0.113.5", true},
		{"300.1.1.1", true},
		{"", false},
		{"%%", false},
		{"203.0", false},
		{"host.example.net", false},
		{"203.0.113.5 ", false},
	}
	for _, c := range cases {
		err := ValidateFilter(c.filter)
		if c.valid && err != nil {
			t.Errorf("ValidateFilter(%q) = %v, want nil", c.filter, err)
		}
		if !c.valid && !errors.Is(err, ErrInvalidIP) {
			t.Errorf("ValidateFilter(%q) = %v, want ErrInvalidIP", c.filter, err)
		}
	}
}

package sanitize

import (
	"errors"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Shirt  ", "Shirt"},
		{"<script>alert(1)</script>Jeans", "Jeans"},
		{"<b>Ayesha</b>\n\tKhan", "Ayesha Khan"},
		{"Tom & Jerry", "Tom & Jerry"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Siti Nur'aini", "Siti Nur'aini"},
		{"Jean-Luc O. Picard", "Jean-Luc O. Picard"},
		{"Bilal 123 <i>x</i>", "Bilal x"},
		{"Zoë", "Zoë"},
	}
	for _, tc := range tests {
		if got := Name(tc.in); got != tc.want {
			t.Errorf("Name(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"0812-3456 789", "08123456789", nil},
		{"+62 812 3456 789", "+628123456789", nil},
		{"", "", nil},
		{"12", "", ErrInvalidPhone},
		{"call me", "", ErrInvalidPhone},
	}
	for _, tc := range tests {
		got, err := Phone(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("Phone(%q): err %v, want %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("Phone(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{" Rina@LoomLine.ID ", "rina@loomline.id", false},
		{"admin@example.com", "admin@example.com", false},
		{"Rina <rina@loomline.id>", "", true},
		{"no-at-sign", "", true},
		{"user@localhost", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := Email(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidEmail) {
				t.Errorf("Email(%q): got %v, want ErrInvalidEmail", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("Email(%q): got %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestDate(t *testing.T) {
	if got, err := Date("2024-01-10"); err != nil || got != "2024-01-10" {
		t.Errorf("valid date: got %q, %v", got, err)
	}
	if got, err := Date(""); err != nil || got != "" {
		t.Errorf("empty date: got %q, %v", got, err)
	}
	for _, bad := range []string{"10/01/2024", "2024-13-01", "yesterday"} {
		if _, err := Date(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Date(%q): got %v, want ErrInvalidDate", bad, err)
		}
	}
}

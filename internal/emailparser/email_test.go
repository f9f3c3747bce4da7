package emailparser

import "testing"

func TestValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"nasrinak@buffalo.edu", true},
		{"first.last-1@cse.buffalo.edu", true},
		{"invalid-email", false},
		{"a@b", false},
		{"spaces in@buffalo.edu", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Fatalf("Valid(%q)=%v, want %v", tt.in, got, tt.want)
		}
	}
}

// TestNormalize covers the shapes mailto hrefs take in directory markup.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"mailto:nasrinak@buffalo.edu", "nasrinak@buffalo.edu"},
		{"MAILTO:nasrinak@buffalo.edu", "nasrinak@buffalo.edu"},
		{" mailto:nasrinak@buffalo.edu?subject=Office%20hours ", "nasrinak@buffalo.edu"},
		{"nasrinak@buffalo.edu", "nasrinak@buffalo.edu"},
		{"mailto:", ""},
		{"mailto:not an email", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q)=%q, want %q", tt.in, got, tt.want)
		}
	}
}

package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNotes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"passthrough clean text", "Electrode 12 re-seated after drift", "Electrode 12 re-seated after drift"},
		{"strip null bytes", "Impedance\x00 ok", "Impedance ok"},
		{"strip control characters", "Ref\x01 chan\x07nel\x7f", "Ref channel"},
		{"preserve newlines and tabs", "Line one\nLine two\n\tIndented", "Line one\nLine two\n\tIndented"},
		{"strip html tags", "Check <b>ch 4</b> <script>alert(1)</script>", "Check ch 4 alert(1)"},
		{"strip processing instruction", `<?xml version="1.0"?>notes`, "notes"},
		{"keep comparison operators", "SNR < 4 on 3 channels", "SNR < 4 on 3 channels"},
		{"collapse excessive newlines", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim whitespace", "  \n spaced \n ", "spaced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Notes(tt.input); got != tt.want {
				t.Errorf("Notes(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNotes_Truncates(t *testing.T) {
	got := Notes(strings.Repeat("x", MaxNotesLength+50))
	if len(got) != MaxNotesLength {
		t.Errorf("len = %d, want %d", len(got), MaxNotesLength)
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"passthrough", "Reach decoding v2", "Reach decoding v2"},
		{"newlines become spaces", "Reach\ndecoding\tv2", "Reach decoding v2"},
		{"collapse whitespace", "  Dr.   Rivera  ", "Dr. Rivera"},
		{"strip tags", "<i>Grid</i> search", "Grid search"},
		{"only control characters", "\x01\x02", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.input); got != tt.want {
				t.Errorf("Label(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLabel_TruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes so MaxLabelLength falls mid-sequence.
	got := Label(strings.Repeat("é€", MaxLabelLength))
	if len(got) > MaxLabelLength {
		t.Errorf("len = %d, want <= %d", len(got), MaxLabelLength)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Label produced invalid UTF-8: %q", got)
	}
}

package timeutil

import "testing"

func TestParseClockToMinutes(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"9:30", 570, true},
		{"09:30", 570, true},
		{"23:05", 1385, true},
		{"0:00", 0, true},
		{"9:30am", 570, true},
		{"9:30AM", 570, true},
		{"9:30 pm", 1290, true},
		{"12:00PM", 720, true},
		{"12:00AM", 0, true},
		{" 11:00 PM ", 1380, true},
		{"", 0, false},
		{"noonish", 0, false},
		{"25:00", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseClockToMinutes(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseClockToMinutes(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ParseClockToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMinutesToDisplay(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "12:00AM"},
		{570, "9:30AM"},
		{660, "11:00AM"},
		{720, "12:00PM"},
		{1290, "9:30PM"},
		{1380, "11:00PM"},
	}
	for _, tt := range tests {
		if got := MinutesToDisplay(tt.minutes); got != tt.want {
			t.Errorf("MinutesToDisplay(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

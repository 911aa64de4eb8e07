package utils

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Toyota Avanza", "toyota-avanza"},
		{"Avanza G 1.5", "avanza-g-1-5"},
		{"  BMW   X5  ", "bmw-x5"},
		{"Ioniq 5 (Signature)", "ioniq-5-signature"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCarSlug(t *testing.T) {
	if got := CarSlug("Toyota Avanza", 12); got != "toyota-avanza-12" {
		t.Errorf("CarSlug() = %q", got)
	}
	// A name with no usable characters still produces a unique key.
	if got := CarSlug("???", 7); got != "7" {
		t.Errorf("CarSlug(empty slug) = %q", got)
	}
}

package utils

import (
	"strconv"
	"strings"
)

// Slugify lowercases a car name and reduces it to hyphen-separated ASCII
// words: "Avanza G 1.5" -> "avanza-g-1-5".  Runs of non-alphanumeric
// characters collapse into a single hyphen and leading/trailing hyphens
// are trimmed.
func Slugify(name string) string {
	var b strings.Builder
	prevHyphen := true // swallow leading separators
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// CarSlug builds the stable external key for a car.  The numeric id suffix
// keeps slugs unique even when two cars share a name, and lets lookups
// fall back to the id when the name portion has drifted.
func CarSlug(name string, id uint64) string {
	s := Slugify(name)
	if s == "" {
		return strconv.FormatUint(id, 10)
	}
	return s + "-" + strconv.FormatUint(id, 10)
}

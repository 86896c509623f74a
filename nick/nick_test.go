package nick

import (
	"bytes"
	"regexp"
	"strings"
	"testing"
)

var rgxValidNick = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

func TestNextProducesValidNicks(t *testing.T) {
	g := New()
	seen := make(map[string]bool)

	for i := 0; i < 64; i++ {
		n := g.Next()
		if !rgxValidNick.MatchString(n) {
			t.Fatalf("Invalid nickname produced: %q", n)
		}
		if len(n) > maxLength {
			t.Fatalf("Nickname too long: %q (%d)", n, len(n))
		}
		seen[n] = true
	}

	if len(seen) < 60 {
		t.Errorf("Expected near-unique nicknames, got %d distinct of 64", len(seen))
	}
}

func TestNextDeterministicSuffix(t *testing.T) {
	entropy := bytes.NewReader([]byte{
		0, 0, 0, 0, 0, 0, 0, 1,
	})
	g := NewSource(entropy)

	n := g.Next()
	if !strings.HasSuffix(n, "_1") {
		t.Errorf("Expected suffix from injected entropy, got %q", n)
	}
}

func TestNextFallsBackWithoutEntropy(t *testing.T) {
	// empty reader: every read fails
	g := NewSource(bytes.NewReader(nil))

	a, b := g.Next(), g.Next()
	if !rgxValidNick.MatchString(a) || !rgxValidNick.MatchString(b) {
		t.Fatalf("Fallback produced invalid nicknames: %q %q", a, b)
	}
	if a == b {
		t.Errorf("Fallback nicknames must still differ: %q", a)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"boring_wozniak", "boring_wozniak"},
		{"9starts_with_digit", "starts_with_digit"},
		{"we!rd-ch@rs", "werdchrs"},
		{"", "guest"},
		{"_", "guest"},
	}

	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

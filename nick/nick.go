/*
Package nick generates throwaway IRC nicknames and usernames. Generated names
are probabilistically unique, which is enough to dodge collisions on a shared
network for the lifetime of one session; they carry no uniqueness guarantee.
*/
package nick

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/docker/docker/pkg/namesgenerator"
)

const (
	// maxLength is the longest nickname we will produce. Old servers
	// truncate at 9, modern ones advertise 30 or more; staying at 30 keeps
	// the random suffix intact on anything current.
	maxLength = 30
)

// fallbackCounter feeds nickname suffixes when the entropy source fails.
var fallbackCounter uint64

// processStart distinguishes fallback suffixes across restarts.
var processStart = time.Now().Unix()

// Generator produces nicknames from an entropy source. The zero value is not
// usable; construct with New or NewSource. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// New returns a Generator backed by the runtime's entropy source.
func New() *Generator {
	return NewSource(rand.Reader)
}

// NewSource returns a Generator reading entropy from src. Tests substitute a
// deterministic reader here.
func NewSource(src io.Reader) *Generator {
	return &Generator{entropy: src}
}

// Next produces a nickname satisfying IRC constraints: starts with a letter,
// contains only letters, digits and underscores, and is at most maxLength
// long. It never fails; when entropy is unavailable it falls back to a
// counter mixed with the process start time.
func (g *Generator) Next() string {
	base := sanitize(namesgenerator.GetRandomName(0))
	suffix := g.suffix()

	if len(base)+1+len(suffix) > maxLength {
		base = base[:maxLength-1-len(suffix)]
	}
	return base + "_" + suffix
}

// suffix returns base-36 characters derived from the entropy source, or from
// the counter fallback when the source fails.
func (g *Generator) suffix() string {
	var buf [8]byte

	g.mu.Lock()
	_, err := io.ReadFull(g.entropy, buf[:])
	g.mu.Unlock()

	var v uint64
	if err != nil {
		v = atomic.AddUint64(&fallbackCounter, 1) + uint64(processStart)<<20
	} else {
		v = binary.BigEndian.Uint64(buf[:])
	}

	// keep the low digits so consecutive fallback values stay distinct
	const suffixMod = 36 * 36 * 36 * 36 * 36 * 36
	return strconv.FormatUint(v%suffixMod, 36)
}

// sanitize strips anything outside the nickname alphabet and guarantees the
// result starts with a letter.
func sanitize(s string) string {
	b := &strings.Builder{}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			b.WriteByte(c)
		case (c >= '0' && c <= '9') || c == '_':
			if b.Len() > 0 {
				b.WriteByte(c)
			}
		}
	}
	if b.Len() == 0 {
		return "guest"
	}
	return b.String()
}

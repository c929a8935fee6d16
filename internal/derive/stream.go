package derive

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// byteGenerator yields an unbounded byte sequence from counter-chained
// HMAC-SHA256 blocks. The seed keys the MAC; the purpose, index, and block
// counter form the message, so streams for distinct purposes never share
// output.
type byteGenerator struct {
	seed    Seed
	purpose string
	index   int
	block   int
	cursor  int
	buffer  [sha256.Size]byte
}

func (bg *byteGenerator) next() byte {
	if bg.cursor == 0 {
		h := hmac.New(sha256.New, []byte(bg.seed))
		fmt.Fprintf(h, "%s:%d:%d", bg.purpose, bg.index, bg.block)
		copy(bg.buffer[:], h.Sum(nil))
	}

	b := bg.buffer[bg.cursor]

	bg.cursor++
	if bg.cursor == len(bg.buffer) {
		bg.cursor = 0
		bg.block++
	}

	return b
}

// Stream is a deterministic pseudorandom stream scoped to a single
// (seed, purpose, index) triple. Construction is O(1) and streams share no
// state, so independently built streams may be drawn from concurrently.
type Stream struct {
	bg byteGenerator
}

// NewStream returns the stream for the given seed, purpose, and index.
// Identical arguments always yield a byte-identical sequence of draws.
func NewStream(seed Seed, purpose string, index int) *Stream {
	return &Stream{
		bg: byteGenerator{
			seed:    seed,
			purpose: purpose,
			index:   index,
		},
	}
}

// Uint32 consumes four bytes and returns them as a big-endian integer.
func (s *Stream) Uint32() uint32 {
	return uint32(s.bg.next())<<24 |
		uint32(s.bg.next())<<16 |
		uint32(s.bg.next())<<8 |
		uint32(s.bg.next())
}

// Float64 returns a well-distributed value in [0, 1), built from four bytes.
func (s *Stream) Float64() float64 {
	return float64(s.Uint32()) / (1 << 32)
}

// Intn returns a value in [0, n). Non-positive n yields 0.
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		return 0
	}

	return int(s.Float64() * float64(n))
}

// Shuffle performs a Fisher-Yates shuffle over n elements using swap.
func (s *Stream) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Intn(i + 1)
		swap(i, j)
	}
}

// Hex returns n uppercase hex characters drawn from the stream.
func (s *Stream) Hex(n int) string {
	if n <= 0 {
		return ""
	}

	raw := make([]byte, (n+1)/2)
	for i := range raw {
		raw[i] = s.bg.next()
	}

	return strings.ToUpper(hex.EncodeToString(raw))[:n]
}

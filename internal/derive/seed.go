package derive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Seed is an opaque hex-encoded SHA-256 digest. Everything the game shows a
// participant is a pure function of one of these, so two clients holding the
// same seed can derive identical content without talking to each other.
type Seed string

// DefaultBucketMs quantizes wall-clock time into 3-minute windows, so two
// participants who enter the same word within the same window land on the
// same seed.
const DefaultBucketMs int64 = 3 * 60 * 1000

// Bucketed derives a seed from a quantized timestamp and a textual
// identifier. Calls within the same bucket window for the same identifier
// are seed-identical; adjacent windows are unrelated.
func Bucketed(identifier string, clockMs, bucketMs int64) Seed {
	if bucketMs <= 0 {
		bucketMs = DefaultBucketMs
	}
	bucket := clockMs / bucketMs

	return hash(fmt.Sprintf("%d-%s", bucket, identifier))
}

// RoomSeed derives a room's game seed from its creation time and the active
// participants' display names. Unlike Bucketed, the result does not move
// with the clock: once a room fixes its seed it stays fixed.
func RoomSeed(createdAtMs int64, names []string) Seed {
	return hash(fmt.Sprintf("%d-%s", createdAtMs, strings.Join(names, "-")))
}

func hash(s string) Seed {
	sum := sha256.Sum256([]byte(s))

	return Seed(hex.EncodeToString(sum[:]))
}

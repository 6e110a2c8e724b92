package app

import (
	"crypto/sha256"
	"encoding/binary"
	"sync"
)

// EntropyProvider supplies the unpredictable bytes mixed into a winner draw.
// The value must be unknowable before the draw tx is submitted but identical
// for every node replaying the same block. Production feeds the hash of the
// block being executed; tests inject fixed bytes to pin draw outcomes.
type EntropyProvider interface {
	Entropy(height int64) []byte
}

// blockEntropy carries the current block's hash, set by FinalizeBlock before
// the tx loop runs.
type blockEntropy struct {
	mu   sync.Mutex
	hash []byte
}

func (b *blockEntropy) SetHash(hash []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hash = append(b.hash[:0], hash...)
}

func (b *blockEntropy) Entropy(height int64) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, 0, len(b.hash)+8)
	out = append(out, b.hash...)
	var h [8]byte
	binary.LittleEndian.PutUint64(h[:], uint64(height))
	return append(out, h[:]...)
}

// fixedEntropy returns the same bytes on every call.
type fixedEntropy []byte

func (f fixedEntropy) Entropy(int64) []byte { return f }

// drawWinner derives the winning ticket number in [1, maxInclusive] from the
// execution-time entropy and the game's identifiers. Any verifier replaying
// the block reproduces the same value. The modulo reduction's bias is
// negligible for maxInclusive small relative to the 64-bit hash space.
func drawWinner(entropy []byte, gameID uint64, createdAt int64, nowUnix int64, maxInclusive uint64) uint64 {
	buf := make([]byte, 0, len(entropy)+24)
	buf = append(buf, entropy...)
	var w [8]byte
	binary.LittleEndian.PutUint64(w[:], gameID)
	buf = append(buf, w[:]...)
	binary.LittleEndian.PutUint64(w[:], uint64(createdAt))
	buf = append(buf, w[:]...)
	binary.LittleEndian.PutUint64(w[:], uint64(nowUnix))
	buf = append(buf, w[:]...)

	sum := sha256.Sum256(buf)
	// Second 8-byte word of the digest.
	return binary.LittleEndian.Uint64(sum[8:16])%maxInclusive + 1
}

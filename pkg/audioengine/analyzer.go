package audioengine

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"hash"
)

// FingerprintHasher menghitung stempel PCM sambil jalan, untuk pipeline
// encode yang tidak pernah menahan seluruh stem di memori.
type FingerprintHasher struct {
	h hash.Hash
}

func NewFingerprint() *FingerprintHasher {
	return &FingerprintHasher{h: sha256.New()}
}

func (f *FingerprintHasher) Write(samples []int16) {
	for _, s := range samples {
		binary.Write(f.h, binary.LittleEndian, s)
	}
}

func (f *FingerprintHasher) Sum() string {
	return fmt.Sprintf("STMX-%x", f.h.Sum(nil)[:12])
}

// Fingerprint membuat hash dari data PCM stem untuk stempel TOC bundle
func Fingerprint(samples []int16) string {
	fp := NewFingerprint()
	fp.Write(samples)
	return fp.Sum()
}

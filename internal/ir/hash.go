package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainPulse   = "pulsekit/pulse/v1"
	DomainCircuit = "pulsekit/circuit/v1"
	DomainJob     = "pulsekit/job/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SampleHash names a sample vector by content. Two vectors with identical
// samples always hash identically; the encoding is the little-endian IEEE 754
// bits of each real part followed by its imaginary part.
func SampleHash(samples []complex128) string {
	buf := make([]byte, 16*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint64(buf[16*i:], math.Float64bits(normZero(real(s))))
		binary.LittleEndian.PutUint64(buf[16*i+8:], math.Float64bits(normZero(imag(s))))
	}
	return hashWithDomain(DomainPulse, buf)
}

// ContentHash computes a domain-separated hash of v's canonical JSON.
// Returns error if v cannot be canonically marshaled.
func ContentHash(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("ContentHash: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// normZero folds -0 into +0 so sign-of-zero never splits library entries.
func normZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// HashJSON computes a domain-separated hash of a JSON document after
// canonicalizing it with CanonicalizeJSON.
func HashJSON(domain string, data []byte) (string, error) {
	canonical, err := CanonicalizeJSON(data)
	if err != nil {
		return "", fmt.Errorf("HashJSON: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

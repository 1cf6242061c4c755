package visitors

import (
	"crypto/sha256"

	"github.com/dchest/siphash"
)

// ID derives a privacy-first visitor identifier from the tracked domain, the
// client address and the user agent. The inputs are run through SipHash keyed
// with the service private key, so the raw IP address is never stored and the
// identifier cannot be reversed. The same inputs always map to the same
// identifier; there is no time-based rotation.
func ID(key Key, domain, ipAddress, userAgent string) int64 {
	h := siphash.New(key[:])
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write([]byte(ipAddress))
	h.Write([]byte{0})
	h.Write([]byte(userAgent))
	return int64(h.Sum64())
}

// Key is the 128-bit SipHash key derived from the service private key.
type Key [16]byte

// DeriveKey stretches the configured private key into a SipHash key. Hashing
// first means operators can use a passphrase of any length.
func DeriveKey(privateKey string) Key {
	sum := sha256.Sum256([]byte(privateKey))
	var k Key
	copy(k[:], sum[:16])
	return k
}

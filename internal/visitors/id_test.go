package visitors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDIsDeterministic(t *testing.T) {
	key := DeriveKey("test-private-key")

	first := ID(key, "example.com", "203.0.113.7", "Mozilla/5.0 Test Browser")
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, ID(key, "example.com", "203.0.113.7", "Mozilla/5.0 Test Browser"))
	}
}

func TestIDChangesWithAnyInput(t *testing.T) {
	key := DeriveKey("test-private-key")
	base := ID(key, "example.com", "203.0.113.7", "Mozilla/5.0 Test Browser")

	assert.NotEqual(t, base, ID(key, "example.org", "203.0.113.7", "Mozilla/5.0 Test Browser"))
	assert.NotEqual(t, base, ID(key, "example.com", "203.0.113.8", "Mozilla/5.0 Test Browser"))
	assert.NotEqual(t, base, ID(key, "example.com", "203.0.113.7", "Mozilla/5.0 Other Browser"))
}

func TestIDChangesWithKey(t *testing.T) {
	a := ID(DeriveKey("key-a"), "example.com", "203.0.113.7", "ua")
	b := ID(DeriveKey("key-b"), "example.com", "203.0.113.7", "ua")
	assert.NotEqual(t, a, b)
}

func TestIDFieldBoundariesAreUnambiguous(t *testing.T) {
	// "ab" + "c" must not collide with "a" + "bc" in the concatenation.
	key := DeriveKey("test-private-key")
	assert.NotEqual(t,
		ID(key, "example.com", "ab", "c"),
		ID(key, "example.com", "a", "bc"))
}

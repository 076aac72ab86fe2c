// internal/pipeline/growth-triggers/cachekey.go
package growthtriggers

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey returns the hex SHA-256 digest of a serialized, truncated
// website context. The key is a pure content fingerprint: identical context
// always yields the same key, and any content drift changes it, which is
// the cache-invalidation mechanism.
func DeriveKey(contextText string) string {
	sum := sha256.Sum256([]byte(contextText))
	return hex.EncodeToString(sum[:])
}

package domain

// ScopedKeyData is the key-derivation metadata for a single scope,
// handed to clients so they can derive scoped encryption keys.
type ScopedKeyData struct {
	// Scope is the canonical scope name this metadata belongs to.
	Scope string

	// Identifier is the stable key identifier for the scope.
	Identifier string

	// KeyRotationSecret is a 32-byte hex secret mixed into key
	// derivation.
	KeyRotationSecret string

	// KeyRotationTimestamp is the unix-millisecond time of the last key
	// rotation.
	KeyRotationTimestamp int64
}

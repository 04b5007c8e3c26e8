package types

// Address identifies a participant: an account holder, the vault, or an
// operator. Addresses are opaque strings assigned by the host application
// (wallet addresses, tenant IDs, service identities).
type Address string

// IsZero returns true if the address is unset.
func (a Address) IsZero() bool { return a == "" }

// String returns the address as a string.
func (a Address) String() string { return string(a) }

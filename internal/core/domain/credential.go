package domain

import "time"

// expirySkew is subtracted from the expiry timestamp so a token is refreshed
// slightly before the platform would reject it.
const expirySkew = 2 * time.Minute

// Credential is a bearer token for the platform management API. Held in
// memory for the duration of a run, never persisted.
type Credential struct {
	Token  string
	Expiry time.Time
}

// Valid reports whether the credential can still be used at the given time.
// A zero expiry means the token carries no expiry information (static tokens
// supplied by CI) and is always considered valid.
func (c Credential) Valid(now time.Time) bool {
	if c.Token == "" {
		return false
	}
	if c.Expiry.IsZero() {
		return true
	}
	return now.Before(c.Expiry.Add(-expirySkew))
}

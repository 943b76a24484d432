package provision

import (
	"errors"
	"regexp"
)

// SessionIDLength is the length of a device session id in hex characters
const SessionIDLength = 16

// sessionPattern finds the session id embedded in the welcome page's
// secure_link.lua link. The link text is matched case-insensitively, the
// token itself must be lowercase hex.
var sessionPattern = regexp.MustCompile(`(?i:secure_link\.lua\?sid=)([0-9a-f]{16})`)

var validSessionID = regexp.MustCompile(`^[0-9a-f]{16}$`)

// ErrNoSessionID is returned by ExtractSessionID when the body carries no token
var ErrNoSessionID = errors.New("no secure_link.lua?sid= token in page")

// SessionID is the token the device hands out on its welcome page. It
// authorises every later request of the same run.
type SessionID string

// Valid reports whether s is exactly 16 lowercase hex characters
func (s SessionID) Valid() bool {
	return validSessionID.MatchString(string(s))
}

// Redacted returns a shortened form safe for log output
func (s SessionID) Redacted() string {
	if len(s) <= 4 {
		return "…"
	}
	return string(s[:4]) + "…"
}

// ExtractSessionID returns the first session id found in an HTML body
func ExtractSessionID(body []byte) (SessionID, error) {
	m := sessionPattern.FindSubmatch(body)
	if m == nil {
		return "", ErrNoSessionID
	}
	return SessionID(m[1]), nil
}

package contextutils

import (
	"net/url"
	"strings"
)

// MaskDatabaseURL masks the password portion of a database URL for logging purposes.
func MaskDatabaseURL(dbURL string) string {
	if dbURL == "" {
		return "[EMPTY]"
	}

	parsed, err := url.Parse(dbURL)
	if err != nil || parsed.User == nil {
		return dbURL
	}

	if _, has := parsed.User.Password(); has {
		parsed.User = url.UserPassword(parsed.User.Username(), "****")
	}
	// url.UserPassword escapes the mask; keep it readable
	return strings.ReplaceAll(parsed.String(), "%2A%2A%2A%2A", "****")
}

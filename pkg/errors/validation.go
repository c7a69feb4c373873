package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const maxIDLength = 256

// ValidateNodeID validates a creator id received from an untrusted caller,
// such as a pointer event or a selection request.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// platformRegex matches platform slugs such as "xiaohongshu" or "douyin".
var platformRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]{0,63}$`)

// ValidatePlatform validates a platform slug. Platforms end up in cache keys
// and database queries, so only lowercase slugs are accepted.
func ValidatePlatform(platform string) error {
	if platform == "" {
		return New(ErrCodeInvalidInput, "platform cannot be empty")
	}
	if !platformRegex.MatchString(platform) {
		return New(ErrCodeInvalidInput, "invalid platform: %q", platform)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}

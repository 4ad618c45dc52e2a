package respond

import (
	"regexp"

	"skillgap-ai/internal/guard"
)

// dbPasswordPattern matches the password part of a DSN.
var dbPasswordPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

// SanitizeError returns err's message with API keys and DSN passwords masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := guard.MaskSecrets(err.Error())
	return dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
}

// Package guard is the trust boundary around the language model.
//
// Outbound, Sanitize strips personal data, credentials and markup from user
// text before it is placed in a prompt. Inbound, ExtractJSON recovers a JSON
// object from free-form model output and the Parse* functions coerce it into
// typed results through declarative schemas: fields are defaulted, clamped,
// truncated or nulled, never invented, and every adjustment is reported as an
// entity.Correction.
package guard

import (
	"regexp"
	"unicode"

	"skillgap-ai/internal/utils/text"
)

// MaxInputRunes caps sanitized user text.
const MaxInputRunes = 5000

// Redaction placeholders.
const (
	RedactedEmail  = "[EMAIL]"
	RedactedPhone  = "[PHONE]"
	RedactedURL    = "[URL]"
	RedactedSecret = "[REDACTED]"
)

// minPhoneDigits keeps year ranges such as 2019-2023 out of phone redaction.
const minPhoneDigits = 9

var (
	tagPattern    = regexp.MustCompile(`<[^<>]{0,500}>`)
	secretPattern = regexp.MustCompile(`\bsk-(?:ant-)?[A-Za-z0-9_\-]{16,}`)
	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlPattern    = regexp.MustCompile(`(?i)\b(?:https?://|www\.)[^\s<>"']+`)
	phonePattern  = regexp.MustCompile(`\+?\(?\d[\d\s().\-]{6,}\d`)
)

// Sanitize prepares untrusted user text for a prompt. Markup is stripped,
// secrets, emails, URLs and phone numbers are replaced with placeholders,
// whitespace is collapsed and the result is cut to MaxInputRunes.
func Sanitize(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = secretPattern.ReplaceAllString(s, RedactedSecret)
	s = emailPattern.ReplaceAllString(s, RedactedEmail)
	s = urlPattern.ReplaceAllString(s, RedactedURL)
	s = phonePattern.ReplaceAllStringFunc(s, redactPhone)
	s = stripControl(s)
	s = text.CollapseWhitespace(s)
	return text.Truncate(s, MaxInputRunes)
}

// MaskSecrets redacts API keys in s. Use it on anything that reaches a log line.
func MaskSecrets(s string) string {
	return secretPattern.ReplaceAllString(s, RedactedSecret)
}

// MaskKey renders a credential for logs, keeping only a short prefix.
func MaskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****"
}

func redactPhone(match string) string {
	digits := 0
	for _, r := range match {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return match
	}
	return RedactedPhone
}

func stripControl(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

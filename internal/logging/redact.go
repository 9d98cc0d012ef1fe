package logging

import (
	"regexp"
	"strings"
)

// sensitiveFields contains field names that should be masked in logs and
// config dumps.
var sensitiveFields = map[string]bool{
	"password":  true,
	"secret":    true,
	"token":     true,
	"bot_token": true,
	"api_key":   true,
	"apikey":    true,
}

// credentialPattern matches inline key=value credential assignments.
var credentialPattern = regexp.MustCompile(
	`(?i)(bot[_-]?token|api[_-]?key|password|secret)[=:\s]+["']?([^\s"']+)["']?`)

// IsSensitiveField reports whether a field name should be masked.
func IsSensitiveField(name string) bool {
	return sensitiveFields[strings.ToLower(name)]
}

// MaskCredential masks a credential, keeping only a short prefix so different
// tokens remain distinguishable in logs.
func MaskCredential(val string) string {
	if val == "" {
		return ""
	}
	if len(val) <= 6 {
		return "***"
	}
	return val[:3] + "..." + strings.Repeat("*", 4)
}

// MaskSensitive masks any inline credential assignments in a free-form
// string, for log messages that embed config or request fragments.
func MaskSensitive(s string) string {
	return credentialPattern.ReplaceAllStringFunc(s, func(match string) string {
		sub := credentialPattern.FindStringSubmatch(match)
		if len(sub) < 3 {
			return match
		}
		return strings.Replace(match, sub[2], MaskCredential(sub[2]), 1)
	})
}

package logger

import "strings"

// RedactCustomerID masks a Google Ads customer ID for safe logging.
// "123-456-7890" → "***-***-7890", "1234567890" → "******7890"
// Anything too short to carry a visible suffix is fully masked.
func RedactCustomerID(id string) string {
	if strings.Contains(id, "-") {
		parts := strings.Split(id, "-")
		if len(parts) == 3 {
			return "***-***-" + parts[2]
		}
		return "***"
	}
	if len(id) > 4 {
		return strings.Repeat("*", len(id)-4) + id[len(id)-4:]
	}
	return "***"
}

// RedactToken masks an API credential, keeping only a short prefix.
// "abcd1234efgh" → "abcd***"
func RedactToken(token string) string {
	if len(token) > 4 {
		return token[:4] + "***"
	}
	return "***"
}

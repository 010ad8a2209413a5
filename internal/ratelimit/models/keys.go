package models

import "strings"

// SanitizeKeySegment replaces ':' so a caller identity cannot forge a key
// that lands in another caller's bucket, e.g. "ip:10.0.0.1" becomes
// "ip_10.0.0.1".
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

package rotor

import "strings"

// NormalizeIdentity reduces a VK profile reference (full URL, @mention or
// bare handle) to the canonical key used to join directory entries to
// resolved identities.
func NormalizeIdentity(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "http://", "")
	v = strings.ReplaceAll(v, "https://", "")
	v = strings.TrimPrefix(v, "vk.com/")
	v = strings.TrimSpace(v)
	v = strings.Trim(v, "/")
	v = strings.TrimLeft(v, "@")
	return strings.TrimSpace(v)
}

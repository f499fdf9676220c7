package registry

// NameSuffix is appended to registered names when shown as a label.
const NameSuffix = ".myens"

// Label returns the decorated form of a registered name, e.g. "alice.myens".
func Label(name string) string {
	return name + NameSuffix
}

// Shorten abbreviates an owner identifier to its first 6 and last 4
// characters joined by "...". Identifiers of 10 characters or fewer are
// returned unchanged.
func Shorten(owner string) string {
	r := []rune(owner)
	if len(r) <= 10 {
		return owner
	}
	return string(r[:6]) + "..." + string(r[len(r)-4:])
}

package handler

// truthy reports whether a submitted checkbox value counts as checked.
// Browsers send "on" for a checked box with no explicit value; "true" and
// "1" are accepted for non-browser clients. Everything else, including the
// absent value, is unchecked.
func truthy(v string) bool {
	switch v {
	case "on", "true", "1":
		return true
	}
	return false
}

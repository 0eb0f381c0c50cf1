package hyperdrive

import "strings"

// normalize turns a caller-supplied, possibly Windows-flavored path into the
// canonical slash-separated, leading-slash-free form used as an index key.
// "." and ".." segments are eliminated; the result never starts or ends with
// a slash, except the root path which normalizes to "".
func normalize(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	parts := strings.Split(path, "/")
	kept := parts[:0]
	for _, p := range parts {
		switch p {
		case "", ".":
			// skip
		case "..":
			if len(kept) > 0 {
				kept = kept[:len(kept)-1]
			}
		default:
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

// firstSegment returns the leading slash-separated component of key.
func firstSegment(key string) string {
	if i := strings.IndexByte(key, '/'); i != -1 {
		return key[:i]
	}
	return key
}

// isChildOf reports whether key is strictly nested underneath prefix
// (prefix itself does not count as its own child).
func isChildOf(prefix, key string) bool {
	if prefix == "" {
		return key != ""
	}
	return strings.HasPrefix(key, prefix+"/")
}

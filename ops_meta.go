package hyperdrive

import "strings"

// Stat returns the Stat recorded at path. If no entry exists exactly at
// path but at least one index entry exists below it, a directory Stat is
// synthesized — there are no symlinks in this model, so Stat and Lstat are
// equivalent; Lstat is provided only for API symmetry with POSIX callers.
func (d *Drive) Stat(path string) (*Stat, error) {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	return d.statLocked(path)
}

// Lstat is equivalent to Stat.
func (d *Drive) Lstat(path string) (*Stat, error) { return d.Stat(path) }

func (d *Drive) statLocked(path string) (*Stat, error) {
	raw, ok, err := d.idx.Get(path)
	if err != nil {
		return nil, err
	}
	if ok {
		return Decode(raw)
	}
	if d.idx.HasChildren(path) {
		offset, byteOffset := d.contentCounters()
		return Directory(offset, byteOffset, FileOpts{}), nil
	}
	return nil, &FileNotFoundError{Path: path}
}

// Access succeeds iff Stat succeeds.
func (d *Drive) Access(path string) error {
	_, err := d.Stat(path)
	return err
}

// Exists wraps Access as a boolean.
func (d *Drive) Exists(path string) bool {
	return d.Access(path) == nil
}

// Readdir lists the direct child names of every index entry at or below
// path: the leading '/'-separated segment of each entry's key relative to
// path — never an "extension strip" — and there is a single unified
// implementation, no separate streaming variant.
func (d *Drive) Readdir(path string) ([]string, error) {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	entries := d.idx.List(path)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !isChildOf(path, e.Key) {
			continue
		}
		rel := strings.TrimPrefix(e.Key[len(path):], "/")
		names = append(names, firstSegment(rel))
	}
	return dedupe(names), nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Watch subscribes to index changes under path, delivering each changed
// key to cb until the returned unsubscribe func is called.
func (d *Drive) Watch(path string, cb func(path string)) (func(), error) {
	path = normalize(path)
	if _, err := d.ensureReady(); err != nil {
		return nil, err
	}
	return d.idx.Watch(path, cb), nil
}

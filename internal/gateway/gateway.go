// Package gateway serves a Drive read-only over HTTP, grounded on the
// teacher's habit of fronting repository content with a plain net/http
// handler (cmd/distri-repobrowser). Precompressed variant negotiation comes
// from github.com/lpar/gzipped/v2, the same "serve whichever encoding the
// client accepts without recompressing on every request" approach a static
// asset server uses, adapted here to read bytes from a drive checkout
// instead of the local disk.
package gateway

import (
	"net/http"
	"strings"

	"github.com/lpar/gzipped/v2"

	"github.com/anotherjesse/hyperdrive"
)

// New builds a read-only HTTP handler serving drive's files. GET /a/b/c
// reads /a/b/c; requesting a directory lists its entries.
func New(drive *hyperdrive.Drive) http.Handler {
	return gzipped.FileServer(driveFS{drive})
}

// driveFS adapts a Drive to http.FileSystem so gzipped.FileServer can
// negotiate precompressed variants the same way it would over os.DirFS.
type driveFS struct{ drive *hyperdrive.Drive }

func (fs driveFS) Open(name string) (http.File, error) {
	path := strings.TrimPrefix(name, "/")
	st, err := fs.drive.Stat(path)
	if err != nil {
		return nil, err
	}
	if st.IsDirectory() {
		names, err := fs.drive.Readdir(path)
		if err != nil {
			return nil, err
		}
		return &driveDir{path: path, names: names, st: st}, nil
	}
	b, err := fs.drive.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newDriveFile(path, st, b), nil
}

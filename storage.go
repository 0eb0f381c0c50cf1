package hyperdrive

import (
	"fmt"
	"path/filepath"

	"github.com/anotherjesse/hyperdrive/internal/storage"
)

// StorageDescriptor is whatever Open/Create accept to locate a drive's
// backing byte storage: a folder path, a ready-made factory applied to both
// namespaces, or an explicit record naming one factory per log. Exactly one
// of these is populated.
type StorageDescriptor struct {
	Folder string
	Memory bool

	Factory storage.Factory

	Metadata storage.Factory
	Content  storage.Factory
}

// Folder builds a StorageDescriptor rooted at a filesystem directory, files
// living under dir/metadata/<name> and dir/content/<name>.
func Folder(dir string) StorageDescriptor { return StorageDescriptor{Folder: dir} }

// Memory builds a StorageDescriptor backed entirely by process memory,
// namespaces kept separate but neither persisted.
func Memory() StorageDescriptor { return StorageDescriptor{Memory: true} }

// bindStorage is the Storage Binder: it maps a StorageDescriptor to
// two namespaced byte-storage factories and does nothing else — no feed or
// index logic lives here.
func bindStorage(d StorageDescriptor) (*storage.Binder, error) {
	switch {
	case d.Memory:
		return storage.BindMemory(), nil
	case d.Metadata != nil || d.Content != nil:
		if d.Metadata == nil || d.Content == nil {
			return nil, fmt.Errorf("hyperdrive: explicit storage descriptor must set both metadata and content factories")
		}
		return &storage.Binder{Metadata: d.Metadata, Content: d.Content}, nil
	case d.Factory != nil:
		return &storage.Binder{Metadata: d.Factory, Content: d.Factory}, nil
	case d.Folder != "":
		return &storage.Binder{
			Metadata: storage.FolderFactory(filepath.Join(d.Folder, "metadata")),
			Content:  storage.FolderFactory(filepath.Join(d.Folder, "content")),
		}, nil
	default:
		return nil, fmt.Errorf("hyperdrive: empty storage descriptor")
	}
}

// Package fuseadapter mounts a hyperdrive Drive as a real POSIX file
// system: an inode-table-plus-attribute-builder FUSE adapter, keyed by
// drive path instead of an on-disk inode number, since a drive's "inode"
// identity is just its normalized index key.
package fuseadapter

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"
	"golang.org/x/xerrors"

	"github.com/anotherjesse/hyperdrive"
)

// attrExpiration bounds how long the kernel may cache entry/attribute
// lookups: a drive's directory structure can change, so unlike an immutable
// image-backed file system we use a short, real expiration rather than
// "never expire".
const attrExpiration = 1 * time.Second

// FS implements fuseutil.FileSystem over a single Drive.
type FS struct {
	fuseutil.NotImplementedFileSystem

	drive *hyperdrive.Drive

	mu       sync.Mutex
	inodeCnt fuseops.InodeID
	paths    map[fuseops.InodeID]string
	ids      map[string]fuseops.InodeID
}

// New wraps drive for mounting. Mount does the actual jacobsa/fuse dial.
func New(drive *hyperdrive.Drive) *FS {
	fs := &FS{
		drive:    drive,
		inodeCnt: fuseops.RootInodeID,
		paths:    map[fuseops.InodeID]string{fuseops.RootInodeID: ""},
		ids:      map[string]fuseops.InodeID{"": fuseops.RootInodeID},
	}
	return fs
}

// Mount mounts fs at mountpoint and returns a join func that blocks until
// the file system is unmounted.
func Mount(ctx context.Context, drive *hyperdrive.Drive, mountpoint string) (join func() error, err error) {
	fs := New(drive)
	server := fuseutil.NewFileSystemServer(fs)
	mfs, err := fuse.Mount(mountpoint, server, &fuse.MountConfig{ReadOnly: false})
	if err != nil {
		return nil, xerrors.Errorf("mounting at %s: %w", mountpoint, err)
	}
	return func() error { return mfs.Join(ctx) }, nil
}

func (fs *FS) inodeForPath(path string) fuseops.InodeID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if id, ok := fs.ids[path]; ok {
		return id
	}
	fs.inodeCnt++
	id := fs.inodeCnt
	fs.paths[id] = path
	fs.ids[path] = id
	return id
}

func (fs *FS) pathForInode(id fuseops.InodeID) (string, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	p, ok := fs.paths[id]
	return p, ok
}

func join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func attributesFor(st *hyperdrive.Stat) fuseops.InodeAttributes {
	mode := os.FileMode(st.Mode)
	if st.IsDirectory() {
		mode |= os.ModeDir
	}
	return fuseops.InodeAttributes{
		Size:  st.Size,
		Nlink: 1,
		Mode:  mode,
		Uid:   st.UID,
		Gid:   st.GID,
		Atime: time.Unix(0, st.MTime),
		Mtime: time.Unix(0, st.MTime),
		Ctime: time.Unix(0, st.CTime),
	}
}

func (fs *FS) StatFS(ctx context.Context, op *fuseops.StatFSOp) error {
	op.BlockSize = 4096
	op.IoSize = 65536
	return nil
}

func (fs *FS) LookUpInode(ctx context.Context, op *fuseops.LookUpInodeOp) error {
	dir, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	child := join(dir, op.Name)
	st, err := fs.drive.Stat(child)
	if _, isNotFound := err.(*hyperdrive.FileNotFoundError); isNotFound {
		return fuse.ENOENT
	} else if err != nil {
		return xerrors.Errorf("stat %s: %w", child, err)
	}
	op.Entry = fuseops.ChildInodeEntry{
		Child:                fs.inodeForPath(child),
		Attributes:           attributesFor(st),
		AttributesExpiration: time.Now().Add(attrExpiration),
		EntryExpiration:      time.Now().Add(attrExpiration),
	}
	return nil
}

func (fs *FS) GetInodeAttributes(ctx context.Context, op *fuseops.GetInodeAttributesOp) error {
	path, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	st, err := fs.drive.Stat(path)
	if _, isNotFound := err.(*hyperdrive.FileNotFoundError); isNotFound {
		return fuse.ENOENT
	} else if err != nil {
		return xerrors.Errorf("stat %s: %w", path, err)
	}
	op.Attributes = attributesFor(st)
	op.AttributesExpiration = time.Now().Add(attrExpiration)
	return nil
}

func (fs *FS) OpenDir(ctx context.Context, op *fuseops.OpenDirOp) error {
	_, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	return nil
}

func (fs *FS) ReadDir(ctx context.Context, op *fuseops.ReadDirOp) error {
	dir, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	names, err := fs.drive.Readdir(dir)
	if err != nil {
		return xerrors.Errorf("readdir %s: %w", dir, err)
	}

	var entries []fuseutil.Dirent
	for i, name := range names {
		child := join(dir, name)
		st, err := fs.drive.Stat(child)
		if err != nil {
			continue
		}
		typ := fuseutil.DT_File
		if st.IsDirectory() {
			typ = fuseutil.DT_Directory
		}
		entries = append(entries, fuseutil.Dirent{
			Offset: fuseops.DirOffset(i + 1),
			Inode:  fs.inodeForPath(child),
			Name:   name,
			Type:   typ,
		})
	}

	if op.Offset > fuseops.DirOffset(len(entries)) {
		return nil
	}
	var n int
	for _, e := range entries[op.Offset:] {
		written := fuseutil.WriteDirent(op.Dst[n:], e)
		if written == 0 {
			break
		}
		n += written
	}
	op.BytesRead = n
	return nil
}

func (fs *FS) OpenFile(ctx context.Context, op *fuseops.OpenFileOp) error {
	_, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	return nil
}

func (fs *FS) ReadFile(ctx context.Context, op *fuseops.ReadFileOp) error {
	path, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	rs, err := fs.drive.ReadStream(path, hyperdrive.ReadStreamOpts{Start: op.Offset})
	if err != nil {
		if _, isNotFound := err.(*hyperdrive.FileNotFoundError); isNotFound {
			return fuse.ENOENT
		}
		return xerrors.Errorf("read %s: %w", path, err)
	}
	defer rs.Close()
	n, err := rs.Read(op.Dst)
	op.BytesRead = n
	if err != nil && n == 0 {
		return nil // EOF
	}
	return nil
}

func (fs *FS) MkDir(ctx context.Context, op *fuseops.MkDirOp) error {
	dir, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	child := join(dir, op.Name)
	if err := fs.drive.Mkdir(child, hyperdrive.FileOpts{Mode: uint32(op.Mode)}); err != nil {
		return xerrors.Errorf("mkdir %s: %w", child, err)
	}
	st, err := fs.drive.Stat(child)
	if err != nil {
		return err
	}
	op.Entry = fuseops.ChildInodeEntry{
		Child:      fs.inodeForPath(child),
		Attributes: attributesFor(st),
	}
	return nil
}

func (fs *FS) RmDir(ctx context.Context, op *fuseops.RmDirOp) error {
	dir, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	child := join(dir, op.Name)
	if err := fs.drive.Rmdir(child); err != nil {
		switch err.(type) {
		case *hyperdrive.DirectoryNotEmptyError:
			return fuse.ENOTEMPTY
		case *hyperdrive.FileNotFoundError:
			return fuse.ENOENT
		default:
			return xerrors.Errorf("rmdir %s: %w", child, err)
		}
	}
	return nil
}

func (fs *FS) Unlink(ctx context.Context, op *fuseops.UnlinkOp) error {
	dir, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	child := join(dir, op.Name)
	if err := fs.drive.Unlink(child); err != nil {
		if _, isNotFound := err.(*hyperdrive.FileNotFoundError); isNotFound {
			return fuse.ENOENT
		}
		return xerrors.Errorf("unlink %s: %w", child, err)
	}
	return nil
}

func (fs *FS) CreateFile(ctx context.Context, op *fuseops.CreateFileOp) error {
	dir, ok := fs.pathForInode(op.Parent)
	if !ok {
		return fuse.ENOENT
	}
	child := join(dir, op.Name)
	if err := fs.drive.WriteFile(child, nil, hyperdrive.FileOpts{Mode: uint32(op.Mode)}); err != nil {
		return xerrors.Errorf("create %s: %w", child, err)
	}
	st, err := fs.drive.Stat(child)
	if err != nil {
		return err
	}
	op.Entry = fuseops.ChildInodeEntry{
		Child:      fs.inodeForPath(child),
		Attributes: attributesFor(st),
	}
	return nil
}

func (fs *FS) WriteFile(ctx context.Context, op *fuseops.WriteFileOp) error {
	path, ok := fs.pathForInode(op.Inode)
	if !ok {
		return fuse.ENOENT
	}
	existing, err := fs.drive.ReadFile(path)
	if err != nil {
		if _, isNotFound := err.(*hyperdrive.FileNotFoundError); !isNotFound {
			return err
		}
	}
	end := op.Offset + int64(len(op.Data))
	if int64(len(existing)) < end {
		grown := make([]byte, end)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[op.Offset:], op.Data)
	if err := fs.drive.WriteFile(path, existing, hyperdrive.FileOpts{}); err != nil {
		return xerrors.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (fs *FS) ForgetInode(ctx context.Context, op *fuseops.ForgetInodeOp) error {
	return nil
}

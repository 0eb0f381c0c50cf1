package hyperdrive_test

import (
	"io"
	"testing"
	"time"

	hyperdrive "github.com/anotherjesse/hyperdrive"
)

func TestCreateWriteReadFile(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("hello.txt", []byte("hello, drive"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := d.ReadFile("hello.txt")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello, drive" {
		t.Fatalf("ReadFile = %q, want %q", got, "hello, drive")
	}
}

func TestWriteFileAcrossChunkBoundary(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	// Larger than WriteFile's internal chunk size, to exercise the
	// multi-Write path through a single WriteStream.
	data := make([]byte, 200*1024)
	for i := range data {
		data[i] = byte(i % 256)
	}
	if err := d.WriteFile("big.bin", data, hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := d.ReadFile("big.bin")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(data) {
		t.Fatalf("ReadFile returned %d bytes, want %d", len(got), len(data))
	}
	for i := range data {
		if got[i] != data[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], data[i])
		}
	}
}

func TestReadSecondFileIsNotTruncated(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("a.txt", []byte("AAAA"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile(a.txt): %v", err)
	}
	if err := d.WriteFile("b.txt", []byte("BBBB"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile(b.txt): %v", err)
	}

	// b.txt's content-log blocks start after a.txt's, so its Stat carries a
	// nonzero byte offset into the content log — reading it must still
	// yield its own bytes in full, not a's leftover skip applied twice.
	got, err := d.ReadFile("b.txt")
	if err != nil {
		t.Fatalf("ReadFile(b.txt): %v", err)
	}
	if string(got) != "BBBB" {
		t.Fatalf("ReadFile(b.txt) = %q, want %q", got, "BBBB")
	}

	gotA, err := d.ReadFile("a.txt")
	if err != nil {
		t.Fatalf("ReadFile(a.txt): %v", err)
	}
	if string(gotA) != "AAAA" {
		t.Fatalf("ReadFile(a.txt) = %q, want %q", gotA, "AAAA")
	}
}

func TestReadStreamRange(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("range.txt", []byte("0123456789"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rs, err := d.ReadStream("range.txt", hyperdrive.ReadStreamOpts{Start: 3, Length: 4})
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	defer rs.Close()
	got, err := io.ReadAll(rs)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "3456" {
		t.Fatalf("ReadStream range = %q, want %q", got, "3456")
	}
}

func TestStatAndMkdirAndImplicitDirectory(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("a/b/file.txt", []byte("x"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	// "a" was never explicitly mkdir'd, but it has a descendant, so Stat
	// must synthesize a directory entry for it.
	st, err := d.Stat("a")
	if err != nil {
		t.Fatalf("Stat(a): %v", err)
	}
	if !st.IsDirectory() {
		t.Fatalf("Stat(a).IsDirectory() = false, want true")
	}

	if err := d.Mkdir("explicit-dir", hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	st2, err := d.Stat("explicit-dir")
	if err != nil {
		t.Fatalf("Stat(explicit-dir): %v", err)
	}
	if !st2.IsDirectory() {
		t.Fatalf("Stat(explicit-dir).IsDirectory() = false, want true")
	}

	if _, err := d.Stat("missing"); err == nil {
		t.Fatalf("Stat(missing) succeeded, want FileNotFoundError")
	}
}

func TestReaddirListsDirectChildrenOnly(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	for _, p := range []string{"dir/a.txt", "dir/b.txt", "dir/sub/c.txt"} {
		if err := d.WriteFile(p, []byte("x"), hyperdrive.FileOpts{}); err != nil {
			t.Fatalf("WriteFile(%s): %v", p, err)
		}
	}

	names, err := d.Readdir("dir")
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	seen := map[string]bool{}
	for _, n := range names {
		seen[n] = true
	}
	for _, want := range []string{"a.txt", "b.txt", "sub"} {
		if !seen[want] {
			t.Errorf("Readdir(dir) missing %q, got %v", want, names)
		}
	}
	if len(names) != 3 {
		t.Errorf("Readdir(dir) = %v, want exactly 3 distinct entries", names)
	}
}

func TestUnlinkAndRmdir(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("file.txt", []byte("x"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := d.Unlink("file.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if d.Exists("file.txt") {
		t.Fatalf("Exists(file.txt) = true after Unlink")
	}

	if err := d.WriteFile("dir/file.txt", []byte("x"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := d.Rmdir("dir"); err == nil {
		t.Fatalf("Rmdir(dir) with a child present succeeded, want DirectoryNotEmptyError")
	}
	if err := d.Unlink("dir/file.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if err := d.Mkdir("dir", hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := d.Rmdir("dir"); err != nil {
		t.Fatalf("Rmdir(dir) on an empty directory failed: %v", err)
	}
}

func TestCheckoutIsReadOnlySnapshot(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	if err := d.WriteFile("v0.txt", []byte("v0"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := d.WriteFile("v1.txt", []byte("v1"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	v1, err := d.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}

	if err := d.WriteFile("v2.txt", []byte("v2"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	checkout, err := d.Checkout(v1)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := checkout.Stat("v2.txt"); err == nil {
		t.Fatalf("checkout at version %d sees a file written afterward", v1)
	}
	if _, err := checkout.ReadFile("v0.txt"); err != nil {
		t.Fatalf("checkout cannot read a file present at its version: %v", err)
	}
	// v1.txt is not the first file in the content log, so reading it
	// through a checkout exercises a nonzero content-log byte offset too.
	gotV1, err := checkout.ReadFile("v1.txt")
	if err != nil {
		t.Fatalf("checkout cannot read a non-first file present at its version: %v", err)
	}
	if string(gotV1) != "v1" {
		t.Fatalf("checkout.ReadFile(v1.txt) = %q, want %q", gotV1, "v1")
	}
	if err := checkout.WriteFile("new.txt", []byte("x"), hyperdrive.FileOpts{}); err == nil {
		t.Fatalf("WriteFile on a checkout succeeded, want error")
	}
	// Closing a checkout must not close the parent drive's logs.
	if err := checkout.Close(); err != nil {
		t.Fatalf("checkout.Close: %v", err)
	}
	if _, err := d.ReadFile("v1.txt"); err != nil {
		t.Fatalf("parent drive unusable after checkout.Close: %v", err)
	}
}

func TestWatchDeliversPathUnderPrefix(t *testing.T) {
	d, err := hyperdrive.Create(hyperdrive.Memory())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer d.Close()

	seen := make(chan string, 4)
	unsubscribe, err := d.Watch("dir", func(path string) { seen <- path })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer unsubscribe()

	if err := d.WriteFile("dir/x.txt", []byte("x"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case path := <-seen:
		if path != "dir/x.txt" {
			t.Fatalf("Watch delivered %q, want %q", path, "dir/x.txt")
		}
	case <-time.After(time.Second):
		t.Fatal("Watch did not deliver the write under its prefix")
	}
}

func TestOpenRequiresKey(t *testing.T) {
	if _, err := hyperdrive.Open(hyperdrive.Memory(), hyperdrive.OpenOpts{}); err == nil {
		t.Fatalf("Open without a Key succeeded, want error")
	}
}

func TestOpenRestoresWritableDrive(t *testing.T) {
	dir := t.TempDir()
	kp, err := hyperdrive.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	d, err := hyperdrive.Open(hyperdrive.Folder(dir), hyperdrive.OpenOpts{Key: kp.Public, Secret: kp.Secret})
	if err != nil {
		t.Fatalf("Open (create-equivalent): %v", err)
	}
	if err := d.WriteFile("file.txt", []byte("persisted"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := hyperdrive.Open(hyperdrive.Folder(dir), hyperdrive.OpenOpts{Key: kp.Public, Secret: kp.Secret})
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.ReadFile("file.txt")
	if err != nil {
		t.Fatalf("ReadFile after reopen: %v", err)
	}
	if string(got) != "persisted" {
		t.Fatalf("ReadFile after reopen = %q, want %q", got, "persisted")
	}
}

func TestOpenReadOnlyByPublicKey(t *testing.T) {
	dir := t.TempDir()
	kp, err := hyperdrive.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}

	writer, err := hyperdrive.Open(hyperdrive.Folder(dir), hyperdrive.OpenOpts{Key: kp.Public, Secret: kp.Secret})
	if err != nil {
		t.Fatalf("Open writable: %v", err)
	}
	if err := writer.WriteFile("file.txt", []byte("readonly test"), hyperdrive.FileOpts{}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reader, err := hyperdrive.Open(hyperdrive.Folder(dir), hyperdrive.OpenOpts{Key: kp.Public})
	if err != nil {
		t.Fatalf("Open read-only: %v", err)
	}
	defer reader.Close()
	got, err := reader.ReadFile("file.txt")
	if err != nil {
		t.Fatalf("ReadFile from read-only drive: %v", err)
	}
	if string(got) != "readonly test" {
		t.Fatalf("ReadFile = %q, want %q", got, "readonly test")
	}
	if err := reader.WriteFile("new.txt", []byte("x"), hyperdrive.FileOpts{}); err == nil {
		t.Fatalf("WriteFile on a read-only drive succeeded, want error")
	}
}

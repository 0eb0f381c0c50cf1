package index

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeHeader(t *testing.T) {
	d, err := decodeEntry(encodeHeader([]byte("pubkey")))
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if d.op != opHeader {
		t.Fatalf("op = %d, want opHeader", d.op)
	}
	if !bytes.Equal(d.value, []byte("pubkey")) {
		t.Fatalf("value = %q, want %q", d.value, "pubkey")
	}
}

func TestEncodeDecodePut(t *testing.T) {
	d, err := decodeEntry(encodePut("a/b/c", []byte("value")))
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if d.op != opPut {
		t.Fatalf("op = %d, want opPut", d.op)
	}
	if d.key != "a/b/c" {
		t.Fatalf("key = %q, want %q", d.key, "a/b/c")
	}
	if !bytes.Equal(d.value, []byte("value")) {
		t.Fatalf("value = %q, want %q", d.value, "value")
	}
}

func TestEncodeDecodeDel(t *testing.T) {
	d, err := decodeEntry(encodeDel("a/b"))
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if d.op != opDel {
		t.Fatalf("op = %d, want opDel", d.op)
	}
	if d.key != "a/b" {
		t.Fatalf("key = %q, want %q", d.key, "a/b")
	}
}

func TestDecodeEntryRejectsEmptyBlock(t *testing.T) {
	if _, err := decodeEntry(nil); err == nil {
		t.Fatalf("decodeEntry(nil) succeeded, want error")
	}
}

func TestDecodeEntryRejectsTruncatedKey(t *testing.T) {
	b := encodePut("abcdef", nil)
	// Truncate the block mid-key.
	truncated := b[:len(b)-3]
	if _, err := decodeEntry(truncated); err == nil {
		t.Fatalf("decodeEntry on a truncated key succeeded, want error")
	}
}

func TestDecodeEntryRejectsUnknownOpcode(t *testing.T) {
	b := encodePut("k", []byte("v"))
	b[0] = 99 // not opHeader/opPut/opDel
	if _, err := decodeEntry(b); err == nil {
		t.Fatalf("decodeEntry with an unknown opcode succeeded, want error")
	}
}

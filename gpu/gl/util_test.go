// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import (
	"testing"
	"unsafe"
)

func TestUnsafeBytesNilPointer(t *testing.T) {
	if b := unsafeBytes(nil, 16); b != nil {
		t.Fatalf("unsafeBytes(nil, 16) = %v, want nil", b)
	}
}

func TestUnsafeBytesZeroLength(t *testing.T) {
	var x byte
	if b := unsafeBytes(unsafe.Pointer(&x), 0); b != nil {
		t.Fatalf("unsafeBytes(p, 0) = %v, want nil", b)
	}
}

func TestUnsafeBytesViewsUnderlyingMemory(t *testing.T) {
	buf := make([]byte, 4)
	b := unsafeBytes(unsafe.Pointer(&buf[0]), len(buf))
	if len(b) != 4 {
		t.Fatalf("len(b) = %d, want 4", len(b))
	}
	b[0] = 0xAB
	if buf[0] != 0xAB {
		t.Fatal("unsafeBytes did not view the same backing memory as buf")
	}
}

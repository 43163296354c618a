// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gl

import "unsafe"

// unsafeBytes views a persistently-mapped GL buffer pointer as
// a byte slice, valid for as long as the mapping is held.
func unsafeBytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package vk

import (
	"github.com/nopeforge/nope-gpu/gpu"
	"github.com/nopeforge/nope-gpu/internal/bitvec"
)

// Block granularity of the staging pool, matching the teacher's
// texStgBuffer sizing (engine/texture.go's texStgBlock/texStgNBit):
// one bitvec word (32 bits) addresses 4MiB of staging space before
// the pool needs to grow.
const (
	stagingBlock = 131072
	stagingNBit  = 32
)

// stagingPool is a reusable host-visible buffer carved into
// stagingBlock-sized ranges, tracked by a bitvec.V[uint32] free
// list. Texture.UploadWithParams acquires a range sized for the
// upload, copies into it, submits the copy command, and releases
// the range once the command has completed, so repeated uploads
// reuse the same backing VkBuffer instead of allocating and
// destroying one on every call.
//
// Grounded on the teacher's engine/texture.go texStgBuffer, which
// solves the same problem (a pool of staging buffers for texture
// upload, addressed by a bitvec.V[uint32] free list) across a
// bounded channel of buffers shared by several goroutines; this
// backend narrows that down to a single buffer owned by *Context,
// since ExecuteTransient already serializes every upload through
// one synchronous submit-and-wait.
type stagingPool struct {
	buf *Buffer
	bv  bitvec.V[uint32]
}

// acquire reserves a contiguous byte range of at least n bytes in
// the pool, growing the backing buffer when the free list has no
// room. It returns the buffer to copy into, the byte offset of the
// reserved range, and the number of blocks reserved (needed by
// release to unset the same range).
func (s *stagingPool) acquire(c *Context, n int) (buf *Buffer, off int64, blocks int, err error) {
	if n <= 0 {
		n = 1
	}
	blocks = (n + stagingBlock - 1) / stagingBlock
	idx, ok := s.bv.SearchRange(blocks)
	if !ok {
		idx = s.bv.Len()
		s.bv.Grow((blocks + stagingNBit - 1) / stagingNBit)
		size := int64(s.bv.Len()) * stagingBlock
		nbuf, err := c.NewBuffer(size, gpu.UsageMapWrite)
		if err != nil {
			s.bv.Shrink((blocks + stagingNBit - 1) / stagingNBit)
			return nil, 0, 0, err
		}
		if s.buf != nil {
			s.buf.Destroy()
		}
		s.buf = nbuf.(*Buffer)
	}
	for i := 0; i < blocks; i++ {
		s.bv.Set(idx + i)
	}
	return s.buf, int64(idx) * stagingBlock, blocks, nil
}

// release marks a previously acquired range as free again. Callers
// must not touch the range's contents after calling this, since a
// later acquire may hand the same blocks to someone else.
func (s *stagingPool) release(off int64, blocks int) {
	idx := int(off / stagingBlock)
	for i := 0; i < blocks; i++ {
		s.bv.Unset(idx + i)
	}
}

// destroy releases the pool's backing buffer, if any.
func (s *stagingPool) destroy() {
	if s.buf != nil {
		s.buf.Destroy()
	}
	*s = stagingPool{}
}

// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// CmdBuffer is a Vulkan-only concept made uniform across
// backends (spec §4.7): the OpenGL backend implements it as an
// identity shim over the current context, while the Vulkan
// backend gives it a real command-buffer handle, fence and
// semaphore set.
//
// references is the authoritative GPU-lifetime extension list:
// every GPU object touched by a recording is ref-counted into
// it via Ref/RefBuffer and released only after Wait observes
// the backing fence signalled. This is the mechanism backing
// the refcount invariant in spec §5 and §8: as long as a
// command buffer is in the pending list, every object it
// references has refcount >= 1.
type CmdBuffer interface {
	Destroyer

	// Begin clears the reference, semaphore and stage-mask
	// lists, resets the underlying handle, and begins
	// recording.
	Begin() error

	// Ref appends a reference-counted GPU object to the
	// lifetime list, taking a strong reference.
	Ref(rc RefCounted)

	// RefBuffer additionally registers the buffer with its own
	// reverse-index list, so Buffer.Wait can find every command
	// buffer that references it.
	RefBuffer(b Buffer)

	// Submit ends recording, resets the fence, submits to the
	// graphics queue signalling the fence, and pushes this
	// command buffer onto the context's pending list.
	Submit() error

	// Wait blocks on the fence (a no-op if the command buffer
	// was never submitted), releases every reference taken
	// since the last Begin, and removes the command buffer from
	// the context's pending list.
	Wait()
}

// TransientCmdBuffer is implemented by contexts capable of
// running a single-use begin/submit/wait/destroy command
// buffer inline, used for uploads, out-of-frame layout
// transitions, and standalone compute dispatches (spec §4.7
// "begin_transient / execute_transient").
type TransientCmdBuffer interface {
	// ExecuteTransient runs fn inside a freshly begun command
	// buffer, then submits, waits, and destroys it.
	ExecuteTransient(fn func(cb CmdBuffer)) error
}

// Refcount is an embeddable strong-reference counter shared by
// every concrete GPU resource type in gpu/gl and gpu/vk. It is
// not safe for concurrent use, matching the single-threaded-
// per-context contract of spec §5.
type Refcount struct {
	n int
}

func (r *Refcount) ref()   { r.n++ }
func (r *Refcount) unref() { r.n-- }

// Count returns the current reference count. It is exposed for
// the instrumented tests required by spec §8 ("tested by
// instrumenting refcounts and running a scripted frame").
func (r *Refcount) Count() int { return r.n }

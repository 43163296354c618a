// Copyright 2024 The nope-gpu Authors. All rights reserved.

package gpu

// DummyTextureParams returns the TextureParams every backend
// must use to create its context-owned dummy texture (spec
// §4.9): a 1x1 opaque-black RGBA8 texture, usable as both a
// sampled and a storage image, so that a bindgroup entry left
// unbound resolves to something deterministic-but-inert rather
// than violating Vulkan's "no unbound descriptors" rule.
func DummyTextureParams() TextureParams {
	return TextureParams{
		Type:      Texture2D,
		Format:    RGBA8un,
		Width:     1,
		Height:    1,
		Depth:     1,
		Layers:    1,
		Samples:   1,
		MinFilter: FilterNearest,
		MagFilter: FilterNearest,
		MipFilter: MipNone,
		Usage:     TexUsageSampled | TexUsageStorage | TexUsageTransferDst,
	}
}

// DummyTexturePixel is the 1x1 RGBA8 opaque-black pixel data
// used to initialize the dummy texture.
var DummyTexturePixel = [4]byte{0, 0, 0, 255}

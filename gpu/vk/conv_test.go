// Copyright 2024 The nope-gpu Authors. All rights reserved.

package vk

// #include <proc.h>
import "C"

import (
	"testing"

	"github.com/nopeforge/nope-gpu/gpu"
)

func TestConvSamplesClampsZeroAndOneToOneSample(t *testing.T) {
	if convSamples(0) != C.VK_SAMPLE_COUNT_1_BIT {
		t.Fatal("convSamples(0) != VK_SAMPLE_COUNT_1_BIT")
	}
	if convSamples(1) != C.VK_SAMPLE_COUNT_1_BIT {
		t.Fatal("convSamples(1) != VK_SAMPLE_COUNT_1_BIT")
	}
}

func TestConvSamplesMapsPowerOfTwoCounts(t *testing.T) {
	if convSamples(4) != C.VK_SAMPLE_COUNT_4_BIT {
		t.Fatal("convSamples(4) != VK_SAMPLE_COUNT_4_BIT")
	}
	if convSamples(64) != C.VK_SAMPLE_COUNT_64_BIT {
		t.Fatal("convSamples(64) != VK_SAMPLE_COUNT_64_BIT")
	}
}

func TestConvSamplesUnsupportedCountFallsBackToOne(t *testing.T) {
	if convSamples(3) != C.VK_SAMPLE_COUNT_1_BIT {
		t.Fatal("convSamples(3) != VK_SAMPLE_COUNT_1_BIT")
	}
}

func TestConvTopologyDefaultsToTriangleList(t *testing.T) {
	if convTopology(gpu.TopologyTriangleList) != C.VK_PRIMITIVE_TOPOLOGY_TRIANGLE_LIST {
		t.Fatal("convTopology(TopologyTriangleList) mismatch")
	}
	if convTopology(gpu.TopologyPointList) != C.VK_PRIMITIVE_TOPOLOGY_POINT_LIST {
		t.Fatal("convTopology(TopologyPointList) mismatch")
	}
}

func TestConvLoadOp(t *testing.T) {
	cases := map[gpu.LoadOp]C.VkAttachmentLoadOp{
		gpu.LoadClear: C.VK_ATTACHMENT_LOAD_OP_CLEAR,
		gpu.LoadLoad:  C.VK_ATTACHMENT_LOAD_OP_LOAD,
	}
	for in, want := range cases {
		if got := convLoadOp(in); got != want {
			t.Fatalf("convLoadOp(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestConvStoreOp(t *testing.T) {
	if convStoreOp(gpu.StoreStore) != C.VK_ATTACHMENT_STORE_OP_STORE {
		t.Fatal("convStoreOp(StoreStore) != VK_ATTACHMENT_STORE_OP_STORE")
	}
	if convStoreOp(gpu.StoreDontCare) != C.VK_ATTACHMENT_STORE_OP_DONT_CARE {
		t.Fatal("convStoreOp(StoreDontCare) != VK_ATTACHMENT_STORE_OP_DONT_CARE")
	}
}

func TestAspectOfColorFormatIsColorBit(t *testing.T) {
	if aspectOf(gpu.RGBA8un) != C.VK_IMAGE_ASPECT_COLOR_BIT {
		t.Fatal("aspectOf(RGBA8un) != VK_IMAGE_ASPECT_COLOR_BIT")
	}
}

func TestConvWrapClampToBorder(t *testing.T) {
	if convWrap(gpu.WrapClampToBorder) != C.VK_SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER {
		t.Fatal("convWrap(WrapClampToBorder) mismatch")
	}
}

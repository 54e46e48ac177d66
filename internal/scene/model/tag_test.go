package model

import "testing"

func TestDecodeTag(t *testing.T) {
	hash := uint32(5) | uint32(9)<<7 | uint32(1234)<<14 | uint32(KindLocation)<<29
	config := uint32(10) | uint32(3)<<6 | 256
	tag := DecodeTag(hash, config)
	if tag.Kind != KindLocation || tag.ID != 1234 || tag.X != 5 || tag.Z != 9 {
		t.Fatalf("unexpected identity: %+v", tag)
	}
	if tag.Shape != 10 || tag.Rotation != 3 || !tag.Raised || !tag.Interactive {
		t.Fatalf("unexpected config: %+v", tag)
	}
	if tag.Hash() != hash || tag.Config() != config {
		t.Fatalf("raw words not retained")
	}
}

func TestNewTagPacksLikeDecode(t *testing.T) {
	a := NewTag(KindNPC, 77, 3, 4)
	b := DecodeTag(a.Hash(), 0)
	if b.Kind != KindNPC || b.ID != 77 || b.X != 3 || b.Z != 4 || !b.Same(a) {
		t.Fatalf("round trip mismatch: %+v vs %+v", a, b)
	}
}

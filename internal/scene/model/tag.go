package model

import "fmt"

// Kind classifies the owner of a scene object.
type Kind uint8

const (
	KindPlayer Kind = iota
	KindNPC
	KindLocation
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "PLAYER"
	case KindNPC:
		return "NPC"
	case KindLocation:
		return "LOCATION"
	case KindItem:
		return "ITEM"
	default:
		return fmt.Sprintf("KIND(%d)", uint8(k))
	}
}

// Tag identifies a scene object. It is decoded once from the packed
// hash/config words the map loader supplies and never re-derived.
type Tag struct {
	Kind        Kind
	ID          int
	X, Z        int // local tile of the owner
	Shape       int
	Rotation    int
	Interactive bool
	// Raised objects carry item piles on top of their model.
	Raised bool

	hash   uint32
	config uint32
}

// DecodeTag unpacks the loader's 32-bit hash and config words.
//
//	hash:   x:7 | z:7 | id:15 | kind:2 | non-interactive:1
//	config: shape:6 | rotation:2 | raised:1
func DecodeTag(hash, config uint32) Tag {
	return Tag{
		Kind:        Kind(hash >> 29 & 3),
		ID:          int(hash >> 14 & 0x7fff),
		X:           int(hash & 127),
		Z:           int(hash >> 7 & 127),
		Shape:       int(config & 63),
		Rotation:    int(config >> 6 & 3),
		Interactive: hash>>31 == 0,
		Raised:      config&256 != 0,
		hash:        hash,
		config:      config,
	}
}

// NewTag builds a tag for content that did not come from packed words.
func NewTag(kind Kind, id, x, z int) Tag {
	t := Tag{Kind: kind, ID: id, X: x, Z: z, Interactive: true}
	t.hash = t.pack()
	return t
}

func (t Tag) pack() uint32 {
	h := uint32(t.X&127) | uint32(t.Z&127)<<7 | uint32(t.ID&0x7fff)<<14 | uint32(t.Kind&3)<<29
	if !t.Interactive {
		h |= 1 << 31
	}
	return h
}

// Hash returns the packed identity word.
func (t Tag) Hash() uint32 { return t.hash }

// Config returns the packed config word.
func (t Tag) Config() uint32 { return t.config }

// Same reports whether both tags name the same object.
func (t Tag) Same(o Tag) bool { return t.hash == o.hash }

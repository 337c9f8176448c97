package abi

import "fmt"

// Tag enumerates the abstract values an ABI can describe.
type Tag uint8

const (
	// Header values (.dat, generic family).
	HeaderMagic Tag = iota
	HeaderMajor
	HeaderMinor
	HeaderFlags
	HeaderBlockLength
	HeaderSize

	// Header values owned by concrete families.
	HeaderSecret
	HeaderCryptTable

	// Index file values.
	TadHeaderSize
	EntrySize
	EntryOffset
	EntryLength
	EntryFlags
	EntryDeleted
	EntryNoBlock
	EntryInvalidLength
	EntryDeletedFlags

	// First block header.
	FirstBlockNext
	FirstBlockRecordSize
	FirstBlockHeaderSize

	// Continuation block header.
	BlockNext
	BlockHeaderSize

	tagCount
)

var tagNames = [tagCount]string{
	HeaderMagic:          "HeaderMagic",
	HeaderMajor:          "HeaderMajor",
	HeaderMinor:          "HeaderMinor",
	HeaderFlags:          "HeaderFlags",
	HeaderBlockLength:    "HeaderBlockLength",
	HeaderSize:           "HeaderSize",
	HeaderSecret:         "HeaderSecret",
	HeaderCryptTable:     "HeaderCryptTable",
	TadHeaderSize:        "TadHeaderSize",
	EntrySize:            "EntrySize",
	EntryOffset:          "EntryOffset",
	EntryLength:          "EntryLength",
	EntryFlags:           "EntryFlags",
	EntryDeleted:         "EntryDeleted",
	EntryNoBlock:         "EntryNoBlock",
	EntryInvalidLength:   "EntryInvalidLength",
	EntryDeletedFlags:    "EntryDeletedFlags",
	FirstBlockNext:       "FirstBlockNext",
	FirstBlockRecordSize: "FirstBlockRecordSize",
	FirstBlockHeaderSize: "FirstBlockHeaderSize",
	BlockNext:            "BlockNext",
	BlockHeaderSize:      "BlockHeaderSize",
}

func (t Tag) String() string {
	if t < tagCount {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

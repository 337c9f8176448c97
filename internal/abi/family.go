package abi

// Header region shared by every family.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------
//	 0x00    7    "CroFile"
//	 0x07    1    zero
//	 0x08    2    major version, ASCII digits
//	 0x0A    1    '.'
//	 0x0B    2    minor version, ASCII digits
//	 0x0D    2    flags (bit0 encrypted, bit1 compressed)
//	 0x0F    2    default block length
//	 0x13    4|8  secret (lite|pro)
//	 ....   512   encrypted crypt table (big model only)
const (
	MagicOffset       = 0x00
	MagicSize         = 7
	MajorOffset       = 0x08
	MinorOffset       = 0x0B
	VersionDigits     = 2
	FlagsOffset       = 0x0D
	BlockLengthOffset = 0x0F
	SecretOffset      = 0x13
	SecretSizeLite    = 4
	SecretSizePro     = 8
	CryptTableSize    = 512
	HeaderBytes       = 4096
)

// Header flag bits.
const (
	FlagEncrypted  = 0x0001
	FlagCompressed = 0x0002
)

const (
	// InvalidLength marks an unused slot in both families.
	InvalidLength = 0xFFFFFFFF
	// DeletedFlags marks a deleted v3 slot.
	DeletedFlags = 0xFFFFFFFF

	v3NoBlockBit   = 0x80000000
	v4DeletedBit   = uint64(1) << 63
	v4OffsetMask48 = 0x0000FFFFFFFFFFFF
	v4OffsetMask32 = 0x00000000FFFFFFFF
)

// family is one entry of the closed set of layout families.
type family struct {
	name       string
	compatible func(Version) bool
	lite       func(Version) bool
	model      func(Version) Model
	fill       func(a *ABI)
}

// families is consulted in order; the first compatible family wins.
var families = []*family{genericFamily, v3Family, v4Family}

var genericFamily = &family{
	name:       "generic",
	compatible: func(v Version) bool { return v == GenericVersion },
	lite:       func(Version) bool { return false },
	model:      func(Version) Model { return ModelBig },
	fill:       fillHeader,
}

var v3Family = &family{
	name: "v3",
	compatible: func(v Version) bool {
		return v.Major == 1 && v.Minor >= 2 && v.Minor <= 4
	},
	lite: func(v Version) bool { return v.Minor == 4 },
	model: func(v Version) Model {
		if v.Minor == 2 {
			return ModelSmall
		}
		return ModelBig
	},
	fill: fillV3,
}

var v4Family = &family{
	name: "v4",
	compatible: func(v Version) bool {
		return v.Major == 1 && v.Minor >= 11 && v.Minor <= 19
	},
	lite: func(v Version) bool { return v.Minor == 13 || v.Minor == 19 },
	model: func(v Version) Model {
		if v.Minor == 11 {
			return ModelSmall
		}
		return ModelBig
	},
	fill: fillV4,
}

func (a *ABI) set(tag Tag, l Layout) {
	if l.Width != WidthBytes && l.Size == 0 {
		l.Size = l.Width.Bytes()
	}
	a.values[tag] = l
	a.defined[tag] = true
}

func (a *ABI) setConst(tag Tag, v uint64) {
	a.set(tag, Layout{File: FileConst, Const: v})
}

func fillHeader(a *ABI) {
	a.set(HeaderMagic, Layout{File: FileData, Offset: MagicOffset, Size: MagicSize})
	a.set(HeaderMajor, Layout{File: FileData, Offset: MajorOffset, Size: VersionDigits})
	a.set(HeaderMinor, Layout{File: FileData, Offset: MinorOffset, Size: VersionDigits})
	a.set(HeaderFlags, Layout{File: FileData, Offset: FlagsOffset, Width: WidthU16})
	a.set(HeaderBlockLength, Layout{File: FileData, Offset: BlockLengthOffset, Width: WidthU16})
	a.setConst(HeaderSize, HeaderBytes)
}

// fillSecrets places the secret and, for the big model, the encrypted crypt
// table right behind it.
func fillSecrets(a *ABI) {
	secret := SecretSizePro
	if a.lite {
		secret = SecretSizeLite
	}
	a.set(HeaderSecret, Layout{File: FileData, Offset: SecretOffset, Size: secret})
	if a.model == ModelBig {
		a.set(HeaderCryptTable, Layout{File: FileData, Offset: SecretOffset + secret, Size: CryptTableSize})
	}
}

func fillV3(a *ABI) {
	fillHeader(a)
	fillSecrets(a)

	a.setConst(TadHeaderSize, 8)
	a.setConst(EntrySize, 12)
	a.set(EntryOffset, Layout{File: FileIndex, Offset: 0x00, Width: WidthU32})
	a.set(EntryLength, Layout{File: FileIndex, Offset: 0x04, Width: WidthU32})
	a.set(EntryFlags, Layout{File: FileIndex, Offset: 0x08, Width: WidthU32})
	a.set(EntryNoBlock, Layout{File: FileIndex, Offset: 0x08, Width: WidthU32, Mask: v3NoBlockBit})
	a.setConst(EntryInvalidLength, InvalidLength)
	a.setConst(EntryDeletedFlags, DeletedFlags)

	a.set(FirstBlockNext, Layout{File: FileData, Offset: 0x00, Width: WidthU32})
	a.set(FirstBlockRecordSize, Layout{File: FileData, Offset: 0x04, Width: WidthU32})
	a.setConst(FirstBlockHeaderSize, 8)
	a.set(BlockNext, Layout{File: FileData, Offset: 0x00, Width: WidthU32})
	a.setConst(BlockHeaderSize, 4)
}

func fillV4(a *ABI) {
	fillHeader(a)
	fillSecrets(a)

	mask := uint64(v4OffsetMask48)
	if a.model == ModelSmall {
		mask = v4OffsetMask32
	}

	a.setConst(TadHeaderSize, 16)
	a.setConst(EntrySize, 16)
	a.set(EntryOffset, Layout{File: FileIndex, Offset: 0x00, Width: WidthU64, Mask: mask})
	a.set(EntryDeleted, Layout{File: FileIndex, Offset: 0x00, Width: WidthU64, Mask: v4DeletedBit})
	a.set(EntryLength, Layout{File: FileIndex, Offset: 0x08, Width: WidthU32})
	a.set(EntryFlags, Layout{File: FileIndex, Offset: 0x0C, Width: WidthU32})
	a.setConst(EntryInvalidLength, InvalidLength)

	a.set(FirstBlockNext, Layout{File: FileData, Offset: 0x00, Width: WidthU64, Mask: mask})
	a.set(FirstBlockRecordSize, Layout{File: FileData, Offset: 0x08, Width: WidthU32})
	a.setConst(FirstBlockHeaderSize, 12)
	a.set(BlockNext, Layout{File: FileData, Offset: 0x00, Width: WidthU64, Mask: mask})
	a.setConst(BlockHeaderSize, 8)
}

func build(f *family, v Version) *ABI {
	a := &ABI{
		version: v,
		fam:     f,
		lite:    f.lite(v),
		model:   f.model(v),
	}
	f.fill(a)
	return a
}

package crypt

// builtin is the constant table used by small-model files.
var builtin = Table{
	// decode
	0x72, 0xe6, 0x31, 0x32, 0x49, 0xef, 0x52, 0x18, 0x64, 0xd9, 0xfe, 0xff, 0x27, 0x14, 0xb5, 0xa3,
	0xde, 0x2e, 0xf1, 0x69, 0xd2, 0xc9, 0x78, 0xcd, 0x33, 0x8e, 0x89, 0x63, 0xa4, 0xa9, 0xa2, 0xb4,
	0xc3, 0x29, 0x02, 0x97, 0x46, 0x20, 0x43, 0x95, 0x62, 0x75, 0xe8, 0x81, 0x88, 0xce, 0xe1, 0xab,
	0x2f, 0x6f, 0xf0, 0xbc, 0x59, 0x5f, 0x7d, 0xb0, 0x4a, 0x22, 0x92, 0x21, 0xe9, 0x9f, 0xc8, 0x6b,
	0xe4, 0x05, 0x70, 0x1d, 0x98, 0x5b, 0xd7, 0x1e, 0x25, 0x12, 0x07, 0xe0, 0x54, 0x30, 0xc2, 0xdf,
	0xd6, 0x6a, 0xfb, 0x76, 0x3b, 0xae, 0xbe, 0x0f, 0xbb, 0xac, 0x47, 0xf7, 0x8f, 0x60, 0x7e, 0x13,
	0xfa, 0x15, 0x3a, 0x2b, 0xd8, 0x34, 0xf2, 0xc4, 0x1f, 0xe7, 0xbd, 0x71, 0x94, 0x82, 0x0b, 0x1a,
	0xf3, 0x9a, 0xa1, 0xb6, 0x79, 0xa7, 0x4d, 0xcb, 0xfc, 0xe2, 0xf9, 0x42, 0x6c, 0x66, 0x9e, 0x00,
	0xf8, 0x4f, 0x04, 0x09, 0xda, 0x87, 0xd1, 0xaf, 0x4c, 0x7f, 0x9c, 0x35, 0xc0, 0x01, 0x9d, 0x7b,
	0xe5, 0xa6, 0x5a, 0x16, 0x3e, 0x3c, 0xaa, 0x7a, 0x85, 0x10, 0x41, 0x56, 0xd0, 0x57, 0x96, 0x58,
	0x99, 0x8a, 0xb2, 0x6e, 0xd5, 0xe3, 0x48, 0x90, 0xdd, 0xed, 0x4b, 0xf4, 0x4e, 0x53, 0xbf, 0x80,
	0xa5, 0x0d, 0xfd, 0xc1, 0x74, 0x39, 0xcc, 0x65, 0x2a, 0xb7, 0xb9, 0x83, 0x55, 0x1c, 0x84, 0x23,
	0x3f, 0x1b, 0xf5, 0xcf, 0x37, 0x7c, 0xc7, 0x67, 0x73, 0x3d, 0x08, 0xc5, 0xee, 0x38, 0xc6, 0x9b,
	0x6d, 0x8b, 0xb1, 0x28, 0x51, 0x8d, 0x61, 0xea, 0x06, 0x86, 0x2d, 0xd4, 0x5d, 0xeb, 0xba, 0x5c,
	0x26, 0x19, 0xec, 0x93, 0xdb, 0x03, 0xd3, 0x0e, 0xb8, 0x50, 0x68, 0x44, 0xa0, 0xf6, 0x0c, 0x36,
	0xad, 0x45, 0x2c, 0x8c, 0xa8, 0x17, 0x24, 0x11, 0xca, 0x91, 0x40, 0x0a, 0xdc, 0xb3, 0x77, 0x5e,
	// encode
	0x7f, 0x8d, 0x22, 0xe5, 0x82, 0x41, 0xd8, 0x4a, 0xca, 0x83, 0xfb, 0x6e, 0xee, 0xb1, 0xe7, 0x57,
	0x99, 0xf7, 0x49, 0x5f, 0x0d, 0x61, 0x93, 0xf5, 0x07, 0xe1, 0x6f, 0xc1, 0xbd, 0x43, 0x47, 0x68,
	0x25, 0x3b, 0x39, 0xbf, 0xf6, 0x48, 0xe0, 0x0c, 0xd3, 0x21, 0xb8, 0x63, 0xf2, 0xda, 0x11, 0x30,
	0x4d, 0x02, 0x03, 0x18, 0x65, 0x8b, 0xef, 0xc4, 0xcd, 0xb5, 0x62, 0x54, 0x95, 0xc9, 0x94, 0xc0,
	0xfa, 0x9a, 0x7b, 0x26, 0xeb, 0xf1, 0x24, 0x5a, 0xa6, 0x04, 0x38, 0xaa, 0x88, 0x76, 0xac, 0x81,
	0xe9, 0xd4, 0x06, 0xad, 0x4c, 0xbc, 0x9b, 0x9d, 0x9f, 0x34, 0x92, 0x45, 0xdf, 0xdc, 0xff, 0x35,
	0x5d, 0xd6, 0x28, 0x1b, 0x08, 0xb7, 0x7d, 0xc7, 0xea, 0x13, 0x51, 0x3f, 0x7c, 0xd0, 0xa3, 0x31,
	0x42, 0x6b, 0x00, 0xc8, 0xb4, 0x29, 0x53, 0xfe, 0x16, 0x74, 0x97, 0x8f, 0xc5, 0x36, 0x5e, 0x89,
	0xaf, 0x2b, 0x6d, 0xbb, 0xbe, 0x98, 0xd9, 0x85, 0x2c, 0x1a, 0xa1, 0xd1, 0xf3, 0xd5, 0x19, 0x5c,
	0xa7, 0xf9, 0x3a, 0xe3, 0x6c, 0x27, 0x9e, 0x23, 0x44, 0xa0, 0x71, 0xcf, 0x8a, 0x8e, 0x7e, 0x3d,
	0xec, 0x72, 0x1e, 0x0f, 0x1c, 0xb0, 0x91, 0x75, 0xf4, 0x1d, 0x96, 0x2f, 0x59, 0xf0, 0x55, 0x87,
	0x37, 0xd2, 0xa2, 0xfd, 0x1f, 0x0e, 0x73, 0xb9, 0xe8, 0xba, 0xde, 0x58, 0x33, 0x6a, 0x56, 0xae,
	0x8c, 0xb3, 0x4e, 0x20, 0x67, 0xcb, 0xce, 0xc6, 0x3e, 0x15, 0xf8, 0x77, 0xb6, 0x17, 0x2d, 0xc3,
	0x9c, 0x86, 0x14, 0xe6, 0xdb, 0xa4, 0x50, 0x46, 0x64, 0x09, 0x84, 0xe4, 0xfc, 0xa8, 0x10, 0x4f,
	0x4b, 0x2e, 0x79, 0xa5, 0x40, 0x90, 0x01, 0x69, 0x2a, 0x3c, 0xd7, 0xdd, 0xe2, 0xa9, 0xcc, 0x05,
	0x32, 0x12, 0x66, 0x70, 0xab, 0xc2, 0xed, 0x5b, 0x80, 0x7a, 0x60, 0x52, 0x78, 0xb2, 0x0a, 0x0b,
}

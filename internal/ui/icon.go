package ui

// iconBytes is the 16x16 PNG shown in the system tray.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x27, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0x60, 0x00, 0x82, 0x38,
	0xd3, 0x8d, 0xff, 0xc9, 0xc1, 0x0c, 0x94, 0x68, 0x86, 0x1b, 0x32, 0xf8,
	0x0c, 0x20, 0x04, 0x46, 0x0d, 0x18, 0x19, 0x06, 0x0c, 0xc1, 0xa4, 0x4c,
	0x69, 0x76, 0x06, 0x00, 0x1f, 0xb9, 0xa8, 0x53, 0xbc, 0xad, 0xd5, 0xad,
	0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

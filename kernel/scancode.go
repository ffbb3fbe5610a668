package kernel

// ScanCodes maps US QWERTY set-1 make codes to characters. Zero means the
// key produces no character.
var ScanCodes = [128]byte{
	0, 27, '1', '2', '3', '4', '5', '6', '7', '8', '9', '0', '-', '=', '\b',
	'\t', 'q', 'w', 'e', 'r', 't', 'y', 'u', 'i', 'o', 'p', '[', ']', '\n',
	0, // Ctrl
	'a', 's', 'd', 'f', 'g', 'h', 'j', 'k', 'l', ';', '\'', '`',
	0, // Left Shift
	'\\', 'z', 'x', 'c', 'v', 'b', 'n', 'm', ',', '.', '/',
	0, // Right Shift
	'*',
	0,   // Alt
	' ', // Space
	0,   // Caps Lock
	// F1-F10, Num Lock, Scroll Lock and the keypad/navigation block
	// (0x3B-0x7F) produce nothing.
}

// Translate returns the character for make code code.
func Translate(code uint8) (byte, bool) {
	if code >= uint8(len(ScanCodes)) {
		return 0, false
	}
	c := ScanCodes[code]
	return c, c != 0
}

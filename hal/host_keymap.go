package hal

// Set-1 make codes the simulated keyboard emits. The break code of a key is
// its make code with the high bit set.
const (
	scanEscape    = 0x01
	scanBackspace = 0x0E
	scanTab       = 0x0F
	scanEnter     = 0x1C
	scanCtrl      = 0x1D
	scanShiftL    = 0x2A
	scanShiftR    = 0x36
	scanKPStar    = 0x37
	scanAlt       = 0x38
	scanSpace     = 0x39
	scanCapsLock  = 0x3A
	scanF1        = 0x3B

	scanBreak    = 0x80
	scanExtended = 0xE0
)

// asciiScanCodes maps the characters a host terminal can type to the key
// that produces them on a US keyboard (unshifted).
var asciiScanCodes = func() map[byte]uint8 {
	m := map[byte]uint8{
		0x1B: scanEscape,
		'\b': scanBackspace,
		0x7F: scanBackspace,
		'\t': scanTab,
		'\n': scanEnter,
		'\r': scanEnter,
		' ':  scanSpace,
		'*':  scanKPStar,
	}
	rows := []struct {
		first uint8
		keys  string
	}{
		{0x02, "1234567890-="},
		{0x10, "qwertyuiop[]"},
		{0x1E, "asdfghjkl;'`"},
		{0x2B, `\zxcvbnm,./`},
	}
	for _, row := range rows {
		for i := 0; i < len(row.keys); i++ {
			m[row.keys[i]] = row.first + uint8(i)
		}
	}
	for c := byte('A'); c <= 'Z'; c++ {
		m[c] = m[c+'a'-'A']
	}
	return m
}()

// TypeText presses and releases the key for each byte of s. Bytes with no
// key on the simulated keyboard are skipped.
func (m *Machine) TypeText(s string) {
	for i := 0; i < len(s); i++ {
		code, ok := asciiScanCodes[s[i]]
		if !ok {
			continue
		}
		m.Key(code, code|scanBreak)
	}
}

package events

import (
	"strconv"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

const esc = 0x1b

// csiKeys maps the final byte of a parameterless CSI or SS3 sequence
var csiKeys = map[byte]tea.KeyType{
	'A': tea.KeyUp,
	'B': tea.KeyDown,
	'C': tea.KeyRight,
	'D': tea.KeyLeft,
	'H': tea.KeyHome,
	'F': tea.KeyEnd,
	'Z': tea.KeyShiftTab,
}

// tildeKeys maps the numeric parameter of "ESC [ n ~" sequences
var tildeKeys = map[int]tea.KeyType{
	1: tea.KeyHome,
	2: tea.KeyInsert,
	3: tea.KeyDelete,
	4: tea.KeyEnd,
	5: tea.KeyPgUp,
	6: tea.KeyPgDown,
	7: tea.KeyHome,
	8: tea.KeyEnd,
}

// Decoder turns raw terminal bytes into key presses. Input split across
// reads (a partial UTF-8 rune or escape sequence) is held until the next
// call to Decode. An ESC that ends a read is a lone Esc key press.
type Decoder struct {
	pending []byte
}

// Decode appends b to any held input and returns the complete keys in it
func (d *Decoder) Decode(b []byte) []tea.Key {
	buf := append(d.pending, b...)
	d.pending = nil

	var keys []tea.Key
	for len(buf) > 0 {
		k, n, ok := decodeOne(buf)
		if n == 0 {
			d.pending = append([]byte(nil), buf...)
			break
		}
		if ok {
			keys = append(keys, k)
		}
		buf = buf[n:]
	}
	return keys
}

// Flush returns whatever is held as literal keys. An unfinished escape
// sequence becomes an Esc key.
func (d *Decoder) Flush() []tea.Key {
	if len(d.pending) == 0 {
		return nil
	}
	buf := d.pending
	d.pending = nil

	var keys []tea.Key
	if buf[0] == esc {
		keys = append(keys, tea.Key{Type: tea.KeyEsc})
		buf = buf[1:]
	}
	for len(buf) > 0 {
		r, size := utf8.DecodeRune(buf)
		keys = append(keys, runeKey(r, false))
		buf = buf[size:]
	}
	return keys
}

// decodeOne decodes the key at the start of buf. n is the number of bytes
// consumed; zero means buf ends mid-key. ok is false for recognised but
// unsupported sequences, which are consumed and dropped.
func decodeOne(buf []byte) (k tea.Key, n int, ok bool) {
	c := buf[0]

	switch {
	case c == esc:
		return decodeEscape(buf)
	case c == '\r' || c == '\n':
		return tea.Key{Type: tea.KeyEnter}, 1, true
	case c == 0x7f || c == 0x08:
		return tea.Key{Type: tea.KeyBackspace}, 1, true
	case c < 0x20:
		return tea.Key{Type: tea.KeyType(c)}, 1, true
	}

	if !utf8.FullRune(buf) {
		return tea.Key{}, 0, false
	}
	r, size := utf8.DecodeRune(buf)
	return runeKey(r, false), size, true
}

func decodeEscape(buf []byte) (tea.Key, int, bool) {
	if len(buf) == 1 {
		return tea.Key{Type: tea.KeyEsc}, 1, true
	}

	switch next := buf[1]; {
	case next == '[':
		return decodeCSI(buf)
	case next == 'O':
		if len(buf) < 3 {
			return tea.Key{}, 0, false
		}
		if t, found := csiKeys[buf[2]]; found {
			return tea.Key{Type: t}, 3, true
		}
		return tea.Key{}, 3, false
	case next == esc:
		return tea.Key{Type: tea.KeyEsc}, 1, true
	case next < 0x20 || next == 0x7f:
		k, n, ok := decodeOne(buf[1:])
		k.Alt = true
		return k, n + 1, ok
	}

	if !utf8.FullRune(buf[1:]) {
		return tea.Key{}, 0, false
	}
	r, size := utf8.DecodeRune(buf[1:])
	return runeKey(r, true), size + 1, true
}

// decodeCSI handles "ESC [ params final"
func decodeCSI(buf []byte) (tea.Key, int, bool) {
	i := 2
	for i < len(buf) && buf[i] >= 0x20 && buf[i] <= 0x3f {
		i++
	}
	if i >= len(buf) {
		return tea.Key{}, 0, false
	}

	final := buf[i]
	n := i + 1
	if final < 0x40 || final > 0x7e {
		// Malformed; drop the introducer and resume at the offending byte
		return tea.Key{}, i, false
	}

	params := strings.Split(string(buf[2:i]), ";")
	alt := len(params) > 1 && modifierHasAlt(params[1])

	if final == '~' {
		code, err := strconv.Atoi(params[0])
		if err != nil {
			return tea.Key{}, n, false
		}
		t, found := tildeKeys[code]
		return tea.Key{Type: t, Alt: alt}, n, found
	}

	t, found := csiKeys[final]
	return tea.Key{Type: t, Alt: alt}, n, found
}

// modifierHasAlt reads an xterm modifier parameter, which encodes
// 1 + (shift | alt<<1 | ctrl<<2).
func modifierHasAlt(param string) bool {
	m, err := strconv.Atoi(param)
	if err != nil || m < 1 {
		return false
	}
	return (m-1)&2 != 0
}

func runeKey(r rune, alt bool) tea.Key {
	if r == ' ' {
		return tea.Key{Type: tea.KeySpace, Runes: []rune{' '}, Alt: alt}
	}
	return tea.Key{Type: tea.KeyRunes, Runes: []rune{r}, Alt: alt}
}

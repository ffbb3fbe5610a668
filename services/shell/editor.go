package shell

import (
	"io"
	"strings"
)

// CharReader supplies typed characters, waiting until one is available.
type CharReader interface {
	ReadCharBlocking() byte
}

// Editor reads one line of keyboard input at a time, echoing it to Out.
type Editor struct {
	In  CharReader
	Out io.Writer
	// Max caps the line length; further characters are ignored.
	Max int
	// Complete, if set, is asked for command names starting with the
	// current word when Tab is typed. Without it Tab is ordinary input.
	Complete func(prefix string) []string
}

// ReadLine returns the next line without its terminator. Backspace or DEL
// erases the last character.
func (e *Editor) ReadLine() string {
	var line []byte
	for {
		c := e.In.ReadCharBlocking()
		switch {
		case c == '\n' || c == '\r':
			e.write("\n")
			return string(line)
		case c == '\b' || c == 0x7F:
			if len(line) > 0 {
				line = line[:len(line)-1]
				e.write("\b \b")
			}
		case c == '\t' && e.Complete != nil:
			line = e.complete(line)
		case e.Max > 0 && len(line) >= e.Max:
		default:
			line = append(line, c)
			e.write(string(c))
		}
	}
}

func (e *Editor) complete(line []byte) []byte {
	if len(line) == 0 || strings.IndexByte(string(line), ' ') >= 0 {
		return line
	}
	prefix := string(line)
	matches := e.Complete(prefix)
	if len(matches) == 0 {
		return line
	}

	common := matches[0]
	for _, m := range matches[1:] {
		common = commonPrefix(common, m)
	}
	add := common[len(prefix):]
	if len(matches) == 1 {
		add += " "
	}
	if e.Max > 0 && len(line)+len(add) > e.Max {
		return line
	}
	e.write(add)
	return append(line, add...)
}

func (e *Editor) write(s string) {
	_, _ = io.WriteString(e.Out, s)
}

func commonPrefix(a, b string) string {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

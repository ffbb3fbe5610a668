package app

import (
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"ember/hal"
)

// guard runs fn, turning a panic into an error. The panic value and stack
// go to the log, and a short notice to out.
func guard(log hal.Logger, out io.Writer, fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		log.WriteLineString(fmt.Sprintf("ember panic: %v", r))
		for _, line := range strings.Split(string(debug.Stack()), "\n") {
			if line == "" {
				continue
			}
			log.WriteLineString(line)
		}
		fmt.Fprintf(out, "\nember panic: %v\n", r)
		err = fmt.Errorf("app: panic: %v", r)
	}()
	return fn()
}

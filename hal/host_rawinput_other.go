//go:build !tinygo && !linux

package hal

import "os"

func makeRaw(*os.File) (func(), error) {
	return nil, ErrNotImplemented
}

//go:build !darwin && !freebsd && !linux && !windows

package loader

import (
	"runtime"

	"github.com/wippyai/fbnative/errors"
)

func (nativeLoader) Open(name string) (Library, error) {
	return nil, errors.New(errors.PhaseLoad, errors.KindLoadFailed).
		Value(name).
		Detail("native libraries are not supported on %s", runtime.GOOS).
		Build()
}

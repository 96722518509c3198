//go:build !windows

package system

import (
	"context"

	"powerpanel/internal/winapi"
)

func queryWin32Processor(context.Context) ([]win32Processor, error) {
	return nil, winapi.ErrNotImplemented
}

//go:build windows

package system

import (
	"context"

	"github.com/yusufpapurcu/wmi"
)

func queryWin32Processor(ctx context.Context) ([]win32Processor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var processors []win32Processor
	q := "SELECT Name, CurrentClockSpeed, MaxClockSpeed FROM Win32_Processor"
	if err := wmi.Query(q, &processors); err != nil {
		return nil, err
	}
	return processors, nil
}

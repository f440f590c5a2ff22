//go:build windows

package discord

import (
	"context"
	"io"
	"os"
	"strconv"
)

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	for i := 0; i < 10; i++ {
		if ctx.Err() != nil {
			break
		}
		f, err := os.OpenFile(`\\.\pipe\discord-ipc-`+strconv.Itoa(i), os.O_RDWR, 0)
		if err == nil {
			return f, nil
		}
	}
	return nil, ErrUnavailable
}

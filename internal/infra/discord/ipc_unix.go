//go:build !windows

package discord

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
)

// socketDirs lists where Discord clients place their IPC sockets.
func socketDirs() []string {
	var bases []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(env); v != "" {
			bases = append(bases, v)
		}
	}
	bases = append(bases, "/tmp")

	var dirs []string
	for _, b := range bases {
		dirs = append(dirs,
			b,
			filepath.Join(b, "app", "com.discordapp.Discord"),
			filepath.Join(b, "snap.discord"),
			filepath.Join(b, ".flatpak", "com.discordapp.Discord", "xdg-run"),
		)
	}
	return dirs
}

func socketPaths() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for i := 0; i < 10; i++ {
			paths = append(paths, filepath.Join(dir, "discord-ipc-"+strconv.Itoa(i)))
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (io.ReadWriteCloser, error) {
	var d net.Dialer
	for _, p := range socketPaths() {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", p)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "dial discord ipc")
		}
	}
	return nil, ErrUnavailable
}

package deps

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports whether the configured ffmpeg binary can run. Explicit
// paths must point at an executable file; bare names are resolved on PATH.
// ffmpeg is only a fallback for the pure-Go decoders unless required is set.
func CheckFFmpeg(configured string, required bool) Status {
	command := strings.TrimSpace(configured)
	if command == "" {
		command = "ffmpeg"
	}
	req := Requirement{
		Name:        "FFmpeg",
		Command:     command,
		Description: "Decodes containers the built-in decoders cannot read",
		Optional:    !required,
	}
	if !strings.ContainsRune(command, filepath.Separator) {
		return checkBinary(req)
	}

	status := Status{
		Name:        req.Name,
		Command:     command,
		Description: req.Description,
		Optional:    req.Optional,
	}
	info, err := os.Stat(command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", command)
		return status
	}
	if !isExecutable(info) {
		status.Detail = fmt.Sprintf("%q is not executable", command)
		return status
	}
	status.Available = true
	return status
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}

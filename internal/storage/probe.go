package storage

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Prober reads the playback duration of a local media file.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFProbe shells out to the ffprobe binary.
type FFProbe struct {
	Bin string
}

// NewFFProbe returns a prober using bin, or "ffprobe" from PATH when empty.
func NewFFProbe(bin string) *FFProbe {
	if strings.TrimSpace(bin) == "" {
		bin = "ffprobe"
	}
	return &FFProbe{Bin: bin}
}

func (p *FFProbe) Duration(ctx context.Context, path string) (float64, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.Bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseDuration(stdout.String())
}

func parseDuration(out string) (float64, error) {
	raw := strings.TrimSpace(out)
	if i := strings.IndexByte(raw, '\n'); i >= 0 {
		raw = strings.TrimSpace(raw[:i])
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: unreadable duration %q", raw)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ffprobe: non-positive duration %v", d)
	}
	return d, nil
}

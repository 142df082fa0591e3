// Package probe extracts media metadata from recording files via
// ffprobe, with a stub for environments without ffmpeg installed.
package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"
)

// MediaInfo is the subset of probe output the editor cares about.
type MediaInfo struct {
	DurationMS float64 `json:"duration_ms"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Codec      string  `json:"codec,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
}

type Prober interface {
	Probe(ctx context.Context, path string) (*MediaInfo, error)
}

// FFprobe shells out to ffprobe and parses its JSON output.
type FFprobe struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

func NewFFprobe(binary string, timeout time.Duration, logger *slog.Logger) *FFprobe {
	if binary == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFprobe{binary: binary, timeout: timeout, logger: logger}
}

// ffprobe -show_format/-show_streams JSON shapes. Numeric fields come
// back as strings.
type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

func (p *FFprobe) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if p.logger != nil {
			p.logger.Warn("ffprobe failed",
				"path", path,
				"duration_ms", time.Since(start).Milliseconds(),
				"stderr", truncate(stderr.String(), 512),
			)
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}
	if seconds, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		info.DurationMS = seconds * 1000
	}
	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		info.Width = s.Width
		info.Height = s.Height
		info.Codec = s.CodecName
		info.FrameRate = parseFrameRate(s.AvgFrameRate)
		break
	}

	if info.DurationMS <= 0 {
		return nil, fmt.Errorf("ffprobe reported no duration for %s", path)
	}
	return info, nil
}

// parseFrameRate handles ffprobe's rational form, e.g. "60/1" or
// "30000/1001". Returns 0 for unparseable input.
func parseFrameRate(r string) float64 {
	var num, den float64
	if _, err := fmt.Sscanf(r, "%g/%g", &num, &den); err != nil || den == 0 {
		return 0
	}
	return num / den
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// StubProber satisfies Prober without invoking ffprobe. Used when the
// agent runs on a machine without ffmpeg.
type StubProber struct {
	logger *slog.Logger
}

func NewStubProber(logger *slog.Logger) *StubProber {
	return &StubProber{logger: logger}
}

func (p *StubProber) Probe(ctx context.Context, path string) (*MediaInfo, error) {
	if p.logger != nil {
		p.logger.Info("probe stub: metadata requested (ffprobe not available)", "path", path)
	}
	return &MediaInfo{DurationMS: 0}, nil
}

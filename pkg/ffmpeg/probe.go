// Package ffmpeg locates the ffmpeg/ffprobe pair used for stream merging
// and audio transcoding.
package ffmpeg

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Default tool names, without platform suffix.
const (
	DefaultToolName  = "ffmpeg"
	DefaultProbeName = "ffprobe"
)

// Source records where the tools were found.
type Source string

const (
	SourceNone  Source = ""
	SourcePath  Source = "path"
	SourceLocal Source = "local"
)

// Capability reports whether merge/transcode operations are possible.
type Capability struct {
	Available   bool   `json:"available"`
	Location    string `json:"location,omitempty"`
	Source      Source `json:"source,omitempty"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
	FFprobePath string `json:"ffprobe_path,omitempty"`
}

// Prober checks for the tool pair. The zero value uses the default names.
type Prober struct {
	LocalDir  string
	ToolName  string
	ProbeName string
}

// Probe checks PATH first and then localDir for ffmpeg and ffprobe.
func Probe(localDir string) Capability {
	return Prober{LocalDir: localDir}.Probe()
}

// Probe resolves both tools. It is recomputed on every call and never fails:
// a missing tool is reported as Available=false.
func (p Prober) Probe() Capability {
	tool := executableName(nonEmpty(p.ToolName, DefaultToolName))
	probe := executableName(nonEmpty(p.ProbeName, DefaultProbeName))

	if toolPath, err := exec.LookPath(tool); err == nil {
		if probePath, err := exec.LookPath(probe); err == nil {
			return Capability{
				Available:   true,
				Location:    filepath.Dir(toolPath),
				Source:      SourcePath,
				FFmpegPath:  toolPath,
				FFprobePath: probePath,
			}
		}
	}

	if p.LocalDir == "" {
		return Capability{}
	}

	toolPath := filepath.Join(p.LocalDir, tool)
	probePath := filepath.Join(p.LocalDir, probe)
	if isRegularFile(toolPath) && isRegularFile(probePath) {
		location := p.LocalDir
		if abs, err := filepath.Abs(p.LocalDir); err == nil {
			location = abs
			toolPath = filepath.Join(abs, tool)
			probePath = filepath.Join(abs, probe)
		}
		return Capability{
			Available:   true,
			Location:    location,
			Source:      SourceLocal,
			FFmpegPath:  toolPath,
			FFprobePath: probePath,
		}
	}

	return Capability{}
}

// Version returns the first line of `ffmpeg -version` for the given binary.
func Version(ctx context.Context, ffmpegPath string) (string, error) {
	cmd := exec.CommandContext(ctx, ffmpegPath, "-version")
	output, err := cmd.Output()
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0]), nil
	}
	return "unknown", nil
}

func executableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

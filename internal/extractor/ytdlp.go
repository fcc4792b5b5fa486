package extractor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/iconidentify/mediagrab/internal/domain"
)

// DefaultBinary is the extractor executable looked up on PATH.
const DefaultBinary = "yt-dlp"

// waitDelay bounds how long Run waits for the output pipes after the
// process group was killed.
const waitDelay = 2 * time.Second

// YtDLP implements Service by running the yt-dlp executable. Flags are built
// with go-ytdlp; cancelling the context kills yt-dlp and everything it spawned.
type YtDLP struct {
	opts Options
}

// NewYtDLP creates a yt-dlp backed extraction service.
func NewYtDLP(opts Options) *YtDLP {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	return &YtDLP{opts: opts}
}

// infoJSON matches the subset of yt-dlp's info dict this service uses.
type infoJSON struct {
	Title        *string           `json:"title"`
	Thumbnail    *string           `json:"thumbnail"`
	Duration     *float64          `json:"duration"`
	Formats      []json.RawMessage `json:"formats"`
	WebpageURL   *string           `json:"webpage_url"`
	ExtractorKey *string           `json:"extractor_key"`
	Filename     string            `json:"_filename"`
	FilenameAlt  string            `json:"filename"`
}

func (j *infoJSON) toDomain() *domain.MediaInfo {
	return &domain.MediaInfo{
		Title:         j.Title,
		Thumbnail:     j.Thumbnail,
		Duration:      j.Duration,
		Formats:       j.Formats,
		WebpageURL:    j.WebpageURL,
		ExtractorName: j.ExtractorKey,
	}
}

func (j *infoJSON) filename() string {
	if j.Filename != "" {
		return j.Filename
	}
	return j.FilenameAlt
}

// ExtractInfo runs `yt-dlp -J` for a single item.
func (y *YtDLP) ExtractInfo(ctx context.Context, url string, opts ExtractOptions) (*domain.MediaInfo, error) {
	stdout, err := y.run(ctx, y.infoCommand(opts), "--", url)
	if err != nil {
		return nil, err
	}

	parsed, err := decodeInfo(stdout)
	if err != nil {
		return nil, err
	}
	return parsed.toDomain(), nil
}

// ExtractAndDownload downloads with the given selector and post-processing.
func (y *YtDLP) ExtractAndDownload(ctx context.Context, url string, opts DownloadOptions) (*domain.MediaInfo, string, error) {
	if len(opts.Selector) == 0 {
		return nil, "", fmt.Errorf("ytdlp: selector is required")
	}
	if opts.OutputTemplate == "" {
		return nil, "", fmt.Errorf("ytdlp: output template is required")
	}

	stdout, err := y.run(ctx, y.downloadCommand(opts), "--", url)
	if err != nil {
		return nil, "", err
	}

	parsed, err := decodeInfo(stdout)
	if err != nil {
		return nil, "", err
	}
	path := parsed.filename()
	if path == "" {
		return nil, "", &domain.ExtractionError{Message: "extractor did not report an output filename"}
	}
	return parsed.toDomain(), path, nil
}

// Version returns the extractor's version string.
func (y *YtDLP) Version(ctx context.Context) (string, error) {
	stdout, err := y.run(ctx, ytdlp.New().SetExecutable(y.opts.Binary), "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Path resolves the extractor binary.
func (y *YtDLP) Path() (string, error) {
	path, err := exec.LookPath(y.opts.Binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrExtractorUnavailable, err)
	}
	return path, nil
}

// command returns a builder carrying the flags shared by every call.
func (y *YtDLP) command(toolLocation string) *ytdlp.Command {
	cmd := ytdlp.New().
		SetExecutable(y.opts.Binary).
		NoPlaylist().
		Quiet().
		NoWarnings().
		NoProgress().
		Retries(strconv.Itoa(y.opts.Retries)).
		FragmentRetries(strconv.Itoa(y.opts.FragmentRetries)).
		ExtractorRetries(strconv.Itoa(y.opts.ExtractorRetries))

	if y.opts.SocketTimeout > 0 {
		cmd.SocketTimeout(y.opts.SocketTimeout.Seconds())
	}
	if y.opts.NoCheckCertificate {
		cmd.NoCheckCertificates()
	}
	if toolLocation != "" {
		cmd.FFmpegLocation(toolLocation)
	}
	return cmd
}

func (y *YtDLP) infoCommand(opts ExtractOptions) *ytdlp.Command {
	cmd := y.command(opts.ToolLocation).DumpSingleJSON()
	if opts.Lightweight {
		cmd.FlatPlaylist().IgnoreNoFormatsError()
	}
	return cmd
}

func (y *YtDLP) downloadCommand(opts DownloadOptions) *ytdlp.Command {
	cmd := y.command(opts.ToolLocation).
		NoSimulate().
		DumpJSON().
		WindowsFilenames().
		Format(opts.Selector.String()).
		Output(opts.OutputTemplate)

	pp := opts.PostProcess
	if pp.MergeFormat != "" {
		cmd.MergeOutputFormat(pp.MergeFormat)
	}
	if pp.RemuxFormat != "" {
		cmd.RemuxVideo(pp.RemuxFormat)
	}
	if pp.AudioCodec != "" {
		cmd.ExtractAudio().AudioFormat(pp.AudioCodec)
		if pp.AudioQuality != "" {
			cmd.AudioQuality(pp.AudioQuality + "K")
		}
	}
	return cmd
}

// run executes the built command. The child runs in its own process group
// and cancellation kills the whole group, so helpers yt-dlp spawns (ffmpeg,
// external downloaders) can't keep the output pipes open past the deadline.
func (y *YtDLP) run(ctx context.Context, builder *ytdlp.Command, args ...string) ([]byte, error) {
	cmd := builder.BuildCommand(ctx, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", domain.ErrExtractorUnavailable, err)
		}
		return nil, &domain.ExtractionError{Message: errorMessage(stderr.String(), err)}
	}
	return stdout.Bytes(), nil
}

// decodeInfo reads the first JSON document yt-dlp printed.
func decodeInfo(stdout []byte) (*infoJSON, error) {
	var parsed infoJSON
	if err := json.NewDecoder(bytes.NewReader(stdout)).Decode(&parsed); err != nil {
		return nil, &domain.ExtractionError{Message: fmt.Sprintf("decode extractor output: %v", err)}
	}
	return &parsed, nil
}

// errorMessage prefers the last "ERROR:" line yt-dlp wrote to stderr.
func errorMessage(stderr string, runErr error) string {
	var last, lastError string
	scanner := bufio.NewScanner(strings.NewReader(stderr))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		last = line
		if strings.HasPrefix(line, "ERROR:") {
			lastError = line
		}
	}
	switch {
	case lastError != "":
		return lastError
	case last != "":
		return last
	default:
		return runErr.Error()
	}
}

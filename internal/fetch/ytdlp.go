package fetch

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"rutube-downloader/internal/model"
)

// defaultUserAgent mimics a desktop browser; Rutube serves 403s to obvious
// bot agents much sooner than to this one.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Client shells out to the yt-dlp binary.
type Client struct {
	Binary    string
	UserAgent string
}

func NewClient(binary, userAgent string) *Client {
	c := &Client{Binary: strings.TrimSpace(binary), UserAgent: strings.TrimSpace(userAgent)}
	if c.Binary == "" {
		c.Binary = "yt-dlp"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	return c
}

type DependencyReport struct {
	YTDLPFound  bool   `json:"yt_dlp_found"`
	YTDLPPath   string `json:"yt_dlp_path,omitempty"`
	FFmpegFound bool   `json:"ffmpeg_found"`
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
}

func (c *Client) DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath(c.Binary); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	return report
}

// CheckDependencies verifies yt-dlp is installed. ffmpeg is not required
// for the single-file MP4 formats Rutube serves.
func (c *Client) CheckDependencies() error {
	if !c.DependencyStatus().YTDLPFound {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.Binary)
	}
	return nil
}

// probeInfo is the subset of yt-dlp -J output this program uses.
type probeInfo struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// Probe fetches source metadata without downloading.
func (c *Client) Probe(url string) (model.Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return model.Metadata{}, fmt.Errorf("source URL is required")
	}
	args := []string{"-J", "--no-playlist", "--user-agent", c.UserAgent, url}

	cmd := exec.Command(c.Binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.Metadata{}, fmt.Errorf("yt-dlp probe failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return model.Metadata{}, fmt.Errorf("yt-dlp probe returned empty output")
	}

	var info probeInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return model.Metadata{}, fmt.Errorf("parse yt-dlp probe output: %w", err)
	}
	return model.Metadata{
		Title:    info.Title,
		Uploader: info.Uploader,
		Duration: int(info.Duration),
	}, nil
}

type DownloadOptions struct {
	VideoURL   string
	OutputDir  string
	OutputName string // sanitized base name without extension
	LogWriter  io.Writer
	Progress   func(line string)
}

// Download fetches one video as best-quality MP4 into OutputDir under
// OutputName. Partial artifacts on failure are yt-dlp's to clean up.
func (c *Client) Download(opts DownloadOptions) error {
	if strings.TrimSpace(opts.VideoURL) == "" {
		return fmt.Errorf("video URL is required")
	}
	if strings.TrimSpace(opts.OutputDir) == "" {
		return fmt.Errorf("output directory is required")
	}
	if strings.TrimSpace(opts.OutputName) == "" {
		return fmt.Errorf("output name is required")
	}

	args := []string{
		"--no-playlist",
		"--newline",
		"-f", "best[ext=mp4]",
		"--user-agent", c.UserAgent,
		"-P", opts.OutputDir,
		"-o", opts.OutputName + ".%(ext)s",
		opts.VideoURL,
	}
	return c.runCommand(args, opts)
}

func (c *Client) runCommand(args []string, opts DownloadOptions) error {
	cmd := exec.Command(c.Binary, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("setup stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.Binary, err)
	}

	var outBuf strings.Builder
	var errBuf strings.Builder
	var mu sync.Mutex
	var wg sync.WaitGroup

	read := func(r io.Reader, buf *strings.Builder) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(splitByNewlineOrCR)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			appendLimited(buf, line)
			if opts.LogWriter != nil {
				_, _ = io.WriteString(opts.LogWriter, line+"\n")
			}
			mu.Unlock()

			if opts.Progress != nil {
				opts.Progress(line)
			}
		}
	}

	wg.Add(2)
	go read(stdoutPipe, &outBuf)
	go read(stderrPipe, &errBuf)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		mu.Lock()
		defer mu.Unlock()
		return fmt.Errorf("%s failed: %w\n%s\n%s", c.Binary, err, strings.TrimSpace(errBuf.String()), strings.TrimSpace(outBuf.String()))
	}
	return nil
}

// splitByNewlineOrCR treats carriage returns as line breaks too, so
// yt-dlp's in-place progress updates arrive as individual lines.
func splitByNewlineOrCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' || data[i] == '\r' {
			if i == 0 {
				return 1, nil, nil
			}
			return i + 1, data[:i], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func appendLimited(b *strings.Builder, line string) {
	const maxKeep = 8192
	if b.Len() >= maxKeep {
		return
	}
	toWrite := line + "\n"
	if remain := maxKeep - b.Len(); len(toWrite) > remain {
		toWrite = toWrite[:remain]
	}
	b.WriteString(toWrite)
}

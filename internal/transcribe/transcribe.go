// Package transcribe integrates the external subtitle generator. The
// generator is a separate tool given only a directory of already
// downloaded artifacts; this program never looks inside it.
package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Transcriber is the capability the presentation layer is handed; the
// download core has no dependency on it.
type Transcriber interface {
	Process(ctx context.Context, dir string) (Report, error)
}

type Report struct {
	Tool string `json:"tool"`
}

// generatorScripts are probed in order; the interactive one wins.
var generatorScripts = []string{"create_subtitles.py", "quick_subtitles.py"}

// FindGenerator locates an installed subtitle generator script next to
// the working directory. An empty result means none is installed.
func FindGenerator(baseDir string) string {
	for _, script := range generatorScripts {
		candidate := filepath.Join(baseDir, script)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate
		}
	}
	return ""
}

// ScriptTranscriber launches the Python subtitle generator as a
// subprocess against a directory of downloaded videos.
type ScriptTranscriber struct {
	ScriptPath string
	Python     string
}

func NewScriptTranscriber(scriptPath string) *ScriptTranscriber {
	return &ScriptTranscriber{ScriptPath: scriptPath, Python: "python3"}
}

func (s *ScriptTranscriber) Process(ctx context.Context, dir string) (Report, error) {
	if strings.TrimSpace(s.ScriptPath) == "" {
		return Report{}, fmt.Errorf("no subtitle generator script configured")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, fmt.Errorf("read downloads folder %s: %w", dir, err)
	}
	hasVideos := false
	for _, e := range entries {
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".mp4", ".mkv", ".webm", ".avi", ".mov":
			hasVideos = true
		}
	}
	if !hasVideos {
		return Report{}, fmt.Errorf("no video files in %s; download videos first", dir)
	}

	cmd := exec.CommandContext(ctx, s.Python, s.ScriptPath)
	cmd.Dir = filepath.Dir(s.ScriptPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return Report{}, fmt.Errorf("subtitle generator %s failed: %w", filepath.Base(s.ScriptPath), err)
	}
	return Report{Tool: filepath.Base(s.ScriptPath)}, nil
}

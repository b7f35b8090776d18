// Package library reports on the downloads folder and the failure
// journal, backing the statistics view.
package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"rutube-downloader/internal/journal"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".webm": {}, ".avi": {}, ".mov": {},
	".m4v": {}, ".flv": {}, ".ts": {}, ".m4a": {}, ".mp3": {},
}

var subtitleExtensions = map[string]struct{}{
	".srt": {}, ".vtt": {},
}

type VideoFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
}

type Report struct {
	DownloadsDir    string       `json:"downloads_dir"`
	Exists          bool         `json:"exists"`
	TotalFiles      int          `json:"total_files"`
	VideoCount      int          `json:"video_count"`
	TotalVideoBytes int64        `json:"total_video_bytes"`
	Videos          []VideoFile  `json:"videos,omitempty"`
	SubtitleCount   int          `json:"subtitle_count"`
	Journal         journal.Info `json:"journal"`
}

// Scan walks the downloads folder and gathers file statistics together
// with subtitle coverage and journal state. A missing downloads folder is
// reported, not an error.
func Scan(downloadsDir, subtitlesDir string, j *journal.Journal) (Report, error) {
	report := Report{DownloadsDir: downloadsDir}

	info, err := j.Stat()
	if err != nil {
		return Report{}, err
	}
	report.Journal = info

	if _, err := os.Stat(downloadsDir); err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return Report{}, fmt.Errorf("stat downloads folder %s: %w", downloadsDir, err)
	}
	report.Exists = true

	err = filepath.WalkDir(downloadsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		lower := strings.ToLower(name)
		if strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".tmp") || strings.HasSuffix(lower, ".ytdl") {
			return nil
		}
		report.TotalFiles++
		if _, ok := videoExtensions[filepath.Ext(lower)]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		report.VideoCount++
		report.TotalVideoBytes += fi.Size()
		report.Videos = append(report.Videos, VideoFile{Name: name, SizeBytes: fi.Size()})
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("scan downloads folder %s: %w", downloadsDir, err)
	}
	sort.Slice(report.Videos, func(i, k int) bool {
		return report.Videos[i].Name < report.Videos[k].Name
	})

	report.SubtitleCount, err = countSubtitles(subtitlesDir)
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func countSubtitles(dir string) (int, error) {
	if strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read subtitles folder %s: %w", dir, err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := subtitleExtensions[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			count++
		}
	}
	return count, nil
}

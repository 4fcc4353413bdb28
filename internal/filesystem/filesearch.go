package filesystem

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"dupreview/internal/config"
	"dupreview/internal/models"
)

var videoExts = map[string]struct{}{
	"mp4": {}, "m4v": {}, "webm": {}, "mkv": {}, "mov": {}, "avi": {}, "wmv": {}, "flv": {},
	"mpeg": {}, "mpg": {}, "ts": {}, "m2ts": {}, "3gp": {}, "ogv": {},
}

// IsVideoPath reports whether the extension belongs to a video container.
func IsVideoPath(path string) bool {
	_, ok := videoExts[extOf(path)]
	return ok
}

// SearchResult counts what a search looked at.
type SearchResult struct {
	Assets   []models.Asset
	Visited  int
	Accepted int
}

// SearchDirs walks every starting dir and returns the files that pass the
// configured filters. Files inside an exempt folder are skipped, and so are
// further hard links to a file that was already accepted. onFileFound, when
// set, receives running counts of visited and accepted files.
func SearchDirs(c *config.Config, exempt []string, onFileFound func(visited, accepted int)) SearchResult {
	slog.Info("Searching directories", slog.Any("dirs", c.StartingDirs))
	s := &searcher{
		cfg:         c,
		exempt:      cleanPaths(append(append([]string{}, c.ExemptFolders...), exempt...)),
		seen:        make(map[[2]uint64]struct{}),
		onFileFound: onFileFound,
	}

	for _, dir := range c.StartingDirs {
		dir = filepath.Clean(dir)
		info, err := os.Stat(dir)
		if err != nil {
			slog.Error("Error accessing directory", slog.String("dir", dir), slog.Any("error", err))
			continue
		}
		if !info.IsDir() {
			slog.Warn("Skipping because it's not a directory", slog.String("dir", dir))
			continue
		}
		s.walk(os.DirFS(dir), dir)
	}

	if len(s.result.Assets) == 0 {
		slog.Warn("No files were found")
	}
	slog.Info("Finished searching directories",
		slog.Int("visited", s.result.Visited),
		slog.Int("accepted", s.result.Accepted))
	return s.result
}

type searcher struct {
	cfg         *config.Config
	exempt      []string
	seen        map[[2]uint64]struct{} // device, inode of accepted files
	onFileFound func(int, int)
	result      SearchResult
}

func (s *searcher) report() {
	if s.onFileFound != nil {
		s.onFileFound(s.result.Visited, s.result.Accepted)
	}
}

// check the extension against ignore/include ext, then the file name against
// ignore/include str; a file must pass both
func (s *searcher) walk(fileSystem fs.FS, root string) {
	slog.Info("Processing root directory", slog.String("root", root))

	walkDirErr := fs.WalkDir(fileSystem, ".", func(rel string, d fs.DirEntry, err error) error {
		if err != nil {
			slog.Error("Error walking through filesystem", slog.String("path", rel), slog.Any("error", err))
			return nil
		}
		path := filepath.Join(root, filepath.FromSlash(rel))

		if d.IsDir() {
			if IsExempt(path, s.exempt) {
				slog.Info("Skipping exempt folder", slog.String("path", path))
				return fs.SkipDir
			}
			return nil
		}

		s.result.Visited++
		s.report()

		if !validExt(rel, s.cfg) || !validFileName(d.Name(), s.cfg) {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			slog.Error("Error getting file info", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if fileInfo.Size() <= 0 || fileInfo.Size() < s.cfg.FilesizeCutoff {
			slog.Debug("Skipping file due to size",
				slog.String("path", path),
				slog.Int64("size", fileInfo.Size()),
				slog.Int64("cutoff", s.cfg.FilesizeCutoff))
			return nil
		}

		links, err := statLinks(path, s.cfg.FollowSymbolicLinks)
		if err != nil {
			slog.Error("Error detecting symbolic/hard link", slog.String("path", path), slog.Any("error", err))
			return nil
		}
		if links.Symlink && s.cfg.SkipSymbolicLinks {
			slog.Debug("Skipping symbolic link", slog.String("path", path))
			return nil
		}
		key := [2]uint64{links.Device, links.Inode}
		if _, dup := s.seen[key]; dup {
			slog.Debug("Skipping additional hard link", slog.String("path", path))
			return nil
		}
		s.seen[key] = struct{}{}

		s.result.Accepted++
		s.result.Assets = append(s.result.Assets, CreateAsset(path, fileInfo, links))
		s.report()
		return nil
	})
	if walkDirErr != nil {
		slog.Error("Error walking through directories", slog.Any("error", walkDirErr))
	}
}

// Links is what lstat reports about a file's hard and symbolic links.
type Links struct {
	Device, Inode uint64
	Count         uint64 // hard link count
	Symlink       bool
	Target        string // resolved only when following symlinks
}

func statLinks(path string, follow bool) (Links, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Links{}, err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return Links{}, fmt.Errorf("no raw stat for %q", path)
	}
	l := Links{Device: uint64(st.Dev), Inode: st.Ino, Count: uint64(st.Nlink)}
	if info.Mode()&os.ModeSymlink == 0 {
		return l, nil
	}
	l.Symlink = true
	if follow {
		if l.Target, err = filepath.EvalSymlinks(path); err != nil {
			return l, fmt.Errorf("resolve symlink: %w", err)
		}
	}
	return l, nil
}

func CreateAsset(path string, fileInfo os.FileInfo, links Links) models.Asset {
	a := models.NewAsset(path)
	a.FileName = fileInfo.Name()
	a.ModifiedAt = fileInfo.ModTime()
	a.CreatedAt = fileInfo.ModTime()
	a.Size = fileInfo.Size()
	a.NumHardLinks = links.Count
	a.SymbolicLink = links.Target
	a.IsSymbolicLink = links.Symlink
	a.Inode = links.Inode
	a.Device = links.Device
	a.IsVideo = IsVideoPath(path)
	return a
}

// IsExempt reports whether path is one of the exempt folders or inside one.
func IsExempt(path string, exempt []string) bool {
	path = filepath.Clean(path)
	for _, e := range exempt {
		if path == e || strings.HasPrefix(path, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func cleanPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, filepath.Clean(p))
	}
	return out
}

func extOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func validExt(path string, c *config.Config) bool {
	fileExt := extOf(path)

	if len(c.IncludeExt) > 0 {
		included := false
		for _, inc := range c.IncludeExt {
			if strings.EqualFold(fileExt, inc) {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, ig := range c.IgnoreExt {
		if strings.EqualFold(fileExt, ig) {
			return false
		}
	}
	return true
}

func validFileName(name string, c *config.Config) bool {
	fileName := strings.ToLower(name)

	for _, ig := range c.IgnoreStr {
		if strings.Contains(fileName, strings.ToLower(ig)) {
			return false
		}
	}

	if len(c.IncludeStr) == 0 {
		return true
	}
	for _, inc := range c.IncludeStr {
		if strings.Contains(fileName, strings.ToLower(inc)) {
			return true
		}
	}
	return false
}

package scanner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delorenj/vaultsync/internal/reconcile"
	"github.com/delorenj/vaultsync/internal/utils"
	lru "github.com/hashicorp/golang-lru/v2"
	gitignore "github.com/sabhiram/go-gitignore"
)

// IgnoreFileName holds extra gitignore style rules at the vault root
const IgnoreFileName = ".vaultignore"

const hashCacheSize = 16384

var ErrNotDirectory = errors.New("vault path is not a directory")

type hashKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Scanner walks the vault and returns the files eligible for sync
type Scanner struct {
	root     string
	allowed  mapset.Set[string]
	include  []string
	maxSize  int64
	withHash bool
	hashes   *lru.Cache[hashKey, string]
	ignored  []string
}

func New(cfg *reconcile.Config) (*Scanner, error) {
	root, err := utils.ResolvePath(cfg.VaultRoot)
	if err != nil {
		return nil, fmt.Errorf("vault path: %w", err)
	}

	for _, pattern := range cfg.IncludePatterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid include pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	allowed := mapset.NewSet[string]()
	for _, ext := range cfg.AllowedExtensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed.Add(ext)
	}

	hashes, err := lru.New[hashKey, string](hashCacheSize)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		root:     root,
		allowed:  allowed,
		include:  cfg.IncludePatterns,
		maxSize:  cfg.MaxFileSizeBytes,
		withHash: cfg.Compare == reconcile.CompareHash,
		hashes:   hashes,
		ignored:  cfg.IgnoredDirectories,
	}, nil
}

func (s *Scanner) Root() string {
	return s.root
}

// Scan lists allowed files under the root in lexical order.
// Oversized files are logged and left out. The ignore file is re-read on every scan.
func (s *Scanner) Scan(ctx context.Context) (reconcile.LocalSnapshot, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("stat vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, s.root)
	}

	ignore := loadIgnore(s.root, s.ignored)
	snapshot := make(reconcile.LocalSnapshot, 0)
	oversized := 0

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("walk error: %w", walkErr)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == s.root {
			return nil
		}

		relPath, err := utils.ToKey(s.root, path)
		if err != nil {
			return fmt.Errorf("walk rel path: %w", err)
		}

		if d.IsDir() {
			if ignore.MatchesPath(relPath) || ignore.MatchesPath(relPath+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		// symlinks, sockets and devices are never synced
		if !d.Type().IsRegular() || !s.eligible(ignore, relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			slog.Warn("scan", "path", relPath, "error", err)
			return nil
		}

		if s.maxSize > 0 && info.Size() > s.maxSize {
			oversized++
			slog.Warn("skipping large file", "path", relPath, "size", info.Size(), "max", s.maxSize)
			return nil
		}

		file := &reconcile.LocalFile{
			RelPath: relPath,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		if s.withHash {
			hash, err := s.hash(file)
			if err != nil {
				slog.Warn("scan", "path", relPath, "error", err)
				return nil
			}
			file.Hash = hash
		}

		snapshot = append(snapshot, file)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("local scan failed: %w", err)
	}

	slog.Debug("local snapshot", "files", len(snapshot), "oversized", oversized)
	return snapshot, nil
}

func (s *Scanner) eligible(ignore *gitignore.GitIgnore, relPath string) bool {
	if relPath == IgnoreFileName || ignore.MatchesPath(relPath) {
		return false
	}

	if !s.allowed.Contains(strings.ToLower(filepath.Ext(relPath))) {
		return false
	}

	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if ok, _ := doublestar.Match(pattern, relPath); ok {
			return true
		}
	}
	return false
}

// hash reuses the previous digest while path, size and mtime are unchanged
func (s *Scanner) hash(file *reconcile.LocalFile) (string, error) {
	key := hashKey{path: file.RelPath, size: file.Size, modTime: file.ModTime}
	if hash, ok := s.hashes.Get(key); ok {
		return hash, nil
	}

	hash, err := utils.FileHash(file.AbsPath)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	s.hashes.Add(key, hash)
	return hash, nil
}

func loadIgnore(root string, dirs []string) *gitignore.GitIgnore {
	lines := append([]string(nil), dirs...)

	ignorePath := filepath.Join(root, IgnoreFileName)
	if utils.FileExists(ignorePath) {
		file, err := os.Open(ignorePath)
		if err != nil {
			slog.Warn("failed to open ignore file", "path", ignorePath, "error", err)
			return gitignore.CompileIgnoreLines(lines...)
		}
		defer file.Close()

		rules := 0
		sc := bufio.NewScanner(file)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				lines = append(lines, line)
				rules++
			}
		}
		if err := sc.Err(); err != nil {
			slog.Warn("failed to read ignore file", "path", ignorePath, "error", err)
		} else {
			slog.Debug("loaded ignore file", "path", ignorePath, "rules", rules)
		}
	}

	return gitignore.CompileIgnoreLines(lines...)
}

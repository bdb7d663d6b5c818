package localrepo

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"workspace-promoter/internal/core/domain"
	"workspace-promoter/internal/core/ports/output"
)

const (
	platformFile        = ".platform"
	notebookContentFile = "notebook-content.py"
	pipelineDirSuffix   = ".DataPipeline"
)

// Scanner locates artifact definitions in a repository checkout. A notebook
// is a directory holding a .platform metadata file next to its content file;
// a data pipeline is a *.DataPipeline directory. The folder path of an
// artifact is the repo-relative path of the directory containing its
// definition directory, forward-slash separated, empty at the repo root.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

type platformMetadata struct {
	Metadata struct {
		DisplayName string `json:"displayName"`
	} `json:"metadata"`
}

func (s *Scanner) Scan(repoRoot string) ([]ports.RepoEntry, error) {
	info, err := os.Stat(repoRoot)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidRepoPath, repoRoot)
	}

	var entries []ports.RepoEntry
	err = filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != repoRoot && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if strings.HasSuffix(d.Name(), pipelineDirSuffix) {
			entries = append(entries, ports.RepoEntry{
				Name:       strings.TrimSuffix(d.Name(), pipelineDirSuffix),
				Type:       domain.TypeDataPipeline,
				Dir:        path,
				FolderPath: relFolderPath(repoRoot, path),
			})
			return filepath.SkipDir
		}

		if entry, ok := s.notebookEntry(repoRoot, path); ok {
			entries = append(entries, entry)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk repository: %w", err)
	}

	log.WithFields(log.Fields{
		"repo_root": repoRoot,
		"entries":   len(entries),
	}).Info("scanned repository checkout")
	return entries, nil
}

func (s *Scanner) notebookEntry(repoRoot, dir string) (ports.RepoEntry, bool) {
	metaPath := filepath.Join(dir, platformFile)
	if _, err := os.Stat(metaPath); err != nil {
		return ports.RepoEntry{}, false
	}
	if _, err := os.Stat(filepath.Join(dir, notebookContentFile)); err != nil {
		return ports.RepoEntry{}, false
	}

	raw, err := os.ReadFile(metaPath)
	if err != nil {
		log.WithField("dir", dir).WithError(err).Warn("skipping notebook: unreadable metadata")
		return ports.RepoEntry{}, false
	}
	var meta platformMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		log.WithField("dir", dir).WithError(err).Warn("skipping notebook: invalid metadata")
		return ports.RepoEntry{}, false
	}
	if meta.Metadata.DisplayName == "" {
		log.WithField("dir", dir).Warn("skipping notebook: no display name in metadata")
		return ports.RepoEntry{}, false
	}

	return ports.RepoEntry{
		Name:       meta.Metadata.DisplayName,
		Type:       domain.TypeNotebook,
		Dir:        dir,
		FolderPath: relFolderPath(repoRoot, dir),
	}, true
}

// relFolderPath maps an artifact definition directory to the workspace folder
// path it mirrors: the path of its parent directory relative to the repo
// root.
func relFolderPath(repoRoot, dir string) string {
	rel, err := filepath.Rel(repoRoot, filepath.Dir(dir))
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Ensure interface compliance
var _ ports.RepoScanner = (*Scanner)(nil)

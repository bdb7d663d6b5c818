package ports

import "workspace-promoter/internal/core/domain"

// RepoEntry is an artifact located in the checked-out repository: the
// directory that defines it and its repo-relative folder path, always
// forward-slash separated and empty for the repository root.
type RepoEntry struct {
	Name       string
	Type       domain.ArtifactType
	Dir        string
	FolderPath string
}

// RepoScanner walks a repository checkout and locates the directories that
// define notebooks and data pipelines.
type RepoScanner interface {
	Scan(repoRoot string) ([]RepoEntry, error)
}

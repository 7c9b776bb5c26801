package backup

import (
	"errors"
	"time"
)

const (
	// MetadataFile is the JSON record written into every backup directory.
	MetadataFile = "metadata.json"
	// ChecksumsFile holds "<sha256>  <name>" lines for the copied files.
	ChecksumsFile = "checksums.txt"

	// absPrefix marks files that lived outside the project directory.
	absPrefix = "_abs/"
)

var ErrNotFound = errors.New("backup not found")

// Record captures metadata for a single backup tag.
type Record struct {
	ID         string    `json:"id"`
	Tag        string    `json:"tag"`
	BackupTime time.Time `json:"backup_time"`
	Host       string    `json:"host,omitempty"`
	Files      []string  `json:"files_backed_up"`
}

// Entry is a backup discovered on disk.
type Entry struct {
	Tag       string    `json:"tag"`
	CreatedAt time.Time `json:"created_at"`
	Files     []string  `json:"files"`
	Path      string    `json:"path"`
}

// RestoreResult lists what a restore touched. Skipped files were recorded
// but are absent from the backup directory.
type RestoreResult struct {
	Tag      string   `json:"tag"`
	Restored []string `json:"restored"`
	Skipped  []string `json:"skipped,omitempty"`
}

// VerifyResult is the checksum status of one backup.
type VerifyResult struct {
	Tag      string   `json:"tag"`
	Status   string   `json:"status"`
	Problems []string `json:"problems,omitempty"`
	Path     string   `json:"path"`
}

const (
	StatusOK       = "ok"
	StatusMismatch = "mismatch"
	StatusMissing  = "missing checksums"
)

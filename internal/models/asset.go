package models

import (
	"path/filepath"
	"time"
)

// NoBucket marks an asset that has not been placed in a duplicate group.
const NoBucket = -1

type Asset struct {
	ID             int64         `db:"id" json:"id" yaml:"id"`
	Path           string        `db:"path" json:"path" yaml:"path"`
	FileName       string        `db:"fileName" json:"fileName" yaml:"fileName"`
	Folder         string        `db:"folder" json:"folder" yaml:"folder"`
	Fingerprint    string        `db:"fingerprint" json:"fingerprint" yaml:"fingerprint"`
	PerceptualHash string        `db:"perceptualHash" json:"perceptualHash" yaml:"perceptualHash"`
	Width          int           `db:"width" json:"width" yaml:"width"`
	Height         int           `db:"height" json:"height" yaml:"height"`
	Duration       time.Duration `db:"duration" json:"duration" yaml:"duration"`
	Size           int64         `db:"size" json:"size" yaml:"size"`
	CreatedAt      time.Time     `db:"createdAt" json:"createdAt" yaml:"createdAt"`
	ModifiedAt     time.Time     `db:"modifiedAt" json:"modifiedAt" yaml:"modifiedAt"`
	Inode          uint64        `db:"inode" json:"inode" yaml:"inode"`
	Device         uint64        `db:"device" json:"device" yaml:"device"`
	NumHardLinks   uint64        `db:"numHardLinks" json:"numHardLinks" yaml:"numHardLinks"`
	IsSymbolicLink bool          `db:"isSymbolicLink" json:"isSymbolicLink" yaml:"isSymbolicLink"`
	SymbolicLink   string        `db:"symbolicLink" json:"symbolicLink" yaml:"symbolicLink"`
	IsVideo        bool          `db:"isVideo" json:"isVideo" yaml:"isVideo"`
	Bucket         int           `db:"bucket" json:"bucket" yaml:"bucket"`
}

// Identity is the comparable subset of an Asset used to decide whether two
// asset values refer to the same file. Times are kept as UTC nanoseconds so
// that monotonic clock readings and locations do not affect equality.
type Identity struct {
	ID          int64
	Path        string
	FileName    string
	Folder      string
	Fingerprint string
	Width       int
	Height      int
	Size        int64
	CreatedAt   int64
	ModifiedAt  int64
}

func (a Asset) Identity() Identity {
	return Identity{
		ID:          a.ID,
		Path:        a.Path,
		FileName:    a.FileName,
		Folder:      a.Folder,
		Fingerprint: a.Fingerprint,
		Width:       a.Width,
		Height:      a.Height,
		Size:        a.Size,
		CreatedAt:   unixNano(a.CreatedAt),
		ModifiedAt:  unixNano(a.ModifiedAt),
	}
}

// SameAs reports whether a and b describe the same asset by value.
func (a Asset) SameAs(b Asset) bool {
	return a.Identity() == b.Identity()
}

// DeviceInode identifies the underlying file, shared by hard links.
func (a Asset) DeviceInode() [2]uint64 {
	return [2]uint64{a.Device, a.Inode}
}

// NewAsset fills the path derived fields.
func NewAsset(path string) Asset {
	return Asset{
		Path:     path,
		FileName: filepath.Base(path),
		Folder:   filepath.Dir(path),
		Bucket:   NoBucket,
	}
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UTC().UnixNano()
}

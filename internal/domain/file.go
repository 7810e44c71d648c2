package domain

import (
	"path"
	"strings"
	"time"
)

type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeZip FileType = "zip"
	FileTypeImg FileType = "img"
	FileTypeDoc FileType = "doc"
)

// FileItem is an entry of the download catalog.
type FileItem struct {
	ID         string
	Name       string
	Size       int64
	Type       FileType
	ModifiedAt time.Time
}

// FileTypeOf classifies a file name by extension. Unknown extensions are documents.
func FileTypeOf(name string) FileType {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return FileTypePDF
	case ".zip", ".gz", ".tgz", ".tar", ".7z", ".rar":
		return FileTypeZip
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return FileTypeImg
	default:
		return FileTypeDoc
	}
}

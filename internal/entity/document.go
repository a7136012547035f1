package entity

import (
	"path/filepath"

	"github.com/joseph-ayodele/invoice-extractor/constants"
)

// Document is an uploaded invoice: raw bytes plus the declared filename.
// It is owned by a single pipeline invocation and discarded afterwards.
type Document struct {
	Filename string
	Content  []byte
}

// Ext returns the normalized (lowercase, dotless) filename extension.
func (d Document) Ext() string {
	return constants.NormalizeExt(filepath.Ext(d.Filename))
}

// Format returns the coarse document family, or "" if unsupported.
func (d Document) Format() constants.Format {
	return constants.MapExtToFormat(d.Ext())
}

package models

import "github.com/google/uuid"

// MediaFile is a staged upload waiting to be sent. It lives only until the
// next send (where it becomes an inline-data part) or explicit removal.
type MediaFile struct {
	ID       string `json:"id"`
	Data     string `json:"data"` // base64, no data-URI prefix
	MimeType string `json:"mimeType"`
	Name     string `json:"name"`
}

// NewMediaFile assigns an identity to a staged upload.
func NewMediaFile(data, mimeType, name string) *MediaFile {
	return &MediaFile{
		ID:       uuid.NewString(),
		Data:     data,
		MimeType: mimeType,
		Name:     name,
	}
}

// AsPart converts the staged file into a message part.
func (f *MediaFile) AsPart() Part {
	return DataPart(f.Data, f.MimeType)
}

package docsystem

import "io"

// UploadedFile represents a file uploaded by the user
type UploadedFile struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

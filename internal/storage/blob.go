package storage

import "io"

// BlobStore holds user-uploaded documents (resumes, attachments).
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}

// ResumeKey is the canonical location for a user's resume upload.
func ResumeKey(userID, filename string) string {
	if filename == "" {
		filename = "resume.bin"
	}
	return "resumes/" + userID + "/" + filename
}

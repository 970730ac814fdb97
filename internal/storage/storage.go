// Package storage persists user images outside the database.
package storage

import (
	"context"
	"net/url"
	"strings"
)

// Folders images are grouped under.
const (
	FolderAvatars      = "avatars"
	FolderPublications = "publications"
)

// Namespace prefixes every public id.
const Namespace = "instaclone"

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ImageStore is the external collaborator that holds image bytes.
// Upload returns the public URL of the stored object; Destroy takes the
// public id derived from that URL by ExtractPublicID.
type ImageStore interface {
	Upload(ctx context.Context, file Upload, folder string) (string, error)
	Destroy(ctx context.Context, publicID string) error
}

// ExtractPublicID derives the store id from an image URL: the last three
// path segments joined by "/", cut at the first ".".
func ExtractPublicID(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	segments := strings.Split(strings.Trim(p, "/"), "/")
	if len(segments) > 3 {
		segments = segments[len(segments)-3:]
	}
	id, _, _ := strings.Cut(strings.Join(segments, "/"), ".")
	return id
}

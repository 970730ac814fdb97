package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"instaclone/internal/models"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// WebPQuality is the lossy quality used for every stored image.
const WebPQuality = 80

var publicIDPattern = regexp.MustCompile(`^` + Namespace + `/[a-z]+/[0-9a-f-]{36}$`)

// LocalStore writes normalized WebP images below Root and serves them from BaseURL.
type LocalStore struct {
	Root         string
	BaseURL      string
	MaxBytes     int64
	MaxDimension int
}

// NewLocalStore creates a LocalStore rooted at dir.
func NewLocalStore(dir, baseURL string, maxBytes int64, maxDimension int) *LocalStore {
	return &LocalStore{
		Root:         dir,
		BaseURL:      strings.TrimRight(baseURL, "/"),
		MaxBytes:     maxBytes,
		MaxDimension: maxDimension,
	}
}

func imageError(msg string) error {
	return models.NewFieldValidationError(map[string]string{"image": msg})
}

// Upload decodes the file, downscales it to MaxDimension and stores it as WebP.
func (s *LocalStore) Upload(_ context.Context, file Upload, folder string) (string, error) {
	if len(file.Content) == 0 {
		return "", imageError("No file was submitted.")
	}
	if s.MaxBytes > 0 && int64(len(file.Content)) > s.MaxBytes {
		return "", imageError(fmt.Sprintf("File too large (max %dMB).", s.MaxBytes/(1024*1024)))
	}
	if !isAllowedImageMIME(http.DetectContentType(file.Content)) {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	decoded, _, err := image.Decode(bytes.NewReader(file.Content))
	if err != nil {
		return "", imageError("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	resized := resizeToFit(decoded, s.MaxDimension)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, resized, &webp.Options{Quality: WebPQuality}); err != nil {
		return "", fmt.Errorf("encode webp: %w", err)
	}

	publicID := publicIDFor(folder, uuid.NewString())
	if err := writeBytesToFile(s.filePath(publicID), buf.Bytes()); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.BaseURL + "/" + publicID + ".webp", nil
}

// Destroy deletes the stored object. Deleting an object that is already gone succeeds.
func (s *LocalStore) Destroy(_ context.Context, publicID string) error {
	if !publicIDPattern.MatchString(publicID) {
		return fmt.Errorf("invalid public id %q", publicID)
	}
	if err := os.Remove(s.filePath(publicID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image: %w", err)
	}
	return nil
}

func publicIDFor(folder, name string) string {
	return Namespace + "/" + folder + "/" + name
}

func (s *LocalStore) filePath(publicID string) string {
	return filepath.Join(s.Root, filepath.FromSlash(publicID)+".webp")
}

func resizeToFit(src image.Image, maxSide int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if maxSide <= 0 || w <= 0 || h <= 0 || (w <= maxSide && h <= maxSide) {
		return src
	}

	scale := float64(maxSide) / float64(w)
	if hs := float64(maxSide) / float64(h); hs < scale {
		scale = hs
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func writeBytesToFile(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o600)
}

package storage

import (
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
)

// ImageStore persists decoded post images as JPEG files under a directory
// that the router serves at /storage.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image storage dir: %w", err)
	}
	return &ImageStore{dir: dir}, nil
}

// Save writes the image under a fresh random name and returns its public URL.
func (s *ImageStore) Save(img image.Image) (string, error) {
	name := uuid.NewString() + ".jpeg"

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, nil); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	return "/storage/" + name, nil
}

// Remove deletes the file behind a URL previously returned by Save.
func (s *ImageStore) Remove(imageURL string) error {
	return os.Remove(filepath.Join(s.dir, path.Base(imageURL)))
}

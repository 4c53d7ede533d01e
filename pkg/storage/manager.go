package storage

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ImageExtensions are the file types listed as downloads.
var ImageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// FileInfo describes one image found in the output directory.
type FileInfo struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Modified float64 `json:"modified"`
}

// Manager writes accepted images into one output directory
type Manager struct {
	outputDir string
	mu        sync.Mutex
	saved     int
}

// NewManager creates the output directory, including parents, if needed
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// Save writes data to name inside the output directory and returns its path.
// The write goes through a temporary file and a rename, so readers never see
// a partial image. An existing file with the same name is replaced.
func (m *Manager) Save(name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	path := filepath.Join(m.outputDir, name)

	tmp, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write image data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()
	return path, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of images written by this manager
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}

// List returns the images in dir, newest first. A missing directory is an
// empty listing, not an error.
func List(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !ImageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Path:     filepath.Join(dir, entry.Name()),
			Size:     info.Size(),
			Modified: float64(info.ModTime().UnixNano()) / 1e9,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if files[i].Modified != files[j].Modified {
			return files[i].Modified > files[j].Modified
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}

// Thumbnail decodes the image name in dir and scales it to width, keeping
// the aspect ratio. Images narrower than width are returned unscaled.
func Thumbnail(dir, name string, width int) (image.Image, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	if !ImageExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil, fmt.Errorf("not an image file: %s", name)
	}

	img, err := imaging.Open(filepath.Join(dir, name), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	if width <= 0 || img.Bounds().Dx() <= width {
		return img, nil
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos), nil
}

// EncodeJPEG writes img to w as a JPEG.
func EncodeJPEG(w io.Writer, img image.Image) error {
	return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(85))
}

// checkName rejects names that would escape the output directory.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}

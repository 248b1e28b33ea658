package images

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// File is an image selected for staging. Its bytes are read lazily so that
// validation can run on the declared type and size alone.
type File struct {
	Name string
	Type string
	Size int64

	open func() (io.ReadCloser, error)
}

// NewFile wraps in-memory bytes. An empty mimeType is sniffed from the data.
func NewFile(name, mimeType string, data []byte) File {
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return File{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// OpenFile stages a file from disk
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to stat image: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to open image: %w", err)
	}
	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)
	f.Close()

	return File{
		Name: filepath.Base(path),
		Type: http.DetectContentType(head[:n]),
		Size: info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromMultipart stages an uploaded form file. A missing or generic declared
// type is replaced by one sniffed from the content.
func FromMultipart(header *multipart.FileHeader) File {
	f := File{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Size: header.Size,
		open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}
	if f.Type == "" || f.Type == "application/octet-stream" {
		if rc, err := header.Open(); err == nil {
			head := make([]byte, 512)
			n, _ := io.ReadFull(rc, head)
			rc.Close()
			f.Type = http.DetectContentType(head[:n])
		}
	}
	return f
}

// ReadAll returns the file contents
func (f File) ReadAll() ([]byte, error) {
	if f.open == nil {
		return nil, fmt.Errorf("image %q has no content", f.Name)
	}
	rc, err := f.open()
	if err != nil {
		return nil, fmt.Errorf("failed to read image %q: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %q: %w", f.Name, err)
	}
	return data, nil
}

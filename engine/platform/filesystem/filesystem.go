package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

/**
 * @brief Synchronous file access used by the asset loaders and the world
 * serializer. Implementations must be safe to call from loader workers.
 */
type FileIO interface {
	FileSize(path string) (int64, error)
	ReadFile(path string) ([]byte, error)
	// ReadPrefix returns at most n bytes from the start of the file.
	ReadPrefix(path string, n int) ([]byte, error)
	Open(path string) (io.ReadCloser, error)
	WriteFile(path string, data []byte) error
}

// OS is a FileIO backed by the host file system.
type OS struct{}

func (OS) FileSize(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if fi.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	return fi.Size(), nil
}

func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (OS) ReadPrefix(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:read], nil
}

func (OS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// WriteFile writes data to a uniquely named sibling file first and renames it
// over path, so readers never observe a half written file.
func (OS) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

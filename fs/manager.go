package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santiagomed/infragenie/core"
	"github.com/spf13/afero"
)

var ErrUnsafePath = errors.New("unsafe file path")

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
func (fs *FileSystem) WriteFile(path string, content string) error {
	dir := filepath.Dir(path)
	if err := fs.Fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs.Fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// IsDir reports whether path exists and is a directory.
func (fs *FileSystem) IsDir(path string) bool {
	ok, err := afero.IsDir(fs.Fs, path)
	return err == nil && ok
}

// LoadInfrastructure writes every generated file under root. File names that
// would escape root are rejected before anything is written.
func (fs *FileSystem) LoadInfrastructure(infra *core.Infrastructure, root string) error {
	names := infra.Names()
	for _, name := range names {
		if _, err := SafeJoin(root, name); err != nil {
			return err
		}
	}

	for _, name := range names {
		entry, _ := infra.Get(name)
		path, _ := SafeJoin(root, name)
		if err := fs.WriteFile(path, entry.Content); err != nil {
			return err
		}
	}
	return nil
}

// CopyDir copies srcDir of this file system into dstDir of dst.
func (fs *FileSystem) CopyDir(dst afero.Fs, srcDir, dstDir string) error {
	return afero.Walk(fs.Fs, srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstDir, rel)

		if info.IsDir() {
			return dst.MkdirAll(target, 0755)
		}

		src, err := fs.Fs.Open(path)
		if err != nil {
			return fmt.Errorf("error opening file %s: %w", path, err)
		}
		defer src.Close()

		out, err := dst.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating file %s: %w", target, err)
		}
		defer out.Close()

		if _, err := io.Copy(out, src); err != nil {
			return fmt.Errorf("error copying file %s: %w", path, err)
		}
		return nil
	})
}

// ListFiles returns the files under root as sorted slash-separated paths
// relative to root.
func (fs *FileSystem) ListFiles(root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Export writes the original contents of result into dir on dst and returns
// the directory used.
func Export(result *core.GenerationResult, dst *FileSystem, dir string) (string, error) {
	if result.Infrastructure.Len() == 0 {
		return "", errors.New("no files to export")
	}

	if exists, _ := afero.Exists(dst.Fs, dir); exists && !dst.IsDir(dir) {
		return "", fmt.Errorf("export path %s is not a directory", dir)
	}

	staging := NewMemoryFileSystem()
	if err := staging.LoadInfrastructure(&result.Infrastructure, "."); err != nil {
		return "", err
	}

	target := filepath.Join(dir, ExportName(result))
	if err := staging.CopyDir(dst.Fs, ".", target); err != nil {
		return "", fmt.Errorf("error exporting to %s: %w", target, err)
	}
	return target, nil
}

// ExportName is the directory a result is exported into.
func ExportName(result *core.GenerationResult) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, result.RequestID)
	name = strings.Trim(name, "-")
	if name == "" {
		return "infragenie"
	}
	return name
}

// SafeJoin joins name onto root, refusing absolute names and names that
// climb out of root.
func SafeJoin(root, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	cleaned := filepath.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, name)
	}
	return filepath.Join(root, cleaned), nil
}

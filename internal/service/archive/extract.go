package archive

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const (
	defaultDirMode  = 0o755
	defaultFileMode = 0o644
)

var (
	errIllegalPath       = errors.New("illegal file path")
	errUnsupportedFormat = errors.New("unsupported archive format")
)

// safeJoin joins name to root and rejects results outside root.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, name)
	if !within(root, target) {
		return "", fmt.Errorf("%s: %w", name, errIllegalPath)
	}

	return target, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}

// checkParents rejects targets whose existing parent directories under root include a symlink.
func checkParents(root, target string) error {
	if target == root {
		return nil
	}

	rel, err := filepath.Rel(root, filepath.Dir(target))
	if err != nil {
		return err
	}

	if rel == "." {
		return nil
	}

	current := root

	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		current = filepath.Join(current, part)

		info, statErr := os.Lstat(current)
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil
		}

		if statErr != nil {
			return statErr
		}

		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf("%s: parent %s is a symlink: %w", target, current, errIllegalPath)
		}
	}

	return nil
}

// safeTarget resolves an entry path that can be written without following any symlink.
func safeTarget(root, name string) (string, error) {
	target, err := safeJoin(root, name)
	if err != nil {
		return "", err
	}

	if err = checkParents(root, target); err != nil {
		return "", err
	}

	info, err := os.Lstat(target)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return target, nil
	case err != nil:
		return "", err
	case info.Mode()&fs.ModeSymlink != 0:
		return "", fmt.Errorf("%s: existing symlink: %w", name, errIllegalPath)
	}

	return target, nil
}

// checkLink rejects symlinks whose target leaves root at any step. An extracted symlink may only be
// the last component, and ".." may not follow a component that does not exist yet.
func checkLink(root, path, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("link %s -> %s: %w", path, linkname, errIllegalPath)
	}

	parts := slices.DeleteFunc(strings.Split(filepath.FromSlash(linkname), string(os.PathSeparator)),
		func(part string) bool { return part == "" || part == "." })

	current := filepath.Dir(path)
	unresolved := false

	for i, part := range parts {
		if part == ".." {
			if unresolved {
				return fmt.Errorf("link %s -> %s climbs out of a missing directory: %w", path, linkname, errIllegalPath)
			}

			current = filepath.Dir(current)
		} else {
			current = filepath.Join(current, part)

			info, err := os.Lstat(current)

			switch {
			case errors.Is(err, fs.ErrNotExist):
				unresolved = true
			case err != nil:
				return err
			case info.Mode()&fs.ModeSymlink != 0 && i < len(parts)-1:
				return fmt.Errorf("link %s -> %s passes through symlink %s: %w", path, linkname, current, errIllegalPath)
			}
		}

		if !within(root, current) {
			return fmt.Errorf("link %s -> %s: %w", path, linkname, errIllegalPath)
		}
	}

	return nil
}

func writeFile(path string, mode fs.FileMode, src io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return err
	}

	perm := mode.Perm()
	if perm == 0 {
		perm = defaultFileMode
	}

	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0o600)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, src); err != nil { //nolint:gosec // Archives come from the configured upstream.
		_ = out.Close()

		return err
	}

	return out.Close()
}

func writeSymlink(root, path, linkname string) error {
	if err := checkLink(root, path, linkname); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), defaultDirMode); err != nil {
		return err
	}

	return os.Symlink(linkname, path)
}

// extractZip unpacks a zip archive into dest.
func extractZip(src, dest string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return err
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, f := range reader.File {
		if err = extractZipEntry(f, dest); err != nil {
			return err
		}
	}

	return nil
}

func extractZipEntry(f *zip.File, dest string) error {
	target, err := safeTarget(dest, f.Name)
	if err != nil {
		return err
	}

	mode := f.Mode()

	switch {
	case mode.IsDir():
		return os.MkdirAll(target, defaultDirMode)
	case mode&fs.ModeSymlink != 0:
		rc, openErr := f.Open()
		if openErr != nil {
			return openErr
		}

		linkname, readErr := io.ReadAll(rc)
		_ = rc.Close()

		if readErr != nil {
			return readErr
		}

		return writeSymlink(dest, target, string(linkname))
	default:
		rc, openErr := f.Open()
		if openErr != nil {
			return openErr
		}

		defer func() {
			_ = rc.Close()
		}()

		return writeFile(target, mode, rc)
	}
}

// extractTar unpacks a plain tar archive into dest.
func extractTar(src, dest string) error {
	in, err := os.Open(src) //nolint:gosec // The path is inside the staging directory.
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	tarReader := tar.NewReader(in)

	for {
		header, nextErr := tarReader.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}

		if nextErr != nil {
			return fmt.Errorf("read tar header: %w", nextErr)
		}

		if err = extractTarEntry(tarReader, header, dest); err != nil {
			return err
		}
	}
}

func extractTarEntry(tarReader *tar.Reader, header *tar.Header, dest string) error {
	target, err := safeTarget(dest, header.Name)
	if err != nil {
		return err
	}

	switch header.Typeflag {
	case tar.TypeDir:
		return os.MkdirAll(target, defaultDirMode)
	case tar.TypeReg:
		return writeFile(target, fs.FileMode(header.Mode), tarReader) //nolint:gosec // Mode bits are masked by Perm.
	case tar.TypeSymlink:
		return writeSymlink(dest, target, header.Linkname)
	case tar.TypeLink:
		source, joinErr := safeJoin(dest, header.Linkname)
		if joinErr != nil {
			return joinErr
		}

		if err = checkParents(dest, source); err != nil {
			return err
		}

		if err = os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
			return err
		}

		return os.Link(source, target)
	default:
		// Devices, fifos and pax metadata carry no payload.
		return nil
	}
}

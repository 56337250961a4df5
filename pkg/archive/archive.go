// Package archive extracts gzip-compressed tar archives without letting any entry escape the
// destination directory.
package archive

import (
	"archive/tar"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/mholt/archives"
)

// SanitizePath maps an archive entry name onto a path below base.
// "." components are dropped and ordinary segments are appended in order. Parent references,
// absolute roots, volume names and segments carrying a path separator are rejected.
func SanitizePath(base, entry string) (string, error) {
	if filepath.VolumeName(entry) != "" || strings.HasPrefix(entry, "/") || strings.HasPrefix(entry, `\`) {
		return "", &Error{Kind: KindUnsafePath, Entry: entry}
	}

	out := base
	for _, seg := range strings.Split(entry, "/") {
		switch {
		case seg == "" || seg == ".":
			continue
		case seg == "..":
			return "", &Error{Kind: KindUnsafePath, Entry: entry}
		case strings.ContainsAny(seg, `\:`) || strings.ContainsRune(seg, 0):
			return "", &Error{Kind: KindUnsafePath, Entry: entry}
		}
		out = filepath.Join(out, seg)
	}
	return out, nil
}

// ExtractFile extracts the .tar.gz archive at path into dest.
func ExtractFile(ctx context.Context, path, dest string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "open archive %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()
	return Extract(ctx, f, dest)
}

// Extract reads a gzip-compressed tar stream and materializes it under dest.
// Only directory and regular file entries are accepted; symbolic links, hard links and every
// other entry type fail the whole extraction before anything is written for that entry.
// On failure dest may hold a partial tree; callers extract into a staging directory.
func Extract(ctx context.Context, r io.Reader, dest string) error {
	if err := os.MkdirAll(dest, fsutil.DirModeDefault); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "create %s: %v", dest, err)
	}

	rc, err := archives.Gz{}.OpenReader(r)
	if err != nil {
		return &Error{Kind: KindMalformed, Err: err}
	}
	defer func() { _ = rc.Close() }()

	x := &extractor{dest: dest}
	err = archives.Tar{}.Extract(ctx, rc, x.handle)
	switch {
	case err == nil:
		logger.Debug("archive extracted", logger.Fields{"dest": dest, "files": x.files, "dirs": x.dirs})
		return nil
	case stderrors.Is(err, errors.ErrArchive), stderrors.Is(err, errors.ErrFilesystem):
		return err
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCancelled, err.Error())
	case stderrors.Is(err, tar.ErrInsecurePath):
		return &Error{Kind: KindUnsafePath, Err: err}
	default:
		return &Error{Kind: KindMalformed, Err: err}
	}
}

type extractor struct {
	dest  string
	files int
	dirs  int
}

func (x *extractor) handle(_ context.Context, f archives.FileInfo) error {
	hdr, ok := f.Header.(*tar.Header)
	if !ok {
		return &Error{Kind: KindUnsupportedType, Entry: f.NameInArchive}
	}

	switch hdr.Typeflag {
	case tar.TypeSymlink, tar.TypeLink:
		return &Error{Kind: KindUnsupportedLink, Entry: hdr.Name}
	case tar.TypeDir, tar.TypeReg:
	default:
		return &Error{Kind: KindUnsupportedType, Entry: fmt.Sprintf("%s (type %q)", hdr.Name, hdr.Typeflag)}
	}

	target, err := SanitizePath(x.dest, hdr.Name)
	if err != nil {
		return err
	}

	if hdr.Typeflag == tar.TypeDir {
		if err := os.MkdirAll(target, fsutil.DirModeDefault); err != nil {
			return errors.Wrapf(errors.ErrFilesystem, "create directory %s: %v", target, err)
		}
		x.dirs++
		return nil
	}
	if err := x.extractRegularFile(f, hdr, target); err != nil {
		return err
	}
	x.files++
	return nil
}

func (x *extractor) extractRegularFile(f archives.FileInfo, hdr *tar.Header, target string) error {
	if err := fsutil.EnsureFileDir(target); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "create parent directory for %s: %v", target, err)
	}

	src, err := f.Open()
	if err != nil {
		return &Error{Kind: KindMalformed, Entry: hdr.Name, Err: err}
	}
	defer func() { _ = src.Close() }()

	dst, err := fsutil.CreateFilePerm(target, safeFileMode(hdr.Mode))
	if err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "create file %s: %v", target, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return &Error{Kind: KindMalformed, Entry: hdr.Name, Err: err}
	}
	if err := dst.Close(); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "close %s: %v", target, err)
	}
	return nil
}

// safeFileMode keeps the permission bits of an entry, always leaving the owner able to read and write.
func safeFileMode(mode int64) os.FileMode {
	if mode < 0 || mode > fsutil.FileModeMask {
		return fsutil.FileModeDefault
	}
	return os.FileMode(mode)&fsutil.FileModeMask | 0o600
}

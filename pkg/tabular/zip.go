package tabular

import (
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/agentstation/odflow/pkg/errors"
)

// FirstMember returns the name and contents of the first file in a zip
// archive. Directories and macOS resource forks are skipped.
func FirstMember(data []byte, name string) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, errors.WrapParse("zip", name, err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", nil, errors.WrapParse("zip", name, err)
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return "", nil, errors.WrapIO("read", name+"!"+f.Name, err)
		}
		return f.Name, content, nil
	}
	return "", nil, errors.NewParseError("zip", name, "archive has no files", nil)
}

// Zip packs files into an archive in the given order.
func Zip(w io.Writer, names []string, contents [][]byte) error {
	zw := zip.NewWriter(w)
	for i, n := range names {
		fw, err := zw.Create(n)
		if err != nil {
			return errors.WrapIO("write", n, err)
		}
		if _, err := fw.Write(contents[i]); err != nil {
			return errors.WrapIO("write", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.WrapIO("close", "zip", err)
	}
	return nil
}

package tarball

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// File — один файл архива.
type File struct {
	Name string
	Data []byte
	Mode int64 // 0 → 0600
}

// Build собирает tar.gz из файлов. Одинаковый набор файлов даёт байт-в-байт
// одинаковый архив, поэтому sha256 годится как ETag.
func Build(files []File) ([]byte, string, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	// детерминируем gzip-заголовок
	gz.Name = ""
	gz.Comment = ""
	gz.ModTime = time.Unix(0, 0)

	tw := tar.NewWriter(gz)

	sorted := make([]File, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, f := range sorted {
		name := strings.TrimLeft(f.Name, "/")
		name = filepath.ToSlash(filepath.Clean(name))
		if name == "" || name == "." {
			continue
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o600
		}
		hdr := &tar.Header{
			Name:    name,
			Mode:    mode,
			Size:    int64(len(f.Data)),
			ModTime: time.Unix(0, 0), // фиксируем время в tar-заголовке
		}
		if err := tw.WriteHeader(hdr); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, "", err
		}
		if _, err := tw.Write(f.Data); err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, "", err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, "", err
	}
	if err := gz.Close(); err != nil {
		return nil, "", err
	}

	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

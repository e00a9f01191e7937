package memory

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
)

// FileMapping places a file at a base address.
type FileMapping struct {
	Base uint64 `yaml:"base"`
	Path string `yaml:"path"`
	// Size overrides the mapped length. Zero maps the whole file as found at MapFile time.
	Size uint64 `yaml:"size,omitempty"`
}

// FileSpace is an address space backed by files. Plain files are read live with ReadAt on
// every call so on-disk changes are visible to the next scan. Files ending in ".zst" are
// decompressed and cached until their size or modification time changes.
type FileSpace struct {
	mu    sync.RWMutex
	areas []fileArea
}

type fileArea struct {
	base uint64
	size uint64
	path string

	compressed bool
	cache      []byte
	modTime    time.Time
	fileSize   int64
}

// NewFileSpace maps every entry of mappings.
func NewFileSpace(mappings []FileMapping) (*FileSpace, error) {
	fs := &FileSpace{}
	for _, m := range mappings {
		if err := fs.MapFile(m); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// MapFile adds one file mapping.
func (fs *FileSpace) MapFile(m FileMapping) error {
	info, err := os.Stat(m.Path)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "cannot stat mapped file").
			WithContext("path", m.Path).
			Build()
	}

	area := fileArea{base: m.Base, path: m.Path, compressed: strings.HasSuffix(m.Path, ".zst")}
	size := uint64(info.Size())
	if area.compressed {
		data, err := decompressFile(m.Path)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "cannot decompress mapped file").
				WithContext("path", m.Path).
				Build()
		}
		area.cache, area.modTime, area.fileSize = data, info.ModTime(), info.Size()
		size = uint64(len(data))
	}
	if m.Size > 0 {
		size = m.Size
	}
	if size == 0 {
		return ferrors.ValidationError("mapped file is empty").WithContext("path", m.Path).Build()
	}
	area.size = size

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for _, a := range fs.areas {
		if overlaps(a.base, a.size, area.base, area.size) {
			return ferrors.ValidationError("file mapping overlaps an existing mapping").
				WithContext("path", m.Path).
				WithContext("existing", a.path).
				Build()
		}
	}
	fs.areas = append(fs.areas, area)
	return nil
}

// Validate checks that [addr, addr+n) falls inside one mapped file.
func (fs *FileSpace) Validate(addr, n uint64) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if fs.find(addr, n) < 0 {
		return unmapped(addr, n)
	}
	return nil
}

// ReadBytes reads [addr, addr+n) from the backing file.
func (fs *FileSpace) ReadBytes(addr, n uint64) ([]byte, error) {
	fs.mu.RLock()
	idx := fs.find(addr, n)
	if idx < 0 {
		fs.mu.RUnlock()
		return nil, unmapped(addr, n)
	}
	area := fs.areas[idx]
	fs.mu.RUnlock()

	off := addr - area.base
	if !area.compressed {
		return readAt(area.path, addr, off, n)
	}

	data, err := fs.compressedContent(idx)
	if err != nil {
		return nil, fault(addr, n, err)
	}
	if off+n > uint64(len(data)) {
		return nil, fault(addr, n, io.ErrUnexpectedEOF)
	}
	return append([]byte(nil), data[off:off+n]...), nil
}

func (fs *FileSpace) compressedContent(idx int) ([]byte, error) {
	fs.mu.RLock()
	area := fs.areas[idx]
	fs.mu.RUnlock()

	info, err := os.Stat(area.path)
	if err != nil {
		return nil, err
	}
	if info.ModTime().Equal(area.modTime) && info.Size() == area.fileSize {
		return area.cache, nil
	}

	data, err := decompressFile(area.path)
	if err != nil {
		return nil, err
	}

	fs.mu.Lock()
	fs.areas[idx].cache = data
	fs.areas[idx].modTime = info.ModTime()
	fs.areas[idx].fileSize = info.Size()
	fs.mu.Unlock()
	return data, nil
}

func (fs *FileSpace) find(addr, n uint64) int {
	for i, a := range fs.areas {
		if contains(a.base, a.size, addr, n) {
			return i
		}
	}
	return -1
}

func readAt(path string, addr, off, n uint64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fault(addr, n, err)
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, n)
	read, err := f.ReadAt(buf, int64(off))
	if uint64(read) != n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, fault(addr, n, err)
	}
	return buf, nil
}

func decompressFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

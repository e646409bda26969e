package rasterfile

import (
	"fmt"
	"os"
	"sync"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// rawFile is a flat, headerless block store: each WriteBlock/ReadBlock
// addresses a fixed-size slot keyed by coord, sized from the MetaData set
// via SetMetaData. It exists for tests and the demo CLI, not as a
// production raster codec.
type rawFile struct {
	mu       sync.Mutex
	path     string
	f        *os.File
	blockLen int64
	meta     irtype.MetaData
}

func newRawFile(path string) File { return &rawFile{path: path} }

func (r *rawFile) Open(path string, dir Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var flags int
	switch dir {
	case DirIn:
		flags = os.O_RDONLY
	case DirOut:
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return irerr.NewFileIoError(path, err)
	}
	r.path = path
	r.f = f
	return nil
}

func (r *rawFile) SetMetaData(meta irtype.MetaData, dir Direction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta = meta
	r.blockLen = int64(meta.BlockSize().NumDim().Rank())
	if r.blockLen == 0 {
		r.blockLen = int64(meta.DataType().Width())
	} else {
		r.blockLen = int64(meta.DataType().Width())
		bs := meta.BlockSize()
		for i := 0; i < meta.NumDim().Rank(); i++ {
			if bs[i] > 0 {
				r.blockLen *= bs[i]
			}
		}
	}
	return nil
}

func (r *rawFile) offset(coord irtype.Coord) int64 {
	// Row-major linearization over the configured BlockSize; sufficient
	// for the demo backend, not a general raster addressing scheme.
	bs := r.meta.BlockSize()
	var idx int64
	stride := int64(1)
	for i := 0; i < r.meta.NumDim().Rank(); i++ {
		idx += coord[i] * stride
		if bs[i] > 0 {
			stride *= bs[i]
		}
	}
	return idx * r.blockLen
}

func (r *rawFile) ReadBlock(coord irtype.Coord) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil, irerr.NewFileIoError(r.path, fmt.Errorf("file not open"))
	}
	buf := make([]byte, r.blockLen)
	if _, err := r.f.ReadAt(buf, r.offset(coord)); err != nil {
		return nil, irerr.NewFileIoError(r.path, err)
	}
	return buf, nil
}

func (r *rawFile) WriteBlock(coord irtype.Coord, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return irerr.NewFileIoError(r.path, fmt.Errorf("file not open"))
	}
	if _, err := r.f.WriteAt(data, r.offset(coord)); err != nil {
		return irerr.NewFileIoError(r.path, err)
	}
	return nil
}

func (r *rawFile) Path() string   { return r.path }
func (r *rawFile) Format() string { return "raw" }

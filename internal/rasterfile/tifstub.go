package rasterfile

import (
	"fmt"

	"mapsir/internal/irerr"
	"mapsir/internal/irtype"
)

// tifStubFile satisfies the File contract for ".tif"/".tiff" paths without
// implementing the GeoTIFF codec itself — real tag parsing is a file I/O
// back-end concern the IR layer deliberately treats as opaque.
type tifStubFile struct {
	path string
	meta irtype.MetaData
	open bool
}

func newTifStubFile(path string) File { return &tifStubFile{path: path} }

func (t *tifStubFile) Open(path string, dir Direction) error {
	t.path = path
	t.open = true
	return nil
}

func (t *tifStubFile) SetMetaData(meta irtype.MetaData, dir Direction) error {
	t.meta = meta
	return nil
}

func (t *tifStubFile) ReadBlock(coord irtype.Coord) ([]byte, error) {
	if !t.open {
		return nil, irerr.NewFileIoError(t.path, fmt.Errorf("file not open"))
	}
	return nil, irerr.NewFileIoError(t.path, fmt.Errorf("GeoTIFF codec not implemented in this build"))
}

func (t *tifStubFile) WriteBlock(coord irtype.Coord, data []byte) error {
	if !t.open {
		return irerr.NewFileIoError(t.path, fmt.Errorf("file not open"))
	}
	return irerr.NewFileIoError(t.path, fmt.Errorf("GeoTIFF codec not implemented in this build"))
}

func (t *tifStubFile) Path() string   { return t.path }
func (t *tifStubFile) Format() string { return "tif" }

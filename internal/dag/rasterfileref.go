package dag

import "mapsir/internal/rasterfile"

// RasterFileRef is the DAG-side handle to an externally-owned RasterFile.
// Identity (pointer equality) is what "multiple nodes share one file"
// means. The Read, Write and Checkpoint factories open the file; the Dag
// never closes it.
type RasterFileRef struct {
	File rasterfile.File
	refs int
}

func newRasterFileRef(f rasterfile.File) *RasterFileRef {
	return &RasterFileRef{File: f, refs: 1}
}

// ShareFile lets a Write/Checkpoint/Read node adopt an existing ref instead
// of opening its own handle. The Clone methods of Read, Write and
// Checkpoint use it, so a clone shares its original's file.
func ShareFile(ref *RasterFileRef) *RasterFileRef {
	if ref == nil {
		return nil
	}
	ref.refs++
	return ref
}

// Release drops one holder's reference; the last holder is responsible for
// closing the underlying file.
func (r *RasterFileRef) Release() (closeNow bool) {
	if r == nil {
		return false
	}
	r.refs--
	return r.refs <= 0
}

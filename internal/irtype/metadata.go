package irtype

// MetaData is the immutable type/shape bundle every node carries. NumDim is
// always derived from DataSize in NewMetaData; it is never set
// independently, so a caller cannot construct a MetaData whose rank
// disagrees with its own extent.
type MetaData struct {
	dataSize  DataSize
	dataType  DataType
	memOrder  MemOrder
	blockSize BlockSize
	numDim    NumDim
	dataShape DataShape
	streamDir StreamDir
}

func NewMetaData(ds DataSize, dt DataType, mo MemOrder, bs BlockSize) MetaData {
	return MetaData{
		dataSize:  ds,
		dataType:  dt,
		memOrder:  mo,
		blockSize: bs,
		numDim:    ds.NumDim(),
		dataShape: DataShape(ds),
		streamDir: NoneDir,
	}
}

func (m MetaData) DataSize() DataSize   { return m.dataSize }
func (m MetaData) DataType() DataType   { return m.dataType }
func (m MetaData) MemOrder() MemOrder   { return m.memOrder }
func (m MetaData) BlockSize() BlockSize { return m.blockSize }
func (m MetaData) NumDim() NumDim       { return m.numDim }
func (m MetaData) DataShape() DataShape { return m.dataShape }
func (m MetaData) StreamDir() StreamDir { return m.streamDir }

// WithStreamDir returns a copy of m with its StreamDir replaced; MetaData is
// otherwise immutable once a node is installed (spec invariant: only
// stream_dir participates in the "matching modulo stream_dir" rule used by
// if-else Merge).
func (m MetaData) WithStreamDir(d StreamDir) MetaData {
	m.streamDir = d
	return m
}

func (m MetaData) WithDataType(dt DataType) MetaData {
	m.dataType = dt
	return m
}

// EqualModuloStreamDir reports whether two MetaData values agree on every
// field except StreamDir, the condition if-else Merge requires of its two
// operands.
func (m MetaData) EqualModuloStreamDir(o MetaData) bool {
	return m.dataSize.Eq(o.dataSize) &&
		m.dataType == o.dataType &&
		m.memOrder == o.memOrder &&
		m.blockSize.Eq(o.blockSize) &&
		m.numDim == o.numDim &&
		m.dataShape.Eq(o.dataShape)
}

func (m MetaData) Equal(o MetaData) bool {
	return m.EqualModuloStreamDir(o) && m.streamDir == o.streamDir
}

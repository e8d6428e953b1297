package object

// Attr is a bit-set of property attributes drawn from spec.md §3:
// DontEnum, DontDelete, ReadOnly, Dynamic.
type Attr uint8

const (
	DontEnum Attr = 1 << iota
	DontDelete
	ReadOnly
	Dynamic
)

func (a Attr) Has(f Attr) bool { return a&f != 0 }

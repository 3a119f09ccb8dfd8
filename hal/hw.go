package hal

type Edge int
type EdgeCallback func(Edge)

const (
	EdgeNone Edge = iota
	EdgeFalling
	EdgeRising
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeFalling:
		return "falling"
	case EdgeRising:
		return "rising"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// HWHandler is the two-line GPIO boundary the PS/2 engine drives. SCL is the
// clock line, SDA the data line; both are open-drain with external pull-ups.
//
// ReadSCL/ReadSDA sample the current line level. WriteSCL/WriteSDA with 0
// pull the line low; with 1 they release it to the pull-up. The registered
// edge callback fires once per clock line edge in the platform's interrupt
// context, so it must be short and must not block.
type HWHandler interface {
	ReadSCL() int
	ReadSDA() int
	WriteSCL(level int)
	WriteSDA(level int)
	RegisterEdgeCallback(cb EdgeCallback) error
	Close() error
}

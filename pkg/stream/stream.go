// Package stream implements the paged, append-only byte-code buffer
// each function's byte code is emitted into. It is the single place in
// the compiler that knows how to grow, rewrite in place, and walk the
// compiler's output before post-processing compacts it into a final
// byte slice.
//
// A register-VM's bytecode.Chunk is typically a flat []byte; this
// package generalizes that append/WriteByte/WriteUint16 helper style
// to a linked list of fixed pages, which is what a single-pass emitter
// that must later rewrite its own output requires.
package stream

// PageSize is the number of bytes held per page. Chosen small enough
// that most function bodies fit in one or two pages, large enough that
// the per-page linked-list overhead stays negligible.
const PageSize = 256

// Page is one fixed-size block of the stream. Bytes is always exactly
// PageSize long; Next chains pages in write order, and the list is never
// reversed.
type Page struct {
	Bytes [PageSize]byte
	Next  *Page
}

// Stream is an append-only sequence of pages with a cursor into the
// last page. Writes are sequential; in-place rewrites address an
// absolute stream position (page, offset) pair via a Mark.
type Stream struct {
	First, Last *Page
	// LastPosition is the write cursor within Last: the next Append
	// writes to Last.Bytes[LastPosition].
	LastPosition int
	// Size is the total number of bytes appended so far across all
	// pages (used by callers that need an absolute running offset,
	// e.g. the emitter's "current position" for patching branches).
	Size int
}

// New creates an empty single-page stream.
func New() *Stream {
	p := &Page{}
	return &Stream{First: p, Last: p}
}

// Mark identifies an absolute position in the stream: the page holding
// it and the byte offset within that page.
type Mark struct {
	Page   *Page
	Offset int
	// Pos is the absolute stream-wide offset, equal to the Size the
	// stream had just before the byte at this Mark was appended.
	Pos int
}

// Append writes a single byte, growing the stream with a new page when
// the current one is full. Amortized O(1).
func (s *Stream) Append(b byte) Mark {
	if s.LastPosition == PageSize {
		p := &Page{}
		s.Last.Next = p
		s.Last = p
		s.LastPosition = 0
	}
	m := Mark{Page: s.Last, Offset: s.LastPosition, Pos: s.Size}
	s.Last.Bytes[s.LastPosition] = b
	s.LastPosition++
	s.Size++
	return m
}

// PutByte overwrites the byte at m in place. Used by post-processing
// to shrink operands and by the emitter's backpatching of forward
// branch targets.
func (s *Stream) PutByte(m Mark, b byte) {
	m.Page.Bytes[m.Offset] = b
}

// Pages returns the pages from First to Last in forward (write) order.
// Post-processing flattens the whole stream into one []byte up front
// (see pkg/postprocess.flatten) and walks that by index from then on,
// so unlike a page-at-a-time compiler this package never needs the
// list reversed for a backward pass — a page is only ever read once,
// in write order, right here.
func (s *Stream) Pages() []*Page {
	var pages []*Page
	for p := s.First; p != nil; p = p.Next {
		pages = append(pages, p)
		if p == s.Last {
			break
		}
	}
	return pages
}

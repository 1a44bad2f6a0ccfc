package literal

import "golang.org/x/text/unicode/norm"

// Pool is the append-only list of literal records for one function.
// Traversal order is insertion (source) order, which the classifier
// relies on for its tie-breaks.
type Pool struct {
	records []*Record
}

// NewPool creates an empty pool.
func NewPool() *Pool { return &Pool{} }

// Len returns the number of records currently in the pool, including
// Unused tombstones (callers that need the "live" count should use
// Classify's returned counts instead).
func (p *Pool) Len() int { return len(p.records) }

// At returns the record at index i in insertion order.
func (p *Pool) At(i int) *Record { return p.records[i] }

// Iter calls fn for each record in insertion order; returning false
// from fn stops the iteration early.
func (p *Pool) Iter(fn func(i int, r *Record) bool) {
	for i, r := range p.records {
		if !fn(i, r) {
			return
		}
	}
}

// Append adds r to the end of the pool and returns its insertion index.
func (p *Pool) Append(r *Record) int {
	p.records = append(p.records, r)
	return len(p.records) - 1
}

// normalizeIdent canonicalizes identifier/string bytes via NFC before
// they are interned, so that byte-wise comparison (a dedup rule
// otherwise stated as "byte-wise memcmp on (char_p, length)") treats
// two differently-composed-but-canonically-equal identifiers as one
// name — the Unicode-identifier-aware reading of that rule. Grounded
// on golang.org/x/text/unicode/norm's use in
// pkg/builtins/string_init.go for string normalization.
func normalizeIdent(s string) string {
	return norm.NFC.String(s)
}

// InternIdent returns the pool index of an existing Ident record named
// name, or -1 if none exists yet. Comparison is on NFC-normalized
// bytes.
func (p *Pool) InternIdent(name string) int {
	name = normalizeIdent(name)
	for i, r := range p.records {
		if r.Type == KindIdent && r.Value == name {
			return i
		}
	}
	return -1
}

// AddIdent interns an Ident record for name (NFC-normalized first): an
// existing record of that name gains the given status flags and its
// index is returned; otherwise a new record is appended.
func (p *Pool) AddIdent(name string, status Flags) int {
	if i := p.InternIdent(name); i >= 0 {
		p.records[i].Status |= status
		return i
	}
	return p.Append(&Record{Type: KindIdent, Value: normalizeIdent(name), Status: status})
}

// AddString interns a string constant, returning an existing index if
// an identical one (post-normalization) is already present — pool
// dedup applies uniformly to Ident and String records.
func (p *Pool) AddString(s string) int {
	s = normalizeIdent(s)
	for i, r := range p.records {
		if r.Type == KindString && r.Value == s {
			return i
		}
	}
	return p.Append(&Record{Type: KindString, Value: s})
}

// AddNumber interns a numeric constant.
func (p *Pool) AddNumber(n float64) int {
	for i, r := range p.records {
		if r.Type == KindNumber && r.Number == n {
			return i
		}
	}
	return p.Append(&Record{Type: KindNumber, Number: n})
}

// AddFunction appends a function literal (never deduplicated: two
// function expressions with identical source never alias).
func (p *Pool) AddFunction(payload FuncOrRegexp) int {
	return p.Append(&Record{Type: KindFunction, Payload: payload})
}

// AddRegexp appends a regexp literal.
func (p *Pool) AddRegexp(payload FuncOrRegexp) int {
	return p.Append(&Record{Type: KindRegexp, Payload: payload})
}

// Tombstone marks r as Unused and redirects it to the record at
// replacementIndex, which supersedes it. Any byte-code operand that
// still references r's old pool slot resolves through exactly one
// redirect.
func (p *Pool) Tombstone(r *Record, replacementIndex int) {
	r.Type = KindUnused
	r.Status = 0
	r.Value = ""
	r.Prop = uint16(replacementIndex)
}

// Resolve follows at most one Unused redirect and returns the live
// record's pool index: a redirect resolves, via one hop, to a live
// literal record.
func (p *Pool) Resolve(index int) int {
	r := p.records[index]
	if r.Type == KindUnused {
		return r.Index()
	}
	return index
}

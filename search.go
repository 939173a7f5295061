package membuf

import (
	"bytes"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// Pattern is a byte signature to search for. A nil mask matches exactly;
// otherwise mask[i] == false marks position i as a wildcard that matches
// any byte.
type Pattern struct {
	bytes []byte
	mask  []bool
}

// Exact returns a pattern matching p byte for byte. The pattern keeps a
// copy of p.
func Exact(p []byte) *Pattern {
	return &Pattern{bytes: bytes.Clone(p)}
}

// Wildcard returns a pattern matching p wherever mask is true and any
// byte wherever mask is false. The lengths must agree.
func Wildcard(p []byte, mask []bool) (*Pattern, error) {
	if len(p) != len(mask) {
		return nil, fmt.Errorf("%w: %d pattern bytes but %d mask entries", ErrInvalidPattern, len(p), len(mask))
	}
	full := true
	for _, m := range mask {
		if !m {
			full = false
			break
		}
	}
	if full {
		return Exact(p), nil
	}
	return &Pattern{bytes: bytes.Clone(p), mask: append([]bool(nil), mask...)}, nil
}

// ParsePattern parses a whitespace-separated signature such as
//
//	"DE AD ?? EF"
//
// where each token is either a two-digit hex byte or "?" / "??" marking
// a wildcard position.
func ParsePattern(s string) (*Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	p := make([]byte, len(fields))
	mask := make([]bool, len(fields))
	for i, tok := range fields {
		if tok == "?" || tok == "??" {
			continue
		}
		if len(tok) != 2 {
			return nil, fmt.Errorf("%w: token %q", ErrInvalidPattern, tok)
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: token %q", ErrInvalidPattern, tok)
		}
		p[i] = byte(v)
		mask[i] = true
	}
	return Wildcard(p, mask)
}

// Len returns the pattern length in bytes.
func (p *Pattern) Len() int { return len(p.bytes) }

// Exact reports whether the pattern has no wildcard positions.
func (p *Pattern) Exact() bool { return p.mask == nil }

// String renders the pattern in the format accepted by ParsePattern.
func (p *Pattern) String() string {
	var sb strings.Builder
	for i, b := range p.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if p.mask != nil && !p.mask[i] {
			sb.WriteString("??")
		} else {
			fmt.Fprintf(&sb, "%02X", b)
		}
	}
	return sb.String()
}

func (p *Pattern) matchAt(data []byte, off int) bool {
	if p.mask == nil {
		return bytes.Equal(data[off:off+len(p.bytes)], p.bytes)
	}
	for i, m := range p.mask {
		if m && data[off+i] != p.bytes[i] {
			return false
		}
	}
	return true
}

// firstFixed returns the index and value of the first non-wildcard
// position, used to skip quickly over impossible offsets.
func (p *Pattern) firstFixed() (int, byte, bool) {
	if p.mask == nil {
		if len(p.bytes) == 0 {
			return 0, 0, false
		}
		return 0, p.bytes[0], true
	}
	for i, m := range p.mask {
		if m {
			return i, p.bytes[i], true
		}
	}
	return 0, 0, false
}

// searchSeq returns every offset in data where pat matches, ascending,
// overlapping matches included. The sequence is lazy and restartable:
// ranging over it again re-scans from the start. A nil, empty or
// too-long pattern yields no offsets.
func searchSeq(data []byte, pat *Pattern) iter.Seq[int] {
	return func(yield func(int) bool) {
		if pat == nil || pat.Len() == 0 || pat.Len() > len(data) {
			return
		}
		if pat.mask == nil {
			for i := 0; i <= len(data)-pat.Len(); {
				k := bytes.Index(data[i:], pat.bytes)
				if k < 0 {
					return
				}
				if !yield(i + k) {
					return
				}
				i += k + 1
			}
			return
		}
		fixedIdx, fixedVal, hasFixed := pat.firstFixed()
		last := len(data) - pat.Len()
		for i := 0; i <= last; i++ {
			if hasFixed && data[i+fixedIdx] != fixedVal {
				continue
			}
			if pat.matchAt(data, i) {
				if !yield(i) {
					return
				}
			}
		}
	}
}

// OffsetSet is a compressed set of match offsets, useful for collecting,
// combining and intersecting the results of multiple searches over large
// buffers.
type OffsetSet struct {
	bm *roaring64.Bitmap
}

// NewOffsetSet returns an empty offset set.
func NewOffsetSet() *OffsetSet {
	return &OffsetSet{bm: roaring64.New()}
}

// CollectOffsets drains a search sequence into a new offset set.
func CollectOffsets(seq iter.Seq[int]) *OffsetSet {
	s := NewOffsetSet()
	for off := range seq {
		s.bm.Add(uint64(off))
	}
	return s
}

// Add inserts an offset.
func (s *OffsetSet) Add(off int) { s.bm.Add(uint64(off)) }

// Contains reports whether off is in the set.
func (s *OffsetSet) Contains(off int) bool {
	return off >= 0 && s.bm.Contains(uint64(off))
}

// Cardinality returns the number of offsets in the set.
func (s *OffsetSet) Cardinality() int { return int(s.bm.GetCardinality()) }

// IsEmpty reports whether the set has no offsets.
func (s *OffsetSet) IsEmpty() bool { return s.bm.IsEmpty() }

// And intersects the set with other in place.
func (s *OffsetSet) And(other *OffsetSet) { s.bm.And(other.bm) }

// Or unions other into the set in place.
func (s *OffsetSet) Or(other *OffsetSet) { s.bm.Or(other.bm) }

// AndNot removes other's offsets from the set in place.
func (s *OffsetSet) AndNot(other *OffsetSet) { s.bm.AndNot(other.bm) }

// Clone returns an independent copy of the set.
func (s *OffsetSet) Clone() *OffsetSet {
	return &OffsetSet{bm: s.bm.Clone()}
}

// Iterator returns the offsets in ascending order.
func (s *OffsetSet) Iterator() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.bm.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// ToSlice returns the offsets in ascending order as a slice.
func (s *OffsetSet) ToSlice() []int {
	out := make([]int, 0, s.bm.GetCardinality())
	for off := range s.Iterator() {
		out = append(out, off)
	}
	return out
}

package prefilter

import (
	"testing"

	"github.com/rexvm/rex/literal"
)

func build(lits ...literal.Literal) Prefilter {
	return NewBuilder(literal.NewSeq(lits...)).Build()
}

// TestBuildSelection tests that Build picks the cheapest strategy that
// covers the literal set
func TestBuildSelection(t *testing.T) {
	tests := []struct {
		name string
		lits []literal.Literal
		want string
	}{
		{
			name: "single byte",
			lits: []literal.Literal{literal.NewLiteral([]byte("x"), true)},
			want: "memchr",
		},
		{
			name: "single multi-byte",
			lits: []literal.Literal{literal.NewLiteral([]byte("abc"), true)},
			want: "memmem",
		},
		{
			name: "two literals sharing a lead byte",
			lits: []literal.Literal{
				literal.NewLiteral([]byte("ab"), true),
				literal.NewLiteral([]byte("ac"), true),
			},
			want: "memchr",
		},
		{
			name: "two lead bytes",
			lits: []literal.Literal{
				literal.NewLiteral([]byte("apple"), true),
				literal.NewLiteral([]byte("berry"), true),
			},
			want: "memchr2",
		},
		{
			name: "three lead bytes",
			lits: []literal.Literal{
				literal.NewLiteral([]byte("ant"), true),
				literal.NewLiteral([]byte("bee"), true),
				literal.NewLiteral([]byte("cow"), true),
			},
			want: "memchr3",
		},
		{
			name: "four lead bytes",
			lits: []literal.Literal{
				literal.NewLiteral([]byte("alpha"), true),
				literal.NewLiteral([]byte("bravo"), true),
				literal.NewLiteral([]byte("charlie"), true),
				literal.NewLiteral([]byte("delta"), true),
			},
			want: "aho",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := build(tt.lits...)
			if pf == nil {
				t.Fatal("Build() = nil")
			}
			var got string
			switch pf.(type) {
			case *memchrPrefilter:
				got = "memchr"
			case *memchr2Prefilter:
				got = "memchr2"
			case *memchr3Prefilter:
				got = "memchr3"
			case *memmemPrefilter:
				got = "memmem"
			case *ahoPrefilter:
				got = "aho"
			default:
				got = "unknown"
			}
			if got != tt.want {
				t.Errorf("Build() chose %s, want %s", got, tt.want)
			}
		})
	}
}

// TestBuildDegenerate tests inputs no prefilter can serve
func TestBuildDegenerate(t *testing.T) {
	if pf := NewBuilder(literal.NewSeq()).Build(); pf != nil {
		t.Errorf("Build() on empty sequence = %v, want nil", pf)
	}
	if pf := build(literal.NewLiteral(nil, true)); pf != nil {
		t.Errorf("Build() on empty literal = %v, want nil", pf)
	}
	if pf := build(
		literal.NewLiteral([]byte("a"), true),
		literal.NewLiteral(nil, true),
	); pf != nil {
		t.Errorf("Build() with one empty alternative = %v, want nil", pf)
	}
}

// TestFindCandidates tests candidate positions across the strategies
func TestFindCandidates(t *testing.T) {
	tests := []struct {
		name     string
		lits     []string
		haystack string
		start    int
		want     int
	}{
		{"memchr hit", []string{"x"}, "aaxbb", 0, 2},
		{"memchr from offset", []string{"x"}, "axbxc", 2, 3},
		{"memchr miss", []string{"x"}, "aaabb", 0, -1},
		{"memchr past the end", []string{"x"}, "ax", 2, -1},
		{"memmem hit", []string{"abc"}, "xxabcxx", 0, 2},
		{"memmem from offset", []string{"abc"}, "abcabc", 1, 3},
		{"memmem miss", []string{"abc"}, "ababab", 0, -1},
		{"memmem at the end", []string{"abc"}, "xyabc", 2, 2},
		{"memchr2 earliest lead", []string{"apple", "berry"}, "zzbzzazz", 0, 2},
		{"memchr2 from offset", []string{"apple", "berry"}, "zzbzzazz", 3, 5},
		{"memchr3 earliest lead", []string{"ant", "bee", "cow"}, "xxcxbxa", 0, 2},
		{"aho earliest literal", []string{"alpha", "bravo", "charlie", "delta"}, "xx delta yy alpha", 0, 3},
		{"aho from offset", []string{"alpha", "bravo", "charlie", "delta"}, "xx delta yy alpha", 4, 12},
		{"aho miss", []string{"alpha", "bravo", "charlie", "delta"}, "none of those", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lits := make([]literal.Literal, len(tt.lits))
			for i, s := range tt.lits {
				lits[i] = literal.NewLiteral([]byte(s), true)
			}
			pf := build(lits...)
			if pf == nil {
				t.Fatal("Build() = nil")
			}
			if got := pf.Find([]byte(tt.haystack), tt.start); got != tt.want {
				t.Errorf("Find(%q, %d) = %d, want %d", tt.haystack, tt.start, got, tt.want)
			}
		})
	}
}

// TestCompleteness tests which strategies may skip engine verification
func TestCompleteness(t *testing.T) {
	one := build(literal.NewLiteral([]byte("q"), true))
	if !one.IsComplete() || one.LiteralLen() != 1 {
		t.Errorf("complete single byte: IsComplete=%v LiteralLen=%d, want true 1",
			one.IsComplete(), one.LiteralLen())
	}

	partial := build(literal.NewLiteral([]byte("q"), false))
	if partial.IsComplete() {
		t.Error("incomplete single byte must still verify")
	}

	word := build(literal.NewLiteral([]byte("match"), true))
	if !word.IsComplete() || word.LiteralLen() != 5 {
		t.Errorf("complete literal: IsComplete=%v LiteralLen=%d, want true 5",
			word.IsComplete(), word.LiteralLen())
	}

	// Several alternatives always verify, whatever their flags say: the
	// scan only looks at lead bytes.
	multi := build(
		literal.NewLiteral([]byte("ab"), true),
		literal.NewLiteral([]byte("ac"), true),
	)
	if multi.IsComplete() {
		t.Error("multi-literal scan must verify its candidates")
	}
}

// TestHeapBytes tests the footprint estimates
func TestHeapBytes(t *testing.T) {
	if got := build(literal.NewLiteral([]byte("x"), true)).HeapBytes(); got != 0 {
		t.Errorf("memchr HeapBytes() = %d, want 0", got)
	}
	if got := build(literal.NewLiteral([]byte("needle"), true)).HeapBytes(); got != 6 {
		t.Errorf("memmem HeapBytes() = %d, want 6", got)
	}
	aho := build(
		literal.NewLiteral([]byte("alpha"), true),
		literal.NewLiteral([]byte("bravo"), true),
		literal.NewLiteral([]byte("charlie"), true),
		literal.NewLiteral([]byte("delta"), true),
	)
	if got := aho.HeapBytes(); got < 22 {
		t.Errorf("aho HeapBytes() = %d, want at least the pattern bytes", got)
	}
}

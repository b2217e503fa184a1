// Package rex provides a compact regular expression engine with
// guaranteed linear-time matching.
//
// Patterns compile to a bytecode program executed by a Pike-style
// virtual machine: all alternatives advance over the subject together,
// so matching costs O(len(program) * len(subject)) in the worst case
// and pathological patterns cannot trigger exponential backtracking.
//
// The syntax is a compact subset of the usual notation: literals,
// classes, the . wildcard, greedy and lazy quantifiers (?, *, +,
// {m,n}), alternation, capturing and (?: non-capturing groups, the ^
// and $ anchors, the word boundaries \< and \>, and the \d \s \w
// shorthands with their negations. Matching is leftmost-first: the
// earliest match wins, and among matches at the same position the one
// an earlier alternative produces.
//
// Basic usage:
//
//	re, err := rex.Compile(`[0-9]+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m := re.Find([]byte("order 1se7en 42"))
//	fmt.Println(string(m)) // "1"
//
// Case-insensitive matching is a compile option:
//
//	cfg := rex.DefaultConfig()
//	cfg.IgnoreCase = true
//	re, err := rex.CompileWithConfig(`cat`, cfg)
//
// Patterns that have to start with known bytes are searched with a
// literal prefilter (memchr, memmem or an Aho-Corasick automaton)
// before the engine runs, which skips the bulk of non-matching input.
package rex

import (
	"sync"
	"unicode/utf8"

	"github.com/rexvm/rex/literal"
	"github.com/rexvm/rex/prefilter"
	"github.com/rexvm/rex/vm"
)

// Config controls compilation.
type Config struct {
	// IgnoreCase makes matching compare code points case-insensitively.
	// The pattern itself compiles unchanged; folding happens at match
	// time.
	IgnoreCase bool

	// NoPrefilter disables literal prefiltering. Results are identical
	// either way; the option exists for measurement and debugging.
	NoPrefilter bool
}

// DefaultConfig returns the default compilation options.
func DefaultConfig() Config {
	return Config{}
}

// Regex is a compiled regular expression. It is safe for concurrent
// use: per-search scratch lives in an internal pool. A Regex holds no
// resources beyond memory and needs no explicit release.
type Regex struct {
	prog    *vm.Program
	pattern string
	config  Config

	// pf scans for positions a match could start at; nil when no
	// trustworthy literal set could be extracted. complete marks the
	// special case where a prefilter hit IS the match.
	pf       prefilter.Prefilter
	complete bool
	litLen   int

	names  []string
	states sync.Pool
}

// Regexp is an alias for Regex, for code written against the stdlib
// type name.
type Regexp = Regex

// Compile compiles a pattern with default options.
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// MustCompile is Compile for patterns known to be valid; it panics on
// error.
//
// Example:
//
//	var wordRe = rex.MustCompile(`\<\w+\>`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("rex: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with the given options.
func CompileWithConfig(pattern string, config Config) (*Regex, error) {
	prog, err := vm.Compile(pattern)
	if err != nil {
		return nil, err
	}

	re := &Regex{
		prog:    prog,
		pattern: pattern,
		config:  config,
		names:   make([]string, prog.NumCaps()+1),
	}
	re.states.New = func() any { return vm.NewMatchState(prog) }

	// A prefilter needs byte-exact literals: case folding happens per
	// code point at match time, and anchored programs gain nothing.
	if !config.IgnoreCase && !config.NoPrefilter && !prog.AnchoredStart() {
		if seq := literal.New(literal.DefaultConfig()).ExtractPrefixes(prog); seq != nil {
			re.pf = prefilter.NewBuilder(seq).Build()
		}
		if re.pf != nil && re.pf.IsComplete() && prog.NumCaps() == 0 {
			re.complete = true
			re.litLen = re.pf.LiteralLen()
		}
	}
	return re, nil
}

// String returns the source text the expression was compiled from.
func (r *Regex) String() string {
	return r.pattern
}

// NumSubexp returns the number of capturing groups in the expression.
func (r *Regex) NumSubexp() int {
	return r.prog.NumCaps()
}

// Capacity returns the length of the index slice FindSubmatchIndex
// fills: two slots per group plus two for the whole match.
func (r *Regex) Capacity() int {
	return 2 * (r.prog.NumCaps() + 1)
}

// SubexpNames returns the names of the capturing groups. This syntax
// has no named groups, so every entry is empty; the slice is shared
// and must not be modified. Entry i corresponds to match slice entry i,
// with entry 0 the whole match.
func (r *Regex) SubexpNames() []string {
	return r.names
}

// find returns the slot vector of the leftmost match in b as absolute
// offsets in a fresh slice: [s0, e0, s1, e1, ...] with pair 0 the whole
// match and -1 pairs for groups that did not participate. Returns nil
// when there is no match.
func (r *Regex) find(b []byte) []int {
	window, off := b, 0
	if r.pf != nil {
		c := r.pf.Find(b, 0)
		if c < 0 {
			return nil
		}
		if r.complete {
			return []int{c, c + r.litLen}
		}
		window, off = b[c:], c
	}

	st := r.states.Get().(*vm.MatchState)
	slots := r.prog.Search(window, st, r.config.IgnoreCase)
	if slots == nil {
		r.states.Put(st)
		return nil
	}
	out := make([]int, len(slots))
	for i, v := range slots {
		if v >= 0 {
			v += off
		}
		out[i] = v
	}
	r.states.Put(st)
	return out
}

func (r *Regex) isMatch(b []byte) bool {
	window := b
	if r.pf != nil {
		c := r.pf.Find(b, 0)
		if c < 0 {
			return false
		}
		if r.complete {
			return true
		}
		window = b[c:]
	}
	st := r.states.Get().(*vm.MatchState)
	ok := r.prog.Search(window, st, r.config.IgnoreCase) != nil
	r.states.Put(st)
	return ok
}

// Match reports whether b contains any match of the expression.
func (r *Regex) Match(b []byte) bool {
	return r.isMatch(b)
}

// MatchString reports whether s contains any match of the expression.
func (r *Regex) MatchString(s string) bool {
	return r.isMatch([]byte(s))
}

// Find returns the text of the leftmost match in b, or nil if there is
// none. The returned slice aliases b.
func (r *Regex) Find(b []byte) []byte {
	loc := r.find(b)
	if loc == nil {
		return nil
	}
	return b[loc[0]:loc[1]]
}

// FindString returns the text of the leftmost match in s, or the empty
// string if there is none. Use FindStringIndex to tell an empty match
// from no match.
func (r *Regex) FindString(s string) string {
	loc := r.find([]byte(s))
	if loc == nil {
		return ""
	}
	return s[loc[0]:loc[1]]
}

// FindIndex returns the location of the leftmost match in b as the pair
// [start, end), or nil if there is none.
func (r *Regex) FindIndex(b []byte) []int {
	loc := r.find(b)
	if loc == nil {
		return nil
	}
	return []int{loc[0], loc[1]}
}

// FindStringIndex returns the location of the leftmost match in s, or
// nil if there is none.
func (r *Regex) FindStringIndex(s string) []int {
	return r.FindIndex([]byte(s))
}

// FindSubmatch returns the text of the leftmost match and of each
// capturing group, or nil if there is no match. Entry 0 is the whole
// match; a group that did not participate is nil. Entries alias b.
func (r *Regex) FindSubmatch(b []byte) [][]byte {
	loc := r.find(b)
	if loc == nil {
		return nil
	}
	out := make([][]byte, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = b[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// FindStringSubmatch returns the text of the leftmost match and of each
// capturing group, or nil if there is no match. A group that did not
// participate is the empty string.
func (r *Regex) FindStringSubmatch(s string) []string {
	loc := r.find([]byte(s))
	if loc == nil {
		return nil
	}
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// FindSubmatchIndex returns the index pairs of the leftmost match and
// of each capturing group, or nil if there is no match. Pair i is
// loc[2*i:2*i+2]; a group that did not participate has -1 in both
// slots.
func (r *Regex) FindSubmatchIndex(b []byte) []int {
	return r.find(b)
}

// FindStringSubmatchIndex is FindSubmatchIndex for strings.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	return r.find([]byte(s))
}

// FindAllIndex returns the locations of all successive non-overlapping
// matches in b. If n > 0, at most n matches are returned. Returns nil
// when there are none.
//
// Each search resumes on the remainder of the subject past the previous
// match, so ^ anchors to where the previous match ended. An empty match
// sitting exactly at the end of the previous match is dropped.
func (r *Regex) FindAllIndex(b []byte, n int) [][]int {
	if n == 0 {
		return nil
	}
	var indices [][]int
	pos, prevEnd := 0, -1
	for pos <= len(b) {
		loc := r.find(b[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start == end {
			if start != prevEnd {
				indices = append(indices, []int{start, end})
			}
			pos = start + runeWidth(b, start)
		} else {
			indices = append(indices, []int{start, end})
			pos = end
		}
		prevEnd = end
		if n > 0 && len(indices) >= n {
			break
		}
	}
	return indices
}

// FindAllStringIndex returns the locations of all successive matches
// in s. If n > 0, at most n matches are returned.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	return r.FindAllIndex([]byte(s), n)
}

// FindAll returns the text of all successive matches in b. If n > 0,
// at most n matches are returned. The slices alias b.
func (r *Regex) FindAll(b []byte, n int) [][]byte {
	indices := r.FindAllIndex(b, n)
	if indices == nil {
		return nil
	}
	out := make([][]byte, len(indices))
	for i, loc := range indices {
		out[i] = b[loc[0]:loc[1]]
	}
	return out
}

// FindAllString returns the text of all successive matches in s. If
// n > 0, at most n matches are returned.
func (r *Regex) FindAllString(s string, n int) []string {
	indices := r.FindAllIndex([]byte(s), n)
	if indices == nil {
		return nil
	}
	out := make([]string, len(indices))
	for i, loc := range indices {
		out[i] = s[loc[0]:loc[1]]
	}
	return out
}

// FindAllSubmatchIndex returns the index pairs of all successive
// matches in b, each in FindSubmatchIndex layout. If n > 0, at most n
// matches are returned.
func (r *Regex) FindAllSubmatchIndex(b []byte, n int) [][]int {
	if n == 0 {
		return nil
	}
	var all [][]int
	pos, prevEnd := 0, -1
	for pos <= len(b) {
		loc := r.find(b[pos:])
		if loc == nil {
			break
		}
		for i, v := range loc {
			if v >= 0 {
				loc[i] = v + pos
			}
		}
		start, end := loc[0], loc[1]
		if start == end {
			if start != prevEnd {
				all = append(all, loc)
			}
			pos = start + runeWidth(b, start)
		} else {
			all = append(all, loc)
			pos = end
		}
		prevEnd = end
		if n > 0 && len(all) >= n {
			break
		}
	}
	return all
}

// FindAllSubmatch returns the text of all successive matches in b and
// their capturing groups. If n > 0, at most n matches are returned.
func (r *Regex) FindAllSubmatch(b []byte, n int) [][][]byte {
	locs := r.FindAllSubmatchIndex(b, n)
	if locs == nil {
		return nil
	}
	out := make([][][]byte, len(locs))
	for i, loc := range locs {
		groups := make([][]byte, len(loc)/2)
		for j := range groups {
			if loc[2*j] >= 0 {
				groups[j] = b[loc[2*j]:loc[2*j+1]]
			}
		}
		out[i] = groups
	}
	return out
}

// FindAllStringSubmatch returns the text of all successive matches in
// s and their capturing groups. If n > 0, at most n matches are
// returned.
func (r *Regex) FindAllStringSubmatch(s string, n int) [][]string {
	locs := r.FindAllSubmatchIndex([]byte(s), n)
	if locs == nil {
		return nil
	}
	out := make([][]string, len(locs))
	for i, loc := range locs {
		groups := make([]string, len(loc)/2)
		for j := range groups {
			if loc[2*j] >= 0 {
				groups[j] = s[loc[2*j]:loc[2*j+1]]
			}
		}
		out[i] = groups
	}
	return out
}

// FindAllStringSubmatchIndex is FindAllSubmatchIndex for strings.
func (r *Regex) FindAllStringSubmatchIndex(s string, n int) [][]int {
	return r.FindAllSubmatchIndex([]byte(s), n)
}

// Count returns the number of successive non-overlapping matches in b
// without building result slices. If n > 0, counting stops at n.
func (r *Regex) Count(b []byte, n int) int {
	st := r.states.Get().(*vm.MatchState)
	defer r.states.Put(st)

	count, pos, prevEnd := 0, 0, -1
	for pos <= len(b) {
		window, off := b[pos:], 0
		if r.pf != nil {
			c := r.pf.Find(window, 0)
			if c < 0 {
				break
			}
			if r.complete {
				count++
				pos += c + r.litLen
				prevEnd = pos
				if n > 0 && count >= n {
					break
				}
				continue
			}
			window, off = window[c:], c
		}
		slots := r.prog.Search(window, st, r.config.IgnoreCase)
		if slots == nil {
			break
		}
		start, end := pos+off+slots[0], pos+off+slots[1]
		if start == end {
			if start != prevEnd {
				count++
			}
			pos = start + runeWidth(b, start)
		} else {
			count++
			pos = end
		}
		prevEnd = end
		if n > 0 && count >= n {
			break
		}
	}
	return count
}

// CountString returns the number of successive matches in s. If n > 0,
// counting stops at n.
func (r *Regex) CountString(s string, n int) int {
	return r.Count([]byte(s), n)
}

// ReplaceAllLiteral returns a copy of src with every match replaced by
// repl. The replacement is inserted verbatim.
func (r *Regex) ReplaceAllLiteral(src, repl []byte) []byte {
	indices := r.FindAllIndex(src, -1)
	out := make([]byte, 0, len(src))
	last := 0
	for _, loc := range indices {
		out = append(out, src[last:loc[0]]...)
		out = append(out, repl...)
		last = loc[1]
	}
	return append(out, src[last:]...)
}

// ReplaceAllLiteralString returns a copy of src with every match
// replaced by repl, inserted verbatim.
func (r *Regex) ReplaceAllLiteralString(src, repl string) string {
	return string(r.ReplaceAllLiteral([]byte(src), []byte(repl)))
}

// ReplaceAll returns a copy of src with every match replaced by repl.
// Inside repl, $0 stands for the whole match, $1 for the first group
// and so on; ${1} delimits the number explicitly and $$ is a literal
// dollar sign.
func (r *Regex) ReplaceAll(src, repl []byte) []byte {
	hasDollar := false
	for _, c := range repl {
		if c == '$' {
			hasDollar = true
			break
		}
	}
	if !hasDollar {
		return r.ReplaceAllLiteral(src, repl)
	}

	locs := r.FindAllSubmatchIndex(src, -1)
	out := make([]byte, 0, len(src))
	last := 0
	for _, loc := range locs {
		out = append(out, src[last:loc[0]]...)
		out = r.expand(out, repl, src, loc)
		last = loc[1]
	}
	return append(out, src[last:]...)
}

// ReplaceAllString returns a copy of src with every match replaced by
// repl, with $ references expanded as in ReplaceAll.
func (r *Regex) ReplaceAllString(src, repl string) string {
	return string(r.ReplaceAll([]byte(src), []byte(repl)))
}

// expand appends template to dst, substituting $ group references from
// match, and returns the extended buffer. A reference to a group that
// did not participate expands to nothing; a malformed reference keeps
// its dollar sign verbatim.
func (r *Regex) expand(dst, template, src []byte, match []int) []byte {
	for i := 0; i < len(template); {
		if template[i] != '$' {
			dst = append(dst, template[i])
			i++
			continue
		}
		i++
		if i == len(template) {
			dst = append(dst, '$')
			break
		}
		if template[i] == '$' {
			dst = append(dst, '$')
			i++
			continue
		}

		braced := template[i] == '{'
		j := i
		if braced {
			j++
		}
		num, digits := 0, 0
		for j < len(template) && template[j] >= '0' && template[j] <= '9' {
			if num < 1<<24 {
				num = num*10 + int(template[j]-'0')
			}
			j++
			digits++
		}
		if digits == 0 || (braced && (j == len(template) || template[j] != '}')) {
			dst = append(dst, '$')
			continue
		}
		if braced {
			j++
		}
		if 2*num+1 < len(match) && match[2*num] >= 0 {
			dst = append(dst, src[match[2*num]:match[2*num+1]]...)
		}
		i = j
	}
	return dst
}

// ReplaceAllFunc returns a copy of src where every match is replaced by
// the return value of repl applied to the matched bytes. The
// replacement is inserted verbatim.
func (r *Regex) ReplaceAllFunc(src []byte, repl func([]byte) []byte) []byte {
	indices := r.FindAllIndex(src, -1)
	out := make([]byte, 0, len(src))
	last := 0
	for _, loc := range indices {
		out = append(out, src[last:loc[0]]...)
		out = append(out, repl(src[loc[0]:loc[1]])...)
		last = loc[1]
	}
	return append(out, src[last:]...)
}

// ReplaceAllStringFunc returns a copy of src where every match is
// replaced by the return value of repl applied to the matched text.
func (r *Regex) ReplaceAllStringFunc(src string, repl func(string) string) string {
	b := r.ReplaceAllFunc([]byte(src), func(m []byte) []byte {
		return []byte(repl(string(m)))
	})
	return string(b)
}

// Split slices s into the substrings between successive matches of the
// expression and returns them.
//
// The count determines the result size:
//
//	n > 0: at most n substrings; the last one is the unsplit remainder
//	n == 0: nil
//	n < 0: all substrings
//
// Example:
//
//	re := rex.MustCompile(`,`)
//	re.Split("a,b,c", -1) // ["a", "b", "c"]
//	re.Split("a,b,c", 2)  // ["a", "b,c"]
func (r *Regex) Split(s string, n int) []string {
	if n == 0 {
		return nil
	}

	indices := r.FindAllStringIndex(s, -1)
	if len(indices) == 0 {
		return []string{s}
	}

	out := make([]string, 0, len(indices)+1)
	last := 0
	for _, loc := range indices {
		if n > 0 && len(out) >= n-1 {
			break
		}
		out = append(out, s[last:loc[0]])
		last = loc[1]
	}
	return append(out, s[last:])
}

// QuoteMeta returns text with every character that has a syntactic
// meaning escaped; the result is an expression matching the literal
// text.
//
// Example:
//
//	rex.QuoteMeta("1+1=2?") // `1\+1=2\?`
func QuoteMeta(text string) string {
	n := 0
	for i := 0; i < len(text); i++ {
		if isSpecial(text[i]) {
			n++
		}
	}
	if n == 0 {
		return text
	}
	out := make([]byte, 0, len(text)+n)
	for i := 0; i < len(text); i++ {
		if isSpecial(text[i]) {
			out = append(out, '\\')
		}
		out = append(out, text[i])
	}
	return string(out)
}

// Bare < and > are literals; only the escaped forms assert word
// boundaries, so quoting must leave them alone.
const specialChars = `\.+*?()|[]{}^$`

func isSpecial(c byte) bool {
	for i := 0; i < len(specialChars); i++ {
		if specialChars[i] == c {
			return true
		}
	}
	return false
}

// runeWidth is the byte width of the code point at b[pos], or 1 at the
// end of b.
func runeWidth(b []byte, pos int) int {
	if pos >= len(b) {
		return 1
	}
	_, w := utf8.DecodeRune(b[pos:])
	if w < 1 {
		return 1
	}
	return w
}

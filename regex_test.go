package rex

import (
	"reflect"
	"sync"
	"testing"
)

// TestCompile tests basic compilation
func TestCompile(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		wantErr bool
	}{
		{"simple literal", "hello", false},
		{"digit", `\d`, false},
		{"word", `\w+`, false},
		{"alternation", "foo|bar", false},
		{"repetition", "a+", false},
		{"counted repetition", "a{2,4}", false},
		{"class", "[a-z0-9]", false},
		{"non-capturing group", "(?:ab)+", false},
		{"word boundaries", `\<word\>`, false},
		{"empty pattern", "", false},
		{"unbalanced open", "(", true},
		{"unbalanced close", ")", true},
		{"leading star", "*a", true},
		{"trailing backslash", `\`, true},
		{"unterminated class", "[abc", true},
		{"inverted bounds", "a{2,1}", true},
		{"unknown group flag", "(?i)x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Compile(tt.pattern)
			if (err != nil) != tt.wantErr {
				t.Errorf("Compile() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && re == nil {
				t.Error("Compile() returned nil")
			}
		})
	}
}

// TestMustCompile tests panic on invalid pattern
func TestMustCompile(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("MustCompile() did not panic on invalid pattern")
		}
	}()

	MustCompile("(")
}

// TestMatch tests Match and MatchString
func TestMatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    bool
	}{
		{"simple match", "hello", "hello world", true},
		{"no match", "hello", "goodbye world", false},
		{"digit match", `\d`, "age 42", true},
		{"digit no match", `\d`, "no digits here", false},
		{"start anchor", "^hello", "hello world", true},
		{"start anchor fail", "^hello", "say hello", false},
		{"end anchor", "world$", "hello world", true},
		{"end anchor fail", "world$", "world peace", false},
		{"alternation match", "foo|bar", "test bar end", true},
		{"alternation no match", "foo|bar", "test baz end", false},
		{"class", "[0-9]+", "abc123", true},
		{"negated class", "[^0-9]", "123", false},
		{"wildcard", "a.c", "abc", true},
		{"wildcard newline", "a.c", "a\nc", true},
		{"empty pattern", "", "test", true},
		{"empty pattern empty input", "", "", true},
		{"empty input", "a", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)

			got := re.Match([]byte(tt.input))
			if got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}

			got = re.MatchString(tt.input)
			if got != tt.want {
				t.Errorf("MatchString() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFind tests Find and FindString
func TestFind(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    string
		wantNil bool
	}{
		{"simple find", "hello", "say hello world", "hello", false},
		{"digit find", `\d+`, "age: 42 years", "42", false},
		{"no match", "xyz", "abc def", "", true},
		{"first of many", "a", "banana", "a", false},
		{"greedy plus", "a+", "caaat", "aaa", false},
		{"lazy plus", "a+?", "caaat", "a", false},
		{"earlier alternative wins", "cat|catalog", "catalog", "cat", false},
		{"second alternative", "cat|dog", "hotdog", "dog", false},
		{"empty pattern", "", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)

			got := re.Find([]byte(tt.input))
			if tt.wantNil && got != nil {
				t.Errorf("Find() = %q, want nil", got)
			}
			if !tt.wantNil {
				if got == nil {
					t.Error("Find() = nil, want match")
					return
				}
				if string(got) != tt.want {
					t.Errorf("Find() = %q, want %q", got, tt.want)
				}
			}

			gotStr := re.FindString(tt.input)
			if tt.wantNil && gotStr != "" {
				t.Errorf("FindString() = %q, want empty", gotStr)
			}
			if !tt.wantNil && gotStr != tt.want {
				t.Errorf("FindString() = %q, want %q", gotStr, tt.want)
			}
		})
	}
}

// TestFindIndex tests FindIndex and FindStringIndex
func TestFindIndex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"literal inside", "abc", "xabcx", []int{1, 4}},
		{"lowercase run", "[a-z]+", "Hello123", []int{1, 5}},
		{"simple", "hello", "say hello world", []int{4, 9}},
		{"digit", `\d+`, "age: 42", []int{5, 7}},
		{"at start", "hello", "hello world", []int{0, 5}},
		{"no match", "xyz", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)

			got := re.FindIndex([]byte(tt.input))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindIndex() = %v, want %v", got, tt.want)
			}

			got = re.FindStringIndex(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindStringIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestQuantifiers tests greedy and lazy repetition forms
func TestQuantifiers(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"greedy range", "a{2,4}", "aaaaa", []int{0, 4}},
		{"lazy range", "a{2,4}?", "aaaaa", []int{0, 2}},
		{"exact count", "a{3}", "aaaa", []int{0, 3}},
		{"exact count short input", "a{2}", "a", nil},
		{"open range", "a{2,}", "aaaa", []int{0, 4}},
		{"zero min", "a{0,2}", "aaa", []int{0, 2}},
		{"elided min", "a{,2}", "aaa", []int{0, 2}},
		{"group repeat", "(?:ab){2}", "fababab", []int{1, 5}},
		{"greedy star", "a*", "aaa", []int{0, 3}},
		{"lazy star", "a*?", "aaa", []int{0, 0}},
		{"optional present", "ab?", "ab", []int{0, 2}},
		{"optional absent", "ab?", "ac", []int{0, 1}},
		{"lazy optional", "ab??", "ab", []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindStringIndex(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindStringIndex(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestFindAll tests FindAll and FindAllString
func TestFindAll(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		n       int
		want    []string
	}{
		{"find all digits", `\d`, "a1b2c3", -1, []string{"1", "2", "3"}},
		{"find limited", `\d`, "a1b2c3", 2, []string{"1", "2"}},
		{"find zero", `\d`, "a1b2c3", 0, nil},
		{"no matches", `\d`, "abc", -1, nil},
		{"find words", `\w+`, "hello world test", -1, []string{"hello", "world", "test"}},
		{"find one", "hello", "hello world hello", 1, []string{"hello"}},
		{"adjacent", "a", "aaa", -1, []string{"a", "a", "a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)

			got := re.FindAll([]byte(tt.input), tt.n)
			var gotStr []string
			for _, m := range got {
				gotStr = append(gotStr, string(m))
			}
			if !reflect.DeepEqual(gotStr, tt.want) {
				t.Errorf("FindAll() = %v, want %v", gotStr, tt.want)
			}

			gotDirect := re.FindAllString(tt.input, tt.n)
			if !reflect.DeepEqual(gotDirect, tt.want) {
				t.Errorf("FindAllString() = %v, want %v", gotDirect, tt.want)
			}
		})
	}
}

// TestSubmatch tests capture group extraction
func TestSubmatch(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []string
	}{
		{"two groups", `(\w+)@(\w+)`, "mail user@host now", []string{"user@host", "user", "host"}},
		{"unused branch group", "(a)|(b)", "b", []string{"b", "", "b"}},
		{"repeated group keeps last", "(a)+", "aaa", []string{"aaa", "a"}},
		{"star group", "(a*)b", "aab", []string{"aab", "aa"}},
		{"nested groups", "((a)b)", "ab", []string{"ab", "ab", "a"}},
		{"no match", "(x)(y)", "abc", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindStringSubmatch(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindStringSubmatch() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestSubmatchIndex tests capture group index extraction
func TestSubmatchIndex(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"both groups set", "(a)(b)", "zab", []int{1, 3, 1, 2, 2, 3}},
		{"skipped group", "(a)|(b)", "b", []int{0, 1, -1, -1, 0, 1}},
		{"optional group absent", "a(b)?c", "ac", []int{0, 2, -1, -1}},
		{"optional group present", "a(b)?c", "abc", []int{0, 3, 1, 2}},
		{"no match", "(a)", "xyz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindStringSubmatchIndex(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindStringSubmatchIndex() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestIgnoreCase tests the case-insensitive compile option
func TestIgnoreCase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreCase = true

	tests := []struct {
		name    string
		pattern string
		input   string
		want    string
	}{
		{"mixed case literal", "cat", "The CaT sat", "CaT"},
		{"upper pattern", "CAT", "a cat here", "cat"},
		{"folded class", "[a-z]+", "HELLO", "HELLO"},
		{"folded upper range", "[A-Z]+", "hello", "hello"},
		{"folded alternation", "dog|cat", "CATALOG", "CAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := CompileWithConfig(tt.pattern, cfg)
			if err != nil {
				t.Fatalf("CompileWithConfig(%q) error: %v", tt.pattern, err)
			}
			got := re.FindString(tt.input)
			if got != tt.want {
				t.Errorf("FindString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	// Without the option the same patterns stay case-sensitive.
	re := MustCompile("cat")
	if re.MatchString("CAT") {
		t.Error("case-sensitive pattern matched folded input")
	}
}

// TestNoPrefilter verifies results do not depend on the prefilter
func TestNoPrefilter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NoPrefilter = true

	tests := []struct {
		pattern string
		input   string
	}{
		{"hello", "say hello world"},
		{"hello", "nothing here"},
		{"foo|bar", "prefix bar suffix"},
		{"foo|bar|baz|quux", "a quux at last"},
		{"abc+", "xx abccc yy"},
		{"needle", "haystack without it"},
	}

	for _, tt := range tests {
		fast := MustCompile(tt.pattern)
		slow, err := CompileWithConfig(tt.pattern, cfg)
		if err != nil {
			t.Fatalf("CompileWithConfig(%q) error: %v", tt.pattern, err)
		}

		got := fast.FindStringIndex(tt.input)
		want := slow.FindStringIndex(tt.input)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("FindStringIndex(%q, %q): prefiltered %v, plain %v",
				tt.pattern, tt.input, got, want)
		}
	}
}

// TestString tests the String method
func TestString(t *testing.T) {
	pattern := `\d+`
	re := MustCompile(pattern)

	if got := re.String(); got != pattern {
		t.Errorf("String() = %q, want %q", got, pattern)
	}
}

// TestNumSubexp tests group counting and related accessors
func TestNumSubexp(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"abc", 0},
		{"(a)", 1},
		{"(a)(b(c))", 3},
		{"(?:a)(b)", 1},
	}

	for _, tt := range tests {
		re := MustCompile(tt.pattern)
		if got := re.NumSubexp(); got != tt.want {
			t.Errorf("NumSubexp(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
		if got := re.Capacity(); got != 2*(tt.want+1) {
			t.Errorf("Capacity(%q) = %d, want %d", tt.pattern, got, 2*(tt.want+1))
		}

		names := re.SubexpNames()
		if len(names) != tt.want+1 {
			t.Errorf("SubexpNames(%q) length = %d, want %d", tt.pattern, len(names), tt.want+1)
		}
		for i, name := range names {
			if name != "" {
				t.Errorf("SubexpNames(%q)[%d] = %q, want empty", tt.pattern, i, name)
			}
		}
	}
}

// TestRealWorldPatterns tests realistic patterns
func TestRealWorldPatterns(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    string
	}{
		{
			name:    "email simple",
			pattern: `\w+@\w+\.\w+`,
			input:   "Contact: user@example.com for info",
			want:    "user@example.com",
		},
		{
			name:    "phone number",
			pattern: `\d{3}-\d{4}`,
			input:   "Call 555-1234 today",
			want:    "555-1234",
		},
		{
			name:    "URL protocol",
			pattern: `https?://`,
			input:   "Visit https://example.com",
			want:    "https://",
		},
		{
			name:    "hex color",
			pattern: `#[0-9a-fA-F]{6}`,
			input:   "Background: #FF5733",
			want:    "#FF5733",
		},
		{
			name:    "clock time",
			pattern: `\d{1,2}:\d{2}`,
			input:   "meet at 9:45 sharp",
			want:    "9:45",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := MustCompile(tt.pattern)
			got := re.FindString(tt.input)
			if got != tt.want {
				t.Errorf("FindString() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestConcurrent exercises one Regex from many goroutines
func TestConcurrent(t *testing.T) {
	re := MustCompile(`(\w+)=(\d+)`)
	input := "retries=3 timeout=20 depth=7"

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				got := re.FindStringSubmatch(input)
				if len(got) != 3 || got[1] != "retries" || got[2] != "3" {
					t.Errorf("FindStringSubmatch() = %v", got)
					return
				}
				if n := re.CountString(input, -1); n != 3 {
					t.Errorf("CountString() = %d, want 3", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// BenchmarkCompile benchmarks compilation
func BenchmarkCompile(b *testing.B) {
	patterns := []string{
		"hello",
		`\d+`,
		`\w+@\w+\.\w+`,
		"(foo|bar|baz)",
		"a{2,8}",
	}

	for _, pattern := range patterns {
		b.Run(pattern, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, err := Compile(pattern)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkMatch benchmarks matching
func BenchmarkMatch(b *testing.B) {
	re := MustCompile(`\d+`)
	input := []byte("the year is 2024")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if !re.Match(input) {
			b.Fatal("expected match")
		}
	}
}

// BenchmarkFind benchmarks finding with and without the prefilter
func BenchmarkFind(b *testing.B) {
	input := []byte("a fairly long line of text that mentions a needle near its end")

	b.Run("prefilter", func(b *testing.B) {
		re := MustCompile("needle")
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if re.Find(input) == nil {
				b.Fatal("expected match")
			}
		}
	})

	b.Run("plain", func(b *testing.B) {
		cfg := DefaultConfig()
		cfg.NoPrefilter = true
		re, err := CompileWithConfig("needle", cfg)
		if err != nil {
			b.Fatal(err)
		}
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if re.Find(input) == nil {
				b.Fatal("expected match")
			}
		}
	})
}

// BenchmarkFindAll benchmarks finding all matches
func BenchmarkFindAll(b *testing.B) {
	re := MustCompile(`\d`)
	input := []byte("1a2b3c4d5e6f7g8h9i0")

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		matches := re.FindAll(input, -1)
		if len(matches) != 10 {
			b.Fatalf("expected 10 matches, got %d", len(matches))
		}
	}
}

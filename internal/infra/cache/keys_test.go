package cache

import (
	"regexp"
	"testing"
	"time"
)

func TestKey_Format(t *testing.T) {
	k := Key(CategoryExtract, "I used Python")
	if !regexp.MustCompile(`^extract:[0-9a-f]{16}$`).MatchString(k) {
		t.Errorf("Key() = %q, want extract:<16 hex>", k)
	}
}

func TestKey_Normalization(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		same bool
	}{
		{"case", []string{"Python"}, []string{"python"}, true},
		{"punctuation", []string{"Python, SQL!"}, []string{"python sql"}, true},
		{"whitespace", []string{"  python \n\t sql "}, []string{"python sql"}, true},
		{"different words", []string{"python"}, []string{"golang"}, false},
		{"part boundaries", []string{"ab", "c"}, []string{"a", "bc"}, false},
		{"part count", []string{"a"}, []string{"a", ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := Key(CategoryGaps, tt.a...)
			kb := Key(CategoryGaps, tt.b...)
			if (ka == kb) != tt.same {
				t.Errorf("Key(%q) = %s, Key(%q) = %s, same = %v, want %v", tt.a, ka, tt.b, kb, ka == kb, tt.same)
			}
		})
	}
}

func TestKey_CategorySeparatesNamespaces(t *testing.T) {
	if Key(CategoryGaps, "x") == Key(CategoryNode, "x") {
		t.Error("keys in different categories must differ")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Hello, World!", "hello world"},
		{"  C++  &  Go ", "c go"},
		{"Ünïcödé   Text", "ünïcödé text"},
		{"a\n\nb", "a b"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategoryOf(t *testing.T) {
	if got := CategoryOf("extract:abc"); got != "extract" {
		t.Errorf("CategoryOf() = %q", got)
	}
	if got := CategoryOf("plain"); got != "plain" {
		t.Errorf("CategoryOf() = %q", got)
	}
}

func TestTTLFor(t *testing.T) {
	tests := map[string]time.Duration{
		CategoryExtract: 7 * 24 * time.Hour,
		CategoryGaps:    time.Hour,
		CategoryNode:    time.Hour,
		"unknown":       DefaultTTL,
	}
	for category, want := range tests {
		if got := TTLFor(category); got != want {
			t.Errorf("TTLFor(%q) = %v, want %v", category, got, want)
		}
	}
}

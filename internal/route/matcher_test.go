package route

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		linkPatterns  []string
		imagePatterns []string
		want          Mode
	}{
		{
			name: "no patterns defaults to embed",
			url:  "https://example.com/post/1",
			want: ModeEmbed,
		},
		{
			name:         "link pattern matches",
			url:          "https://www.youtube.com/watch?v=abc",
			linkPatterns: []string{`youtube\.com`},
			want:         ModeLink,
		},
		{
			name:          "image pattern matches",
			url:           "https://i.example.com/cat.png",
			imagePatterns: []string{`\.png$`},
			want:          ModeImage,
		},
		{
			name:          "link list checked before image list",
			url:           "https://i.example.com/cat.png",
			linkPatterns:  []string{`nomatch`, `i\.example\.com`},
			imagePatterns: []string{`\.png$`},
			want:          ModeLink,
		},
		{
			name:          "invalid pattern is skipped, later pattern still matches",
			url:           "https://i.example.com/cat.png",
			imagePatterns: []string{`[unclosed`, `\.png$`},
			want:          ModeImage,
		},
		{
			name:          "all patterns invalid falls through to embed",
			url:           "https://example.com/post/1",
			linkPatterns:  []string{`(`, `[`},
			imagePatterns: []string{`*bad`},
			want:          ModeEmbed,
		},
		{
			name:          "empty pattern never matches",
			url:           "https://example.com/post/1",
			linkPatterns:  []string{""},
			imagePatterns: []string{""},
			want:          ModeEmbed,
		},
		{
			name:         "no match on either list",
			url:          "https://example.com/post/1",
			linkPatterns: []string{`youtube\.com`},
			want:         ModeEmbed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.url, tt.linkPatterns, tt.imagePatterns)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}

			// Identical inputs must classify identically.
			if again := Classify(tt.url, tt.linkPatterns, tt.imagePatterns); again != got {
				t.Errorf("Classify() not deterministic: %v then %v", got, again)
			}
		})
	}
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want []string
	}{
		{
			name: "empty blob",
			blob: "",
			want: nil,
		},
		{
			name: "trims and drops blank lines",
			blob: "  \\.png$  \n\n\timgur\\.com\n   \n",
			want: []string{`\.png$`, `imgur\.com`},
		},
		{
			name: "order preserved",
			blob: "b\na\nc",
			want: []string{"b", "a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitPatterns(tt.blob)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("patterns mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

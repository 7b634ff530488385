package htmltext

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "strips inline tags",
			html: "<p>Hello <b>world</b></p>",
			want: "Hello world",
		},
		{
			name: "collapses whitespace across blocks",
			html: "<div>first</div>\n\n<div>  second   line </div>",
			want: "first second line",
		},
		{
			name: "drops attributes and links",
			html: `<a href="https://example.com">read more</a>`,
			want: "read more",
		},
		{
			name: "plain text passes through",
			html: "no markup here",
			want: "no markup here",
		},
		{
			name: "empty input",
			html: "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewConverter()
			got, err := c.PlainText(tt.html)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("text mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

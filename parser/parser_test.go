package parser

import (
	"errors"
	"testing"
)

func TestExtractURL(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		keys    []string
		want    string
		wantErr error
	}{
		{
			name: "nested object",
			doc:  `{"data":{"image":{"url":"http://x/y.jpg"}}}`,
			keys: []string{"data", "image", "url"},
			want: "http://x/y.jpg",
		},
		{
			name: "https and array index",
			doc:  `{"images":[{"url":"https://cdn/a.jpg"},{"url":"https://cdn/b.jpg"}]}`,
			keys: []string{"images", "1", "url"},
			want: "https://cdn/b.jpg",
		},
		{
			name:    "missing key",
			doc:     `{"data":{"picture":{}}}`,
			keys:    []string{"data", "image", "url"},
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "index out of range",
			doc:     `{"images":[]}`,
			keys:    []string{"images", "0"},
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "scalar in the middle",
			doc:     `{"data":"flat"}`,
			keys:    []string{"data", "url"},
			wantErr: ErrKeyNotFound,
		},
		{
			name:    "relative url",
			doc:     `{"url":"/th?id=1"}`,
			keys:    []string{"url"},
			wantErr: ErrNotURL,
		},
		{
			name:    "number",
			doc:     `{"url":42}`,
			keys:    []string{"url"},
			wantErr: ErrNotURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.doc))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			got, err := ExtractURL(doc, tt.keys)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err=%v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("url=%q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractURLDeterministic(t *testing.T) {
	doc, err := Decode([]byte(`{"data":{"image":{"url":"http://x/y.jpg"}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	keys := []string{"data", "image", "url"}
	first, _ := ExtractURL(doc, keys)
	for i := 0; i < 5; i++ {
		if got, _ := ExtractURL(doc, keys); got != first {
			t.Fatalf("run %d: url=%q, want %q", i, got, first)
		}
	}
}

func TestTraverseEmptyPath(t *testing.T) {
	doc, _ := Decode([]byte(`"http://x/y.jpg"`))
	got, err := ExtractURL(doc, nil)
	if err != nil || got != "http://x/y.jpg" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
}

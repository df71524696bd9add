package models

import (
	"testing"
	"time"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips scheme and www",
			in:   "https://www.example.com/story",
			want: "example.com/story",
		},
		{
			name: "strips trailing slash",
			in:   "https://example.com/story/",
			want: "example.com/story",
		},
		{
			name: "strips tracking params",
			in:   "https://example.com/story?utm_source=feed&utm_medium=rss&id=7",
			want: "example.com/story?id=7",
		},
		{
			name: "strips fbclid and ref",
			in:   "https://example.com/story?fbclid=abc&ref=home",
			want: "example.com/story",
		},
		{
			name: "strips port",
			in:   "https://example.com:443/story",
			want: "example.com/story",
		},
		{
			name: "lowercases host",
			in:   "https://Example.COM/Story",
			want: "example.com/Story",
		},
		{
			name: "unparseable returns lowered input",
			in:   "not a url",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.in); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestComputeFingerprintStability(t *testing.T) {
	a := ComputeFingerprint("Fed Raises Rates", "https://www.example.com/fed-raises-rates?utm_source=x")
	b := ComputeFingerprint("fed raises rates  ", "http://example.com/fed-raises-rates/")

	if a != b {
		t.Errorf("equivalent articles produced different fingerprints: %s vs %s", a, b)
	}

	c := ComputeFingerprint("Fed Holds Rates", "https://example.com/fed-raises-rates")
	if a == c {
		t.Error("different titles produced the same fingerprint")
	}
}

func TestArticleBody(t *testing.T) {
	a := Article{Content: "full text", Description: "summary"}
	if a.Body() != "full text" {
		t.Errorf("Body() = %q, want content", a.Body())
	}

	a.Content = "  "
	if a.Body() != "summary" {
		t.Errorf("Body() = %q, want description fallback", a.Body())
	}
}

func TestArticleDomain(t *testing.T) {
	a := Article{URL: "https://www.Example.com:8443/path"}
	if got := a.Domain(); got != "example.com" {
		t.Errorf("Domain() = %q, want example.com", got)
	}

	a.URL = "::bad::"
	if got := a.Domain(); got != "" {
		t.Errorf("Domain() on invalid URL = %q, want empty", got)
	}
}

func TestArticleIsRecent(t *testing.T) {
	a := Article{PublishedAt: time.Now().Add(-30 * time.Minute)}
	if !a.IsRecent(time.Hour) {
		t.Error("article published 30m ago should be recent within 1h")
	}
	if a.IsRecent(10 * time.Minute) {
		t.Error("article published 30m ago should not be recent within 10m")
	}
}

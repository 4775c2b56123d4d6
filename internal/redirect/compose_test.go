package redirect_test

import (
	"testing"

	"github.com/jonesrussell/north-cloud/traffic-gate/internal/redirect"
)

const (
	whiteURL = "https://safe.example.com/landing?click_id=abc&src=white#top"
	blackURL = "https://offer.example.com/go/path?click_id=abc"
)

func TestSelect(t *testing.T) {
	t.Parallel()

	if got := redirect.Select(true, blackURL, whiteURL); got != blackURL {
		t.Errorf("valid click selected %q, want black URL", got)
	}
	if got := redirect.Select(false, blackURL, whiteURL); got != whiteURL {
		t.Errorf("invalid click selected %q, want white URL", got)
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		valid   bool
		inbound string
		want    string
	}{
		{
			name:    "no inbound query",
			valid:   true,
			inbound: "",
			want:    "https://offer.example.com/go/path?click_id=abc",
		},
		{
			name:    "inbound appended in order",
			valid:   false,
			inbound: "cid=5&sub1=fb_ad&bot_user_agent=1",
			want:    "https://safe.example.com/landing?click_id=abc&src=white&cid=5&sub1=fb_ad&bot_user_agent=1#top",
		},
		{
			name:    "inbound replaces base key in place",
			valid:   false,
			inbound: "sub1=x&click_id=override",
			want:    "https://safe.example.com/landing?click_id=override&src=white&sub1=x#top",
		},
		{
			name:    "blank values kept",
			valid:   true,
			inbound: "sub2=&sub3",
			want:    "https://offer.example.com/go/path?click_id=abc&sub2=&sub3=",
		},
		{
			name:    "repeated inbound key keeps all values",
			valid:   true,
			inbound: "tag=a&tag=b",
			want:    "https://offer.example.com/go/path?click_id=abc&tag=a&tag=b",
		},
		{
			name:    "values re-escaped",
			valid:   true,
			inbound: "q=a+b%26c",
			want:    "https://offer.example.com/go/path?click_id=abc&q=a+b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := redirect.Compose(tt.valid, blackURL, whiteURL, tt.inbound)
			if err != nil {
				t.Fatalf("Compose() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compose() = %q\nwant        %q", got, tt.want)
			}
		})
	}
}

func TestMerge_BaseWithoutQuery(t *testing.T) {
	t.Parallel()

	got, err := redirect.Merge("http://127.0.0.1:8000/mock-safe-page", "cid=7")
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if want := "http://127.0.0.1:8000/mock-safe-page?cid=7"; got != want {
		t.Errorf("Merge() = %q, want %q", got, want)
	}
}

func TestMerge_InvalidBase(t *testing.T) {
	t.Parallel()

	if _, err := redirect.Merge("http://[::1", "cid=7"); err == nil {
		t.Error("expected error for unparseable base URL")
	}
}

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		keys []string
		want string
	}{
		{"no keys", "a=1&b=2", nil, "a=1&b=2"},
		{"removes all occurrences", "a=1&test_mode=1&b=2&test_mode=0", []string{"test_mode"}, "a=1&b=2"},
		{"escaped key", "bot%5Fuser%5Fagent=1&sub1=x", []string{"bot_user_agent"}, "sub1=x"},
		{"keeps encoding", "q=a%20b&test_mode=1", []string{"test_mode"}, "q=a%20b"},
		{"only stripped keys", "test_mode=1", []string{"test_mode"}, ""},
		{"empty", "", []string{"test_mode"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redirect.Strip(tt.raw, tt.keys...); got != tt.want {
				t.Errorf("Strip(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

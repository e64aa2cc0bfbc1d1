package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  plain  ", "plain"},
		{"<b>bold</b> move", "bold move"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;ok", "alert(1)ok"},
		{"a\t\t b", "a b"},
		{"one\r\n\r\n\r\n\r\ntwo", "one\n\ntwo"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncateCountsRunes(t *testing.T) {
	if got := Truncate("héllo", 10); got != "héllo" {
		t.Fatalf("short input changed: %q", got)
	}
	got := Truncate("ééééé", 3)
	if got != "éé…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if Truncate("abc", 0) != "" {
		t.Fatal("zero max must yield empty string")
	}
}

func TestReplyFitsPlatformLimit(t *testing.T) {
	long := strings.Repeat("word ", MaxReplyLength)
	got := Reply(long)
	if n := utf8.RuneCountInString(got); n > MaxReplyLength {
		t.Fatalf("reply has %d runes, limit %d", n, MaxReplyLength)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatal("cut reply must end with an ellipsis")
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("nil must stay nil")
	}
	in := " <i>x</i> "
	if got := TextPtr(&in); *got != "x" {
		t.Fatalf("unexpected %q", *got)
	}
}

package sentiment

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		text  string
		label Label
		score float64
	}{
		{"I love this, what is the price?", Positive, 1},
		{"This is the worst, I hate it", Negative, -1},
		{"What time do you open?", Neutral, 0},
		{"", Neutral, 0},
		{"good but bad", Neutral, 0},
		{"GREAT product, AMAZING service, bad box", Positive, 1.0 / 3.0},
		{"Thank you!", Positive, 1},
	}

	for _, tc := range cases {
		got := Classify(tc.text)
		if got.Label != tc.label {
			t.Fatalf("Classify(%q) label = %q, want %q", tc.text, got.Label, tc.label)
		}
		if diff := got.Score - tc.score; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("Classify(%q) score = %v, want %v", tc.text, got.Score, tc.score)
		}
	}
}

func TestKeywordCountsOnce(t *testing.T) {
	got := Classify("love love love, but sad")
	if got.Label != Neutral || got.Score != 0 {
		t.Fatalf("expected repeated keyword to count once, got %+v", got)
	}
}

func TestSubstringMatchIsIntended(t *testing.T) {
	// "badge" contains "bad"; the baseline matches substrings.
	got := Classify("nice badge")
	if got.Label != Negative {
		t.Fatalf("expected substring match to count as negative, got %+v", got)
	}
}

func TestScoreBounds(t *testing.T) {
	for _, text := range []string{"love hate", "awesome best great", "awful poor sad upset"} {
		got := Classify(text)
		if got.Score < -1 || got.Score > 1 {
			t.Fatalf("score out of range for %q: %v", text, got.Score)
		}
	}
}

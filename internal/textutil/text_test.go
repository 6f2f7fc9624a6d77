package textutil

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Step 1: Deploy!", "step 1 deploy"},
		{"  lots\t of   space  ", "lots of space"},
		{"cut p99 by 40%", "cut p99 by 40%"},
		{"e.g. benchmarks", "e g benchmarks"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenizeIsASet(t *testing.T) {
	t.Parallel()

	set := Tokenize("the cat and the hat")
	if len(set) != 4 {
		t.Errorf("token set size = %d, want 4 (duplicates collapsed)", len(set))
	}
	if _, ok := set["cat"]; !ok {
		t.Error("expected token \"cat\" in set")
	}
}

func TestCountPhrases(t *testing.T) {
	t.Parallel()

	phrases := []string{"step", "according to", "it depends"}
	tests := []struct {
		name string
		text string
		want int
	}{
		{"single word phrase", "Step 1: start. Step 2: stop.", 2},
		{"multi word phrase", "According to the data, it depends.", 2},
		{"word boundary respected", "steps and stepping do not count", 0},
		{"empty text", "", 0},
	}
	for _, tt := range tests {
		if got := CountPhrases(tt.text, phrases); got != tt.want {
			t.Errorf("%s: CountPhrases = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestContainsDigit(t *testing.T) {
	t.Parallel()

	if !ContainsDigit("p99 latency") {
		t.Error("expected digit in \"p99 latency\"")
	}
	if ContainsDigit("no numbers here") {
		t.Error("unexpected digit in digit-free text")
	}
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "a b c", "a b c", 1.0},
		{"disjoint", "a b", "c d", 0.0},
		{"half overlap", "a b c", "b c d", 0.5},
		{"both empty", "", "", 1.0},
	}
	for _, tt := range tests {
		if got := Jaccard(Tokenize(tt.a), Tokenize(tt.b)); got != tt.want {
			t.Errorf("%s: Jaccard = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	t.Parallel()

	tests := []struct{ in, want float64 }{
		{-0.5, 0},
		{0, 0},
		{0.42, 0.42},
		{1, 1},
		{1.7, 1},
	}
	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

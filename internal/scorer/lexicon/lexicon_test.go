package lexicon

import (
	"context"
	"errors"
	"math"
	"testing"

	"stock-sentiment-agent/internal/apperr"
)

func score(t *testing.T, s *Scorer, text string) (float64, float64) {
	t.Helper()
	p, subj, err := s.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("Score(%q) failed: %v", text, err)
	}
	return p, subj
}

func TestScoreBlankText(t *testing.T) {
	s := New()
	for _, text := range []string{"", "   ", "\t\n"} {
		p, subj, err := s.Score(context.Background(), text)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Score(%q): expected invalid input, got %v", text, err)
		}
		if p != 0 || subj != 0 {
			t.Errorf("Score(%q): expected zero values alongside error", text)
		}
	}
}

func TestScoreDirection(t *testing.T) {
	s := New()
	tests := []struct {
		text string
		sign int
	}{
		{"Apple stock surges to record high", 1},
		{"Shares plunge after earnings miss", -1},
		{"Analysts upgrade Tesla on strong deliveries", 1},
		{"Bank faces fraud probe as losses mount", -1},
		{"Company schedules annual meeting", 0},
		{"Stock slipped after weak guidance", -1},
	}

	for _, tt := range tests {
		p, _ := score(t, s, tt.text)
		switch {
		case tt.sign > 0 && p <= 0.1:
			t.Errorf("%q: expected positive polarity, got %f", tt.text, p)
		case tt.sign < 0 && p >= -0.1:
			t.Errorf("%q: expected negative polarity, got %f", tt.text, p)
		case tt.sign == 0 && p != 0:
			t.Errorf("%q: expected zero polarity, got %f", tt.text, p)
		}
	}
}

func TestScoreNegation(t *testing.T) {
	s := New()

	plain, _ := score(t, s, "Earnings are strong")
	negated, _ := score(t, s, "Earnings are not strong")
	if plain <= 0 || negated >= 0 {
		t.Errorf("Expected negation to flip sign: plain %f, negated %f", plain, negated)
	}
	if math.Abs(negated) >= math.Abs(plain) {
		t.Errorf("Expected negation to dampen magnitude: plain %f, negated %f", plain, negated)
	}

	contraction, _ := score(t, s, "Revenue didn't grow")
	if contraction >= 0 {
		t.Errorf("Expected contraction negation to be negative, got %f", contraction)
	}
}

func TestScoreIntensifier(t *testing.T) {
	s := New()
	base, _ := score(t, s, "Shares higher")
	boosted, _ := score(t, s, "Shares sharply higher")
	if boosted <= base {
		t.Errorf("Expected intensifier to increase polarity: %f vs %f", boosted, base)
	}

	softened, _ := score(t, s, "Shares slightly higher")
	if softened >= base {
		t.Errorf("Expected diminisher to reduce polarity: %f vs %f", softened, base)
	}
}

func TestScoreExclamation(t *testing.T) {
	s := New()
	plain, _ := score(t, s, "Stock soars")
	excited, _ := score(t, s, "Stock soars!")
	if excited <= plain {
		t.Errorf("Expected exclamation to add emphasis: %f vs %f", excited, plain)
	}
}

func TestScoreBounds(t *testing.T) {
	s := New()
	texts := []string{
		"extremely extremely extremely excellent blowout record surge!!!!",
		"catastrophic catastrophic bankruptcy fraud crash collapse!!!",
		"very very very",
		"123 456",
		"Investors' mood",
	}
	for _, text := range texts {
		p, subj := score(t, s, text)
		if p < -1 || p > 1 {
			t.Errorf("%q: polarity %f out of range", text, p)
		}
		if subj < 0 || subj > 1 {
			t.Errorf("%q: subjectivity %f out of range", text, subj)
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := New()
	text := "Microsoft shares rally as cloud growth beats forecasts"
	p1, s1 := score(t, s, text)
	p2, s2 := score(t, s, text)
	if p1 != p2 || s1 != s2 {
		t.Errorf("Expected identical scores, got (%f,%f) and (%f,%f)", p1, s1, p2, s2)
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("don't panic: shares' value, up 5%")
	expected := []string{"don't", "panic", "shares", "value", "up", "5"}
	if len(got) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Errorf("Token %d: expected %q, got %q", i, expected[i], got[i])
		}
	}
}

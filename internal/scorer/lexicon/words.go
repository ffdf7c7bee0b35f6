package lexicon

// Word polarities draw on the Loughran-McDonald financial lists, extended
// with market-headline verbs. Subjectivity is how opinionated the word is.

func loadWords() map[string]entry {
	m := make(map[string]entry)
	add := func(pol, subj float64, words ...string) {
		for _, w := range words {
			m[w] = entry{polarity: pol, subjectivity: subj}
		}
	}

	// strongly positive
	add(0.8, 0.9, "excellent", "exceptional", "extraordinary", "tremendous", "stellar", "blowout", "skyrocket")
	add(0.7, 0.6, "soar", "surge", "rocket", "boom", "jump", "rally", "breakthrough")
	add(0.6, 0.7, "great", "remarkable", "outstanding", "impressive", "robust", "superior")
	// moderately positive
	add(0.5, 0.6, "strong", "strength", "upbeat", "optimistic", "bullish", "outperform", "upgrade", "winning", "win")
	add(0.4, 0.5, "beat", "gain", "rise", "climb", "grow", "growth", "grew", "improve", "improvement",
		"profit", "profitable", "success", "successful", "succeed", "record", "high", "top", "boost",
		"expand", "expansion", "recover", "recovery", "rebound", "favorable", "positive", "buy")
	add(0.3, 0.4, "good", "better", "solid", "benefit", "advance", "progress", "opportunity", "innovative",
		"innovation", "leader", "leading", "achieve", "enhance", "approve", "approval", "partnership",
		"dividend", "buyback", "raise", "higher", "up", "exceed", "surpass")
	// mildly positive
	add(0.2, 0.3, "stable", "steady", "resilient", "attractive", "valuable", "launch")

	// strongly negative
	add(-0.8, 0.9, "disastrous", "catastrophic", "collapse", "bankrupt", "bankruptcy", "fraud", "crash")
	add(-0.7, 0.6, "plunge", "plummet", "tumble", "tank", "crisis", "scandal", "default")
	add(-0.6, 0.7, "terrible", "awful", "worst", "disappoint", "disappointing", "dismal")
	// moderately negative
	add(-0.5, 0.6, "weak", "weakness", "bearish", "underperform", "downgrade", "slump", "sink", "slide", "selloff")
	add(-0.4, 0.5, "miss", "loss", "losses", "fall", "fell", "drop", "decline", "decrease", "cut", "slash",
		"lower", "low", "poor", "worse", "worsen", "negative", "sell", "lawsuit", "probe", "investigation",
		"recession", "downturn", "layoff", "layoffs", "warn", "warning", "penalty", "recall")
	add(-0.3, 0.4, "concern", "concerns", "risk", "risks", "fear", "headwind", "pressure", "slowdown",
		"slow", "volatile", "volatility", "uncertain", "uncertainty", "debt", "deficit", "challenge",
		"challenging", "difficult", "problem", "down", "struggle", "delay", "halt", "sue", "sued")
	// mildly negative
	add(-0.2, 0.3, "dip", "slip", "cautious", "mixed", "flat", "restructuring", "impairment")

	return m
}

func loadIntensifiers() map[string]float64 {
	return map[string]float64{
		"very":          1.3,
		"extremely":     1.5,
		"highly":        1.3,
		"sharply":       1.4,
		"significantly": 1.3,
		"strongly":      1.3,
		"hugely":        1.4,
		"massively":     1.5,
		"deeply":        1.3,
		"slightly":      0.5,
		"somewhat":      0.6,
		"modestly":      0.6,
		"marginally":    0.5,
	}
}

func loadNegators() map[string]bool {
	return map[string]bool{
		"not":     true,
		"no":      true,
		"never":   true,
		"without": true,
		"neither": true,
		"nor":     true,
		"fails":   true,
		"failed":  true,
	}
}

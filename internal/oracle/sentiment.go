package oracle

import (
	"log"
	"strings"
)

// Analyze asks the oracle for a sentiment reading and falls back to the
// local polarity heuristic when it is unavailable or returns garbage. The
// fallback is an explicit branch on the result, not caught-exception
// control flow; the returned Sentiment says which path produced it.
func Analyze(c Client, text string) Sentiment {
	if c != nil {
		s, err := c.AnalyzeSentiment(text)
		if err == nil {
			return normalize(*s)
		}
		log.Printf("[oracle] sentiment analysis failed, using heuristic: %v", err)
	}
	return FallbackSentiment(text)
}

// normalize bounds whatever the model produced: score to [0,1], impact to
// the [-0.05,0.05] transition budget, and the mood label to a known bucket.
func normalize(s Sentiment) Sentiment {
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 1 {
		s.Score = 1
	}
	if s.Impact < -0.05 {
		s.Impact = -0.05
	}
	if s.Impact > 0.05 {
		s.Impact = 0.05
	}
	switch s.Mood {
	case "low", "neutral", "positive":
	default:
		s.Mood = moodLabel(s.Score)
	}
	return s
}

// FallbackSentiment scores text with a small polarity lexicon: polarity in
// [-1,1] remapped to [0,1], with the impact assigned from fixed buckets.
func FallbackSentiment(text string) Sentiment {
	base := (polarity(text) + 1) / 2

	s := Sentiment{Score: base}
	switch {
	case base < 0.3:
		s.Mood = "low"
		s.Impact = -0.03
	case base < 0.7:
		s.Mood = "neutral"
		s.Impact = 0.01
	default:
		s.Mood = "positive"
		s.Impact = 0.03
	}
	return s
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "happy": true, "joy": true, "love": true,
	"excellent": true, "amazing": true, "wonderful": true, "awesome": true,
	"better": true, "best": true, "calm": true, "relaxed": true, "proud": true,
	"excited": true, "grateful": true, "thankful": true, "hopeful": true,
	"fun": true, "nice": true, "glad": true, "peaceful": true, "energized": true,
}

var negativeWords = map[string]bool{
	"bad": true, "sad": true, "angry": true, "hate": true, "terrible": true,
	"awful": true, "horrible": true, "worse": true, "worst": true, "tired": true,
	"anxious": true, "stressed": true, "depressed": true, "lonely": true,
	"afraid": true, "scared": true, "worried": true, "upset": true, "hurt": true,
	"miserable": true, "hopeless": true, "exhausted": true, "overwhelmed": true,
}

// polarity returns a crude sentiment polarity in [-1,1] from word counts.
func polarity(text string) float64 {
	var pos, neg int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:'\"()")
		if positiveWords[word] {
			pos++
		}
		if negativeWords[word] {
			neg++
		}
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

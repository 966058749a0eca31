package signal

import (
	"regexp"
	"strings"
)

// Signals are coarse conversational cues derived from a window of recent
// messages. They are recomputed for every decision and never stored.
type Signals struct {
	Confusion    bool `json:"confusion"`
	Disagreement bool `json:"disagreement"`
	Emotion      bool `json:"emotion"`
	QuestionLoop bool `json:"question_loop"`
}

// QuestionLoopThreshold is the number of '?' in a window that marks a loop.
const QuestionLoopThreshold = 3

var (
	confusionCues    = []string{"confused", "not sure", "why", "how"}
	disagreementCues = []string{"but", "no", "however", "i disagree"}
	emotionCues      = []string{"frustrated", "angry", "stuck", "worried"}
	agreementCues    = []string{"yes", "agree", "exactly", "makes sense", "sounds good", "right"}
	requestCues      = []string{"please", "can you", "could you", "help me", "show me", "tell me", "explain"}
	smallTalkCues    = []string{"hi", "hello", "hey", "thanks", "thank you", "good morning", "good night", "lol", "bye"}
)

var (
	confusionRe    = cueRegexp(confusionCues)
	disagreementRe = cueRegexp(disagreementCues)
	emotionRe      = cueRegexp(emotionCues)
	agreementRe    = cueRegexp(agreementCues)
	requestRe      = cueRegexp(requestCues)
	smallTalkRe    = cueRegexp(smallTalkCues)
)

// cueRegexp matches any cue as a whole word or phrase, which is stricter
// than plain substring presence: "how" does not fire on "show" and "no" does
// not fire on "know". Multi-word cues tolerate any run of whitespace.
func cueRegexp(cues []string) *regexp.Regexp {
	parts := make([]string, len(cues))
	for i, c := range cues {
		parts[i] = strings.ReplaceAll(regexp.QuoteMeta(c), " ", `\s+`)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(parts, "|") + `)\b`)
}

// Analyze joins the window and extracts the four signals.
func Analyze(window []string) Signals {
	text := strings.ToLower(strings.Join(window, " "))
	return Signals{
		Confusion:    confusionRe.MatchString(text),
		Disagreement: disagreementRe.MatchString(text),
		Emotion:      emotionRe.MatchString(text),
		QuestionLoop: strings.Count(text, "?") >= QuestionLoopThreshold,
	}
}

// ShouldInterject decides whether the assistant speaks unprompted. It never
// follows its own message without new human input in between.
func ShouldInterject(s Signals, recentAIMessages int) bool {
	if recentAIMessages > 0 {
		return false
	}
	return (s.Confusion && s.QuestionLoop) || (s.Disagreement && s.Emotion)
}

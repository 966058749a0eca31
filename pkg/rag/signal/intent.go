package signal

import "strings"

type Intent string

const (
	IntentSmallTalk    Intent = "small_talk"
	IntentQuestion     Intent = "question"
	IntentRequest      Intent = "request"
	IntentProblem      Intent = "problem"
	IntentAgreement    Intent = "agreement"
	IntentDisagreement Intent = "disagreement"
	IntentStatement    Intent = "statement"
)

// ClassifyIntent labels a single message for the chat history block. The
// checks run from the most to the least specific cue.
func ClassifyIntent(text string) Intent {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return IntentStatement
	}

	switch {
	case emotionRe.MatchString(t):
		return IntentProblem
	case disagreementRe.MatchString(t):
		return IntentDisagreement
	case strings.Contains(t, "?") || confusionRe.MatchString(t):
		return IntentQuestion
	case requestRe.MatchString(t):
		return IntentRequest
	case agreementRe.MatchString(t):
		return IntentAgreement
	case smallTalkRe.MatchString(t) && len(strings.Fields(t)) <= 4:
		return IntentSmallTalk
	default:
		return IntentStatement
	}
}

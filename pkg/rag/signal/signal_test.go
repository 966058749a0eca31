package signal

import (
	"testing"

	"nexus-chat-be/internal/constant"

	"github.com/stretchr/testify/assert"
)

func TestShouldInterjectTruthTable(t *testing.T) {
	assert.True(t, ShouldInterject(Signals{Confusion: true, QuestionLoop: true}, 0))
	assert.True(t, ShouldInterject(Signals{Disagreement: true, Emotion: true}, 0))
	assert.False(t, ShouldInterject(Signals{Confusion: true}, 0), "confusion alone is not enough")
	assert.False(t, ShouldInterject(Signals{QuestionLoop: true}, 0))
	assert.False(t, ShouldInterject(Signals{Emotion: true}, 0))
	assert.False(t, ShouldInterject(Signals{}, 0))

	all := Signals{Confusion: true, Disagreement: true, Emotion: true, QuestionLoop: true}
	assert.False(t, ShouldInterject(all, 1))
	assert.False(t, ShouldInterject(all, 3))
}

func TestAnalyze(t *testing.T) {
	s := Analyze([]string{"Why does the build fail?", "Not sure either?", "Anyone??"})
	assert.True(t, s.Confusion)
	assert.True(t, s.QuestionLoop)
	assert.False(t, s.Emotion)

	s = Analyze([]string{"I disagree with that plan", "I'm really frustrated"})
	assert.True(t, s.Disagreement)
	assert.True(t, s.Emotion)
	assert.False(t, s.QuestionLoop)
}

func TestAnalyzeMatchesWholeWords(t *testing.T) {
	s := Analyze([]string{"show me what you know", "butter is nice"})
	assert.False(t, s.Confusion, "show must not match how")
	assert.False(t, s.Disagreement, "know and butter must not match no or but")

	s = Analyze([]string{"I am not\tsure  anymore"})
	assert.True(t, s.Confusion, "phrases match across any whitespace")
}

func TestClassifyIntent(t *testing.T) {
	cases := map[string]Intent{
		"hi there":                       IntentSmallTalk,
		"what is the deploy process?":    IntentQuestion,
		"could you share the runbook":    IntentRequest,
		"I'm stuck on the migration":     IntentProblem,
		"yes that makes sense":           IntentAgreement,
		"no, however we tried that":      IntentDisagreement,
		"the release ships on friday":    IntentStatement,
		"":                               IntentStatement,
	}
	for text, want := range cases {
		assert.Equal(t, want, ClassifyIntent(text), "text %q", text)
	}
}

func TestTriggerPolicy(t *testing.T) {
	both := NewTriggerPolicy("", "nexus")
	assert.Equal(t, constant.TriggerModeBoth, both.Mode())

	d := both.Decide("Nexus, what's the deploy process?", false, nil, 1)
	assert.True(t, d.Respond)
	assert.Equal(t, constant.TriggerModeDirect, d.Mode)

	d = both.Decide("@nexus help", false, nil, 0)
	assert.True(t, d.Respond)

	d = both.Decide("the nexusfile is broken", false, nil, 0)
	assert.False(t, d.Respond)

	d = both.Decide("plain message", true, nil, 0)
	assert.True(t, d.Respond, "explicit flag always triggers")

	window := []string{"why is it red?", "how?", "really?"}
	d = both.Decide("really?", false, window, 0)
	assert.True(t, d.Respond)
	assert.Equal(t, constant.TriggerModeObserver, d.Mode)
	d = both.Decide("really?", false, window, 1)
	assert.False(t, d.Respond)

	direct := NewTriggerPolicy("direct", "nexus")
	assert.False(t, direct.Decide("really?", false, window, 0).Respond)

	observer := NewTriggerPolicy("observer", "nexus")
	assert.False(t, observer.Decide("nexus hello", true, []string{"nexus hello"}, 0).Respond)
}

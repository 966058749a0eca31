package signal

import (
	"regexp"
	"strings"

	"nexus-chat-be/internal/constant"
)

// Decision explains why the assistant did or did not answer a message.
type Decision struct {
	Respond bool
	Mode    string // "direct" or "observer", empty when skipped
	Signals *Signals
}

// TriggerPolicy combines the direct trigger (explicit flag or mention) with
// the observer policy according to the configured mode.
type TriggerPolicy struct {
	mode    string
	mention *regexp.Regexp
}

func NewTriggerPolicy(mode, mentionKeyword string) *TriggerPolicy {
	mode = strings.ToLower(strings.TrimSpace(mode))
	switch mode {
	case constant.TriggerModeDirect, constant.TriggerModeObserver, constant.TriggerModeBoth:
	default:
		mode = constant.TriggerModeBoth
	}

	var mention *regexp.Regexp
	if kw := strings.TrimSpace(mentionKeyword); kw != "" {
		mention = regexp.MustCompile(`(?i)(^|[^\pL\pN_])@?` + regexp.QuoteMeta(kw) + `\b`)
	}
	return &TriggerPolicy{mode: mode, mention: mention}
}

func (p *TriggerPolicy) Mode() string {
	return p.mode
}

// Mentions reports whether content addresses the assistant by keyword.
func (p *TriggerPolicy) Mentions(content string) bool {
	return p.mention != nil && p.mention.MatchString(content)
}

// Direct reports whether the message explicitly asks for the assistant.
func (p *TriggerPolicy) Direct(content string, triggerFlag bool) bool {
	if p.mode == constant.TriggerModeObserver {
		return false
	}
	return triggerFlag || p.Mentions(content)
}

// Decide runs the direct check first. The window and recent assistant count
// are only consulted when observer mode is enabled and no direct trigger hit.
func (p *TriggerPolicy) Decide(content string, triggerFlag bool, window []string, recentAIMessages int) Decision {
	if p.Direct(content, triggerFlag) {
		return Decision{Respond: true, Mode: constant.TriggerModeDirect}
	}
	if p.mode == constant.TriggerModeDirect {
		return Decision{}
	}

	s := Analyze(window)
	if ShouldInterject(s, recentAIMessages) {
		return Decision{Respond: true, Mode: constant.TriggerModeObserver, Signals: &s}
	}
	return Decision{Signals: &s}
}

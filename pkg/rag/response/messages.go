package response

import (
	"strings"

	"nexus-chat-be/pkg/rag/prompt"
)

// ApologyMessage replaces a reply the model failed to produce.
const ApologyMessage = "Sorry, I encountered an error processing your request."

// IsSilent reports whether the model chose not to answer.
func IsSilent(output string) bool {
	return strings.TrimSpace(output) == prompt.SilentSentinel
}

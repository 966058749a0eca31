package prompt

import (
	"fmt"
	"strings"

	"nexus-chat-be/internal/constant"
	"nexus-chat-be/pkg/rag/signal"
	"nexus-chat-be/pkg/store"
	"nexus-chat-be/pkg/utils"
)

// NoContextMarker is rendered in place of the document block when retrieval
// returned nothing.
const NoContextMarker = "No relevant context available."

// SilentSentinel is the only output, besides a reply, the model may produce.
const SilentSentinel = "SILENT"

// Input is everything the assembler renders. It holds no clocks or random
// sources, so Build is a pure function of it.
type Input struct {
	Query           string
	UserDisplayName string
	Documents       []store.Document
	History         []store.Turn
	Roster          []string
	ReplyTo         *store.ReplyContext
}

// ContextualBuilder renders a group chat turn into a single generation prompt
type ContextualBuilder struct {
	in Input
}

func NewContextualBuilder(in Input) *ContextualBuilder {
	return &ContextualBuilder{in: in}
}

// Build writes the blocks in a fixed order: identity, participants, document
// context, reply context, chat history, guidelines, current message.
func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeIdentity(&prompt)
	b.writeParticipants(&prompt)
	b.writeDocumentContext(&prompt)
	b.writeReplyContext(&prompt)
	b.writeHistory(&prompt)
	b.writeGuidelines(&prompt)
	b.writeUserMessage(&prompt)

	return prompt.String()
}

// Assemble is a shorthand for NewContextualBuilder(in).Build().
func Assemble(in Input) string {
	return NewContextualBuilder(in).Build()
}

func (b *ContextualBuilder) writeIdentity(prompt *strings.Builder) {
	prompt.WriteString("<identity>\n")
	prompt.WriteString(fmt.Sprintf("You are %s, a participant in a group chat.\n", constant.AssistantSenderName))
	prompt.WriteString("Several people talk in this thread. Address the group naturally and refer to people by the names shown.\n")
	prompt.WriteString("</identity>\n\n")
}

func (b *ContextualBuilder) writeParticipants(prompt *strings.Builder) {
	prompt.WriteString("<participants>\n")
	if len(b.in.Roster) == 0 {
		prompt.WriteString("- " + utils.NormalizeText(b.in.UserDisplayName) + "\n")
	}
	for _, name := range b.in.Roster {
		prompt.WriteString("- " + utils.NormalizeText(name) + "\n")
	}
	prompt.WriteString("</participants>\n\n")
}

func (b *ContextualBuilder) writeDocumentContext(prompt *strings.Builder) {
	prompt.WriteString("<document_context>\n")
	if len(b.in.Documents) == 0 {
		prompt.WriteString(NoContextMarker + "\n")
	}
	for _, doc := range b.in.Documents {
		prompt.WriteString("- " + utils.NormalizeText(doc.Content) + "\n")
	}
	prompt.WriteString("</document_context>\n\n")
}

func (b *ContextualBuilder) writeReplyContext(prompt *strings.Builder) {
	if b.in.ReplyTo == nil {
		return
	}
	prompt.WriteString("<reply_context>\n")
	prompt.WriteString(fmt.Sprintf("The current message replies to %s: %s\n",
		utils.NormalizeText(b.in.ReplyTo.Sender),
		utils.NormalizeText(b.in.ReplyTo.Content),
	))
	prompt.WriteString("</reply_context>\n\n")
}

func (b *ContextualBuilder) writeHistory(prompt *strings.Builder) {
	prompt.WriteString("<chat_history>\n")
	for _, turn := range b.in.History {
		content := utils.NormalizeText(turn.Content)
		label := signal.ClassifyIntent(content)

		role := strings.ToUpper(turn.Role)
		if turn.Role == constant.ChatMessageRoleUser && turn.Sender != "" {
			role = fmt.Sprintf("%s (%s)", role, utils.NormalizeText(turn.Sender))
		}
		prompt.WriteString(fmt.Sprintf("%s: [%s] %s\n", role, label, content))
	}
	prompt.WriteString("</chat_history>\n\n")
}

func (b *ContextualBuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Prefer the information in <document_context> when it is relevant.\n")
	prompt.WriteString("2. When the context does not cover the question, answer from general reasoning instead of refusing.\n")
	prompt.WriteString("3. Match the tone and length of the person asking. Casual questions get short casual answers.\n")
	prompt.WriteString("4. Do not repeat what was already said in the chat history.\n")
	prompt.WriteString(fmt.Sprintf("5. If there is nothing useful to add, output exactly %s and nothing else.\n", SilentSentinel))
	prompt.WriteString("</guidelines>\n\n")
}

func (b *ContextualBuilder) writeUserMessage(prompt *strings.Builder) {
	prompt.WriteString("<user_message>\n")
	prompt.WriteString(fmt.Sprintf("%s: %s\n",
		utils.NormalizeText(b.in.UserDisplayName),
		utils.NormalizeText(b.in.Query),
	))
	prompt.WriteString("</user_message>\n\n")
	prompt.WriteString(fmt.Sprintf("Reply as %s:", constant.AssistantSenderName))
}

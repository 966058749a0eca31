package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	AssistantSenderID   = "nexus-ai"
	AssistantSenderName = "Nexus AI"

	// Content substituted for a message deleted for everyone.
	DeletedMessageTombstone = "This message was deleted"

	DeleteScopeEveryone = "everyone"
	DeleteScopeSelf     = "self"
)

const (
	// All vector records and query embeddings have exactly this many dimensions.
	EmbeddingDimension = 384

	EmbeddingTaskDocument = "RETRIEVAL_DOCUMENT"
	EmbeddingTaskQuery    = "RETRIEVAL_QUERY"
)

const (
	PersonalWorkspaceMarker = "personal"
	PersonalWorkspacePrefix = "personal_"
	PersonalWorkspaceName   = "Personal"

	DefaultThreadID    = "general"
	DefaultThreadTitle = "General"
)

const (
	TriggerModeDirect   = "direct"
	TriggerModeObserver = "observer"
	TriggerModeBoth     = "both"
)

// PersonalWorkspaceID derives the personal workspace id owned by userID.
func PersonalWorkspaceID(userID string) string {
	return PersonalWorkspacePrefix + userID
}

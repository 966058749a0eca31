package model

// PortableModels migrate on both postgres and sqlite.
func PortableModels() []interface{} {
	return []interface{}{
		&UserProfile{},
		&Workspace{},
		&WorkspaceMember{},
		&Thread{},
		&ChatMessage{},
		&MessageHidden{},
	}
}

// PostgresModels need the vector extension.
func PostgresModels() []interface{} {
	return append(PortableModels(), &VectorRecord{})
}

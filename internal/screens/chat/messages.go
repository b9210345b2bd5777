package chat

// replyMsg is sent when a chat or quiz request finishes.
type replyMsg struct {
	Err error
	// Draft is the text that was sent, restored when it was refused.
	Draft string
}

// topicsLoadedMsg carries the user's topics for input suggestions.
type topicsLoadedMsg struct {
	Topics []string
}

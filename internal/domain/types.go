package domain

import "time"

type ThreadID string
type MessageID string
type RunID string
type AgentID string

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Timestamp = time.Time

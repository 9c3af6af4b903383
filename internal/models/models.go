package models

import "time"

// Message senders.
const (
	SenderUser  = "user"
	SenderAgent = "agent"
)

// Message represents a single turn in a conversation. Immutable once created.
type Message struct {
	Content   string    `json:"content"`
	Sender    string    `json:"sender"` // "user" or "agent"
	Timestamp time.Time `json:"timestamp"`
	AgentType string    `json:"agent_type,omitempty"`
}

// NewUserMessage creates a user-authored message stamped with the current time.
func NewUserMessage(content string) Message {
	return Message{
		Content:   content,
		Sender:    SenderUser,
		Timestamp: time.Now().UTC(),
	}
}

// NewAgentMessage creates an agent-authored message attributed to agentType.
func NewAgentMessage(content, agentType string) Message {
	return Message{
		Content:   content,
		Sender:    SenderAgent,
		Timestamp: time.Now().UTC(),
		AgentType: agentType,
	}
}

// ConversationContext holds the durable state of one conversation.
// MessageHistory is append-only; insertion order is chronological order.
type ConversationContext struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	CreatedAt      time.Time `json:"created_at"`
	MessageHistory []Message `json:"message_history"`
}

// NewConversationContext creates a context containing only the given messages.
func NewConversationContext(conversationID, userID string, messages ...Message) *ConversationContext {
	return &ConversationContext{
		ConversationID: conversationID,
		UserID:         userID,
		CreatedAt:      time.Now().UTC(),
		MessageHistory: messages,
	}
}

// AgentDecision is the outcome of one routing call. Never persisted.
// SelectedAgent is always excluded from Alternatives; every name in
// Alternatives scored above 0.1 at decision time.
type AgentDecision struct {
	SelectedAgent string   `json:"selected_agent"`
	Confidence    float64  `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	Alternatives  []string `json:"alternatives"`
}

// AgentResponse is the outcome of one processing call. Never persisted.
type AgentResponse struct {
	Content       string         `json:"content"`
	SourceAgent   string         `json:"source_agent"`
	ExecutionTime float64        `json:"execution_time"` // seconds
	Metadata      map[string]any `json:"metadata"`
	Sources       []string       `json:"sources,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message        string `json:"message"`
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// WorkflowStep is one entry in the agent workflow trace.
type WorkflowStep struct {
	Agent    string `json:"agent"`
	Decision string `json:"decision"`
}

// ChatResponse is the body of a successful POST /chat.
// AgentWorkflow always holds exactly two steps: coordinator, then handler.
type ChatResponse struct {
	Response            string         `json:"response"`
	SourceAgentResponse string         `json:"source_agent_response"`
	AgentWorkflow       []WorkflowStep `json:"agent_workflow"`
}

// ErrorBody is the inner error object of the generic error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// ErrorEnvelope is returned for every non-2xx response. It never carries
// internal detail (stack traces, exception types, matched patterns).
type ErrorEnvelope struct {
	Error     ErrorBody `json:"error"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

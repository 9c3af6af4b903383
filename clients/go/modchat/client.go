// Package modchat provides a client for the modular chatbot HTTP API.
package modchat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a modular chatbot API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
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

// ChatResponse is the body of a successful chat call.
type ChatResponse struct {
	Response            string         `json:"response"`
	SourceAgentResponse string         `json:"source_agent_response"`
	AgentWorkflow       []WorkflowStep `json:"agent_workflow"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
	Version          string `json:"version"`
	AgentsRegistered int    `json:"agents_registered"`
}

// ConversationListResponse is the body of GET /conversations/{userID}.
type ConversationListResponse struct {
	UserID        string   `json:"user_id"`
	Conversations []string `json:"conversations"`
	Count         int      `json:"count"`
}

// apiError mirrors the server's generic error envelope.
type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id"`
}

// Chat sends a message and returns the routed response.
func (c *Client) Chat(message, userID, conversationID string) (*ChatResponse, error) {
	body, err := json.Marshal(ChatRequest{
		Message:        message,
		UserID:         userID,
		ConversationID: conversationID,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health fetches the service health.
func (c *Client) Health() (*HealthResponse, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/health")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListConversations fetches the conversation ids of a user.
func (c *Client) ListConversations(userID string) (*ConversationListResponse, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/conversations/" + userID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var out ConversationListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteConversation removes a conversation.
func (c *Client) DeleteConversation(userID, conversationID string) error {
	req, err := http.NewRequest(http.MethodDelete, c.BaseURL+"/conversations/"+userID+"/"+conversationID, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// decodeError turns a non-2xx response into an error carrying the server's
// safe message.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	var envelope apiError
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		return fmt.Errorf("%s (%d %s)", envelope.Error.Message, resp.StatusCode, envelope.Error.Code)
	}
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}

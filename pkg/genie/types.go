package genie

import (
	"fmt"
	"strings"
)

// MessageStatus is the lifecycle state Genie reports for a message.
type MessageStatus string

const (
	StatusSubmitted          MessageStatus = "SUBMITTED"
	StatusFetchingMetadata   MessageStatus = "FETCHING_METADATA"
	StatusFilteringContext   MessageStatus = "FILTERING_CONTEXT"
	StatusAskingAI           MessageStatus = "ASKING_AI"
	StatusPendingWarehouse   MessageStatus = "PENDING_WAREHOUSE"
	StatusExecutingQuery     MessageStatus = "EXECUTING_QUERY"
	StatusCompleted          MessageStatus = "COMPLETED"
	StatusFailed             MessageStatus = "FAILED"
	StatusCancelled          MessageStatus = "CANCELLED"
	StatusQueryResultExpired MessageStatus = "QUERY_RESULT_EXPIRED"
)

// IsTerminal reports whether polling can stop.
func (s MessageStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusQueryResultExpired:
		return true
	default:
		return false
	}
}

type Message struct {
	ID             string        `json:"id"`
	SpaceID        string        `json:"space_id,omitempty"`
	ConversationID string        `json:"conversation_id,omitempty"`
	Content        string        `json:"content"`
	Status         MessageStatus `json:"status,omitempty"`
	Attachments    []Attachment  `json:"attachments,omitempty"`
	Error          *MessageFault `json:"error,omitempty"`
}

type MessageFault struct {
	Error string `json:"error,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Attachment is one piece of a Genie answer. Genie sets either Text or Query;
// Type is only present on some API versions.
type Attachment struct {
	ID    string           `json:"attachment_id,omitempty"`
	Type  string           `json:"type,omitempty"`
	Text  *TextAttachment  `json:"text,omitempty"`
	Query *QueryAttachment `json:"query,omitempty"`
}

// Kind returns the declared attachment type, inferring it from the populated
// field when the API omits it.
func (a Attachment) Kind() string {
	if t := strings.TrimSpace(a.Type); t != "" {
		return strings.ToLower(t)
	}
	switch {
	case a.Text != nil:
		return "text"
	case a.Query != nil:
		return "query"
	default:
		return ""
	}
}

type TextAttachment struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
}

type QueryAttachment struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Query       string `json:"query,omitempty"`
}

type startConversationRequest struct {
	Content string `json:"content"`
}

type startConversationResponse struct {
	ConversationID string   `json:"conversation_id"`
	MessageID      string   `json:"message_id"`
	Message        *Message `json:"message,omitempty"`
}

// APIError is a non-2xx response from the workspace.
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.ErrorCode != "" {
		return fmt.Sprintf("genie api status=%d code=%s: %s", e.StatusCode, e.ErrorCode, e.Message)
	}
	return fmt.Sprintf("genie api status=%d: %s", e.StatusCode, e.Message)
}

// MessageError is returned when a message reaches a terminal state other than COMPLETED.
type MessageError struct {
	MessageID string
	Status    MessageStatus
	Reason    string
}

func (e *MessageError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("genie message %s ended with status=%s: %s", e.MessageID, e.Status, e.Reason)
	}
	return fmt.Sprintf("genie message %s ended with status=%s", e.MessageID, e.Status)
}

package agent

import (
	"context"
	"encoding/json"
)

// Role is the author of a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one piece of message content: text, a tool request from the
// model or the result of running that tool.
type Block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Message is one entry of the conversation history sent to the model.
type Message struct {
	Role    Role    `json:"role"`
	Content []Block `json:"content"`
}

// ToolSpec describes a tool the model may call.
type ToolSpec struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// Reply is the model's next step.  With no ToolCalls, Text is the
// answer to speak.
type Reply struct {
	Text      string
	ToolCalls []ToolCall
}

// Model produces the next step of a conversation.
type Model interface {
	Next(ctx context.Context, system string, messages []Message, tools []ToolSpec) (Reply, error)
}

func textBlock(text string) Block { return Block{Type: BlockText, Text: text} }

// assistantBlocks rebuilds the content of a reply so the tool requests
// can be echoed back in history ahead of their results.
func assistantBlocks(r Reply) []Block {
	blocks := make([]Block, 0, len(r.ToolCalls)+1)
	if r.Text != "" {
		blocks = append(blocks, textBlock(r.Text))
	}
	for _, tc := range r.ToolCalls {
		input := tc.Input
		if len(input) == 0 {
			input = json.RawMessage("{}")
		}
		blocks = append(blocks, Block{Type: BlockToolUse, ID: tc.ID, Name: tc.Name, Input: input})
	}
	return blocks
}

package llm

import (
	"context"
	"encoding/json"
)

// Model is the port through which the coaching pipeline talks to a
// language model. One call per turn; the provider is treated as an
// opaque, possibly-failing remote collaborator.
type Model interface {
	CreateTurn(ctx context.Context, req TurnRequest) (*Turn, error)
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTool carries the synthetic tool-result turn fed back to the
	// model after it invoked tools.
	RoleTool Role = "tool"
)

type StopReason string

const (
	StopEndTurn StopReason = "end_turn"
	StopToolUse StopReason = "tool_use"
	StopOther   StopReason = "other"
)

type BlockType string

const (
	BlockText    BlockType = "text"
	BlockToolUse BlockType = "tool_use"
	// BlockServerToolUse marks a provider-managed tool (e.g. web
	// search) whose results the provider folds into its own context.
	BlockServerToolUse BlockType = "server_tool_use"
)

// ContentBlock is one unit of a model turn. Text blocks carry Text;
// tool blocks carry ID, Name and raw Input.
type ContentBlock struct {
	Type  BlockType
	Text  string
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall   // assistant turns only
	ToolResults []ToolResult // tool turns only
}

// ToolDef describes one callable tool; Parameters is a JSON Schema
// object.
type ToolDef struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type TurnRequest struct {
	System    string
	Messages  []Message
	Tools     []ToolDef
	MaxTokens int
}

// Turn is one model response: content blocks plus the terminal stop
// reason.
type Turn struct {
	Blocks     []ContentBlock
	StopReason StopReason
}

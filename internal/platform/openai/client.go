// Package openai adapts the official SDK to the coaching pipeline's
// model port.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/quilldesk/quilldesk-backend/internal/coach/llm"
	"github.com/quilldesk/quilldesk-backend/internal/platform/envutil"
	"github.com/quilldesk/quilldesk-backend/internal/platform/logger"
)

type Client struct {
	api       sdk.Client
	model     string
	maxTokens int64
	log       *logger.Logger
}

var _ llm.Model = (*Client)(nil)

func NewClient(baseLog *logger.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if base := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")); base != "" {
		opts = append(opts, option.WithBaseURL(base))
	}
	return &Client{
		api:       sdk.NewClient(opts...),
		model:     envutil.String("OPENAI_MODEL", "gpt-5.2"),
		maxTokens: int64(envutil.Int("OPENAI_MAX_TOKENS", 4096)),
		log:       baseLog.With("component", "OpenAIClient"),
	}, nil
}

// CreateTurn performs one chat-completion call and maps the result
// onto the port's block/stop-reason vocabulary.
func (c *Client) CreateTurn(ctx context.Context, req llm.TurnRequest) (*llm.Turn, error) {
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(c.model),
		Messages: buildMessages(req),
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}
	if maxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(maxTokens)
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty choices")
	}
	choice := resp.Choices[0]

	var blocks []llm.ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, llm.ContentBlock{Type: llm.BlockText, Text: choice.Message.Content})
	}
	for _, tc := range choice.Message.ToolCalls {
		blocks = append(blocks, llm.ContentBlock{
			Type:  llm.BlockToolUse,
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}

	return &llm.Turn{Blocks: blocks, StopReason: mapFinishReason(choice.FinishReason)}, nil
}

func mapFinishReason(reason string) llm.StopReason {
	switch reason {
	case "stop":
		return llm.StopEndTurn
	case "tool_calls":
		return llm.StopToolUse
	default:
		return llm.StopOther
	}
}

func buildMessages(req llm.TurnRequest) []sdk.ChatCompletionMessageParamUnion {
	msgs := make([]sdk.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, sdk.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case llm.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				msgs = append(msgs, sdk.AssistantMessage(m.Text))
				continue
			}
			msgs = append(msgs, assistantWithToolCalls(m))
		case llm.RoleTool:
			for _, res := range m.ToolResults {
				content := res.Content
				if res.IsError {
					// The chat completions API has no error flag on
					// tool results; the model sees it in the content.
					content = "ERROR: " + content
				}
				msgs = append(msgs, sdk.ToolMessage(content, res.CallID))
			}
		default:
			msgs = append(msgs, sdk.UserMessage(m.Text))
		}
	}
	return msgs
}

func assistantWithToolCalls(m llm.Message) sdk.ChatCompletionMessageParamUnion {
	calls := make([]sdk.ChatCompletionMessageToolCallUnionParam, 0, len(m.ToolCalls))
	for _, tc := range m.ToolCalls {
		calls = append(calls, sdk.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &sdk.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: sdk.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(tc.Input),
				},
			},
		})
	}
	assistant := sdk.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if m.Text != "" {
		assistant.Content = sdk.ChatCompletionAssistantMessageParamContentUnion{
			OfString: sdk.String(m.Text),
		}
	}
	return sdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func buildTools(defs []llm.ToolDef) []sdk.ChatCompletionToolUnionParam {
	tools := make([]sdk.ChatCompletionToolUnionParam, 0, len(defs))
	for _, def := range defs {
		tools = append(tools, sdk.ChatCompletionFunctionTool(sdk.FunctionDefinitionParam{
			Name:        def.Name,
			Description: sdk.String(def.Description),
			Parameters:  sdk.FunctionParameters(def.Parameters),
		}))
	}
	return tools
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient implements Client over the Anthropic Messages API.
// Anthropic has no native JSON-schema response format, so structured
// output is obtained by forcing the model to call a single synthetic
// tool whose input schema is req.Schema; the tool call's Input is the
// structured payload.
type anthropicClient struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds a Client backed by the Anthropic Messages API.
func NewAnthropic(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5-20250514"
	}

	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *anthropicClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}

	schemaName := req.SchemaName
	if schemaName == "" {
		schemaName = "structured_response"
	}

	// req.Schema is a full JSON Schema object ({type, properties,
	// required, ...}) produced by GenerateSchema; Anthropic's tool
	// input_schema wants only the properties map at this level, so it
	// is round-tripped through JSON to pull that field out generically
	// regardless of the reflector's concrete struct shape.
	properties, err := schemaProperties(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
		System: []anthropic.TextBlockParam{{Type: "text", Text: req.SystemPrompt}},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        schemaName,
					Description: anthropic.String("Emit the structured response for this request"),
					InputSchema: anthropic.ToolInputSchemaParam{
						Type:       "object",
						Properties: properties,
					},
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceParamOfToolChoiceTool(schemaName),
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic chat: %w", err)
	}

	slog.DebugContext(ctx, "llm chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"stop_reason", resp.StopReason)

	for _, block := range resp.Content {
		if block.Type != "tool_use" {
			continue
		}
		if err := json.Unmarshal(block.Input, result); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		return &Response{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
		}, nil
	}

	return nil, fmt.Errorf("anthropic chat: no tool_use block in response")
}

func (c *anthropicClient) Model() string {
	return c.model
}

func schemaProperties(schema any) (any, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	var parsed map[string]any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling schema: %w", err)
	}
	if props, ok := parsed["properties"]; ok {
		return props, nil
	}
	return parsed, nil
}

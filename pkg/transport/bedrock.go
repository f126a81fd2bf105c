package transport

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/llm-council/council/pkg/registry"
)

func init() {
	Backends.Register("bedrock", NewBedrock)
}

// Bedrock is a direct C1 backend for amazon/*-prefixed models, selected when
// COUNCIL_BEDROCK_DIRECT=1, bypassing OpenRouter and calling AWS Bedrock's
// Converse API directly. Converse gives a uniform request/response shape
// across Claude/Titan/Llama-family Bedrock models, so unlike the teacher's
// InvokeModel-based generator it needs no per-model-family request builder.
type Bedrock struct {
	client *bedrockruntime.Client
}

// NewBedrock builds a Bedrock backend from registry config. Expected key:
// "region" (required). Credentials are resolved via the AWS SDK's default
// chain (env vars, shared config, instance role).
func NewBedrock(cfg registry.Config) (Transport, error) {
	region, err := registry.RequireString(cfg, "region")
	if err != nil {
		return nil, fmt.Errorf("bedrock backend: %w", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock backend: load AWS config: %w", err)
	}

	return &Bedrock{client: bedrockruntime.NewFromConfig(awsCfg)}, nil
}

// Chat implements Transport.
func (b *Bedrock) Chat(ctx context.Context, model string, messages []Message, temperature float32, maxTokens int) (string, error) {
	var system []brtypes.SystemContentBlock
	var convMessages []brtypes.Message

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, &brtypes.SystemContentBlockMemberText{Value: m.Content})
		case RoleUser:
			convMessages = append(convMessages, brtypes.Message{
				Role:    brtypes.ConversationRoleUser,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		case RoleAssistant:
			convMessages = append(convMessages, brtypes.Message{
				Role:    brtypes.ConversationRoleAssistant,
				Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: m.Content}},
			})
		}
	}

	tokens := int32(maxTokens)
	temp := temperature
	out, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  &model,
		System:   system,
		Messages: convMessages,
		InferenceConfig: &brtypes.InferenceConfiguration{
			MaxTokens:   &tokens,
			Temperature: &temp,
		},
	})
	if err != nil {
		return "", NewTransportError("bedrock", model, err)
	}

	text := extractFromConverseOutput(out)
	if text == "" {
		return "", NewTransportError("bedrock", model, ErrEmptyResponse)
	}
	return text, nil
}

// extractFromConverseOutput re-serializes a Converse response into generic
// JSON and runs it through the shared ExtractText pipeline.
func extractFromConverseOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil {
		return ""
	}
	data, err := json.Marshal(out)
	if err != nil {
		return ""
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return ""
	}
	if text := ExtractText(raw); text != "" {
		return text
	}
	// The AWS SDK's union types don't always marshal predictably through
	// encoding/json; fall back to the typed accessor.
	msgOutput, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	var b []byte
	for _, block := range msgOutput.Value.Content {
		if textBlock, ok := block.(*brtypes.ContentBlockMemberText); ok {
			b = append(b, []byte(textBlock.Value)...)
		}
	}
	return filterProviderID(string(b))
}

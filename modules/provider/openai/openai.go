// Package openai implements the provider.openai module: single-turn prompt
// execution against the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/flemzord/toolgate/internal/assist"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/security"
	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// Compile-time interface guards.
var (
	_ assist.PromptExecutor = (*Provider)(nil)
	_ core.Module           = (*Provider)(nil)
	_ core.Configurable     = (*Provider)(nil)
	_ core.Provisioner      = (*Provider)(nil)
	_ core.Validator        = (*Provider)(nil)
)

// Provider executes prompts through the OpenAI API.
type Provider struct {
	config Config
	logger *slog.Logger
	client sdk.Client
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.openai",
		New: func() core.Module { return &Provider{} },
	}
}

// Configure implements core.Configurable.
func (p *Provider) Configure(node *yaml.Node) error {
	if err := node.Decode(&p.config); err != nil {
		return err
	}
	p.config.defaults()
	return nil
}

// Provision implements core.Provisioner.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.config.defaults()
	p.logger = ctx.Logger

	opts := []option.RequestOption{
		option.WithAPIKey(p.config.APIKey),
		option.WithBaseURL(p.config.BaseURL),
		option.WithRequestTimeout(p.config.Timeout),
	}
	if p.config.MaxRetries != nil {
		opts = append(opts, option.WithMaxRetries(*p.config.MaxRetries))
	}
	p.client = sdk.NewClient(opts...)

	if svc, ok := ctx.Service(security.CredentialsService); ok {
		if creds, ok := svc.(*security.CredentialStore); ok && p.config.APIKey != "" {
			creds.Set("provider.openai.api_key", p.config.APIKey)
		}
	}
	ctx.RegisterService(assist.ExecutorService, p)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	if p.config.APIKey == "" {
		return errors.New("provider.openai: api_key is required")
	}
	if p.config.Model == "" {
		return errors.New("provider.openai: model is required")
	}
	return p.config.validate()
}

// Execute implements assist.PromptExecutor. It sends prompt as a single
// user message and returns the first choice, or assist.NoResponse when the
// model produced no text.
func (p *Provider) Execute(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = p.config.Model
	}

	params := sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.UserMessage(prompt),
		},
	}
	if p.config.MaxTokens > 0 {
		params.MaxCompletionTokens = sdk.Int(int64(p.config.MaxTokens))
	}
	if p.config.Temperature != nil {
		params.Temperature = sdk.Float(*p.config.Temperature)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return assist.NoResponse, nil
	}
	p.logger.Debug("prompt executed",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	return resp.Choices[0].Message.Content, nil
}

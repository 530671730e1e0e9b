// Package gemini implements the provider.gemini module: prompt optimization,
// vision code generation and model listing on the Gemini API, plus the
// Figma renderer used by figma_to_code.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flemzord/toolgate/internal/assist"
	"github.com/flemzord/toolgate/internal/core"
	"github.com/flemzord/toolgate/internal/security"
	"google.golang.org/genai"
	"gopkg.in/yaml.v3"
)

func init() {
	core.RegisterModule(&Provider{})
}

// Compile-time interface guards.
var (
	_ assist.Optimizer       = (*Provider)(nil)
	_ assist.VisionGenerator = (*Provider)(nil)
	_ assist.ModelLister     = (*Provider)(nil)
	_ core.Module            = (*Provider)(nil)
	_ core.Configurable      = (*Provider)(nil)
	_ core.Provisioner       = (*Provider)(nil)
	_ core.Validator         = (*Provider)(nil)
)

const optimizerInstruction = `You are an expert Prompt Engineer. Your goal is to rewrite the given user prompt to be:
1. Clear and unambiguous.
2. Concise (remove filler words to save tokens).
3. Structured for an LLM to understand better.
4. Maintain the original intent and requirements.

Output ONLY the optimized prompt. Do not add any conversational text.`

const fallbackInstruction = "You are an expert Prompt Engineer. Rewrite this prompt to be concise and clear. Output ONLY the optimized prompt."

// Provider talks to the Gemini API.
type Provider struct {
	config Config
	logger *slog.Logger
	client *genai.Client
	figma  *assist.FigmaClient

	// httpClient overrides the transport for both Gemini and Figma.
	httpClient *http.Client
}

// ModuleInfo implements core.Module.
func (p *Provider) ModuleInfo() core.ModuleInfo {
	return core.ModuleInfo{
		ID:  "provider.gemini",
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

// Provision implements core.Provisioner. The genai client is created here;
// it does not contact the API.
func (p *Provider) Provision(ctx *core.AppContext) error {
	p.config.defaults()
	p.logger = ctx.Logger

	hc := p.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: p.config.Timeout}
	}

	cc := &genai.ClientConfig{
		APIKey:     p.config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if p.config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.config.BaseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return fmt.Errorf("provider.gemini: creating client: %w", err)
	}
	p.client = client

	p.figma = assist.NewFigmaClient(assist.FigmaConfig{
		BaseURL:    p.config.FigmaBaseURL,
		Token:      p.config.FigmaToken,
		HTTPClient: hc,
	})

	if svc, ok := ctx.Service(security.CredentialsService); ok {
		if creds, ok := svc.(*security.CredentialStore); ok {
			if p.config.APIKey != "" {
				creds.Set("provider.gemini.api_key", p.config.APIKey)
			}
			if p.config.FigmaToken != "" {
				creds.Set("provider.gemini.figma_token", p.config.FigmaToken)
			}
		}
	}
	ctx.RegisterService(assist.OptimizerService, p)
	ctx.RegisterService(assist.VisionService, p)
	ctx.RegisterService(assist.ModelsService, p)
	ctx.RegisterService(assist.FigmaService, p.figma)
	return nil
}

// Validate implements core.Validator.
func (p *Provider) Validate() error {
	return p.config.validate()
}

// DefaultVisionModel returns the configured vision model, possibly empty.
func (p *Provider) DefaultVisionModel() string {
	return p.config.VisionModel
}

// Optimize implements assist.Optimizer. When the primary model fails the
// fallback model is tried once with a shorter instruction.
func (p *Provider) Optimize(ctx context.Context, prompt string) (string, error) {
	out, err := p.generateText(ctx, p.config.Model, optimizerInstruction, prompt)
	if err == nil {
		return out, nil
	}

	fallback := p.config.fallback()
	if fallback == "" || errors.Is(err, context.Canceled) || errors.Is(err, assist.ErrAuth) {
		return "", err
	}
	p.logger.Warn("optimizer model failed, retrying with fallback",
		"model", p.config.Model, "fallback", fallback, "error", err)

	out, ferr := p.generateText(ctx, fallback, fallbackInstruction, prompt)
	if ferr != nil {
		p.logger.Warn("fallback optimizer model failed", "model", fallback, "error", ferr)
		return "", err
	}
	return out, nil
}

func (p *Provider) generateText(ctx context.Context, model, instruction, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(instruction, genai.RoleUser),
	}
	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text("User Prompt: "+prompt), cfg)
	if err != nil {
		return "", mapError(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// GenerateCode implements assist.VisionGenerator.
func (p *Provider) GenerateCode(ctx context.Context, model string, img assist.Image, instruction string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(img.Data, img.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", mapError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return assist.NoResponse, nil
	}
	return text, nil
}

// ListModels implements assist.ModelLister, following every result page.
func (p *Provider) ListModels(ctx context.Context) ([]assist.ModelInfo, error) {
	var out []assist.ModelInfo
	for m, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, mapError(err)
		}
		out = append(out, assist.ModelInfo{Name: m.Name, DisplayName: m.DisplayName})
	}
	return out, nil
}

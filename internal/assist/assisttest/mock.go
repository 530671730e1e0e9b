// Package assisttest provides mocks for the assist interfaces.
package assisttest

import (
	"context"
	"sync"

	"github.com/flemzord/toolgate/internal/assist"
)

// MockExecutor is a configurable assist.PromptExecutor. Without ExecuteFunc
// it answers "echo: <prompt>".
type MockExecutor struct {
	ExecuteFunc func(ctx context.Context, prompt, model string) (string, error)

	mu      sync.Mutex
	Prompts []string
	Models  []string
}

// Execute implements assist.PromptExecutor.
func (m *MockExecutor) Execute(ctx context.Context, prompt, model string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.Models = append(m.Models, model)
	m.mu.Unlock()
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, prompt, model)
	}
	return "echo: " + prompt, nil
}

// MockOptimizer is a configurable assist.Optimizer. Without OptimizeFunc
// it answers "optimized: <prompt>".
type MockOptimizer struct {
	OptimizeFunc func(ctx context.Context, prompt string) (string, error)
}

// Optimize implements assist.Optimizer.
func (m *MockOptimizer) Optimize(ctx context.Context, prompt string) (string, error) {
	if m.OptimizeFunc != nil {
		return m.OptimizeFunc(ctx, prompt)
	}
	return "optimized: " + prompt, nil
}

// MockVision is a configurable assist.VisionGenerator and assist.ModelLister.
type MockVision struct {
	GenerateFunc func(ctx context.Context, model string, img assist.Image, instruction string) (string, error)
	Models       []assist.ModelInfo
	ListErr      error

	mu    sync.Mutex
	Calls []VisionCall
}

// VisionCall records one GenerateCode call.
type VisionCall struct {
	Model       string
	Image       assist.Image
	Instruction string
}

// GenerateCode implements assist.VisionGenerator.
func (m *MockVision) GenerateCode(ctx context.Context, model string, img assist.Image, instruction string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, VisionCall{Model: model, Image: img, Instruction: instruction})
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, model, img, instruction)
	}
	return "<div>" + model + "</div>", nil
}

// ListModels implements assist.ModelLister.
func (m *MockVision) ListModels(context.Context) ([]assist.ModelInfo, error) {
	return m.Models, m.ListErr
}

// MockFigma is a configurable assist.FigmaRenderer.
type MockFigma struct {
	RenderFunc func(ctx context.Context, fileKey, nodeID, token string) (assist.Image, error)
}

// RenderNode returns RenderFunc's result or a one-byte PNG placeholder.
func (m *MockFigma) RenderNode(ctx context.Context, fileKey, nodeID, token string) (assist.Image, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(ctx, fileKey, nodeID, token)
	}
	return assist.Image{Data: []byte{0x89}, MIMEType: "image/png"}, nil
}

// MockBrowser is a configurable assist.ScreenshotCapturer.
type MockBrowser struct {
	CaptureFunc func(ctx context.Context, url string) (assist.Image, error)

	mu   sync.Mutex
	URLs []string
}

// Capture returns CaptureFunc's result or a one-byte PNG placeholder.
func (m *MockBrowser) Capture(ctx context.Context, url string) (assist.Image, error) {
	m.mu.Lock()
	m.URLs = append(m.URLs, url)
	m.mu.Unlock()
	if m.CaptureFunc != nil {
		return m.CaptureFunc(ctx, url)
	}
	return assist.Image{Data: []byte{0x89}, MIMEType: "image/png"}, nil
}

// Compile-time interface guards.
var (
	_ assist.PromptExecutor     = (*MockExecutor)(nil)
	_ assist.Optimizer          = (*MockOptimizer)(nil)
	_ assist.VisionGenerator    = (*MockVision)(nil)
	_ assist.ModelLister        = (*MockVision)(nil)
	_ assist.FigmaRenderer      = (*MockFigma)(nil)
	_ assist.ScreenshotCapturer = (*MockBrowser)(nil)
)

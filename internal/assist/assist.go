// Package assist defines the model-backed helpers the tool server exposes
// next to the approval workflow: prompt execution, prompt optimization,
// vision code generation, model listing and page screenshots. Provider modules implement the
// interfaces and publish them as AppContext services.
package assist

import "context"

// AppContext service names published by provider modules.
const (
	ExecutorService  = "assist.executor"
	OptimizerService = "assist.optimizer"
	VisionService    = "assist.vision"
	ModelsService    = "assist.models"
	FigmaService     = "assist.figma"
	BrowserService   = "assist.browser"
)

// Model defaults.
const (
	DefaultExecutionModel = "gpt-4o"
	DefaultOptimizerModel = "gemini-2.5-flash"
	DefaultFallbackModel  = "gemini-2.0-flash"
	DefaultFramework      = "React + Tailwind"
)

// NoResponse is returned by executors when the model produced no text.
const NoResponse = "No response generated."

// PromptExecutor runs a single-turn prompt against a chat model.
type PromptExecutor interface {
	// Execute sends prompt to model. An empty model selects the
	// provider default.
	Execute(ctx context.Context, prompt, model string) (string, error)
}

// Optimizer rewrites a prompt to be clearer and shorter.
type Optimizer interface {
	Optimize(ctx context.Context, prompt string) (string, error)
}

// VisionGenerator turns a UI image into source code.
type VisionGenerator interface {
	GenerateCode(ctx context.Context, model string, img Image, instruction string) (string, error)
}

// ModelLister enumerates the models a provider offers.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// FigmaRenderer renders a Figma node to an image.
type FigmaRenderer interface {
	// RenderNode renders nodeID of fileKey. An empty token selects the
	// configured default.
	RenderNode(ctx context.Context, fileKey, nodeID, token string) (Image, error)
}

// ScreenshotCapturer renders a web page to an image.
type ScreenshotCapturer interface {
	Capture(ctx context.Context, url string) (Image, error)
}

// Image is an in-memory image handed to a vision model.
type Image struct {
	Data     []byte
	MIMEType string
}

// ModelInfo describes one available model.
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

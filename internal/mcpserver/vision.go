package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/flemzord/toolgate/internal/assist"
)

// Vision tool names.
const (
	ToolSetVisionModel   = "set_vision_model"
	ToolListVisionModels = "list_vision_models"
	ToolImageToCode      = "image_to_code"
	ToolFigmaToCode      = "figma_to_code"
	ToolScreenshotToCode = "screenshot_to_code"
)

func (s *Server) visionTools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool(ToolSetVisionModel,
				mcp.WithDescription("Sets the model to be used for vision (image-to-code) tasks."),
				mcp.WithString("model_name", mcp.Required(), mcp.Description("The name of the vision model to use (e.g., 'gemini-2.0-flash')")),
			),
			Handler: s.handleSetVisionModel,
		},
		{
			Tool: mcp.NewTool(ToolListVisionModels,
				mcp.WithDescription("Lists available models that can be used for vision (image-to-code) tasks."),
				mcp.WithReadOnlyHintAnnotation(true),
			),
			Handler: s.handleListVisionModels,
		},
		{
			Tool: mcp.NewTool(ToolImageToCode,
				mcp.WithDescription("Converts a local image file to code."),
				mcp.WithString("image_path", mcp.Required(), mcp.Description("Absolute path to the image file")),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleImageToCode,
		},
		{
			Tool: mcp.NewTool(ToolFigmaToCode,
				mcp.WithDescription("Converts a Figma design node to code. Requires a Personal Access Token."),
				mcp.WithString("file_key", mcp.Required(), mcp.Description("The Figma file key")),
				mcp.WithString("node_id", mcp.Required(), mcp.Description("The Figma node ID (e.g., '1:2')")),
				mcp.WithString("access_token", mcp.Description("Your Figma Personal Access Token; the configured token is used when omitted")),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleFigmaToCode,
		},
		{
			Tool: mcp.NewTool(ToolScreenshotToCode,
				mcp.WithDescription("Takes a screenshot of a URL and converts it to code."),
				mcp.WithString("url", mcp.Required(), mcp.Description("The URL to capture and convert")),
				mcp.WithOpenWorldHintAnnotation(true),
			),
			Handler: s.handleScreenshotToCode,
		},
	}
}

func (s *Server) handleSetVisionModel(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, err := req.RequireString("model_name")
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	if err := s.state.Set(model); err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	selected, _ := s.state.Model()
	s.logger.Info("vision model selected", "model", selected)
	return mcp.NewToolResultText("Vision model set to: " + selected), nil
}

func (s *Server) handleListVisionModels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.models == nil {
		return mcp.NewToolResultError("Error listing models: " + assist.ErrNotConfigured.Error()), nil
	}
	models, err := s.models.ListModels(ctx)
	if err != nil {
		return mcp.NewToolResultError("Error listing models: " + err.Error()), nil
	}
	return mcp.NewToolResultText(assist.FormatModels(models)), nil
}

func (s *Server) handleImageToCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, errResult := s.visionModel()
	if errResult != nil {
		return errResult, nil
	}
	path, err := req.RequireString("image_path")
	if err != nil {
		return mcp.NewToolResultError("Error converting image to code: " + err.Error()), nil
	}
	img, err := assist.LoadImage(path)
	if err != nil {
		return mcp.NewToolResultError("Error converting image to code: " + err.Error()), nil
	}
	code, err := s.generate(ctx, model, img, assist.ImageToCodeInstruction(s.framework))
	if err != nil {
		return mcp.NewToolResultError("Error converting image to code: " + err.Error()), nil
	}
	return mcp.NewToolResultText(code), nil
}

func (s *Server) handleFigmaToCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, errResult := s.visionModel()
	if errResult != nil {
		return errResult, nil
	}
	fileKey, err := req.RequireString("file_key")
	if err != nil {
		return mcp.NewToolResultError("Error converting Figma to code: " + err.Error()), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("Error converting Figma to code: " + err.Error()), nil
	}
	if s.figma == nil {
		return mcp.NewToolResultError("Error converting Figma to code: " + assist.ErrNotConfigured.Error()), nil
	}

	img, err := s.figma.RenderNode(ctx, fileKey, nodeID, req.GetString("access_token", ""))
	if err != nil {
		return mcp.NewToolResultError("Error converting Figma to code: " + err.Error()), nil
	}
	code, err := s.generate(ctx, model, img, assist.FigmaToCodeInstruction(s.framework))
	if err != nil {
		return mcp.NewToolResultError("Error converting Figma to code: " + err.Error()), nil
	}
	return mcp.NewToolResultText(code), nil
}

func (s *Server) handleScreenshotToCode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model, errResult := s.visionModel()
	if errResult != nil {
		return errResult, nil
	}
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("Error converting screenshot to code: " + err.Error()), nil
	}
	if s.browser == nil {
		return mcp.NewToolResultError("Error converting screenshot to code: " + assist.ErrNotConfigured.Error()), nil
	}

	img, err := s.browser.Capture(ctx, url)
	if err != nil {
		return mcp.NewToolResultError("Error converting screenshot to code: " + err.Error()), nil
	}
	code, err := s.generate(ctx, model, img, assist.ImageToCodeInstruction(s.framework))
	if err != nil {
		return mcp.NewToolResultError("Error converting screenshot to code: " + err.Error()), nil
	}
	return mcp.NewToolResultText(code), nil
}

// visionModel returns the selected model, or the canonical reply asking the
// caller to pick one.
func (s *Server) visionModel() (string, *mcp.CallToolResult) {
	model, err := s.state.Model()
	if errors.Is(err, assist.ErrVisionModelNotSet) {
		return "", mcp.NewToolResultError(assist.VisionModelNotSetText)
	}
	if err != nil {
		return "", mcp.NewToolResultError("Error: " + err.Error())
	}
	return model, nil
}

func (s *Server) generate(ctx context.Context, model string, img assist.Image, instruction string) (string, error) {
	if s.vision == nil {
		return "", assist.ErrNotConfigured
	}
	return s.vision.GenerateCode(ctx, model, img, instruction)
}

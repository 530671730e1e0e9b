package assist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/flemzord/toolgate/internal/security"
)

// MaxImageSize bounds images read from disk or downloaded.
const MaxImageSize = 20 << 20

// VisionModelNotSetText is the tool reply when no vision model was chosen.
const VisionModelNotSetText = "Error: Vision model not set. Please call 'list_vision_models' to see available models, then 'set_vision_model' to choose one for image-to-code tasks."

// VisionState holds the vision model chosen for this server. It starts
// unset.
type VisionState struct {
	mu    sync.RWMutex
	model string
}

// NewVisionState returns a state preset to model, which may be empty.
func NewVisionState(model string) *VisionState {
	return &VisionState{model: strings.TrimSpace(model)}
}

// Set selects the vision model.
func (s *VisionState) Set(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return errors.New("model name must not be empty")
	}
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
	return nil
}

// Model returns the selected model or ErrVisionModelNotSet.
func (s *VisionState) Model() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == "" {
		return "", ErrVisionModelNotSet
	}
	return s.model, nil
}

// LoadImage reads an image file, sniffing its MIME type from the content.
// Paths under /proc, /sys and /dev are refused.
func LoadImage(path string) (Image, error) {
	if err := security.CheckReadPath(path); err != nil {
		return Image{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Image{}, err
	}
	defer func() { _ = f.Close() }()
	return readImage(f)
}

func readImage(r io.Reader) (Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return Image{}, err
	}
	if len(data) > MaxImageSize {
		return Image{}, fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return Image{Data: data, MIMEType: mime}, nil
}

// ImageToCodeInstruction is the prompt sent with a UI screenshot.
func ImageToCodeInstruction(framework string) string {
	if framework == "" {
		framework = DefaultFramework
	}
	return "Convert this UI screenshot into clean, production-ready " + framework + " code. Ensure that you create a modern premium look."
}

// NewImage wraps raw image bytes, sniffing the MIME type.
func NewImage(data []byte) (Image, error) {
	return readImage(bytes.NewReader(data))
}

// FigmaToCodeInstruction is the prompt sent with a rendered Figma node.
func FigmaToCodeInstruction(framework string) string {
	if framework == "" {
		framework = DefaultFramework
	}
	return "Convert this Figma design into clean, pixel-perfect " + framework + " code. Ensure that you create a modern premium look."
}

// FormatModels renders a model listing for the operator.
func FormatModels(models []ModelInfo) string {
	if len(models) == 0 {
		return "No models found."
	}
	var b strings.Builder
	b.WriteString("Available models:")
	for _, m := range models {
		b.WriteString("\n- ")
		b.WriteString(m.Name)
		if m.DisplayName != "" {
			b.WriteString(" (" + m.DisplayName + ")")
		}
	}
	return b.String()
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Model identifies one of the generation model families the studio can target.
type Model string

const (
	ModelGeminiPro       Model = "gemini-3-pro-preview"
	ModelGeminiFlash     Model = "gemini-3-flash-preview"
	ModelGeminiFlashLite Model = "gemini-flash-lite-latest"
	ModelGeminiImage     Model = "gemini-2.5-flash-image"
	ModelGeminiImagePro  Model = "gemini-3-pro-image-preview"
	ModelGeminiLive      Model = "gemini-2.5-flash-native-audio-preview-09-2025"
	ModelVeoVideo        Model = "veo-3.1-fast-generate-preview"
)

// KnownModels lists every model identifier the studio accepts, in menu order.
var KnownModels = []Model{
	ModelGeminiPro,
	ModelGeminiFlash,
	ModelGeminiFlashLite,
	ModelGeminiImage,
	ModelGeminiImagePro,
	ModelGeminiLive,
	ModelVeoVideo,
}

// IsKnown reports whether m is part of the fixed model enumeration.
func (m Model) IsKnown() bool {
	for _, known := range KnownModels {
		if m == known {
			return true
		}
	}
	return false
}

// AspectRatios enumerates the aspect ratios offered for image models.
var AspectRatios = []string{"1:1", "4:3", "3:4", "16:9", "9:16"}

const (
	CategoryHateSpeech       = "HATE_SPEECH"
	CategoryHarassment       = "HARASSMENT"
	CategorySexuallyExplicit = "SEXUALLY_EXPLICIT"
	CategoryDangerousContent = "DANGEROUS_CONTENT"
)

const (
	ThresholdBlockNone           = "BLOCK_NONE"
	ThresholdBlockOnlyHigh       = "BLOCK_ONLY_HIGH"
	ThresholdBlockMediumAndAbove = "BLOCK_MEDIUM_AND_ABOVE"
	ThresholdBlockLowAndAbove    = "BLOCK_LOW_AND_ABOVE"
)

// SafetyCategories lists all hazard categories, in the order they are sent.
var SafetyCategories = []string{
	CategoryHateSpeech,
	CategoryHarassment,
	CategorySexuallyExplicit,
	CategoryDangerousContent,
}

// SafetySetting pairs one hazard category with a blocking threshold.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// GenerationConfig holds the per-session knobs that shape outgoing requests.
type GenerationConfig struct {
	Temperature     float64         `json:"temperature"`
	TopP            float64         `json:"topP"`
	TopK            int32           `json:"topK"`
	MaxOutputTokens int32           `json:"maxOutputTokens"`
	StopSequences   []string        `json:"stopSequences,omitempty"`
	Model           Model           `json:"model"`
	Grounding       bool            `json:"grounding"`
	AspectRatio     string          `json:"aspectRatio,omitempty"`
	SafetySettings  []SafetySetting `json:"safetySettings,omitempty"`
}

const (
	DefaultTitle             = "New Prompt"
	DefaultSystemInstruction = "You are a helpful and expert AI assistant. Provide concise, accurate, and professional responses."
)

// DefaultGenerationConfig returns the configuration new sessions start with:
// all four safety categories at a medium blocking threshold.
func DefaultGenerationConfig(model Model) GenerationConfig {
	if !model.IsKnown() {
		model = ModelGeminiFlash
	}
	safety := make([]SafetySetting, 0, len(SafetyCategories))
	for _, cat := range SafetyCategories {
		safety = append(safety, SafetySetting{Category: cat, Threshold: ThresholdBlockMediumAndAbove})
	}
	return GenerationConfig{
		Temperature:     0.7,
		TopP:            0.9,
		TopK:            40,
		MaxOutputTokens: 2048,
		Model:           model,
		Grounding:       false,
		AspectRatio:     "1:1",
		SafetySettings:  safety,
	}
}

// ChatSession is one independent conversation thread with its own
// configuration, variables and history. Owned by the session store.
type ChatSession struct {
	ID                string            `json:"id"`
	Title             string            `json:"title"`
	Messages          []*ChatMessage    `json:"messages"`
	SystemInstruction string            `json:"systemInstruction"`
	Variables         map[string]string `json:"variables,omitempty"`
	Config            GenerationConfig  `json:"config"`
	LastModified      time.Time         `json:"lastModified"`
}

// Clone returns a copy that is safe to read while the original keeps
// mutating. Message pointers are shared: messages are append-only and never
// edited in place, so copying the slice header is enough.
func (s *ChatSession) Clone() *ChatSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]*ChatMessage, len(s.Messages))
	copy(out.Messages, s.Messages)
	out.Variables = make(map[string]string, len(s.Variables))
	for k, v := range s.Variables {
		out.Variables[k] = v
	}
	out.Config.StopSequences = append([]string(nil), s.Config.StopSequences...)
	out.Config.SafetySettings = append([]SafetySetting(nil), s.Config.SafetySettings...)
	return &out
}

// NewChatSession builds a fresh session with the default configuration.
func NewChatSession(title string, model Model) *ChatSession {
	if title == "" {
		title = DefaultTitle
	}
	return &ChatSession{
		ID:                uuid.NewString(),
		Title:             title,
		Messages:          make([]*ChatMessage, 0),
		SystemInstruction: DefaultSystemInstruction,
		Variables:         make(map[string]string),
		Config:            DefaultGenerationConfig(model),
		LastModified:      time.Now().UTC(),
	}
}

package ai

import (
	"errors"
	"fmt"
	"strings"

	"promptstudio/internal/models"
)

// ErrUnknownModel is returned when a request targets a model outside the
// fixed enumeration.
var ErrUnknownModel = errors.New("unknown model")

// CapabilitySet records which optional request features a model accepts.
// It is the single source of truth consulted everywhere a request is built.
type CapabilitySet struct {
	AcceptsSystemInstruction bool
	AcceptsSafetySettings    bool
	AcceptsSamplingParams    bool
	AcceptsThinkingBudget    bool
	AcceptsSearchGrounding   bool
	IsImageOutput            bool
	IsVideoOutput            bool
	IsLiveAudio              bool
}

// searchModels is the allow-list of models that accept the search tool.
var searchModels = map[models.Model]struct{}{
	models.ModelGeminiPro:      {},
	models.ModelGeminiFlash:    {},
	models.ModelGeminiImagePro: {},
}

// CapabilitiesOf classifies a model identifier. It fails for identifiers
// outside the known enumeration instead of guessing defaults.
func CapabilitiesOf(model models.Model) (CapabilitySet, error) {
	if !model.IsKnown() {
		return CapabilitySet{}, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}

	id := string(model)
	_, searchable := searchModels[model]

	caps := CapabilitySet{
		IsImageOutput:          strings.Contains(id, "image"),
		IsVideoOutput:          strings.HasPrefix(id, "veo"),
		IsLiveAudio:            strings.Contains(id, "native-audio"),
		AcceptsSearchGrounding: searchable,
	}

	// Thinking budgets apply to the 3.x / 2.5 text generations only.
	caps.AcceptsThinkingBudget = (strings.HasPrefix(id, "gemini-3") || strings.HasPrefix(id, "gemini-2.5")) &&
		!caps.IsImageOutput && !caps.IsLiveAudio

	// Image models take an aspect-ratio option instead of the text knobs.
	if !caps.IsImageOutput && !caps.IsVideoOutput {
		caps.AcceptsSystemInstruction = true
		caps.AcceptsSafetySettings = true
		caps.AcceptsSamplingParams = true
	}
	return caps, nil
}

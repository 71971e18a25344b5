package ai

import (
	"encoding/base64"
	"strings"

	"promptstudio/internal/models"
	"promptstudio/internal/prompt"

	"google.golang.org/genai"
)

// NormalizedRequest is a generation request shaped for its target model:
// no field it carries is disallowed for that model.
type NormalizedRequest struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// VideoRequest is the minimal payload for the asynchronous video protocol.
type VideoRequest struct {
	Model  string
	Prompt string
	Config *genai.GenerateVideosConfig
}

const (
	// thinkingDivisor splits maxOutputTokens between reasoning and output.
	thinkingDivisor = 2
	// thinkingReserve keeps the budget strictly below maxOutputTokens.
	thinkingReserve = 100
	// thinkingFloor: budgets at or below this are omitted rather than sent.
	thinkingFloor = 10
)

var safetyCategoryNames = map[string]genai.HarmCategory{
	models.CategoryHateSpeech:       genai.HarmCategoryHateSpeech,
	models.CategoryHarassment:       genai.HarmCategoryHarassment,
	models.CategorySexuallyExplicit: genai.HarmCategorySexuallyExplicit,
	models.CategoryDangerousContent: genai.HarmCategoryDangerousContent,
}

var safetyThresholdNames = map[string]genai.HarmBlockThreshold{
	models.ThresholdBlockNone:           genai.HarmBlockThresholdBlockNone,
	models.ThresholdBlockOnlyHigh:       genai.HarmBlockThresholdBlockOnlyHigh,
	models.ThresholdBlockMediumAndAbove: genai.HarmBlockThresholdBlockMediumAndAbove,
	models.ThresholdBlockLowAndAbove:    genai.HarmBlockThresholdBlockLowAndAbove,
}

// BuildRequest maps a session plus the about-to-be-sent user parts into a
// well-formed request for the session's model. It is pure: no network I/O.
// Variable substitution applies to the system instruction and to user-authored
// text only; prior model output is never rewritten.
func BuildRequest(session *models.ChatSession, pendingParts []models.Part) (*NormalizedRequest, error) {
	cfg := session.Config
	caps, err := CapabilitiesOf(cfg.Model)
	if err != nil {
		return nil, err
	}

	systemInstruction := prompt.Resolve(session.SystemInstruction, session.Variables)

	contents := historyContents(session, pendingParts)

	out := &genai.GenerateContentConfig{}

	if caps.AcceptsSamplingParams {
		out.Temperature = genai.Ptr(float32(cfg.Temperature))
		out.TopP = genai.Ptr(float32(cfg.TopP))
		if cfg.TopK > 0 {
			out.TopK = genai.Ptr(float32(cfg.TopK))
		}
		if stops := trimStopSequences(cfg.StopSequences); len(stops) > 0 {
			out.StopSequences = stops
		}
	}
	if caps.AcceptsSystemInstruction && systemInstruction != "" {
		out.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}}
	}
	if caps.AcceptsSafetySettings {
		out.SafetySettings = safetySettings(cfg.SafetySettings)
	}
	if cfg.MaxOutputTokens > 0 {
		out.MaxOutputTokens = cfg.MaxOutputTokens
		if caps.AcceptsThinkingBudget {
			if budget := thinkingBudget(cfg.MaxOutputTokens); budget > thinkingFloor {
				out.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(budget)}
			}
		}
	}
	// Grounding is dropped, not errored, when the model does not allow it.
	if cfg.Grounding && caps.AcceptsSearchGrounding {
		out.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	if caps.IsImageOutput {
		ratio := cfg.AspectRatio
		if ratio == "" {
			ratio = "1:1"
		}
		out.ImageConfig = &genai.ImageConfig{AspectRatio: ratio}
	}

	return &NormalizedRequest{
		Model:    string(cfg.Model),
		Contents: contents,
		Config:   out,
	}, nil
}

// BuildVideoRequest produces the prompt-only request for the video job
// protocol, with fixed output defaults.
func BuildVideoRequest(session *models.ChatSession, promptText string) (*VideoRequest, error) {
	caps, err := CapabilitiesOf(session.Config.Model)
	if err != nil {
		return nil, err
	}
	if !caps.IsVideoOutput {
		return nil, ErrNotVideoModel
	}
	return &VideoRequest{
		Model:  string(session.Config.Model),
		Prompt: prompt.Resolve(promptText, session.Variables),
		Config: &genai.GenerateVideosConfig{
			NumberOfVideos: 1,
			Resolution:     "720p",
			AspectRatio:    "16:9",
		},
	}, nil
}

// historyContents maps the session history plus the pending user message into
// the outgoing content list, dropping messages left without usable parts.
func historyContents(session *models.ChatSession, pendingParts []models.Part) []*genai.Content {
	history := make([]*models.ChatMessage, 0, len(session.Messages)+1)
	history = append(history, session.Messages...)
	if len(pendingParts) > 0 {
		history = append(history, &models.ChatMessage{Role: models.RoleUser, Parts: pendingParts})
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		if msg == nil || (msg.Role != models.RoleUser && msg.Role != models.RoleModel) {
			continue
		}
		parts := make([]*genai.Part, 0, len(msg.Parts))
		for _, p := range msg.Parts {
			switch {
			case p.InlineData != nil:
				raw, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
				if err != nil || len(raw) == 0 {
					continue
				}
				parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: raw, MIMEType: p.InlineData.MimeType}})
			case p.Text != "":
				text := p.Text
				if msg.Role == models.RoleUser {
					text = prompt.Resolve(text, session.Variables)
				}
				parts = append(parts, &genai.Part{Text: text})
			}
		}
		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: string(msg.Role), Parts: parts})
	}
	return contents
}

func trimStopSequences(stops []string) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func safetySettings(settings []models.SafetySetting) []*genai.SafetySetting {
	out := make([]*genai.SafetySetting, 0, len(settings))
	for _, s := range settings {
		category, ok := safetyCategoryNames[s.Category]
		if !ok {
			continue
		}
		threshold, ok := safetyThresholdNames[s.Threshold]
		if !ok {
			continue
		}
		out = append(out, &genai.SafetySetting{Category: category, Threshold: threshold})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func thinkingBudget(maxOutputTokens int32) int32 {
	budget := maxOutputTokens / thinkingDivisor
	if limit := maxOutputTokens - thinkingReserve; budget > limit {
		budget = limit
	}
	if budget < 0 {
		budget = 0
	}
	return budget
}

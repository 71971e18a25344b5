package ai

import (
	"encoding/base64"
	"errors"
	"testing"

	"promptstudio/internal/models"
)

func testSession(model models.Model) *models.ChatSession {
	s := models.NewChatSession("", model)
	s.Config.Model = model
	return s
}

func TestBuildRequestUnknownModel(t *testing.T) {
	s := testSession(models.ModelGeminiFlash)
	s.Config.Model = "mystery-model"
	if _, err := BuildRequest(s, []models.Part{models.TextPart("hi")}); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestBuildRequestTextModel(t *testing.T) {
	s := testSession(models.ModelGeminiPro)
	s.SystemInstruction = "You help {{name}}."
	s.Variables = map[string]string{"name": "Ada"}
	s.Config.StopSequences = []string{"  END  ", "", "STOP"}
	s.Config.Grounding = true

	req, err := BuildRequest(s, []models.Part{models.TextPart("hello {{name}}")})
	if err != nil {
		t.Fatal(err)
	}
	cfg := req.Config
	if cfg.Temperature == nil || *cfg.Temperature != 0.7 {
		t.Fatalf("temperature not carried: %+v", cfg.Temperature)
	}
	if cfg.TopP == nil || cfg.TopK == nil {
		t.Fatalf("sampling params missing")
	}
	if cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != "You help Ada." {
		t.Fatalf("system instruction not resolved: %+v", cfg.SystemInstruction)
	}
	if len(cfg.SafetySettings) != 4 {
		t.Fatalf("expected 4 safety settings, got %d", len(cfg.SafetySettings))
	}
	if len(cfg.StopSequences) != 2 || cfg.StopSequences[0] != "END" || cfg.StopSequences[1] != "STOP" {
		t.Fatalf("stop sequences not trimmed: %v", cfg.StopSequences)
	}
	if len(cfg.Tools) != 1 || cfg.Tools[0].GoogleSearch == nil {
		t.Fatalf("expected search tool: %+v", cfg.Tools)
	}
	if cfg.ImageConfig != nil {
		t.Fatalf("text model must not carry image config")
	}
	if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "hello Ada" {
		t.Fatalf("pending user text not substituted: %+v", req.Contents)
	}
}

func TestBuildRequestImageModelStripsTextKnobs(t *testing.T) {
	s := testSession(models.ModelGeminiImage)
	s.Config.StopSequences = []string{"END"}
	s.Config.Grounding = true
	s.Config.AspectRatio = "16:9"

	req, err := BuildRequest(s, []models.Part{models.TextPart("a red fox")})
	if err != nil {
		t.Fatal(err)
	}
	cfg := req.Config
	if cfg.SystemInstruction != nil || cfg.Temperature != nil || cfg.TopP != nil || cfg.TopK != nil {
		t.Fatalf("image model request carries forbidden fields: %+v", cfg)
	}
	if cfg.SafetySettings != nil {
		t.Fatalf("image model request carries safety settings")
	}
	if cfg.StopSequences != nil {
		t.Fatalf("image model request carries stop sequences")
	}
	// Base image tier is not on the search allow-list: flag dropped, not errored.
	if cfg.Tools != nil {
		t.Fatalf("base image tier must not carry the search tool")
	}
	if cfg.ImageConfig == nil || cfg.ImageConfig.AspectRatio != "16:9" {
		t.Fatalf("aspect ratio not carried: %+v", cfg.ImageConfig)
	}
	if cfg.ThinkingConfig != nil {
		t.Fatalf("image model must not carry a thinking budget")
	}
}

func TestBuildRequestImageProKeepsSearch(t *testing.T) {
	s := testSession(models.ModelGeminiImagePro)
	s.Config.Grounding = true
	req, err := BuildRequest(s, []models.Part{models.TextPart("a city at night")})
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Config.Tools) != 1 || req.Config.Tools[0].GoogleSearch == nil {
		t.Fatalf("pro image tier should keep the search tool")
	}
}

func TestBuildRequestGroundingDroppedForUnsupportedModel(t *testing.T) {
	s := testSession(models.ModelGeminiFlashLite)
	s.Config.Grounding = true
	req, err := BuildRequest(s, []models.Part{models.TextPart("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if req.Config.Tools != nil {
		t.Fatalf("grounding must be dropped for models outside the allow-list")
	}
}

func TestBuildRequestThinkingBudget(t *testing.T) {
	cases := []struct {
		maxTokens int32
		want      int32 // 0 means the thinking config must be omitted
	}{
		{1000, 500},
		{4000, 2000},
		{150, 50},
		{120, 20},
		{110, 0},
		{60, 0},
	}
	for _, tc := range cases {
		s := testSession(models.ModelGeminiFlash)
		s.Config.MaxOutputTokens = tc.maxTokens
		req, err := BuildRequest(s, []models.Part{models.TextPart("hi")})
		if err != nil {
			t.Fatal(err)
		}
		cfg := req.Config
		if cfg.MaxOutputTokens != tc.maxTokens {
			t.Fatalf("maxOutputTokens not carried: %d", cfg.MaxOutputTokens)
		}
		if tc.want == 0 {
			if cfg.ThinkingConfig != nil {
				t.Fatalf("max=%d: expected no thinking config, got %+v", tc.maxTokens, cfg.ThinkingConfig)
			}
			continue
		}
		if cfg.ThinkingConfig == nil || cfg.ThinkingConfig.ThinkingBudget == nil {
			t.Fatalf("max=%d: expected a thinking budget", tc.maxTokens)
		}
		budget := *cfg.ThinkingConfig.ThinkingBudget
		if budget != tc.want {
			t.Fatalf("max=%d: budget = %d, want %d", tc.maxTokens, budget, tc.want)
		}
		if budget <= 0 || budget > tc.maxTokens-100 {
			t.Fatalf("max=%d: budget %d outside (0, max-100]", tc.maxTokens, budget)
		}
	}
}

func TestBuildRequestSubstitutesUserTextOnly(t *testing.T) {
	s := testSession(models.ModelGeminiFlash)
	s.Variables = map[string]string{"x": "resolved"}
	s.Messages = []*models.ChatMessage{
		models.NewChatMessage(models.RoleUser, []models.Part{models.TextPart("ask {{x}}")}),
		models.NewChatMessage(models.RoleModel, []models.Part{models.TextPart("reply {{x}}")}),
	}
	req, err := BuildRequest(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(req.Contents))
	}
	if req.Contents[0].Parts[0].Text != "ask resolved" {
		t.Fatalf("user text not substituted: %q", req.Contents[0].Parts[0].Text)
	}
	if req.Contents[1].Parts[0].Text != "reply {{x}}" {
		t.Fatalf("model text must pass through unchanged: %q", req.Contents[1].Parts[0].Text)
	}
}

func TestBuildRequestDropsEmptyMessages(t *testing.T) {
	s := testSession(models.ModelGeminiFlash)
	s.Messages = []*models.ChatMessage{
		models.NewChatMessage(models.RoleUser, []models.Part{{}}),
		models.NewChatMessage(models.RoleUser, []models.Part{models.DataPart("!!!not-base64!!!", "image/png")}),
		models.NewChatMessage(models.RoleUser, []models.Part{models.TextPart("kept")}),
	}
	req, err := BuildRequest(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Contents) != 1 || req.Contents[0].Parts[0].Text != "kept" {
		t.Fatalf("empty messages not dropped: %+v", req.Contents)
	}
}

func TestBuildRequestInlineData(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("pixels"))
	s := testSession(models.ModelGeminiFlash)
	req, err := BuildRequest(s, []models.Part{models.DataPart(payload, "image/png")})
	if err != nil {
		t.Fatal(err)
	}
	part := req.Contents[0].Parts[0]
	if part.InlineData == nil || string(part.InlineData.Data) != "pixels" || part.InlineData.MIMEType != "image/png" {
		t.Fatalf("inline data not decoded: %+v", part)
	}
}

func TestBuildVideoRequest(t *testing.T) {
	s := testSession(models.ModelVeoVideo)
	s.Variables = map[string]string{"subject": "a comet"}
	req, err := BuildVideoRequest(s, "film {{subject}}")
	if err != nil {
		t.Fatal(err)
	}
	if req.Prompt != "film a comet" {
		t.Fatalf("prompt not resolved: %q", req.Prompt)
	}
	if req.Config.NumberOfVideos != 1 || req.Config.Resolution != "720p" || req.Config.AspectRatio != "16:9" {
		t.Fatalf("video defaults wrong: %+v", req.Config)
	}

	if _, err := BuildVideoRequest(testSession(models.ModelGeminiFlash), "hi"); !errors.Is(err, ErrNotVideoModel) {
		t.Fatalf("expected ErrNotVideoModel, got %v", err)
	}
}

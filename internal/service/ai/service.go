package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptstudio/internal/models"

	"google.golang.org/genai"
)

var (
	// ErrNotVideoModel marks a video operation against a non-video model.
	ErrNotVideoModel = errors.New("model does not generate video")
	// ErrVideoModel marks a chat send against the video model, which follows
	// the asynchronous job protocol instead.
	ErrVideoModel = errors.New("video models use the video generation flow, not chat")
	// ErrLiveAudioModel marks a chat send against the live-audio model, which
	// only supports real-time audio sessions.
	ErrLiveAudioModel = errors.New("live audio models are not available through the chat flow")
)

const (
	defaultVideoPollInterval = 10 * time.Second
	defaultVideoMaxPolls     = 30
)

// Service issues generation calls against the remote backend using requests
// shaped by the capability table.
type Service struct {
	client       *genai.Client
	pollInterval time.Duration
	maxPolls     uint

	// Video job calls sit behind function fields so the poll policy is
	// testable without a live client.
	startVideo func(ctx context.Context, req *VideoRequest) (*genai.GenerateVideosOperation, error)
	pollVideo  func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

// NewService builds the generation service from an API key.
func NewService(ctx context.Context, apiKey string) (*Service, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	s := &Service{
		client:       client,
		pollInterval: defaultVideoPollInterval,
		maxPolls:     defaultVideoMaxPolls,
	}
	s.startVideo = func(ctx context.Context, req *VideoRequest) (*genai.GenerateVideosOperation, error) {
		return client.Models.GenerateVideos(ctx, req.Model, req.Prompt, nil, req.Config)
	}
	s.pollVideo = func(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
		return client.Operations.GetVideosOperation(ctx, op, nil)
	}
	return s, nil
}

// SetVideoPolling overrides the video poll cadence and attempt cap.
func (s *Service) SetVideoPolling(interval time.Duration, maxPolls uint) {
	if interval > 0 {
		s.pollInterval = interval
	}
	if maxPolls > 0 {
		s.maxPolls = maxPolls
	}
}

// Generate runs one synchronous content generation for the session plus the
// pending user parts. Model/feature mismatches are rejected before any
// network call. Failures are not retried.
func (s *Service) Generate(ctx context.Context, session *models.ChatSession, pendingParts []models.Part) (ModelOutput, error) {
	caps, err := CapabilitiesOf(session.Config.Model)
	if err != nil {
		return ModelOutput{}, err
	}
	if caps.IsVideoOutput {
		return ModelOutput{}, ErrVideoModel
	}
	if caps.IsLiveAudio {
		return ModelOutput{}, ErrLiveAudioModel
	}

	req, err := BuildRequest(session, pendingParts)
	if err != nil {
		return ModelOutput{}, err
	}
	resp, err := s.client.Models.GenerateContent(ctx, req.Model, req.Contents, req.Config)
	if err != nil {
		if strings.Contains(err.Error(), "400") {
			return ModelOutput{}, fmt.Errorf("request rejected, check the settings for this model: %w", err)
		}
		return ModelOutput{}, fmt.Errorf("generate content: %w", err)
	}
	return Interpret(resp), nil
}

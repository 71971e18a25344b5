package ai

import (
	"context"
	"errors"
	"fmt"

	"promptstudio/internal/models"

	"github.com/avast/retry-go/v4"
)

var errVideoPending = errors.New("video job still running")

// GenerateVideo submits a video job and polls it on a fixed interval until
// completion. The poll loop is bounded: it stops on context cancellation or
// once the attempt cap is reached, and returns the generated video URI.
func (s *Service) GenerateVideo(ctx context.Context, session *models.ChatSession, promptText string) (string, error) {
	req, err := BuildVideoRequest(session, promptText)
	if err != nil {
		return "", err
	}

	operation, err := s.startVideo(ctx, req)
	if err != nil {
		return "", fmt.Errorf("submit video job: %w", err)
	}

	err = retry.Do(
		func() error {
			if operation.Done {
				return nil
			}
			next, err := s.pollVideo(ctx, operation)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("poll video job: %w", err))
			}
			operation = next
			if !operation.Done {
				return errVideoPending
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.maxPolls),
		retry.Delay(s.pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(err, errVideoPending) {
			return "", fmt.Errorf("video job did not finish within %d polls", s.maxPolls)
		}
		return "", err
	}

	if operation.Response == nil || len(operation.Response.GeneratedVideos) == 0 ||
		operation.Response.GeneratedVideos[0].Video == nil {
		return "", errors.New("video job finished without a video resource")
	}
	return operation.Response.GeneratedVideos[0].Video.URI, nil
}

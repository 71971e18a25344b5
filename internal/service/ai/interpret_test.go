package ai

import (
	"testing"

	"google.golang.org/genai"
)

func TestInterpretTextAndFirstImageWins(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{Data: []byte("first"), MIMEType: "image/png"}},
					{InlineData: &genai.Blob{Data: []byte("second"), MIMEType: "image/jpeg"}},
				},
			},
		}},
	}
	out := Interpret(resp)
	if out.Text != "here you go" {
		t.Fatalf("text mismatch: %q", out.Text)
	}
	if out.ImagePart == nil || out.ImagePart.InlineData == nil {
		t.Fatalf("expected an image part")
	}
	if out.ImagePart.InlineData.MimeType != "image/png" {
		t.Fatalf("first image must win, got %s", out.ImagePart.InlineData.MimeType)
	}
}

func TestInterpretCitations(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: "answer"}}},
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "Example", URI: "https://example.com"}},
					{Web: &genai.GroundingChunkWeb{Title: "No link"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://untitled.dev"}},
					nil,
				},
			},
		}},
	}
	out := Interpret(resp)
	if len(out.Citations) != 2 {
		t.Fatalf("expected 2 citations, got %d: %+v", len(out.Citations), out.Citations)
	}
	if out.Citations[0].Title != "Example" || out.Citations[0].URI != "https://example.com" {
		t.Fatalf("citation mismatch: %+v", out.Citations[0])
	}
	if out.Citations[1].Title != "Source" {
		t.Fatalf("missing title must fall back to Source, got %q", out.Citations[1].Title)
	}
}

func TestInterpretEmptyResponse(t *testing.T) {
	out := Interpret(nil)
	if out.Text != "" || out.ImagePart != nil || out.Citations != nil {
		t.Fatalf("nil response should yield an empty output: %+v", out)
	}
	if out.Message() != nil {
		t.Fatalf("empty output must not become a message")
	}
}

func TestModelOutputMessage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "caption"},
					{InlineData: &genai.Blob{Data: []byte("img"), MIMEType: "image/png"}},
				},
			},
		}},
	}
	msg := Interpret(resp).Message()
	if msg == nil || len(msg.Parts) != 2 {
		t.Fatalf("expected text+image message, got %+v", msg)
	}
	if msg.Parts[0].Text != "caption" || msg.Parts[1].InlineData == nil {
		t.Fatalf("message parts wrong: %+v", msg.Parts)
	}
}

package ai

import (
	"encoding/base64"

	"promptstudio/internal/models"

	"google.golang.org/genai"
)

// ModelOutput is the structured content extracted from one generation result.
type ModelOutput struct {
	Text      string
	ImagePart *models.Part
	Citations []models.Citation
}

// Interpret maps a raw generation result back into message content: plain
// text, at most one inline image (first one found wins) and grounding
// citations. Citations without a URI are discarded; ones without a title get
// a default display label.
func Interpret(resp *genai.GenerateContentResponse) ModelOutput {
	out := ModelOutput{}
	if resp == nil {
		return out
	}
	out.Text = resp.Text()
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return out
	}
	candidate := resp.Candidates[0]

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			encoded := base64.StdEncoding.EncodeToString(part.InlineData.Data)
			p := models.DataPart(encoded, part.InlineData.MIMEType)
			out.ImagePart = &p
			break
		}
	}

	if meta := candidate.GroundingMetadata; meta != nil {
		for _, chunk := range meta.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			title := chunk.Web.Title
			if title == "" {
				title = "Source"
			}
			out.Citations = append(out.Citations, models.Citation{Title: title, URI: chunk.Web.URI})
		}
	}
	return out
}

// Message converts the output into a stored model message. A nil is returned
// when the result carried nothing renderable.
func (o ModelOutput) Message() *models.ChatMessage {
	parts := make([]models.Part, 0, 2)
	if o.Text != "" {
		parts = append(parts, models.TextPart(o.Text))
	}
	if o.ImagePart != nil {
		parts = append(parts, *o.ImagePart)
	}
	if len(parts) == 0 {
		return nil
	}
	msg := models.NewChatMessage(models.RoleModel, parts)
	msg.Citations = o.Citations
	return msg
}

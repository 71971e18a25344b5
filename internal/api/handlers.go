package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"promptstudio/internal/models"
	"promptstudio/internal/prompt"
	"promptstudio/internal/service/ai"
	"promptstudio/internal/store"
)

// Generator is the slice of the AI service the handlers need.
type Generator interface {
	Generate(ctx context.Context, session *models.ChatSession, pendingParts []models.Part) (ai.ModelOutput, error)
	GenerateVideo(ctx context.Context, session *models.ChatSession, promptText string) (string, error)
}

// Handler wires HTTP routes to the session store and the generation service.
type Handler struct {
	store *store.Store
	gen   Generator

	mu         sync.Mutex
	generating map[string]bool                // session id -> send in flight
	staged     map[string][]*models.MediaFile // session id -> pending uploads
}

// NewHandler constructs a Handler instance.
func NewHandler(st *store.Store, gen Generator) *Handler {
	return &Handler{
		store:      st,
		gen:        gen,
		generating: make(map[string]bool),
		staged:     make(map[string][]*models.MediaFile),
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.GET("/sessions", h.listSessions)
	api.POST("/sessions", h.createSession)
	api.POST("/sessions/:id/select", h.selectSession)
	api.PATCH("/sessions/:id", h.updateSession)
	api.DELETE("/sessions/:id", h.deleteSession)
	api.GET("/sessions/:id/messages", h.getSessionMessages)
	api.POST("/sessions/:id/placeholders", h.detectPlaceholders)
	api.POST("/sessions/:id/files", h.stageFile)
	api.DELETE("/sessions/:id/files/:file_id", h.unstageFile)
	api.POST("/sessions/:id/messages", h.sendMessage)
	api.POST("/sessions/:id/video", h.generateVideo)
}

func (h *Handler) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions":  h.store.List(),
		"active_id": h.store.ActiveID(),
	})
}

func (h *Handler) createSession(c *gin.Context) {
	var req struct {
		Title string       `json:"title"`
		Model models.Model `json:"model"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	if req.Model != "" && !req.Model.IsKnown() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown model %q", req.Model)})
		return
	}
	session := h.store.Create(req.Title, req.Model)
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) selectSession(c *gin.Context) {
	// Unknown ids leave the active session untouched.
	h.store.Select(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"active_id": h.store.ActiveID()})
}

func (h *Handler) updateSession(c *gin.Context) {
	id := c.Param("id")
	if h.store.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	var patch store.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if patch.Config != nil && !patch.Config.Model.IsKnown() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown model %q", patch.Config.Model)})
		return
	}
	h.store.Update(id, patch)
	c.JSON(http.StatusOK, h.store.Get(id))
}

func (h *Handler) deleteSession(c *gin.Context) {
	id := c.Param("id")
	if h.store.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	h.store.Delete(id)
	h.mu.Lock()
	delete(h.staged, id)
	h.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{
		"sessions":  h.store.List(),
		"active_id": h.store.ActiveID(),
	})
}

func (h *Handler) getSessionMessages(c *gin.Context) {
	session := h.store.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"messages": session.Messages,
	})
}

// detectPlaceholders surfaces the variable keys referenced by the system
// instruction plus the pending input, so the UI can offer input fields.
func (h *Handler) detectPlaceholders(c *gin.Context) {
	session := h.store.Get(c.Param("id"))
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}
	keys := prompt.DetectPlaceholders(session.SystemInstruction + "\n" + req.Input)
	if keys == nil {
		keys = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"placeholders": keys})
}

const maxUploadBytes = 10 << 20 // 10 MB

func (h *Handler) stageFile(c *gin.Context) {
	id := c.Param("id")
	if h.store.Get(id) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "open file failed"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read file failed"})
		return
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}
	media := models.NewMediaFile(base64.StdEncoding.EncodeToString(data), contentType, filepath.Base(file.Filename))

	h.mu.Lock()
	h.staged[id] = append(h.staged[id], media)
	h.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"file_id": media.ID,
		"name":    media.Name,
		"mime":    media.MimeType,
		"size":    file.Size,
	})
}

func (h *Handler) unstageFile(c *gin.Context) {
	id := c.Param("id")
	fileID := c.Param("file_id")

	h.mu.Lock()
	defer h.mu.Unlock()
	files := h.staged[id]
	for i, f := range files {
		if f.ID == fileID {
			h.staged[id] = append(files[:i], files[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
}

// takeStaged removes and returns the session's staged files.
func (h *Handler) takeStaged(id string) []*models.MediaFile {
	h.mu.Lock()
	defer h.mu.Unlock()
	files := h.staged[id]
	delete(h.staged, id)
	return files
}

// tryBeginSend marks the session as generating; a second send while one is
// outstanding is refused.
func (h *Handler) tryBeginSend(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.generating[id] {
		return false
	}
	h.generating[id] = true
	return true
}

func (h *Handler) endSend(id string) {
	h.mu.Lock()
	delete(h.generating, id)
	h.mu.Unlock()
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *Handler) sendMessage(c *gin.Context) {
	id := c.Param("id")
	session := h.store.Get(id)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Model/feature mismatches are rejected before anything is appended or
	// sent over the network.
	caps, err := ai.CapabilitiesOf(session.Config.Model)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if caps.IsVideoOutput {
		c.JSON(http.StatusBadRequest, gin.H{"error": ai.ErrVideoModel.Error()})
		return
	}
	if caps.IsLiveAudio {
		c.JSON(http.StatusBadRequest, gin.H{"error": ai.ErrLiveAudioModel.Error()})
		return
	}

	content := strings.TrimSpace(req.Content)
	files := h.takeStaged(id)
	parts := make([]models.Part, 0, len(files)+1)
	if content != "" {
		parts = append(parts, models.TextPart(content))
	}
	for _, f := range files {
		parts = append(parts, f.AsPart())
	}
	if len(parts) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content or attachments required"})
		return
	}

	if !h.tryBeginSend(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "a generation is already running for this session"})
		return
	}
	// The generating flag is cleared regardless of outcome.
	defer h.endSend(id)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if event != "" {
			if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	prevTitle := session.Title
	userMsg := models.NewChatMessage(models.RoleUser, parts)
	h.store.AppendMessage(id, userMsg)
	if err := sendEvent("ack", gin.H{"message": userMsg}); err != nil {
		return
	}

	genCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()
	// Generation sees the history including the just-appended user message.
	out, err := h.gen.Generate(genCtx, h.store.Get(id), nil)
	if err != nil {
		_ = sendEvent("error", gin.H{"message": err.Error()})
		return
	}
	modelMsg := out.Message()
	if modelMsg == nil {
		_ = sendEvent("error", gin.H{"message": "the model returned no content"})
		return
	}
	h.store.AppendMessage(id, modelMsg)

	payload := gin.H{
		"message":  modelMsg,
		"segments": ai.SplitFences(out.Text),
	}
	if current := h.store.Get(id); current != nil && current.Title != prevTitle {
		payload["title"] = current.Title
	}
	_ = sendEvent("done", payload)
}

func (h *Handler) generateVideo(c *gin.Context) {
	id := c.Param("id")
	session := h.store.Get(id)
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}

	if !h.tryBeginSend(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "a generation is already running for this session"})
		return
	}
	defer h.endSend(id)

	uri, err := h.gen.GenerateVideo(c.Request.Context(), session, req.Prompt)
	if err != nil {
		if errors.Is(err, ai.ErrNotVideoModel) || errors.Is(err, ai.ErrUnknownModel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_uri": uri})
}

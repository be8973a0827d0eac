package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/http/response"
	"github.com/yungbote/promptgen-backend/internal/services"
)

type SessionHandler struct {
	svc          services.SessionService
	defaultTotal int
}

func NewSessionHandler(svc services.SessionService, defaultTotal int) *SessionHandler {
	if defaultTotal <= 0 {
		defaultTotal = dialogue.DefaultTotalQuestions
	}
	return &SessionHandler{svc: svc, defaultTotal: defaultTotal}
}

type saveRequest struct {
	ID             string            `json:"id"`
	Idea           string            `json:"idea"`
	TotalQuestions *int              `json:"total_questions"`
	History        []dialogue.Answer `json:"history"`
	CurrentPhase   string            `json:"current_phase"`
	SelectedPhases []string          `json:"selected_phases"`
	FinalPrompt    string            `json:"final_prompt"`
	Version        int64             `json:"version"`
}

// POST /save-progress
func (h *SessionHandler) SaveProgress(c *gin.Context) {
	var req saveRequest
	if err := bindJSON(c, "SaveProgress", &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	total := h.defaultTotal
	if req.TotalQuestions != nil {
		total = *req.TotalQuestions
	}
	saved, err := h.svc.Save(c.Request.Context(), &dialogue.Session{
		ID:             req.ID,
		Idea:           req.Idea,
		TotalQuestions: total,
		History:        req.History,
		CurrentPhase:   req.CurrentPhase,
		SelectedPhases: req.SelectedPhases,
		FinalPrompt:    req.FinalPrompt,
		Version:        req.Version,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"message":   "Progress saved",
		"id":        saved.ID,
		"version":   saved.Version,
		"timestamp": saved.Timestamp,
	})
}

// GET /list-saves
func (h *SessionHandler) ListSaves(c *gin.Context) {
	saves, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if saves == nil {
		saves = []dialogue.SessionSummary{}
	}
	response.RespondOK(c, gin.H{"saves": saves})
}

// GET /load-progress/:id
func (h *SessionHandler) LoadProgress(c *gin.Context) {
	sess, err := h.svc.Load(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, sess)
}

// DELETE /delete-save/:id
func (h *SessionHandler) DeleteSave(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Save deleted successfully"})
}

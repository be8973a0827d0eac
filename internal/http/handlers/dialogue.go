package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
	"github.com/yungbote/promptgen-backend/internal/http/response"
	"github.com/yungbote/promptgen-backend/internal/services"
)

type DialogueHandler struct {
	svc          services.DialogueService
	defaultTotal int
	phases       []string
}

func NewDialogueHandler(svc services.DialogueService, defaultTotal int, phases []string) *DialogueHandler {
	if defaultTotal <= 0 {
		defaultTotal = dialogue.DefaultTotalQuestions
	}
	if len(phases) == 0 {
		phases = dialogue.DefaultPhases
	}
	return &DialogueHandler{svc: svc, defaultTotal: defaultTotal, phases: phases}
}

type questionRequest struct {
	Idea           string            `json:"idea"`
	History        []dialogue.Answer `json:"history"`
	TotalQuestions *int              `json:"total_questions"`
	CurrentPhase   string            `json:"current_phase"`
	SelectedPhases []string          `json:"selected_phases"`
}

type explainRequest struct {
	Idea     string   `json:"idea"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type promptRequest struct {
	Idea           string            `json:"idea"`
	Answers        []dialogue.Answer `json:"answers"`
	SelectedPhases []string          `json:"selected_phases"`
}

// POST /generate-question
func (h *DialogueHandler) GenerateQuestion(c *gin.Context) {
	var req questionRequest
	if err := bindJSON(c, "GenerateQuestion", &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	total := h.defaultTotal
	if req.TotalQuestions != nil {
		total = *req.TotalQuestions
	}
	q, err := h.svc.NextQuestion(c.Request.Context(), services.NextQuestionInput{
		Idea:           req.Idea,
		History:        req.History,
		TotalQuestions: total,
		CurrentPhase:   req.CurrentPhase,
		SelectedPhases: req.SelectedPhases,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, q)
}

// POST /explain-question
func (h *DialogueHandler) ExplainQuestion(c *gin.Context) {
	var req explainRequest
	if err := bindJSON(c, "ExplainQuestion", &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	ex, err := h.svc.Explain(c.Request.Context(), req.Idea, req.Question, req.Options)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, ex)
}

// POST /generate-prompt
func (h *DialogueHandler) GeneratePrompt(c *gin.Context) {
	var req promptRequest
	if err := bindJSON(c, "GeneratePrompt", &req); err != nil {
		response.RespondErr(c, err)
		return
	}
	doc, err := h.svc.Finalize(c.Request.Context(), req.Idea, req.Answers, req.SelectedPhases)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"prompt": doc})
}

// GET /phases
func (h *DialogueHandler) Phases(c *gin.Context) {
	response.RespondOK(c, gin.H{
		"phases":                  h.phases,
		"default_total_questions": h.defaultTotal,
	})
}

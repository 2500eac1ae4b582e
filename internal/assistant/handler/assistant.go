// Package handler provides HTTP handlers for the assistant service.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/rag-assistant/internal/assistant/biz"
	"github.com/kart-io/rag-assistant/internal/pkg/httputils"
	"github.com/kart-io/rag-assistant/pkg/utils/errors"
	"github.com/kart-io/rag-assistant/pkg/utils/id"
	"github.com/kart-io/rag-assistant/pkg/utils/validator"
)

// AssistantHandler handles question answering, feedback, sessions and reports.
type AssistantHandler struct {
	assistant    *biz.Assistant
	sessions     biz.SessionStore
	interactions *biz.InteractionLogger
	config       *AssistantHandlerConfig
}

// AssistantHandlerConfig configures AssistantHandler.
type AssistantHandlerConfig struct {
	// MaxRenderedSources 渲染回复中列出的来源数量。
	MaxRenderedSources int
	// LowRelevanceThreshold 低相关度报表的默认阈值。
	LowRelevanceThreshold float64
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(
	assistant *biz.Assistant,
	sessions biz.SessionStore,
	interactions *biz.InteractionLogger,
	config *AssistantHandlerConfig,
) *AssistantHandler {
	if config == nil {
		config = &AssistantHandlerConfig{MaxRenderedSources: 3, LowRelevanceThreshold: 0.6}
	}
	return &AssistantHandler{
		assistant:    assistant,
		sessions:     sessions,
		interactions: interactions,
		config:       config,
	}
}

// AskRequest is the request body of Ask.
type AskRequest struct {
	// SessionID 会话标识，为空时创建新会话。
	SessionID   string   `json:"session_id" validate:"omitempty,sessionid"`
	Question    string   `json:"question" validate:"required,notblank,max=4000"`
	Temperature *float64 `json:"temperature" validate:"omitempty,gte=0,lte=1"`
	UserID      int64    `json:"user_id"`
	Username    string   `json:"username" validate:"max=255"`
}

// AskResponse is the response body of Ask.
type AskResponse struct {
	SessionID string `json:"session_id"`
	// Text 面向聊天渲染后的回复。
	Text string `json:"text"`
	*biz.Answer
}

// Ask answers a question within a session.
func (h *AssistantHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := httputils.ShouldBindAndValidate(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	ctx := c.Request.Context()
	if req.SessionID == "" {
		req.SessionID = id.NewULID()
	}

	history, err := h.sessions.Load(ctx, req.SessionID)
	if err != nil {
		logger.Warnw("Failed to load session history", "session_id", req.SessionID, "error", err.Error())
		history = nil
	}

	ans, err := h.assistant.Ask(ctx, &biz.AskRequest{
		Question:    req.Question,
		History:     history,
		Temperature: req.Temperature,
		UserID:      req.UserID,
		Username:    req.Username,
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrInvalidRequest.Code) {
			httputils.WriteResponse(c, err, nil)
			return
		}
		httputils.WriteResponse(c, err, &AskResponse{
			SessionID: req.SessionID,
			Text:      biz.RenderAnswer(nil, h.config.MaxRenderedSources),
		})
		return
	}

	if err := h.sessions.Append(ctx, req.SessionID,
		biz.Turn{Role: biz.RoleUser, Content: req.Question},
		biz.Turn{Role: biz.RoleAssistant, Content: ans.Answer},
	); err != nil {
		logger.Warnw("Failed to save session history", "session_id", req.SessionID, "error", err.Error())
	}

	httputils.WriteResponse(c, nil, &AskResponse{
		SessionID: req.SessionID,
		Text:      biz.RenderAnswer(ans, h.config.MaxRenderedSources),
		Answer:    ans,
	})
}

// FeedbackRequest is the request body of Feedback.
type FeedbackRequest struct {
	RequestID uint64 `json:"request_id" validate:"required"`
	Value     int    `json:"value" validate:"feedback"`
}

// Feedback records a user rating of an answer.
func (h *AssistantHandler) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := httputils.ShouldBindAndValidate(c, &req); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	if err := h.assistant.RecordFeedback(c.Request.Context(), req.RequestID, req.Value); err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, gin.H{"request_id": req.RequestID, "value": req.Value})
}

// SessionResponse is the response body of GetSession.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	Turns     []biz.Turn `json:"turns"`
}

// GetSession returns the stored history of a session.
func (h *AssistantHandler) GetSession(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}

	turns, err := h.sessions.Load(c.Request.Context(), sid)
	if err != nil {
		httputils.WriteResponse(c, errors.ErrInternal.WithCause(err), nil)
		return
	}
	if turns == nil {
		turns = []biz.Turn{}
	}
	httputils.WriteResponse(c, nil, &SessionResponse{SessionID: sid, Turns: turns})
}

// ClearSession removes the history of a session.
func (h *AssistantHandler) ClearSession(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}

	if err := h.sessions.Clear(c.Request.Context(), sid); err != nil {
		httputils.WriteResponse(c, errors.ErrInternal.WithCause(err), nil)
		return
	}
	logger.Infow("Session history cleared", "session_id", sid)
	httputils.WriteResponse(c, nil, gin.H{"session_id": sid})
}

// Stats returns quality statistics for the last days.
func (h *AssistantHandler) Stats(c *gin.Context) {
	days, err := intQuery(c, "days", biz.DefaultStatsDays)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	stats, err := h.interactions.Stats(c.Request.Context(), days)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, stats)
}

// Popular returns the most frequent questions of the last 30 days.
func (h *AssistantHandler) Popular(c *gin.Context) {
	limit, err := intQuery(c, "limit", biz.DefaultPopularLimit)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	questions, err := h.interactions.PopularQuestions(c.Request.Context(), limit)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, questions)
}

// LowRelevance returns recent requests whose best score is below a threshold.
func (h *AssistantHandler) LowRelevance(c *gin.Context) {
	limit, err := intQuery(c, "limit", biz.DefaultLowRelevanceLimit)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}

	threshold := h.config.LowRelevanceThreshold
	if raw := c.Query("threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			httputils.WriteResponse(c, errors.ErrInvalidParam.WithMessage("threshold must be a number within [0, 1]"), nil)
			return
		}
	}

	requests, err := h.interactions.LowRelevanceRequests(c.Request.Context(), threshold, limit)
	if err != nil {
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, requests)
}

func sessionParam(c *gin.Context) (string, bool) {
	sid := c.Param("id")
	if err := validator.Global().ValidateVar(sid, "required,sessionid"); err != nil {
		httputils.WriteResponse(c, errors.ErrInvalidParam.WithMessage("invalid session id"), nil)
		return "", false
	}
	return sid, true
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.ErrInvalidParam.WithMessagef("%s must be a positive integer", name)
	}
	return n, nil
}

package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tripchat/internal/models/itinerary_models"
	"tripchat/internal/models/request_models"
	"tripchat/internal/models/response_models"
	"tripchat/internal/services"
	"tripchat/pkg/utils"
)

// Budget for one full pipeline run when detached from the HTTP request.
const asyncProcessingTimeout = 3 * time.Minute

type ChatController struct {
	chats     services.ChatServiceInterface
	sessions  services.SessionServiceInterface
	callbacks services.CallbackServiceInterface
}

func NewChatController(
	chats services.ChatServiceInterface,
	sessions services.SessionServiceInterface,
	callbacks services.CallbackServiceInterface,
) *ChatController {
	return &ChatController{chats: chats, sessions: sessions, callbacks: callbacks}
}

func (ctrl *ChatController) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/chat/modify", ctrl.Modify)
	group.POST("/chat/modify-async", ctrl.ModifyAsync)
}

// Modify runs one modification turn synchronously.
func (ctrl *ChatController) Modify(c *gin.Context) {
	var req request_models.ChatModifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp := ctrl.process(c.Request.Context(), req)
	utils.RespondSuccess(c, resp, "chat modification processed")
}

// ModifyAsync accepts the job, then runs the pipeline in the background and
// delivers the outcome to the caller's callback URL.
func (ctrl *ChatController) ModifyAsync(c *gin.Context) {
	var req request_models.ChatModifyAsyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	go ctrl.processAsync(req)

	utils.RespondAccepted(c, response_models.ChatAckResponse{
		JobID:  req.JobID,
		Status: "ACCEPTED",
	}, "chat modification accepted")
}

func (ctrl *ChatController) process(ctx context.Context, req request_models.ChatModifyRequest) response_models.ChatModifyResponse {
	history := req.SessionHistory
	if len(history) == 0 {
		history = ctrl.sessions.LoadHistory(ctx, req.SessionID)
	}

	resp := ctrl.chats.ProcessChat(ctx, req, history)
	ctrl.sessions.RecordTurn(ctx, req.SessionID, req.UserQuery, resp.Message)
	return resp
}

func (ctrl *ChatController) processAsync(req request_models.ChatModifyAsyncRequest) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Async chat job %s panicked: %v", req.JobID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), asyncProcessingTimeout)
	defer cancel()

	resp := ctrl.process(ctx, req.ChatModifyRequest)
	if resp.Status == itinerary_models.StatusRejected && resp.Message == "" {
		ctrl.callbacks.DeliverFailure(ctx, req.CallbackURL, services.CallbackError{
			Code:    "CHAT_MODIFY_FAILED",
			Message: "the modification could not be processed",
		})
		return
	}
	ctrl.callbacks.DeliverSuccess(ctx, req.CallbackURL, resp)
}

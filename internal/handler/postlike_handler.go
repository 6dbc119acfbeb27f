package handler

import (
	"net/http"

	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// InteractionHandler 点赞、投票、报名
type InteractionHandler struct {
	svc *service.PostService
}

type InteractionReq struct {
	UserID   ID `json:"user_id"`
	OptionID ID `json:"option_id"`
}

func NewInteractionHandler(svc *service.PostService) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

// bind 解析 :id 和请求体，确定操作人
func (h *InteractionHandler) bind(c *gin.Context, invalidMsg string) (uint64, uint64, InteractionReq, bool) {
	var req InteractionReq
	postID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, invalidMsg)
		return 0, 0, req, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, invalidMsg)
		return 0, 0, req, false
	}
	userID, err := actor(c, uint64(req.UserID))
	if err != nil {
		fail(c, err)
		return 0, 0, req, false
	}
	return postID, userID, req, true
}

// Like 点赞开关
func (h *InteractionHandler) Like(c *gin.Context) {
	postID, userID, _, ok := h.bind(c, "Invalid like data")
	if !ok {
		return
	}
	state, err := h.svc.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *InteractionHandler) Vote(c *gin.Context) {
	postID, userID, req, ok := h.bind(c, "Invalid vote data")
	if !ok {
		return
	}
	res, err := h.svc.CastVote(c.Request.Context(), postID, userID, uint64(req.OptionID))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Attend 活动报名开关
func (h *InteractionHandler) Attend(c *gin.Context) {
	postID, userID, _, ok := h.bind(c, "Invalid attendance data")
	if !ok {
		return
	}
	state, err := h.svc.ToggleAttendance(c.Request.Context(), postID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

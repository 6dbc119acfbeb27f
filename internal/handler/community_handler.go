package handler

import (
	"context"
	"net/http"

	"github.com/Rashedman4/special-backend/internal/model"
	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type CommunityHandler struct {
	svc *service.CommunityService
}

type CommunityCreateReq struct {
	CreatorID          ID     `json:"creator_id"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	MinCreditsRequired *int64 `json:"min_credits_required"`
}

type MembershipReq struct {
	UserID ID `json:"user_id"`
}

type StatusReq struct {
	Status string `json:"status"`
}

func NewCommunityHandler(svc *service.CommunityService) *CommunityHandler {
	return &CommunityHandler{svc: svc}
}

// List 激活的社区列表
func (h *CommunityHandler) List(c *gin.Context) {
	var viewer uint64
	if id := queryID(c, "user_id"); id != nil {
		viewer = *id
	}
	list, err := h.svc.ListCommunities(c.Request.Context(), viewer)
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []model.CommunityView{}
	}
	// 列表直接返回数组
	c.JSON(http.StatusOK, list)
}

func (h *CommunityHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "Invalid community id")
		return
	}
	var viewer uint64
	if v := queryID(c, "user_id"); v != nil {
		viewer = *v
	}
	view, err := h.svc.Community(c.Request.Context(), id, viewer)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": view})
}

func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityCreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid community data")
		return
	}
	creator, err := actor(c, uint64(req.CreatorID))
	if err != nil {
		fail(c, err)
		return
	}
	in := service.CreateCommunityInput{
		CreatorID:   creator,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.MinCreditsRequired != nil {
		in.MinCreditsRequired = *req.MinCreditsRequired
	}

	view, err := h.svc.CreateCommunity(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *CommunityHandler) Join(c *gin.Context) {
	h.membership(c, h.svc.JoinCommunity)
}

func (h *CommunityHandler) Leave(c *gin.Context) {
	h.membership(c, h.svc.LeaveCommunity)
}

func (h *CommunityHandler) membership(c *gin.Context, op func(ctx context.Context, communityID, userID uint64) (string, error)) {
	communityID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "Invalid community id")
		return
	}
	var req MembershipReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id is required")
		return
	}
	userID, err := actor(c, uint64(req.UserID))
	if err != nil {
		fail(c, err)
		return
	}
	msg, err := op(c.Request.Context(), communityID, userID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// SetStatus 管理员修改社区状态
func (h *CommunityHandler) SetStatus(c *gin.Context) {
	communityID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "Invalid community id")
		return
	}
	var req StatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid status. Use: active | locked | disabled")
		return
	}
	community, err := h.svc.SetStatus(c.Request.Context(), communityID, req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"community": community})
}

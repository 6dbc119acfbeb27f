package handler

import (
	"net/http"
	"strconv"

	"github.com/Rashedman4/special-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	svc *service.PostService
}

// CreatePostReq 三种帖子共用的请求体，按 type 取用对应字段
type CreatePostReq struct {
	AuthorID    ID     `json:"author_id"`
	CommunityID *ID    `json:"community_id"`
	Type        string `json:"type"`
	Content     string `json:"content"`

	Question      string   `json:"question"`
	Options       []string `json:"options"`
	PollOptions   []string `json:"poll_options"`
	DurationHours *int     `json:"duration_hours"`

	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// List 帖子流
func (h *PostHandler) List(c *gin.Context) {
	in := service.ListPostsInput{
		AuthorID:    queryID(c, "author_id"),
		CommunityID: queryID(c, "community_id"),
	}
	if v := queryID(c, "user_id"); v != nil {
		in.ViewerID = *v
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			in.Limit = n
		}
	}
	posts, err := h.svc.ListPosts(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid post data")
		return
	}
	author, err := actor(c, uint64(req.AuthorID))
	if err != nil {
		fail(c, err)
		return
	}
	options := req.Options
	if len(req.PollOptions) > 0 {
		options = req.PollOptions
	}

	post, err := h.svc.CreatePost(c.Request.Context(), service.CreatePostInput{
		AuthorID:      author,
		CommunityID:   optionalID(req.CommunityID),
		Type:          req.Type,
		Content:       req.Content,
		Question:      req.Question,
		Options:       options,
		DurationHours: req.DurationHours,
		Title:         req.Title,
		Description:   req.Description,
		Location:      req.Location,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// Delete 请求人来自 x-user-id 或 token
func (h *PostHandler) Delete(c *gin.Context) {
	postID, ok := paramID(c, "id")
	if !ok {
		badRequest(c, "Invalid post id")
		return
	}
	requester, err := actor(c, headerID(c, "x-user-id"))
	if err != nil {
		fail(c, err)
		return
	}
	id, err := h.svc.DeletePost(c.Request.Context(), postID, requester)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": gin.H{"id": id}})
}

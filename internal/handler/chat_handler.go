package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/service"
	"github.com/Deepakk2104/Zync/internal/store"
)

type ChatHandler interface {
	SignIn(c *gin.Context)
	SignOut(c *gin.Context)
	GetAllUsers(c *gin.Context)
	GetAllGroups(c *gin.Context)
	CreateGroup(c *gin.Context)
	SendDirect(c *gin.Context)
	SendGroup(c *gin.Context)
	SetTyping(c *gin.Context)
	GetDirectMessages(c *gin.Context)
	GetGroupMessages(c *gin.Context)
}

type chatHandler struct {
	service   service.ChatService
	directory *directory.Directory
}

func NewChatHandler(svc service.ChatService, dir *directory.Directory) ChatHandler {
	return &chatHandler{
		service:   svc,
		directory: dir,
	}
}

type signInRequest struct {
	UID      string `json:"uid" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	PhotoURL string `json:"photoURL"`
}

func (h *chatHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		return
	}

	id := model.Identity{ID: req.UID, Name: req.Name, Email: req.Email, AvatarURL: req.PhotoURL}
	if err := h.service.SignIn(c.Request.Context(), id); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": req.UID})
}

func (h *chatHandler) SignOut(c *gin.Context) {
	var req struct {
		UID string `json:"uid" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid is required"})
		return
	}

	if err := h.service.SignOut(c.Request.Context(), model.Identity{ID: req.UID}); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"uid": req.UID})
}

// GetAllUsers returns the user roster, excluding the caller when a
// userId is supplied.
func (h *chatHandler) GetAllUsers(c *gin.Context) {
	users, err := h.directory.ListUsers(c.Request.Context(), c.Query("userId"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *chatHandler) GetAllGroups(c *gin.Context) {
	groups, err := h.directory.ListGroups(c.Request.Context())
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

type createGroupRequest struct {
	UID       string   `json:"uid"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

func (h *chatHandler) CreateGroup(c *gin.Context) {
	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := h.service.CreateGroup(c.Request.Context(), model.Identity{ID: req.UID}, req.Name, req.MemberIDs)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"groupId": id})
}

type sendDirectRequest struct {
	UID    string `json:"uid" binding:"required"`
	PeerID string `json:"peerId" binding:"required"`
	Text   string `json:"text"`
}

func (h *chatHandler) SendDirect(c *gin.Context) {
	var req sendDirectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid and peerId are required"})
		return
	}

	err := h.service.SendDirect(c.Request.Context(), model.Identity{ID: req.UID}, req.PeerID, req.Text)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": channel.DirectID(req.UID, req.PeerID)})
}

type sendGroupRequest struct {
	UID     string `json:"uid" binding:"required"`
	GroupID string `json:"groupId" binding:"required"`
	Text    string `json:"text"`
}

func (h *chatHandler) SendGroup(c *gin.Context) {
	var req sendGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid and groupId are required"})
		return
	}

	err := h.service.SendGroup(c.Request.Context(), model.Identity{ID: req.UID}, req.GroupID, req.Text)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": req.GroupID})
}

type setTypingRequest struct {
	UID       string `json:"uid" binding:"required"`
	ChannelID string `json:"channelId" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	IsTyping  bool   `json:"isTyping"`
}

func (h *chatHandler) SetTyping(c *gin.Context) {
	var req setTypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uid, channelId and kind are required"})
		return
	}

	sel := directory.Selection{ChannelID: req.ChannelID, Kind: directory.Kind(req.Kind)}
	err := h.service.SetTyping(c.Request.Context(), model.Identity{ID: req.UID}, sel, req.IsTyping)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"channelId": req.ChannelID})
}

func (h *chatHandler) GetDirectMessages(c *gin.Context) {
	uid := c.Query("userId")
	peerID := c.Param("peerId")
	if uid == "" || peerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and peerId are required"})
		return
	}

	msgs, err := h.service.DirectMessages(c.Request.Context(), model.Identity{ID: uid}, peerID)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *chatHandler) GetGroupMessages(c *gin.Context) {
	uid := c.Query("userId")
	groupID := c.Param("groupId")
	if uid == "" || groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and groupId are required"})
		return
	}

	msgs, err := h.service.GroupMessages(c.Request.Context(), model.Identity{ID: uid}, groupID)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// statusOf maps the domain error taxonomy to HTTP statuses. Anything
// outside it is treated as a transient store failure.
func statusOf(err error) int {
	switch {
	case errors.Is(err, channel.ErrEmptyMessage),
		errors.Is(err, directory.ErrEmptyGroupName),
		errors.Is(err, directory.ErrNoCreator),
		errors.Is(err, store.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, channel.ErrNotMember):
		return http.StatusForbidden
	case errors.Is(err, channel.ErrGroupNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

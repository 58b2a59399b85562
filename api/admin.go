package api

import (
	"net/http"

	"github.com/Domenick1991/flightstore/internal/service/admin"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	service admin.AdminUseCase
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAdminHandler(service admin.AdminUseCase) *AdminHandler {
	return &AdminHandler{service: service}
}

// RegisterPublic mounts the routes reachable without a token.
func (h *AdminHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/login", h.login)
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/stats", h.stats)
}

func (h *AdminHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *AdminHandler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

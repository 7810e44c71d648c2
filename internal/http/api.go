package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"secure-vault/internal/domain"
	"secure-vault/internal/service"
)

const userContextKey = "user"

// Handler wires HTTP routes to domain services.
type Handler struct {
	accounts service.AccountService
	files    service.FileService
	logger   *logrus.Logger
}

func NewHandler(accounts service.AccountService, files service.FileService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		accounts: accounts,
		files:    files,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())

	api := router.Group("/api")
	{
		api.POST("/register", h.register)
		api.POST("/login", h.login)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		authed := api.Group("", h.requireToken())
		authed.GET("/me", h.me)
		authed.GET("/files", h.listFiles)
		authed.GET("/files/download", h.downloadFile)
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

type FileResponse struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Size int64           `json:"size"`
	Type domain.FileType `json:"type"`
	Date string          `json:"date"`
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		})
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			entry.Warn("request failed")
		default:
			entry.Debug("request")
		}
	}
}

func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing bearer token"})
			return
		}

		user, err := h.accounts.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.Set(userContextKey, *user)
		c.Next()
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "All fields required"})
		return
	}

	session, err := h.accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionToResponse(*session))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessionToResponse(*session))
}

func (h *Handler) me(c *gin.Context) {
	user := c.MustGet(userContextKey).(domain.User)
	c.JSON(http.StatusOK, gin.H{"user": userToResponse(user)})
}

func (h *Handler) listFiles(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusOK, []FileResponse{})
		return
	}

	items, err := h.files.List(c.Request.Context())
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	resp := make([]FileResponse, len(items))
	for i := range items {
		resp[i] = fileToResponse(items[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) downloadFile(c *gin.Context) {
	if h.files == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": service.ErrNotFound.Error()})
		return
	}

	d, err := h.files.Download(c.Request.Context(), c.Query("key"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	if d.URL != "" {
		c.Redirect(http.StatusFound, d.URL)
		return
	}
	defer d.Body.Close()

	c.DataFromReader(http.StatusOK, d.Item.Size, d.ContentType, d.Body, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(d.Item.Name),
	})
}

func (h *Handler) abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("request error")
		msg = "Server error"
	}
	c.AbortWithStatusJSON(status, gin.H{"message": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func userToResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt.UTC().Format(domain.TimestampLayout),
	}
}

func sessionToResponse(s domain.Session) AuthResponse {
	return AuthResponse{User: userToResponse(s.User), Token: s.Token}
}

func fileToResponse(item domain.FileItem) FileResponse {
	resp := FileResponse{
		ID:   item.ID,
		Name: item.Name,
		Size: item.Size,
		Type: item.Type,
	}
	if !item.ModifiedAt.IsZero() {
		resp.Date = item.ModifiedAt.Format(time.DateOnly)
	}
	return resp
}

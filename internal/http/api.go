package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"user-accounts/internal/auth"
	"user-accounts/internal/domain"
	"user-accounts/internal/service"
)

// TokenIssuer issues and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Verify(token string) (string, error)
	TTL() time.Duration
}

// Options configures the transport concerns of the handler.
type Options struct {
	CookieSecure   bool
	AllowedOrigins []string
	Logger         *logrus.Logger
}

// Handler wires HTTP routes to the account service.
type Handler struct {
	users        service.UserService
	tokens       TokenIssuer
	cookieSecure bool
	origins      []string
	logger       *logrus.Logger
}

func NewHandler(users service.UserService, tokens TokenIssuer, opts Options) *Handler {
	registerValidators()
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Handler{
		users:        users,
		tokens:       tokens,
		cookieSecure: opts.CookieSecure,
		origins:      opts.AllowedOrigins,
		logger:       opts.Logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(
		requestLogger(h.logger),
		recovery(h.logger),
		errorResponder(h.logger),
		corsMiddleware(h.origins),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/login", h.login)
	router.POST("/logout", h.logout)

	users := router.Group("/users")
	{
		users.POST("", h.createUser)
		users.GET("/:id", h.requireSession(), h.getUser)
		users.DELETE("/:id", h.requireSession(), requireOwner(), h.deleteUser)
		users.PUT("/:id", h.requireSession(), requireOwner(), h.updateUser)
	}

	notFound := func(c *gin.Context) { abortWithError(c, errRouteNotFound) }
	router.NoRoute(notFound)
	router.NoMethod(notFound)
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	token, _, err := h.tokens.Issue(user.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	h.setSessionCookie(c, token, h.tokens.TTL())
	c.JSON(http.StatusOK, gin.H{"userId": user.ID})
}

func (h *Handler) logout(c *gin.Context) {
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

func (h *Handler) createUser(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered", "user": toUserResponse(user)})
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), service.UpdateInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User updated", "user": toUserResponse(user)})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

var _ TokenIssuer = (*auth.TokenService)(nil)

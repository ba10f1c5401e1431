package auth

import (
	"log/slog"
	"net/http"

	"github.com/AyanMustafa/Anevo/internal/responses"
	"github.com/AyanMustafa/Anevo/internal/store"
	"github.com/AyanMustafa/Anevo/internal/token"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	users    *store.UserStore
	tokens   *token.Service
	verifier GoogleVerifier
	logger   *slog.Logger
}

func NewHandler(users *store.UserStore, tokens *token.Service, verifier GoogleVerifier, logger *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		verifier: verifier,
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type googleRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "username, password and email are required")
		return
	}

	user, err := h.users.Register(ctx.Request.Context(), req.Username, req.Password, req.Email, req.Name)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	raw, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "user", user.ID, "error", err)
		responses.Error(ctx, http.StatusInternalServerError, "internal server error")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"token": raw, "user": user})
}

func (h *Handler) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "identifier and password are required")
		return
	}

	user, err := h.users.Authenticate(ctx.Request.Context(), req.Identifier, req.Password)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	raw, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "user", user.ID, "error", err)
		responses.Error(ctx, http.StatusInternalServerError, "internal server error")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": raw, "user": user})
}

// GoogleLogin verifies a Google ID token and signs the matching user
// in, creating the account on first login.
func (h *Handler) GoogleLogin(ctx *gin.Context) {
	var req googleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		responses.Error(ctx, http.StatusBadRequest, "token is required")
		return
	}

	identity, err := h.verifier.Verify(ctx.Request.Context(), req.Token)
	if err != nil {
		h.logger.Warn("google token verification failed", "error", err)
		responses.Error(ctx, http.StatusUnauthorized, "invalid Google token")
		return
	}

	user, err := h.users.UpsertFromOAuth(ctx.Request.Context(), identity.SubjectID, identity.Email, identity.Name)
	if err != nil {
		responses.FromError(ctx, err)
		return
	}

	raw, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.logger.Error("failed to issue token", "user", user.ID, "error", err)
		responses.Error(ctx, http.StatusInternalServerError, "internal server error")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": raw, "user": user})
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/angiarxpharma-alt/Certificate-Upload/config"
	"github.com/angiarxpharma-alt/Certificate-Upload/middleware"
	"github.com/angiarxpharma-alt/Certificate-Upload/model"
	"github.com/angiarxpharma-alt/Certificate-Upload/pkg/logger"
	"github.com/angiarxpharma-alt/Certificate-Upload/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	accounts service.AccountStore
	config   *config.Config
}

func NewAuthHandler(accounts service.AccountStore, cfg *config.Config) *AuthHandler {
	return &AuthHandler{accounts: accounts, config: cfg}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Email     string `json:"email"`
}

// Login authenticates a staff account and issues a JWT. When auto-provision
// is enabled in config, an unknown email is registered on its first login
// attempt; otherwise unknown emails fail like a wrong password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	ctx := c.Request.Context()

	account, err := h.accounts.GetAccountByEmail(ctx, req.Email)
	if errors.Is(err, service.ErrNotFound) {
		if !h.config.Auth.AllowAutoProvision {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		account, err = h.provision(c, req.Email, req.Password)
		if err != nil {
			return
		}
	} else if err != nil {
		logger.Error(ctx, "account lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	} else if bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, expiresAt, err := middleware.GenerateToken(account.ID, account.Email, &h.config.Auth)
	if err != nil {
		logger.Error(ctx, "token generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
		Email:     account.Email,
	})
}

func (h *AuthHandler) provision(c *gin.Context, email, password string) (*model.Account, error) {
	ctx := c.Request.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error(ctx, "password hash failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return nil, err
	}

	account, err := h.accounts.CreateAccount(ctx, &model.Account{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		logger.Error(ctx, "account provisioning failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return nil, err
	}

	logger.Info(ctx, "account auto-provisioned", "account_id", account.ID)
	return account, nil
}

// GetCurrentUser returns the authenticated account's identity.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"account_id": middleware.GetAccountID(c),
		"email":      middleware.GetEmail(c),
	})
}

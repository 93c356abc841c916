package user

import (
	"encoding/xml"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AutoLedger/AutoLedger/internal/common/auth"
	"github.com/AutoLedger/AutoLedger/internal/common/config"
	"github.com/AutoLedger/AutoLedger/internal/common/logger"
)

// Handler 账号相关的 HTTP 适配层：登录签发带角色的 access token，
// 注册只开放销售角色。
type Handler struct {
	store *Store
	cfg   config.AuthConfig
	log   logger.Logger
}

func NewHandler(store *Store, cfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{store: store, cfg: cfg, log: log}
}

// Register 挂载路由（登录/注册不要求已有 token）。
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api/v1/auth")
	g.POST("/login", h.login)
	g.POST("/register", h.register)
}

type credentialsRequest struct {
	XMLName  xml.Name `xml:"credentials" json:"-"`
	Username string   `xml:"username" json:"username"`
	Password string   `xml:"password" json:"password"`
}

type tokenResponse struct {
	XMLName   xml.Name `xml:"token"`
	Token     string   `xml:"value"`
	ExpiresAt string   `xml:"expiresAt"`
	Role      string   `xml:"role"`
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindXML(&req); err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: "invalid credentials payload"})
		return
	}

	u, err := h.store.Authenticate(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.XML(http.StatusUnauthorized, apiError{Code: http.StatusUnauthorized, Message: "invalid username or password"})
			return
		}
		h.log.Errorf("authenticate %q: %v", req.Username, err)
		c.XML(http.StatusInternalServerError, apiError{Code: http.StatusInternalServerError, Message: "internal error"})
		return
	}

	ttl := time.Duration(h.cfg.TokenTTLMinutes) * time.Minute
	token, expiresAt, err := auth.GenerateAccessToken(h.cfg, u.ID, []string{u.Role}, ttl)
	if err != nil {
		h.log.Errorf("issue token for %q: %v", req.Username, err)
		c.XML(http.StatusInternalServerError, apiError{Code: http.StatusInternalServerError, Message: "internal error"})
		return
	}

	c.XML(http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
		Role:      u.Role,
	})
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindXML(&req); err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: "invalid credentials payload"})
		return
	}

	u, err := h.store.RegisterSalesperson(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			c.XML(http.StatusConflict, apiError{Code: http.StatusConflict, Message: "username already taken"})
			return
		}
		c.XML(http.StatusBadRequest, apiError{Code: http.StatusBadRequest, Message: err.Error()})
		return
	}

	h.log.WithField("username", u.Username).Info("salesperson registered")
	c.Status(http.StatusCreated)
}

type apiError struct {
	XMLName xml.Name `xml:"error"`
	Code    int      `xml:"code"`
	Message string   `xml:"message"`
}

package vin

import (
	"encoding/xml"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AutoLedger/AutoLedger/internal/common/config"
	"github.com/AutoLedger/AutoLedger/internal/common/logger"
	"github.com/AutoLedger/AutoLedger/internal/common/middleware"
	"github.com/AutoLedger/AutoLedger/internal/dealership"
	"github.com/AutoLedger/AutoLedger/internal/user"
)

type apiError struct {
	XMLName xml.Name `xml:"error"`
	Code    string   `xml:"code"`
	Message string   `xml:"message"`
}

// Handler VIN 解码的 HTTP 适配层。只读操作，销售和经理都可以调用。
type Handler struct {
	client *Client
	cfg    config.AuthConfig
	log    logger.Logger
}

func NewHandler(client *Client, cfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{client: client, cfg: cfg, log: log}
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api/v1/cars")
	if h.cfg.Enabled {
		g.Use(middleware.JWTAuthMiddleware(h.cfg, h.log))
	}
	g.GET("/decode/:vin",
		middleware.RequireRoles(h.cfg, user.RoleSalesperson, user.RoleManager),
		h.decode)
}

func (h *Handler) decode(c *gin.Context) {
	car, err := h.client.Decode(c.Request.Context(), c.Param("vin"), c.Query("modelyear"))
	if err != nil {
		status := http.StatusBadGateway
		code := "UPSTREAM_ERROR"
		switch {
		case errors.Is(err, dealership.ErrValidation):
			status = http.StatusBadRequest
			code = "VALIDATION_ERROR"
		case errors.Is(err, middleware.ErrCircuitOpen):
			status = http.StatusServiceUnavailable
			code = "UPSTREAM_UNAVAILABLE"
		}
		h.log.Errorf("decode vin failed: %v", err)
		c.XML(status, apiError{Code: code, Message: err.Error()})
		return
	}
	c.XML(http.StatusOK, car)
}

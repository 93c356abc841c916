package dealership

import (
	"encoding/xml"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/common/config"
	"github.com/AutoLedger/AutoLedger/internal/common/logger"
	"github.com/AutoLedger/AutoLedger/internal/common/middleware"
	"github.com/AutoLedger/AutoLedger/internal/schema"
	"github.com/AutoLedger/AutoLedger/internal/user"
)

// Handler 库存与销售台账的 HTTP 适配层。协议为 XML in / XML out，
// 与底层文档保持同一套表示。
type Handler struct {
	svc       *Service
	invPath   string
	salesPath string
	cfg       config.AuthConfig
	log       logger.Logger
}

func NewHandler(svc *Service, invPath, salesPath string, cfg config.AuthConfig, log logger.Logger) *Handler {
	return &Handler{svc: svc, invPath: invPath, salesPath: salesPath, cfg: cfg, log: log}
}

type apiError struct {
	XMLName    xml.Name `xml:"error"`
	Code       string   `xml:"code"`
	Message    string   `xml:"message"`
	Violations []string `xml:"violations>violation,omitempty"`
}

type carList struct {
	XMLName xml.Name `xml:"cars"`
	Cars    []Car    `xml:"car"`
}

// 字符数据字段只能是 string，金额在处理函数里再做十进制解析。
type priceUpdateRequest struct {
	XMLName xml.Name `xml:"price"`
	Value   string   `xml:",chardata"`
}

type saleCreateRequest struct {
	XMLName       xml.Name        `xml:"sale"`
	CarID         string          `xml:"carId"`
	CustomerID    string          `xml:"customerId"`
	SalesmanID    string          `xml:"salesmanId"`
	Price         decimal.Decimal `xml:"price"`
	PaymentMethod string          `xml:"paymentMethod"`
}

type saleCreated struct {
	XMLName xml.Name `xml:"sale"`
	SaleID  string   `xml:"saleId"`
}

type customerCount struct {
	CustomerID string `xml:"customerId"`
	Sales      int    `xml:"sales"`
}

type customerStats struct {
	XMLName   xml.Name        `xml:"customerStats"`
	Customers []customerCount `xml:"customer"`
}

type validationReport struct {
	XMLName    xml.Name `xml:"validationReport"`
	Valid      bool     `xml:"valid"`
	Violations []string `xml:"violations>violation,omitempty"`
}

func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api/v1")
	if h.cfg.Enabled {
		g.Use(middleware.JWTAuthMiddleware(h.cfg, h.log))
	}

	anyRole := middleware.RequireRoles(h.cfg, user.RoleSalesperson, user.RoleManager)
	managerOnly := middleware.RequireRoles(h.cfg, user.RoleManager)
	salesOnly := middleware.RequireRoles(h.cfg, user.RoleSalesperson)

	g.GET("/cars", anyRole, h.listCars)
	g.GET("/cars/search", anyRole, h.searchCars)
	g.GET("/cars/:id", anyRole, h.getCar)
	g.POST("/cars", managerOnly, h.addCar)
	g.PUT("/cars/:id/price", managerOnly, h.updatePrice)
	g.DELETE("/cars/:id", managerOnly, h.deleteCar)

	g.POST("/sales", salesOnly, h.sell)
	g.POST("/sales/:saleId/revert", salesOnly, h.revert)
	g.GET("/sales/:saleId", anyRole, h.getSale)
	g.GET("/sales/stats/customers", managerOnly, h.customerStats)

	g.GET("/validate/inventory", managerOnly, h.validateInventory)
	g.GET("/validate/sales", managerOnly, h.validateSales)
}

func (h *Handler) listCars(c *gin.Context) {
	cars, err := h.svc.ListCars(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.XML(http.StatusOK, carList{Cars: cars})
}

func (h *Handler) getCar(c *gin.Context) {
	car, err := h.svc.GetCar(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.XML(http.StatusOK, car)
}

// addCar 入库后立即复核整份库存文档。发现违规时撤销这次写入并返回
// 全部违规条目，文档保持写入前的内容。
func (h *Handler) addCar(c *gin.Context) {
	var car Car
	if err := c.ShouldBindXML(&car); err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "malformed car payload: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.svc.AddCar(ctx, car); err != nil {
		h.writeError(c, err)
		return
	}

	violations, err := schema.ValidateInventoryFile(h.invPath)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if len(violations) > 0 {
		if delErr := h.svc.DeleteCar(ctx, car.ID); delErr != nil {
			h.log.Errorf("rollback of car %s failed: %v", car.ID, delErr)
		}
		c.XML(http.StatusBadRequest, apiError{
			Code:       "VALIDATION_ERROR",
			Message:    "inventory document rejected the new car",
			Violations: renderViolations(violations),
		})
		return
	}
	c.XML(http.StatusCreated, car)
}

func (h *Handler) updatePrice(c *gin.Context) {
	var req priceUpdateRequest
	if err := c.ShouldBindXML(&req); err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "malformed price payload: " + err.Error()})
		return
	}
	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil || !value.IsPositive() {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "price must be a decimal greater than zero"})
		return
	}
	if err := h.svc.UpdateCarPrice(c.Request.Context(), c.Param("id"), value); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) deleteCar(c *gin.Context) {
	if err := h.svc.DeleteCar(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) searchCars(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: err.Error()})
		return
	}
	cars, err := h.svc.SearchCars(c.Request.Context(), f)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.XML(http.StatusOK, carList{Cars: cars})
}

// sell 与入库不同：成交后发现销售文档违规只记录日志，不回滚交易。
// 台账宁可带着可审计的瑕疵，也不能丢掉一笔真实发生的成交。
func (h *Handler) sell(c *gin.Context) {
	var req saleCreateRequest
	if err := c.ShouldBindXML(&req); err != nil {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "malformed sale payload: " + err.Error()})
		return
	}
	if !req.Price.IsPositive() {
		c.XML(http.StatusBadRequest, apiError{Code: "VALIDATION_ERROR", Message: "sale price must be greater than zero"})
		return
	}
	method, err := ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		h.writeError(c, err)
		return
	}

	saleID, err := h.svc.Sell(c.Request.Context(), SaleRequest{
		CarID:         req.CarID,
		CustomerID:    req.CustomerID,
		SalesmanID:    req.SalesmanID,
		Price:         req.Price,
		PaymentMethod: method,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	if violations, vErr := schema.ValidateSalesFile(h.salesPath); vErr != nil {
		h.log.Errorf("sales document check failed after sale %s: %v", saleID, vErr)
	} else if len(violations) > 0 {
		h.log.WithFields(map[string]interface{}{
			"saleId":     saleID,
			"violations": strings.Join(renderViolations(violations), "; "),
		}).Warnf("sales document has violations after sale")
	}
	c.XML(http.StatusCreated, saleCreated{SaleID: saleID})
}

func (h *Handler) revert(c *gin.Context) {
	if err := h.svc.Revert(c.Request.Context(), c.Param("saleId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getSale(c *gin.Context) {
	sale, err := h.svc.GetSale(c.Request.Context(), c.Param("saleId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.XML(http.StatusOK, sale)
}

func (h *Handler) customerStats(c *gin.Context) {
	counts, err := h.svc.SalesPerCustomer(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	stats := customerStats{Customers: make([]customerCount, 0, len(counts))}
	for id, n := range counts {
		stats.Customers = append(stats.Customers, customerCount{CustomerID: id, Sales: n})
	}
	sort.Slice(stats.Customers, func(i, j int) bool {
		return stats.Customers[i].CustomerID < stats.Customers[j].CustomerID
	})
	c.XML(http.StatusOK, stats)
}

func (h *Handler) validateInventory(c *gin.Context) {
	h.validateFile(c, h.invPath, schema.ValidateInventoryFile)
}

func (h *Handler) validateSales(c *gin.Context) {
	h.validateFile(c, h.salesPath, schema.ValidateSalesFile)
}

func (h *Handler) validateFile(c *gin.Context, path string, validate func(string) ([]schema.Violation, error)) {
	violations, err := validate(path)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.XML(http.StatusOK, validationReport{
		Valid:      len(violations) == 0,
		Violations: renderViolations(violations),
	})
}

// filterFromQuery 把查询参数翻译成检索条件，仅设置调用方给出的维度。
func filterFromQuery(c *gin.Context) (Filter, error) {
	var f Filter
	if v, ok := c.GetQuery("brand"); ok {
		f.Brand = &v
	}
	if v, ok := c.GetQuery("model"); ok {
		f.Model = &v
	}
	if v, ok := c.GetQuery("year"); ok {
		year, err := strconv.Atoi(v)
		if err != nil {
			return f, errors.New("year must be an integer")
		}
		f.Year = &year
	}
	if v, ok := c.GetQuery("minPrice"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, errors.New("minPrice must be a decimal")
		}
		f.MinPrice = &d
	}
	if v, ok := c.GetQuery("maxPrice"); ok {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, errors.New("maxPrice must be a decimal")
		}
		f.MaxPrice = &d
	}
	if v, ok := c.GetQuery("hybrid"); ok {
		hybrid, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.New("hybrid must be a boolean")
		}
		f.IsHybrid = &hybrid
	}
	return f, nil
}

func renderViolations(violations []schema.Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.String())
	}
	return out
}

// writeError 统一的错误到状态码映射。未归类的错误一律按 500 处理，
// 不向调用方泄露内部细节以外的信息。
func (h *Handler) writeError(c *gin.Context, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, ErrValidation):
		status, code = http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, ErrWindowExpired):
		status, code = http.StatusBadRequest, "WINDOW_EXPIRED"
	case errors.Is(err, ErrDataCorruption):
		status, code = http.StatusInternalServerError, "DATA_CORRUPTION"
	default:
		status, code = http.StatusInternalServerError, "INTERNAL_ERROR"
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorf("request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.XML(status, apiError{Code: code, Message: err.Error()})
}

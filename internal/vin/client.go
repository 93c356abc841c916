package vin

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/common/logger"
	"github.com/AutoLedger/AutoLedger/internal/common/middleware"
	"github.com/AutoLedger/AutoLedger/internal/dealership"
)

// Client 外部车辆识别服务（NHTSA vPIC）的查询客户端：按 VIN 取回
// 品牌/型号/年份/燃料类型/马力，组装成一份可直接入库的车辆模板。
// 存储层不感知它的存在，模板仅用于预填一次 Add 调用。
//
// 外部接口不稳定，所有调用都经过熔断器。
type Client struct {
	baseURL string
	http    *http.Client
	breaker *middleware.CircuitBreaker
	log     logger.Logger
	nowYear func() int
}

func NewClient(baseURL string, timeout time.Duration, breaker *middleware.CircuitBreaker, log logger.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		log:     log,
		nowYear: func() int { return time.Now().Year() },
	}
}

// 解码结果里的字段全部是字符串，空串等同缺失。
type decodeResult struct {
	Make            string `json:"Make"`
	Model           string `json:"Model"`
	ModelYear       string `json:"ModelYear"`
	FuelTypePrimary string `json:"FuelTypePrimary"`
	EngineHP        string `json:"EngineHP"`
	EngineBrakeHP   string `json:"EngineBrake_hp"`
}

type decodeResponse struct {
	Results []decodeResult `json:"Results"`
}

// Decode 调用 DecodeVinValues 并把响应转换为车辆模板。
// 缺失字段按历史实现兜底：品牌/型号/燃料为 "Unknown"，年份取当前年，
// 马力四舍五入取整。价格留空由录入人补填。
func (c *Client) Decode(ctx context.Context, vin, modelYear string) (*dealership.Car, error) {
	vin = strings.TrimSpace(vin)
	if vin == "" {
		return nil, fmt.Errorf("%w: vin is required", dealership.ErrValidation)
	}

	reqURL := fmt.Sprintf("%s/vehicles/DecodeVinValues/%s?format=json", c.baseURL, url.PathEscape(vin))
	if modelYear != "" {
		reqURL += "&modelyear=" + url.QueryEscape(modelYear)
	}

	var payload decodeResponse
	err := c.breaker.Call(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("vin decode returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&payload)
	})
	if err != nil {
		return nil, fmt.Errorf("decode vin %s: %w", vin, err)
	}
	if len(payload.Results) == 0 {
		return nil, fmt.Errorf("decode vin %s: empty result set", vin)
	}

	r := payload.Results[0]
	car := &dealership.Car{
		ID:    vin,
		Brand: orUnknown(r.Make),
		Model: orUnknown(r.Model),
		Year:  c.parseYear(r.ModelYear),
		Price: dealership.Price{Currency: dealership.DefaultCurrency, Value: decimal.Zero},
		Engine: dealership.Engine{
			Type:        strings.ToLower(orUnknown(r.FuelTypePrimary)),
			Description: orUnknown(r.FuelTypePrimary),
		},
		Horsepower: parseHorsepower(r.EngineHP, r.EngineBrakeHP),
	}

	c.log.WithFields(map[string]interface{}{
		"vin":   vin,
		"brand": car.Brand,
		"model": car.Model,
	}).Debug("vin decoded")
	return car, nil
}

func (c *Client) parseYear(s string) int {
	if y, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return y
	}
	return c.nowYear()
}

// 马力字段优先 EngineHP，缺失时退回 EngineBrake_hp；外部服务会返回
// "315.0000" 这样的小数文本。
func parseHorsepower(primary, fallback string) int {
	for _, s := range []string{primary, fallback} {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(math.Round(f))
		}
	}
	return 0
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Unknown"
	}
	return s
}

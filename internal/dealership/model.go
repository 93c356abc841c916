package dealership

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCurrency 价格缺省币种。
	DefaultCurrency = "USD"
	// EngineTypeHybrid 混动引擎标记（Search 的 isHybrid 谓词按它做精确匹配）。
	EngineTypeHybrid = "hybrid"
)

// Car 库存文档中的车辆记录。ID 历史上是 VIN，但存储层只把它当作不透明且
// 全局唯一的标识，不做格式校验。
type Car struct {
	ID         string `xml:"id,attr"`
	Brand      string `xml:"brand"`
	Model      string `xml:"model"`
	Year       int    `xml:"year"`
	Price      Price  `xml:"price"`
	Engine     Engine `xml:"engine"`
	Horsepower int    `xml:"horsepower"`
}

// Price 币种属性 + 十进制金额，对应 <price currency="USD">10000.00</price>。
type Price struct {
	Currency string
	Value    decimal.Decimal
}

func (p Price) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	cur := p.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "currency"}, Value: cur})
	return e.EncodeElement(p.Value.StringFixed(2), start)
}

func (p *Price) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Currency string `xml:"currency,attr"`
		Value    string `xml:",chardata"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	p.Currency = raw.Currency
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	text := strings.TrimSpace(raw.Value)
	if text == "" {
		p.Value = decimal.Zero
		return nil
	}
	v, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid price value %q: %w", text, err)
	}
	p.Value = v
	return nil
}

// Engine 引擎类型属性 + 自由文本描述，对应 <engine type="hybrid">2.5L I4</engine>。
type Engine struct {
	Type        string
	Description string
}

func (en Engine) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "type"}, Value: en.Type})
	return e.EncodeElement(en.Description, start)
}

func (en *Engine) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Type        string `xml:"type,attr"`
		Description string `xml:",chardata"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	en.Type = raw.Type
	en.Description = strings.TrimSpace(raw.Description)
	return nil
}

// PaymentMethod 支付方式枚举（持久化为字符串）。
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentCredit   PaymentMethod = "Credit"
	PaymentFinanced PaymentMethod = "Financed"
)

// ParsePaymentMethod 解析支付方式，大小写不敏感，拒绝封闭集合之外的值。
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, nil
	case "credit":
		return PaymentCredit, nil
	case "financed":
		return PaymentFinanced, nil
	}
	return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, s)
}

// Sale 销售文档中的成交记录。Car 是成交时刻车辆记录的完整快照，
// 单凭它即可在撤销时重建车辆，不依赖库存文档。
type Sale struct {
	SaleID        string          `xml:"saleId,attr"`
	SalesmanID    string          `xml:"salesmanId"`
	CustomerID    string          `xml:"customerId"`
	CarID         string          `xml:"carId"`
	DateTime      time.Time       `xml:"dateTime"`
	PaymentMethod PaymentMethod   `xml:"paymentMethod"`
	Price         decimal.Decimal `xml:"price"`
	Car           *Car            `xml:"car"`
}

// SaleRequest 卖出操作的入参（传输层 DTO 的基础）。
type SaleRequest struct {
	CarID         string
	CustomerID    string
	SalesmanID    string
	Price         decimal.Decimal
	PaymentMethod PaymentMethod
}

type inventoryDocument struct {
	XMLName xml.Name `xml:"dealership"`
	Cars    []Car    `xml:"cars>car"`
}

type salesDocument struct {
	XMLName xml.Name `xml:"sales"`
	Sales   []Sale   `xml:"sale"`
}

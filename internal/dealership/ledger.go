package dealership

import (
	"fmt"
	"os"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

// Ledger 销售文档（sales.xml）的原语层。与 Store 一样每次操作重新加载、
// 整文档重写、自身不加锁。
type Ledger struct {
	path string
	mode xmldoc.DurabilityMode
}

func NewLedger(path string, mode xmldoc.DurabilityMode) *Ledger {
	return &Ledger{path: path, mode: mode}
}

// Path 返回后备文档路径（供调用层做变更后校验）。
func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) load() (*salesDocument, error) {
	doc := &salesDocument{}
	err := xmldoc.Load(l.path, doc)
	if os.IsNotExist(err) {
		// 尚无任何销售时文档不存在
		return &salesDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}
	return doc, nil
}

func (l *Ledger) save(doc *salesDocument) error {
	return xmldoc.Save(l.path, doc, l.mode)
}

// All 按文档顺序返回全部成交记录。
func (l *Ledger) All() ([]Sale, error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	return doc.Sales, nil
}

// GetByID 按销售标识查找成交记录。
func (l *Ledger) GetByID(saleID string) (*Sale, error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	if i := findSale(doc, saleID); i >= 0 {
		s := doc.Sales[i]
		return &s, nil
	}
	return nil, fmt.Errorf("%w: sale %q", ErrNotFound, saleID)
}

// Append 追加成交记录（含车辆快照）并整文档持久化。
func (l *Ledger) Append(sale Sale) error {
	doc, err := l.load()
	if err != nil {
		return err
	}
	doc.Sales = append(doc.Sales, sale)
	return l.save(doc)
}

// Remove 移除成交记录并整文档持久化。
func (l *Ledger) Remove(saleID string) error {
	doc, err := l.load()
	if err != nil {
		return err
	}
	i := findSale(doc, saleID)
	if i < 0 {
		return fmt.Errorf("%w: sale %q", ErrNotFound, saleID)
	}
	doc.Sales = append(doc.Sales[:i], doc.Sales[i+1:]...)
	return l.save(doc)
}

// CountByCustomer 统计每个客户的成交数量。
func (l *Ledger) CountByCustomer() (map[string]int, error) {
	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int)
	for i := range doc.Sales {
		out[doc.Sales[i].CustomerID]++
	}
	return out, nil
}

func findSale(doc *salesDocument, saleID string) int {
	for i := range doc.Sales {
		if doc.Sales[i].SaleID == saleID {
			return i
		}
	}
	return -1
}

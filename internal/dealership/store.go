package dealership

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

// Store 库存文档（dealership.xml）的原语层：每次操作都重新从磁盘加载文档，
// 任何变更都整文档重写，文档本身是唯一事实来源（跨调用不持有内存缓存）。
//
// Store 自身不加锁，并发安全由 Service 的全局闸保证；包外调用必须经过 Service。
type Store struct {
	path string
	mode xmldoc.DurabilityMode
}

func NewStore(path string, mode xmldoc.DurabilityMode) *Store {
	return &Store{path: path, mode: mode}
}

// Path 返回后备文档路径（供调用层做变更后校验）。
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load() (*inventoryDocument, error) {
	doc := &inventoryDocument{}
	err := xmldoc.Load(s.path, doc)
	if os.IsNotExist(err) {
		// 文档尚未创建时视为空库存
		return &inventoryDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataCorruption, err)
	}
	return doc, nil
}

func (s *Store) save(doc *inventoryDocument) error {
	return xmldoc.Save(s.path, doc, s.mode)
}

// GetAll 按文档顺序返回全部在售车辆。
func (s *Store) GetAll() ([]Car, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Cars, nil
}

// GetByID 按标识精确查找。
func (s *Store) GetByID(id string) (*Car, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if i := findCar(doc, id); i >= 0 {
		c := doc.Cars[i]
		return &c, nil
	}
	return nil, fmt.Errorf("%w: car %q", ErrNotFound, id)
}

// Add 追加车辆记录并整文档持久化。
// 标识或品牌为空拒绝（ErrValidation）；标识已存在拒绝（ErrConflict）。
func (s *Store) Add(car Car) error {
	if strings.TrimSpace(car.ID) == "" || strings.TrimSpace(car.Brand) == "" {
		return fmt.Errorf("%w: 'id' and 'brand' are mandatory", ErrValidation)
	}
	doc, err := s.load()
	if err != nil {
		return err
	}
	if findCar(doc, car.ID) >= 0 {
		return fmt.Errorf("%w: car %q already exists", ErrConflict, car.ID)
	}
	if car.Price.Currency == "" {
		car.Price.Currency = DefaultCurrency
	}
	doc.Cars = append(doc.Cars, car)
	return s.save(doc)
}

// UpdatePrice 覆盖价格金额并保留原币种。金额本身不在这里校验，
// "> 0" 检查由调用层负责。
func (s *Store) UpdatePrice(id string, newPrice decimal.Decimal) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	i := findCar(doc, id)
	if i < 0 {
		return fmt.Errorf("%w: car %q", ErrNotFound, id)
	}
	doc.Cars[i].Price.Value = newPrice
	return s.save(doc)
}

// Delete 移除车辆记录并整文档持久化。
func (s *Store) Delete(id string) error {
	doc, err := s.load()
	if err != nil {
		return err
	}
	i := findCar(doc, id)
	if i < 0 {
		return fmt.Errorf("%w: car %q", ErrNotFound, id)
	}
	doc.Cars = append(doc.Cars[:i], doc.Cars[i+1:]...)
	return s.save(doc)
}

// Search 返回满足全部给定谓词（AND）的车辆；未给定的谓词不参与过滤。
func (s *Store) Search(f Filter) ([]Car, error) {
	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]Car, 0, len(doc.Cars))
	for i := range doc.Cars {
		if f.Matches(&doc.Cars[i]) {
			out = append(out, doc.Cars[i])
		}
	}
	return out, nil
}

func findCar(doc *inventoryDocument, id string) int {
	for i := range doc.Cars {
		if doc.Cars[i].ID == id {
			return i
		}
	}
	return -1
}

package dealership

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/common/logger"
)

// Service 两份文档的统一入口：持有全局排他闸，把 Store/Ledger 的原语
// 包装成并发安全的操作。历史实现只在卖出/撤销时加锁，普通 CRUD 可以与
// 在途事务竞态；这里把同一把闸套在每一个入口上（读也经过闸，
// direct 模式下整文件重写期间的读取才不会观察到半成品文档）。
type Service struct {
	guard  Guard
	store  *Store
	ledger *Ledger
	log    logger.Logger
	now    func() time.Time
}

func NewService(store *Store, ledger *Ledger, log logger.Logger) *Service {
	return &Service{
		store:  store,
		ledger: ledger,
		log:    log,
		now:    time.Now,
	}
}

// ListCars 返回全部在售车辆（文档顺序）。
func (s *Service) ListCars(ctx context.Context) ([]Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	var out []Car
	err := s.guard.Do(func() error {
		var err error
		out, err = s.store.GetAll()
		return err
	})
	return out, err
}

// GetCar 按标识查找车辆。
func (s *Service) GetCar(ctx context.Context, id string) (*Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	var out *Car
	err := s.guard.Do(func() error {
		var err error
		out, err = s.store.GetByID(id)
		return err
	})
	return out, err
}

// AddCar 新增车辆记录。
func (s *Service) AddCar(ctx context.Context, car Car) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.guard.Do(func() error {
		return s.store.Add(car)
	})
}

// UpdateCarPrice 覆盖价格金额（币种保留）。
func (s *Service) UpdateCarPrice(ctx context.Context, id string, newPrice decimal.Decimal) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.guard.Do(func() error {
		return s.store.UpdatePrice(id, newPrice)
	})
}

// DeleteCar 直接从库存移除车辆（不经过卖出状态机）。
func (s *Service) DeleteCar(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("service not initialized")
	}
	return s.guard.Do(func() error {
		return s.store.Delete(id)
	})
}

// SearchCars 按类型化谓词检索库存。
func (s *Service) SearchCars(ctx context.Context, f Filter) ([]Car, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	var out []Car
	err := s.guard.Do(func() error {
		var err error
		out, err = s.store.Search(f)
		return err
	})
	return out, err
}

// GetSale 按销售标识查找成交记录。
func (s *Service) GetSale(ctx context.Context, saleID string) (*Sale, error) {
	if s == nil || s.ledger == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	var out *Sale
	err := s.guard.Do(func() error {
		var err error
		out, err = s.ledger.GetByID(saleID)
		return err
	})
	return out, err
}

// SalesPerCustomer 统计每个客户的成交数量。
func (s *Service) SalesPerCustomer(ctx context.Context) (map[string]int, error) {
	if s == nil || s.ledger == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	var out map[string]int
	err := s.guard.Do(func() error {
		var err error
		out, err = s.ledger.CountByCustomer()
		return err
	})
	return out, err
}

package dealership

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sell 执行卖出事务：在闸内查找车辆，生成成交记录（新销售标识 + UTC 时间戳 +
// 车辆完整快照），先持久化销售文档、再持久化库存文档。这是一次移动而不是
// 复制：成功后车辆只存在于销售文档的快照里。
//
// 两次写入之间进程崩溃会留下不一致的两份文档，这是已接受的设计限制；
// 先写销售文档保证车辆信息不会丢，最多出现"已记录成交但车辆仍在库"。
// 成交后的销售文档结构校验由调用层执行，这里不回滚（与 Add 的策略有意不同）。
func (s *Service) Sell(ctx context.Context, req SaleRequest) (string, error) {
	if s == nil || s.store == nil || s.ledger == nil {
		return "", fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(req.CarID) == "" || strings.TrimSpace(req.CustomerID) == "" {
		return "", fmt.Errorf("%w: carId and customerId are required", ErrValidation)
	}
	if _, err := ParsePaymentMethod(string(req.PaymentMethod)); err != nil {
		return "", err
	}

	var saleID string
	err := s.guard.Do(func() error {
		invDoc, err := s.store.load()
		if err != nil {
			return err
		}
		i := findCar(invDoc, req.CarID)
		if i < 0 {
			// 不存在就不伪造成交记录
			return fmt.Errorf("%w: car %q", ErrNotFound, req.CarID)
		}
		if !CanTransition(StateInInventory, StateSold) {
			return fmt.Errorf("invalid transition: %s -> %s", StateInInventory, StateSold)
		}

		snapshot := invDoc.Cars[i]
		sale := Sale{
			SaleID:        uuid.NewString(),
			SalesmanID:    req.SalesmanID,
			CustomerID:    req.CustomerID,
			CarID:         req.CarID,
			DateTime:      s.now().UTC(),
			PaymentMethod: req.PaymentMethod,
			Price:         req.Price,
			Car:           &snapshot,
		}

		salesDoc, err := s.ledger.load()
		if err != nil {
			return err
		}
		salesDoc.Sales = append(salesDoc.Sales, sale)
		if err := s.ledger.save(salesDoc); err != nil {
			return fmt.Errorf("persist sales document: %w", err)
		}

		invDoc.Cars = append(invDoc.Cars[:i], invDoc.Cars[i+1:]...)
		if err := s.store.save(invDoc); err != nil {
			// 成交已落盘而车辆未移除：两份文档此刻不一致
			s.log.Errorf("sale %s recorded but inventory write failed, documents are inconsistent: %v", sale.SaleID, err)
			return fmt.Errorf("persist inventory document: %w", err)
		}

		saleID = sale.SaleID
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.WithFields(map[string]interface{}{
		"sale_id": saleID,
		"car_id":  req.CarID,
	}).Info("car sold")
	return saleID, nil
}

// Revert 撤销一笔成交：仅在成交时间戳起 3 小时窗口内允许，把快照按原样
// 放回库存文档并删除成交记录。快照缺失说明记录在创建时就已畸形，
// 无法安全撤销，按文档损坏处理。
func (s *Service) Revert(ctx context.Context, saleID string) error {
	if s == nil || s.store == nil || s.ledger == nil {
		return fmt.Errorf("service not initialized")
	}
	if strings.TrimSpace(saleID) == "" {
		return fmt.Errorf("%w: saleId is required", ErrValidation)
	}

	err := s.guard.Do(func() error {
		salesDoc, err := s.ledger.load()
		if err != nil {
			return err
		}
		i := findSale(salesDoc, saleID)
		if i < 0 {
			return fmt.Errorf("%w: sale %q", ErrNotFound, saleID)
		}
		sale := salesDoc.Sales[i]

		if !WithinRevertWindow(sale.DateTime, s.now()) {
			return fmt.Errorf("%w: sale %s is older than %s", ErrWindowExpired, saleID, RevertWindow)
		}
		if sale.Car == nil {
			return fmt.Errorf("%w: sale %s has no embedded car snapshot", ErrDataCorruption, saleID)
		}
		if !CanTransition(StateSold, StateInInventory) {
			return fmt.Errorf("invalid transition: %s -> %s", StateSold, StateInInventory)
		}

		invDoc, err := s.store.load()
		if err != nil {
			return err
		}
		if findCar(invDoc, sale.Car.ID) >= 0 {
			// 撤销期间有人重新用同一标识入库，直接放回会破坏标识唯一性
			return fmt.Errorf("%w: car %q already back in inventory", ErrConflict, sale.Car.ID)
		}

		restored := *sale.Car
		invDoc.Cars = append(invDoc.Cars, restored)
		if err := s.store.save(invDoc); err != nil {
			return fmt.Errorf("persist inventory document: %w", err)
		}

		salesDoc.Sales = append(salesDoc.Sales[:i], salesDoc.Sales[i+1:]...)
		if err := s.ledger.save(salesDoc); err != nil {
			// 车辆已回库而成交记录未删除：两份文档此刻不一致
			s.log.Errorf("car %s restored but sales write failed, documents are inconsistent: %v", sale.Car.ID, err)
			return fmt.Errorf("persist sales document: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.WithField("sale_id", saleID).Info("sale reverted")
	return nil
}

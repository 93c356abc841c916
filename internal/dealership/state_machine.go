package dealership

import "time"

// State 车辆相对于两份文档的状态。只有两个状态：在库、已售出；
// 直接 Delete 掉的车辆不经过这台状态机。
type State string

const (
	StateInInventory State = "in_inventory" // 记录在库存文档中
	StateSold        State = "sold"         // 记录（快照）在销售文档中
)

// AllowTransition 定义允许的状态流转关系：卖出与撤销互为逆操作。
var AllowTransition = map[State][]State{
	StateInInventory: {StateSold},
	StateSold:        {StateInInventory},
}

// CanTransition 判断 from -> to 是否是一个允许的状态流转。
func CanTransition(from, to State) bool {
	for _, s := range AllowTransition[from] {
		if s == to {
			return true
		}
	}
	return false
}

// RevertWindow 卖出后允许撤销的固定时间窗口。
const RevertWindow = 3 * time.Hour

// WithinRevertWindow 判断 now 距成交时刻是否仍在撤销窗口内。
// 恰好等于窗口长度仍然允许；超出才算过期。
func WithinRevertWindow(soldAt, now time.Time) bool {
	return now.Sub(soldAt) <= RevertWindow
}

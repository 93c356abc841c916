package dealership

import "sync"

// Guard 进程级排他闸：跨库存与销售两份文档串行化全部操作，
// 任意时刻至多一个操作在途，被阻塞的调用方挂起直到闸释放（无超时）。
type Guard struct {
	mu sync.Mutex
}

// Do 以作用域方式持闸执行 fn，包括出错在内的所有退出路径都保证释放。
func (g *Guard) Do(fn func() error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fn()
}

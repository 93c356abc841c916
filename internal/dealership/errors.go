package dealership

import "errors"

// 领域错误按类别定义为哨兵，调用方用 errors.Is 区分：
// 未找到、输入缺失、标识冲突、后备文档损坏、撤销窗口过期。
// 传输层据此选择响应码，存储层不关心传输语义。
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrConflict       = errors.New("conflict")
	ErrDataCorruption = errors.New("data corruption")
	ErrWindowExpired  = errors.New("reversal window expired")
)

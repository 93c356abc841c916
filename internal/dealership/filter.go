package dealership

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Filter 类型化的检索谓词。指针为 nil 表示该谓词未给定，不参与过滤；
// 谓词之间是合取关系。谓词在进程内对已加载记录求值，
// 调用方文本永远不会被拼接进任何查询语句。
type Filter struct {
	Brand    *string          // 品牌，大小写不敏感的精确匹配
	Model    *string          // 型号，大小写不敏感的精确匹配
	Year     *int             // 年份，精确匹配
	MinPrice *decimal.Decimal // 价格下界（含）
	MaxPrice *decimal.Decimal // 价格上界（含）
	IsHybrid *bool            // true: 引擎类型等于 hybrid；false: 不等于
}

// Matches 判断单条记录是否满足全部已给定的谓词。
func (f Filter) Matches(c *Car) bool {
	if f.Brand != nil && !strings.EqualFold(c.Brand, *f.Brand) {
		return false
	}
	if f.Model != nil && !strings.EqualFold(c.Model, *f.Model) {
		return false
	}
	if f.Year != nil && c.Year != *f.Year {
		return false
	}
	if f.MinPrice != nil && c.Price.Value.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && c.Price.Value.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.IsHybrid != nil {
		hybrid := c.Engine.Type == EngineTypeHybrid
		if hybrid != *f.IsHybrid {
			return false
		}
	}
	return true
}

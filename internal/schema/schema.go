// Package schema 对 XML 文档做结构与内容校验：必填元素/属性、取值范围、
// 枚举、文本类型。校验不会在第一处违规停下，而是收集文档里能发现的
// 全部违规，每条带严重级别，便于调用层一次性呈现。
package schema

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/AutoLedger/AutoLedger/internal/xmldoc"
)

// Severity 违规严重级别。
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Violation 单条违规：元素路径 + 可读信息。
type Violation struct {
	Severity Severity
	Path     string
	Message  string
}

func (v Violation) String() string {
	return fmt.Sprintf("[%s] %s: %s", v.Severity, v.Path, v.Message)
}

// ValueType 叶子元素/属性文本的类型约束。
type ValueType string

const (
	TypeString   ValueType = "string"
	TypeInt      ValueType = "int"
	TypeDecimal  ValueType = "decimal"
	TypeDateTime ValueType = "dateTime" // RFC3339
)

// AttrRule 属性约束。
type AttrRule struct {
	Name     string
	Required bool
	Enum     []string
}

// ElementRule 元素约束。Type 为空表示纯容器元素（只校验子元素）。
// Children 为该元素允许出现的子元素；不在其中的子元素按 warning 报告。
type ElementRule struct {
	Name     string
	Required bool
	Repeated bool
	Type     ValueType
	Enum     []string
	MinInt   *int
	MaxInt   *int
	MinDec   *decimal.Decimal
	Attrs    []AttrRule
	Children []ElementRule
}

// Validate 从根元素开始校验整棵文档树，返回全部违规（空切片 = 合法）。
func Validate(root *xmldoc.Node, rule ElementRule) []Violation {
	out := []Violation{}
	if root.Name() != rule.Name {
		out = append(out, errf("/"+root.Name(), "root element must be <%s>, got <%s>", rule.Name, root.Name()))
		return out
	}
	validateElement(root, rule, "/"+rule.Name, &out)
	return out
}

func validateElement(n *xmldoc.Node, rule ElementRule, path string, out *[]Violation) {
	for _, ar := range rule.Attrs {
		val, ok := n.Attr(ar.Name)
		if !ok || val == "" {
			if ar.Required {
				*out = append(*out, errf(path, "missing required attribute %q", ar.Name))
			}
			continue
		}
		if len(ar.Enum) > 0 && !inEnum(ar.Enum, val) {
			*out = append(*out, errf(path, "attribute %q value %q not in %v", ar.Name, val, ar.Enum))
		}
	}

	if rule.Type != "" {
		checkText(n.Text, rule, path, out)
	}

	allowed := make(map[string]ElementRule, len(rule.Children))
	for _, cr := range rule.Children {
		allowed[cr.Name] = cr
	}
	for i := range n.Children {
		child := &n.Children[i]
		if _, ok := allowed[child.Name()]; !ok {
			*out = append(*out, warnf(path, "unexpected element <%s>", child.Name()))
		}
	}
	for _, cr := range rule.Children {
		matches := n.ChildrenNamed(cr.Name)
		if len(matches) == 0 {
			if cr.Required {
				*out = append(*out, errf(path, "missing required element <%s>", cr.Name))
			}
			continue
		}
		if !cr.Repeated && len(matches) > 1 {
			*out = append(*out, errf(path, "element <%s> must not repeat (found %d)", cr.Name, len(matches)))
		}
		for _, m := range matches {
			validateElement(m, cr, path+"/"+cr.Name, out)
		}
	}
}

func checkText(text string, rule ElementRule, path string, out *[]Violation) {
	if text == "" {
		if rule.Type != TypeString {
			*out = append(*out, errf(path, "empty value, expected %s", rule.Type))
		}
		return
	}
	if len(rule.Enum) > 0 && !inEnum(rule.Enum, text) {
		*out = append(*out, errf(path, "value %q not in %v", text, rule.Enum))
	}
	switch rule.Type {
	case TypeInt:
		v, err := strconv.Atoi(text)
		if err != nil {
			*out = append(*out, errf(path, "value %q is not an integer", text))
			return
		}
		if rule.MinInt != nil && v < *rule.MinInt {
			*out = append(*out, errf(path, "value %d below minimum %d", v, *rule.MinInt))
		}
		if rule.MaxInt != nil && v > *rule.MaxInt {
			*out = append(*out, errf(path, "value %d above maximum %d", v, *rule.MaxInt))
		}
	case TypeDecimal:
		v, err := decimal.NewFromString(text)
		if err != nil {
			*out = append(*out, errf(path, "value %q is not a decimal", text))
			return
		}
		if rule.MinDec != nil && v.LessThan(*rule.MinDec) {
			*out = append(*out, errf(path, "value %s below minimum %s", v, rule.MinDec))
		}
	case TypeDateTime:
		if _, err := time.Parse(time.RFC3339, text); err != nil {
			*out = append(*out, errf(path, "value %q is not an RFC3339 timestamp", text))
		}
	}
}

func inEnum(enum []string, v string) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}

func errf(path, format string, args ...interface{}) Violation {
	return Violation{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...interface{}) Violation {
	return Violation{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

package xmldoc

import (
	"encoding/xml"
	"os"
	"strings"
)

// Node 通用 XML 节点树，供结构校验（schema 包）在不绑定具体模型的前提下
// 遍历文档。Text 只保留去掉首尾空白后的字符数据。
type Node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []Node     `xml:",any"`
}

// ParseTree 将整个 XML 文件解析为通用节点树。
func ParseTree(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var root Node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	root.trim()
	return &root, nil
}

func (n *Node) trim() {
	n.Text = strings.TrimSpace(n.Text)
	for i := range n.Children {
		n.Children[i].trim()
	}
}

// Name 返回元素本地名。
func (n *Node) Name() string {
	return n.XMLName.Local
}

// Attr 按名称查找属性值。
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Child 返回第一个指定名称的子元素，不存在时返回 nil。
func (n *Node) Child(name string) *Node {
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			return &n.Children[i]
		}
	}
	return nil
}

// ChildrenNamed 返回全部指定名称的子元素。
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for i := range n.Children {
		if n.Children[i].XMLName.Local == name {
			out = append(out, &n.Children[i])
		}
	}
	return out
}

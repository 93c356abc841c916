package xmldoc

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// DurabilityMode 控制整文档重写的落盘方式。
type DurabilityMode string

const (
	// DurabilityDirect 原地整文件重写。进程在两份文档写入之间崩溃时，
	// 两份文档可能不一致（与历史实现一致的已接受风险）。
	DurabilityDirect DurabilityMode = "direct"
	// DurabilityStaged 先写临时文件再 rename。单文档写入是原子的，
	// 跨文档的不一致窗口收窄到两次 rename 之间，但并未完全消除。
	DurabilityStaged DurabilityMode = "staged"
)

// ParseDurability 解析配置中的 durability 字段，空值回退到 direct。
func ParseDurability(s string) (DurabilityMode, error) {
	switch DurabilityMode(s) {
	case DurabilityDirect, "":
		return DurabilityDirect, nil
	case DurabilityStaged:
		return DurabilityStaged, nil
	}
	return "", fmt.Errorf("unknown durability mode: %q", s)
}

// Load 读取整个 XML 文档并反序列化到 v。
// 文件不存在时原样返回底层错误，调用方通过 os.IsNotExist 决定语义
// （库存文档不存在视为空库存，销售文档不存在视为尚无销售）。
func Load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("malformed xml in %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Save 将 v 序列化为带缩进的 XML 并整文件重写。
func Save(path string, v any, mode DurabilityMode) error {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal xml for %s: %w", filepath.Base(path), err)
	}
	data := append([]byte(xml.Header), body...)
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	switch mode {
	case DurabilityStaged:
		return saveStaged(path, data)
	default:
		return os.WriteFile(path, data, 0o644)
	}
}

func saveStaged(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

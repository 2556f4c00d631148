package clipboard

import (
	"github.com/atotto/clipboard"
)

// Copier 剪贴板投递接口
// 核心只负责把命令文本交给投递方，结果仅用于提示，从不致命
type Copier interface {
	// Copy 把文本写入系统剪贴板，返回是否成功
	Copy(text string) bool
}

// systemCopier 系统剪贴板实现
type systemCopier struct{}

// NewSystemCopier 创建系统剪贴板投递实例
func NewSystemCopier() Copier {
	return &systemCopier{}
}

// Copy 把文本写入系统剪贴板
func (c *systemCopier) Copy(text string) bool {
	if text == "" {
		return false
	}
	return clipboard.WriteAll(text) == nil
}

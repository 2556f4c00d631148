package installer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoPendingWork 项目状态已是终态，没有待执行的安装阶段
	// 属于提示性错误，不代表故障
	ErrNoPendingWork = errors.New("没有待执行的安装阶段")

	// ErrIncompletePlan 安装清单尚未全部完成，拒绝收尾操作
	ErrIncompletePlan = errors.New("安装清单尚未完成")

	// ErrPersistence 注册表持久化失败
	// 会话状态保留在内存中，操作员可直接重试而无需重新扫描
	ErrPersistence = errors.New("注册表持久化失败")
)

// ConfigurationIncompleteError 模板替换所需的配置值缺失
// 携带缺失的键名，向操作员明确指出需要补齐的配置项
type ConfigurationIncompleteError struct {
	Key string // 缺失的占位符键名
}

// Error 实现 error 接口
func (e *ConfigurationIncompleteError) Error() string {
	return fmt.Sprintf("配置不完整: 缺少模板值 %q", e.Key)
}

package domain

import "time"

// InstallStatus 项目的 APEX 安装状态
// 状态只能沿 NOT_STARTED → ARTIFACTS_PENDING → IN_PROGRESS → APEX_READY 单向推进
type InstallStatus string

const (
	StatusNotStarted       InstallStatus = "NOT_STARTED"       // 尚未开始安装
	StatusArtifactsPending InstallStatus = "ARTIFACTS_PENDING" // 等待安装包就位
	StatusInProgress       InstallStatus = "IN_PROGRESS"       // 安装进行中
	StatusApexReady        InstallStatus = "APEX_READY"        // APEX 已就绪
)

// ParseInstallStatus 解析安装状态字符串，未知值回退为 NOT_STARTED
func ParseInstallStatus(s string) InstallStatus {
	switch InstallStatus(s) {
	case StatusArtifactsPending, StatusInProgress, StatusApexReady:
		return InstallStatus(s)
	default:
		return StatusNotStarted
	}
}

// Project 表示一个客户项目
type Project struct {
	Name          string        // 项目名称（唯一）
	ContainerName string        // Docker 容器名称（可选）
	ContainerID   string        // Docker 容器 ID（可选）
	ApexURL       string        // APEX 访问地址（可选）
	Status        InstallStatus // 安装状态
	StagesDone    int           // 已完成的安装阶段数（高水位标记）
	CreatedAt     time.Time     // 创建时间
	UpdatedAt     time.Time     // 更新时间
}

// HasContainer 判断项目是否已记录完整的容器信息
func (p *Project) HasContainer() bool {
	return p.ContainerName != "" && p.ContainerID != ""
}

// ContainerReference 返回可用于 docker 命令的容器引用，优先使用容器 ID
func (p *Project) ContainerReference() string {
	if p.ContainerID != "" {
		return p.ContainerID
	}
	return p.ContainerName
}

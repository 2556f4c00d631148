package service

import (
	"context"
	"fmt"

	"github.com/jacj/apexpilot/internal/clipboard"
	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/jacj/apexpilot/internal/installer"
	"github.com/jacj/apexpilot/internal/repository"
)

// InstallService 安装向导服务接口
// 把扫描器、阶段排序和步骤清单编排到操作员可用的流程上
type InstallService interface {
	// ScanArtifacts 扫描安装包目录
	ScanArtifacts(ctx context.Context) (domain.ScanResult, error)

	// ArtifactSummary 生成安装包状态摘要（逐行展示）
	ArtifactSummary(scan domain.ScanResult) []string

	// MissingArtifactNotes 生成缺失安装包的下载提示
	MissingArtifactNotes(scan domain.ScanResult) []string

	// PendingStages 计算项目剩余的安装阶段（只读，不建立会话）
	PendingStages(ctx context.Context, projectName string) ([]domain.Stage, error)

	// StartSession 为项目启动安装向导会话
	StartSession(ctx context.Context, projectName string) (*installer.Session, error)

	// CopyText 把命令文本投递到剪贴板，返回是否成功
	CopyText(text string) bool
}

// installService 安装向导服务实现
type installService struct {
	cfg         *config.Config
	projectRepo repository.ProjectRepository
	copier      clipboard.Copier
}

// NewInstallService 创建安装向导服务实例
func NewInstallService(cfg *config.Config, projectRepo repository.ProjectRepository, copier clipboard.Copier) InstallService {
	return &installService{
		cfg:         cfg,
		projectRepo: projectRepo,
		copier:      copier,
	}
}

// ScanArtifacts 扫描安装包目录
func (s *installService) ScanArtifacts(ctx context.Context) (domain.ScanResult, error) {
	return installer.NewArtifactScanner(s.cfg.ArtifactDir).Scan()
}

// ArtifactSummary 生成安装包状态摘要
func (s *installService) ArtifactSummary(scan domain.ScanResult) []string {
	var lines []string
	for _, kind := range []domain.ArtifactKind{domain.ArtifactJava, domain.ArtifactApex, domain.ArtifactOrds} {
		artifact := scan.Artifact(kind)
		if artifact.Found {
			lines = append(lines, fmt.Sprintf("%s: %s", artifact.FriendlyName, artifact.Path))
		} else {
			lines = append(lines, fmt.Sprintf("%s: 未找到", artifact.FriendlyName))
		}
	}
	return lines
}

// MissingArtifactNotes 生成缺失安装包的下载提示
func (s *installService) MissingArtifactNotes(scan domain.ScanResult) []string {
	var notes []string
	for _, artifact := range scan.Missing() {
		notes = append(notes, fmt.Sprintf("缺少 %s，下载地址: %s", artifact.FriendlyName, artifact.DownloadURL))
	}
	return notes
}

// PendingStages 计算项目剩余的安装阶段
func (s *installService) PendingStages(ctx context.Context, projectName string) ([]domain.Stage, error) {
	project, err := s.projectRepo.GetProject(projectName)
	if err != nil {
		return nil, err
	}

	scan, err := s.ScanArtifacts(ctx)
	if err != nil {
		return nil, err
	}

	return installer.PendingStages(project, scan), nil
}

// StartSession 为项目启动安装向导会话
func (s *installService) StartSession(ctx context.Context, projectName string) (*installer.Session, error) {
	project, err := s.projectRepo.GetProject(projectName)
	if err != nil {
		return nil, err
	}

	return installer.StartSession(s.cfg, s.projectRepo, project)
}

// CopyText 把命令文本投递到剪贴板
func (s *installService) CopyText(text string) bool {
	return s.copier.Copy(text)
}

package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/jacj/apexpilot/internal/logger"
	"github.com/jacj/apexpilot/internal/repository"
)

// ProjectService 项目服务接口
type ProjectService interface {
	// CreateProject 创建新项目
	// containerName 和 apexURL 可以为空，后续再补录
	CreateProject(ctx context.Context, name, containerName, apexURL string) (*domain.Project, error)

	// GetProject 获取项目信息
	GetProject(ctx context.Context, name string) (*domain.Project, error)

	// ListProjects 列出所有项目
	ListProjects(ctx context.Context) ([]*domain.Project, error)

	// ListProjectsMissingContainer 列出缺少容器信息的项目
	ListProjectsMissingContainer(ctx context.Context) ([]*domain.Project, error)

	// AssignContainer 为项目补录容器信息
	AssignContainer(ctx context.Context, name, containerName, containerID string) error

	// RenameProject 重命名项目
	RenameProject(ctx context.Context, oldName, newName string) error

	// UpdateApexURL 更新项目的 APEX 访问地址
	UpdateApexURL(ctx context.Context, name, url string) error

	// DeleteProject 删除项目记录（不触碰 Docker 容器）
	DeleteProject(ctx context.Context, name string) error

	// SuggestContainerName 根据项目名推荐一个未占用的容器名
	SuggestContainerName(ctx context.Context, projectName string) (string, error)

	// DockerRunCommand 生成启动 Oracle XE 容器的完整命令文本
	// 仅生成文本供操作员复制执行，程序不与 Docker 通信
	DockerRunCommand(containerName string) string

	// DockerVerifyCommands 生成核对容器状态的命令文本
	DockerVerifyCommands(containerName string) []string
}

// projectService 项目服务实现
type projectService struct {
	cfg         *config.Config
	projectRepo repository.ProjectRepository
}

// NewProjectService 创建项目服务实例
func NewProjectService(cfg *config.Config, projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{
		cfg:         cfg,
		projectRepo: projectRepo,
	}
}

// projectNamePattern 项目名只允许字母、数字、连字符和下划线
var projectNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// validateProjectName 校验项目名称
func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("项目名称不能为空")
	}
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("项目名称 %s 不合法，只能包含字母、数字、连字符和下划线", name)
	}
	return nil
}

// CreateProject 创建新项目
func (s *projectService) CreateProject(ctx context.Context, name, containerName, apexURL string) (*domain.Project, error) {
	if err := validateProjectName(name); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.CreateProject(name, strings.TrimSpace(containerName), strings.TrimSpace(apexURL))
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Info("项目 %s 创建成功", name)
	return project, nil
}

// GetProject 获取项目信息
func (s *projectService) GetProject(ctx context.Context, name string) (*domain.Project, error) {
	return s.projectRepo.GetProject(name)
}

// ListProjects 列出所有项目
func (s *projectService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.projectRepo.ListProjects()
}

// ListProjectsMissingContainer 列出缺少容器信息的项目
func (s *projectService) ListProjectsMissingContainer(ctx context.Context) ([]*domain.Project, error) {
	return s.projectRepo.ListProjectsMissingContainer()
}

// AssignContainer 为项目补录容器信息
func (s *projectService) AssignContainer(ctx context.Context, name, containerName, containerID string) error {
	containerName = strings.TrimSpace(containerName)
	containerID = strings.TrimSpace(containerID)
	if containerName == "" && containerID == "" {
		return fmt.Errorf("容器名称和容器 ID 不能同时为空")
	}

	if err := s.projectRepo.UpdateContainer(name, containerName, containerID); err != nil {
		return err
	}

	logger.GetLogger().Info("项目 %s 容器信息已更新: name=%s id=%s", name, containerName, containerID)
	return nil
}

// RenameProject 重命名项目
func (s *projectService) RenameProject(ctx context.Context, oldName, newName string) error {
	if err := validateProjectName(newName); err != nil {
		return err
	}
	return s.projectRepo.RenameProject(oldName, newName)
}

// UpdateApexURL 更新项目的 APEX 访问地址
func (s *projectService) UpdateApexURL(ctx context.Context, name, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("APEX 地址不能为空")
	}
	return s.projectRepo.UpdateURL(name, url)
}

// DeleteProject 删除项目记录
func (s *projectService) DeleteProject(ctx context.Context, name string) error {
	return s.projectRepo.DeleteProject(name)
}

// sanitizePattern 容器名归一化：非字母数字的片段折叠成下划线
var sanitizePattern = regexp.MustCompile(`[^a-z0-9]+`)

// SuggestContainerName 根据项目名推荐一个未占用的容器名
// 归一化项目名后追加 _xe，与现有容器名冲突时追加数字后缀
func (s *projectService) SuggestContainerName(ctx context.Context, projectName string) (string, error) {
	sanitized := strings.Trim(sanitizePattern.ReplaceAllString(strings.ToLower(projectName), "_"), "_")
	if sanitized == "" {
		sanitized = "project"
	}
	baseName := sanitized + "_xe"

	projects, err := s.projectRepo.ListProjects()
	if err != nil {
		return "", err
	}

	existing := make(map[string]bool, len(projects))
	for _, project := range projects {
		if name := strings.TrimSpace(project.ContainerName); name != "" {
			existing[name] = true
		}
	}

	candidate := baseName
	for suffix := 1; existing[candidate]; suffix++ {
		candidate = fmt.Sprintf("%s_%d", baseName, suffix)
	}
	return candidate, nil
}

// DockerRunCommand 生成启动 Oracle XE 容器的完整命令文本
func (s *projectService) DockerRunCommand(containerName string) string {
	docker := s.cfg.Docker
	return fmt.Sprintf(
		"docker run -d --platform linux/amd64 --name %s -e ORACLE_PASSWORD=%s -p %d:1521 -p %d:5500 -p %d:8080 -v oracle_data:/opt/oracle/oradata %s",
		containerName,
		docker.ContainerPassword,
		docker.ListenerPort,
		docker.ConsolePort,
		docker.ApexPort,
		docker.Image,
	)
}

// DockerVerifyCommands 生成核对容器状态的命令文本
func (s *projectService) DockerVerifyCommands(containerName string) []string {
	return []string{
		fmt.Sprintf("docker ps --filter name=%s", containerName),
		fmt.Sprintf("docker ps -aq --filter name=%s", containerName),
	}
}

package repository

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"gopkg.in/ini.v1"
)

// ProjectRepository 项目注册表接口
// 持久化由注册表全权负责，安装引擎只读取记录并请求状态更新
type ProjectRepository interface {
	// CreateProject 创建新项目记录
	CreateProject(name, containerName, apexURL string) (*domain.Project, error)

	// GetProject 获取项目记录
	GetProject(name string) (*domain.Project, error)

	// ListProjects 列出所有项目记录
	ListProjects() ([]*domain.Project, error)

	// ListProjectsMissingContainer 列出缺少容器信息的项目
	ListProjectsMissingContainer() ([]*domain.Project, error)

	// UpdateStatus 更新项目安装状态和已完成阶段数
	UpdateStatus(name string, status domain.InstallStatus, stagesDone int) error

	// UpdateURL 更新项目的 APEX 访问地址
	UpdateURL(name, url string) error

	// UpdateContainer 更新项目的容器信息
	UpdateContainer(name, containerName, containerID string) error

	// RenameProject 重命名项目
	RenameProject(oldName, newName string) error

	// DeleteProject 删除项目记录
	DeleteProject(name string) error
}

// projectRepository 项目注册表实现
// 每个项目一个目录，目录下的 project.ini 保存全部记录字段
type projectRepository struct {
	config *config.Config
}

// NewProjectRepository 创建项目注册表实例
func NewProjectRepository(cfg *config.Config) ProjectRepository {
	return &projectRepository{
		config: cfg,
	}
}

// CreateProject 创建新项目记录
func (r *projectRepository) CreateProject(name, containerName, apexURL string) (*domain.Project, error) {
	projectPath := filepath.Join(r.config.ProjectDir, name)

	// 检查项目是否已存在
	if _, err := os.Stat(projectPath); err == nil {
		return nil, fmt.Errorf("项目 %s 已存在", name)
	}

	// 创建项目目录
	if err := os.MkdirAll(projectPath, 0755); err != nil {
		return nil, fmt.Errorf("创建项目目录失败: %w", err)
	}

	if apexURL == "" {
		apexURL = r.config.Install.DefaultApexURL
	}

	project := &domain.Project{
		Name:          name,
		ContainerName: containerName,
		ApexURL:       apexURL,
		Status:        domain.StatusNotStarted,
		StagesDone:    0,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	// 保存项目记录
	if err := r.saveProjectRecord(project); err != nil {
		os.RemoveAll(projectPath)
		return nil, fmt.Errorf("保存项目记录失败: %w", err)
	}

	return project, nil
}

// GetProject 获取项目记录
func (r *projectRepository) GetProject(name string) (*domain.Project, error) {
	projectPath := filepath.Join(r.config.ProjectDir, name)

	// 检查项目是否存在
	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("项目 %s 不存在", name)
	}

	// 加载项目记录
	cfg, err := config.LoadProjectRecord(projectPath)
	if err != nil {
		return nil, fmt.Errorf("加载项目记录失败: %w", err)
	}

	project := &domain.Project{
		Name:   name,
		Status: domain.StatusNotStarted,
	}

	// 从记录文件中读取项目信息
	if section := cfg.Section("project"); section != nil {
		project.ContainerName = section.Key("container_name").String()
		project.ContainerID = section.Key("container_id").String()
		project.ApexURL = section.Key("apex_url").String()
		project.Status = domain.ParseInstallStatus(section.Key("status").String())
		if stagesDone, err := section.Key("stages_done").Int(); err == nil && stagesDone >= 0 {
			project.StagesDone = stagesDone
		}
		if createdAtStr := section.Key("created_at").String(); createdAtStr != "" {
			if t, err := time.Parse(time.RFC3339, createdAtStr); err == nil {
				project.CreatedAt = t
			}
		}
		if updatedAtStr := section.Key("updated_at").String(); updatedAtStr != "" {
			if t, err := time.Parse(time.RFC3339, updatedAtStr); err == nil {
				project.UpdatedAt = t
			}
		}
	}

	return project, nil
}

// ListProjects 列出所有项目记录
func (r *projectRepository) ListProjects() ([]*domain.Project, error) {
	entries, err := os.ReadDir(r.config.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("读取项目目录失败: %w", err)
	}

	var projects []*domain.Project
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		project, err := r.GetProject(entry.Name())
		if err != nil {
			continue // 跳过无法读取的项目
		}
		projects = append(projects, project)
	}

	// 目录读取顺序不保证稳定，按名称排序保证输出确定
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].Name < projects[j].Name
	})

	return projects, nil
}

// ListProjectsMissingContainer 列出缺少容器信息的项目
func (r *projectRepository) ListProjectsMissingContainer() ([]*domain.Project, error) {
	projects, err := r.ListProjects()
	if err != nil {
		return nil, err
	}

	var missing []*domain.Project
	for _, project := range projects {
		if !project.HasContainer() {
			missing = append(missing, project)
		}
	}

	return missing, nil
}

// UpdateStatus 更新项目安装状态和已完成阶段数
func (r *projectRepository) UpdateStatus(name string, status domain.InstallStatus, stagesDone int) error {
	project, err := r.GetProject(name)
	if err != nil {
		return err
	}

	project.Status = status
	project.StagesDone = stagesDone
	project.UpdatedAt = time.Now()

	return r.saveProjectRecord(project)
}

// UpdateURL 更新项目的 APEX 访问地址
func (r *projectRepository) UpdateURL(name, url string) error {
	project, err := r.GetProject(name)
	if err != nil {
		return err
	}

	project.ApexURL = url
	project.UpdatedAt = time.Now()

	return r.saveProjectRecord(project)
}

// UpdateContainer 更新项目的容器信息
// 传入空字符串的字段保持原值不变
func (r *projectRepository) UpdateContainer(name, containerName, containerID string) error {
	project, err := r.GetProject(name)
	if err != nil {
		return err
	}

	if containerName != "" {
		project.ContainerName = containerName
	}
	if containerID != "" {
		project.ContainerID = containerID
	}
	project.UpdatedAt = time.Now()

	return r.saveProjectRecord(project)
}

// RenameProject 重命名项目
func (r *projectRepository) RenameProject(oldName, newName string) error {
	oldPath := filepath.Join(r.config.ProjectDir, oldName)
	newPath := filepath.Join(r.config.ProjectDir, newName)

	if _, err := os.Stat(oldPath); os.IsNotExist(err) {
		return fmt.Errorf("项目 %s 不存在", oldName)
	}
	if _, err := os.Stat(newPath); err == nil {
		return fmt.Errorf("项目 %s 已存在", newName)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("重命名项目目录失败: %w", err)
	}

	project, err := r.GetProject(newName)
	if err != nil {
		return err
	}
	project.UpdatedAt = time.Now()

	return r.saveProjectRecord(project)
}

// DeleteProject 删除项目记录
// 只删除注册表记录，不触碰任何 Docker 容器
func (r *projectRepository) DeleteProject(name string) error {
	projectPath := filepath.Join(r.config.ProjectDir, name)

	// 检查项目是否存在
	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return fmt.Errorf("项目 %s 不存在", name)
	}

	// 删除项目目录
	return os.RemoveAll(projectPath)
}

// saveProjectRecord 保存项目记录
func (r *projectRepository) saveProjectRecord(project *domain.Project) error {
	projectPath := filepath.Join(r.config.ProjectDir, project.Name)

	cfg, err := config.LoadProjectRecord(projectPath)
	if err != nil {
		cfg = ini.Empty()
	}

	section := cfg.Section("project")
	section.Key("name").SetValue(project.Name)
	section.Key("container_name").SetValue(project.ContainerName)
	section.Key("container_id").SetValue(project.ContainerID)
	section.Key("apex_url").SetValue(project.ApexURL)
	section.Key("status").SetValue(string(project.Status))
	section.Key("stages_done").SetValue(strconv.Itoa(project.StagesDone))
	section.Key("created_at").SetValue(project.CreatedAt.Format(time.RFC3339))
	section.Key("updated_at").SetValue(project.UpdatedAt.Format(time.RFC3339))

	return config.SaveProjectRecord(projectPath, cfg)
}

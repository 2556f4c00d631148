package repository

import (
	"testing"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRepo 构造指向临时目录的注册表
func newTestRepo(t *testing.T) ProjectRepository {
	t.Helper()
	cfg := config.Default()
	cfg.ProjectDir = t.TempDir()
	return NewProjectRepository(cfg)
}

// TestCreateAndGetProject 创建后读取，字段完整往返
func TestCreateAndGetProject(t *testing.T) {
	repo := newTestRepo(t)

	created, err := repo.CreateProject("demo", "demo_xe", "http://localhost:8080/ords")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNotStarted, created.Status)
	assert.Equal(t, 0, created.StagesDone)

	loaded, err := repo.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Name)
	assert.Equal(t, "demo_xe", loaded.ContainerName)
	assert.Equal(t, "http://localhost:8080/ords", loaded.ApexURL)
	assert.Equal(t, domain.StatusNotStarted, loaded.Status)
	assert.False(t, loaded.CreatedAt.IsZero())
}

// TestCreateProjectDefaults 不提供地址时使用配置默认值
func TestCreateProjectDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.ProjectDir = t.TempDir()
	repo := NewProjectRepository(cfg)

	created, err := repo.CreateProject("demo", "", "")
	require.NoError(t, err)
	assert.Equal(t, cfg.Install.DefaultApexURL, created.ApexURL)
}

// TestCreateProjectDuplicate 重复创建同名项目报错
func TestCreateProjectDuplicate(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("demo", "", "")
	require.NoError(t, err)

	_, err = repo.CreateProject("demo", "", "")
	require.Error(t, err)
}

// TestGetProjectNotFound 不存在的项目返回错误
func TestGetProjectNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetProject("missing")
	require.Error(t, err)
}

// TestListProjectsSorted 项目列表按名称排序
func TestListProjectsSorted(t *testing.T) {
	repo := newTestRepo(t)

	for _, name := range []string{"charlie", "alpha", "bravo"} {
		_, err := repo.CreateProject(name, "", "")
		require.NoError(t, err)
	}

	projects, err := repo.ListProjects()
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "alpha", projects[0].Name)
	assert.Equal(t, "bravo", projects[1].Name)
	assert.Equal(t, "charlie", projects[2].Name)
}

// TestListProjectsMissingContainer 只返回容器信息不完整的项目
func TestListProjectsMissingContainer(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("complete", "complete_xe", "")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateContainer("complete", "complete_xe", "abc123"))

	_, err = repo.CreateProject("partial", "partial_xe", "")
	require.NoError(t, err)

	_, err = repo.CreateProject("empty", "", "")
	require.NoError(t, err)

	missing, err := repo.ListProjectsMissingContainer()
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, "empty", missing[0].Name)
	assert.Equal(t, "partial", missing[1].Name)
}

// TestUpdateStatus 状态和阶段计数持久化往返
func TestUpdateStatus(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("demo", "", "")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus("demo", domain.StatusInProgress, 2))

	loaded, err := repo.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, loaded.Status)
	assert.Equal(t, 2, loaded.StagesDone)
}

// TestUpdateURL 更新 APEX 地址
func TestUpdateURL(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("demo", "", "")
	require.NoError(t, err)

	require.NoError(t, repo.UpdateURL("demo", "http://myhost:8080/ords/apex"))

	loaded, err := repo.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, "http://myhost:8080/ords/apex", loaded.ApexURL)
}

// TestUpdateContainerKeepsExisting 空字段保持原值不变
func TestUpdateContainerKeepsExisting(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("demo", "demo_xe", "")
	require.NoError(t, err)

	// 只补录容器 ID，容器名保持不变
	require.NoError(t, repo.UpdateContainer("demo", "", "abc123"))

	loaded, err := repo.GetProject("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo_xe", loaded.ContainerName)
	assert.Equal(t, "abc123", loaded.ContainerID)
	assert.True(t, loaded.HasContainer())
}

// TestRenameProject 重命名后旧名失效、记录保留
func TestRenameProject(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("old", "old_xe", "")
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus("old", domain.StatusInProgress, 1))

	require.NoError(t, repo.RenameProject("old", "new"))

	_, err = repo.GetProject("old")
	require.Error(t, err)

	loaded, err := repo.GetProject("new")
	require.NoError(t, err)
	assert.Equal(t, "old_xe", loaded.ContainerName)
	assert.Equal(t, domain.StatusInProgress, loaded.Status)
	assert.Equal(t, 1, loaded.StagesDone)
}

// TestRenameProjectConflict 目标名已存在时拒绝重命名
func TestRenameProjectConflict(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("one", "", "")
	require.NoError(t, err)
	_, err = repo.CreateProject("two", "", "")
	require.NoError(t, err)

	require.Error(t, repo.RenameProject("one", "two"))
}

// TestDeleteProject 删除后项目不可再读取
func TestDeleteProject(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateProject("demo", "", "")
	require.NoError(t, err)

	require.NoError(t, repo.DeleteProject("demo"))

	_, err = repo.GetProject("demo")
	require.Error(t, err)

	require.Error(t, repo.DeleteProject("demo"))
}

package installer

import (
	"fmt"
	"testing"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepo 内存版注册表，记录每次状态写入并支持注入持久化故障
type fakeRepo struct {
	project       *domain.Project
	failUpdates   bool
	statusWrites  int
	urlWrites     int
	lastStatus    domain.InstallStatus
	lastStagesSet int
}

func newFakeRepo(project *domain.Project) *fakeRepo {
	return &fakeRepo{project: project}
}

func (r *fakeRepo) CreateProject(name, containerName, apexURL string) (*domain.Project, error) {
	return nil, fmt.Errorf("不支持")
}

func (r *fakeRepo) GetProject(name string) (*domain.Project, error) {
	return r.project, nil
}

func (r *fakeRepo) ListProjects() ([]*domain.Project, error) {
	return []*domain.Project{r.project}, nil
}

func (r *fakeRepo) ListProjectsMissingContainer() ([]*domain.Project, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateStatus(name string, status domain.InstallStatus, stagesDone int) error {
	if r.failUpdates {
		return fmt.Errorf("磁盘写入失败")
	}
	r.statusWrites++
	r.lastStatus = status
	r.lastStagesSet = stagesDone
	return nil
}

func (r *fakeRepo) UpdateURL(name, url string) error {
	if r.failUpdates {
		return fmt.Errorf("磁盘写入失败")
	}
	r.urlWrites++
	return nil
}

func (r *fakeRepo) UpdateContainer(name, containerName, containerID string) error {
	return nil
}

func (r *fakeRepo) RenameProject(oldName, newName string) error {
	return nil
}

func (r *fakeRepo) DeleteProject(name string) error {
	return nil
}

// newSessionConfig 构造指向临时安装包目录的配置
func newSessionConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.ArtifactDir = t.TempDir()
	return cfg
}

// writeAllArtifacts 在安装包目录放齐三个压缩包
func writeAllArtifacts(t *testing.T, dir string) {
	t.Helper()
	writeArtifactFile(t, dir, "jdk-21_linux-x64_bin.tar.gz")
	writeArtifactFile(t, dir, "apex_24.1.zip")
	writeArtifactFile(t, dir, "ords-24.2.0.zip")
}

// confirmAll 确认会话中的全部步骤
func confirmAll(t *testing.T, session *Session) {
	t.Helper()
	for i := range session.Plan.Stages {
		stage := &session.Plan.Stages[i]
		for stepIdx := range stage.Steps {
			require.NoError(t, session.Advance(stage.Key, stepIdx))
		}
	}
}

// TestStartSessionEmptyDir 空安装包目录：清单只有一个阻塞的复制阶段，
// 状态推进到 ARTIFACTS_PENDING
func TestStartSessionEmptyDir(t *testing.T) {
	cfg := newSessionConfig(t)
	project := testProject()
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	require.Len(t, session.Plan.Stages, 1)
	stage := session.Plan.Stages[0]
	assert.Equal(t, "copy", stage.Key)
	assert.True(t, stage.Blocked)
	require.Len(t, stage.Steps, 1)
	assert.Empty(t, stage.Steps[0].Commands)

	assert.Equal(t, domain.StatusArtifactsPending, project.Status)
	assert.Equal(t, domain.StatusArtifactsPending, repo.lastStatus)
}

// TestStartSessionFullArtifacts 安装包齐全：四个阶段全部可规划，
// 第一个阶段的第一步引用扫描到的 APEX 压缩包
func TestStartSessionFullArtifacts(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()

	session, err := StartSession(cfg, newFakeRepo(project), project)
	require.NoError(t, err)

	require.Len(t, session.Plan.Stages, StageCount())
	for _, stage := range session.Plan.Stages {
		assert.False(t, stage.Blocked)
		assert.NotEmpty(t, stage.Steps)
	}

	first := session.Plan.Stages[0].Steps[0]
	require.Len(t, first.Commands, 2)
	assert.Contains(t, first.Commands[1], "apex_24.1.zip")

	// 没有任何确认之前状态保持不变
	assert.Equal(t, domain.StatusNotStarted, project.Status)
	assert.NotEmpty(t, session.ID)
}

// TestStartSessionResume 中途恢复：清单从剩余阶段开始
func TestStartSessionResume(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	project.Status = domain.StatusInProgress
	project.StagesDone = 2

	session, err := StartSession(cfg, newFakeRepo(project), project)
	require.NoError(t, err)

	require.Len(t, session.Plan.Stages, 2)
	assert.Equal(t, "ords", session.Plan.Stages[0].Key)
	assert.Equal(t, "finalize", session.Plan.Stages[1].Key)
}

// TestStartSessionNoPendingWork 终态项目拒绝建立会话
func TestStartSessionNoPendingWork(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	project.Status = domain.StatusApexReady
	project.StagesDone = StageCount()

	_, err := StartSession(cfg, newFakeRepo(project), project)
	require.ErrorIs(t, err, ErrNoPendingWork)
}

// TestAdvanceProgress 确认步骤推进阶段计数和状态
func TestAdvanceProgress(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	// 确认 copy 阶段的全部步骤
	copyStage := session.Plan.Stage("copy")
	require.NotNil(t, copyStage)
	for stepIdx := range copyStage.Steps {
		require.NoError(t, session.Advance("copy", stepIdx))
	}

	assert.True(t, copyStage.Completed())
	assert.Equal(t, 1, project.StagesDone)
	assert.Equal(t, domain.StatusInProgress, project.Status)
	assert.Equal(t, domain.StatusInProgress, repo.lastStatus)
	assert.Equal(t, 1, repo.lastStagesSet)

	// 下一个未完成的阶段是 java
	current := session.CurrentStage()
	require.NotNil(t, current)
	assert.Equal(t, "java", current.Key)
}

// TestAdvanceIdempotent 重复确认同一步骤是无操作
func TestAdvanceIdempotent(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	require.NoError(t, session.Advance("copy", 0))
	writesAfterFirst := repo.statusWrites

	require.NoError(t, session.Advance("copy", 0))
	assert.Equal(t, writesAfterFirst, repo.statusWrites, "状态没有变化时不应重复写注册表")
	assert.Equal(t, 0, project.StagesDone)
}

// TestAdvanceValidation 非法的阶段标识和步骤序号返回错误
func TestAdvanceValidation(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()

	session, err := StartSession(cfg, newFakeRepo(project), project)
	require.NoError(t, err)

	assert.Error(t, session.Advance("bogus", 0))
	assert.Error(t, session.Advance("copy", -1))
	assert.Error(t, session.Advance("copy", 99))
}

// TestAdvanceRetriesPersistence 注册表写入失败后，下一次确认自动重试
func TestAdvanceRetriesPersistence(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	copyStage := session.Plan.Stage("copy")
	require.NotNil(t, copyStage)

	// 注入故障：确认最后一步时写入失败
	repo.failUpdates = true
	for stepIdx := range copyStage.Steps[:len(copyStage.Steps)-1] {
		require.NoError(t, session.Advance("copy", stepIdx))
	}
	err = session.Advance("copy", len(copyStage.Steps)-1)
	require.ErrorIs(t, err, ErrPersistence)

	// 内存进度保留，故障恢复后重新确认即可补写
	assert.Equal(t, 1, project.StagesDone)
	repo.failUpdates = false
	require.NoError(t, session.Advance("copy", len(copyStage.Steps)-1))
	assert.Equal(t, domain.StatusInProgress, repo.lastStatus)
	assert.Equal(t, 1, repo.lastStagesSet)
}

// TestFinalizeIncomplete 清单未完成时收尾被拒绝且状态不变
func TestFinalizeIncomplete(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	err = session.Finalize("http://localhost:8080/ords/apex")
	require.ErrorIs(t, err, ErrIncompletePlan)
	assert.Equal(t, domain.StatusNotStarted, project.Status)
	assert.Equal(t, 0, repo.urlWrites)
}

// TestFinalizeSuccess 全部确认后收尾：记录地址并置为 APEX_READY
func TestFinalizeSuccess(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	project.ApexURL = ""
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	confirmAll(t, session)
	require.True(t, session.Completed())

	require.NoError(t, session.Finalize("http://localhost:8080/ords/apex"))

	assert.Equal(t, domain.StatusApexReady, project.Status)
	assert.Equal(t, StageCount(), project.StagesDone)
	assert.Equal(t, "http://localhost:8080/ords/apex", project.ApexURL)
	assert.Equal(t, domain.StatusApexReady, repo.lastStatus)
	assert.Equal(t, 1, repo.urlWrites)
	assert.Nil(t, session.CurrentStage())
}

// TestFinalizeKeepsExistingURL url 为空或未变化时不重复写地址
func TestFinalizeKeepsExistingURL(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()
	project.ApexURL = "http://localhost:8080/ords/apex"
	repo := newFakeRepo(project)

	session, err := StartSession(cfg, repo, project)
	require.NoError(t, err)

	confirmAll(t, session)
	require.NoError(t, session.Finalize(""))

	assert.Equal(t, domain.StatusApexReady, project.Status)
	assert.Equal(t, "http://localhost:8080/ords/apex", project.ApexURL)
	assert.Equal(t, 0, repo.urlWrites)
}

// TestSessionScanCached 会话缓存启动时的扫描结果
func TestSessionScanCached(t *testing.T) {
	cfg := newSessionConfig(t)
	writeAllArtifacts(t, cfg.ArtifactDir)
	project := testProject()

	session, err := StartSession(cfg, newFakeRepo(project), project)
	require.NoError(t, err)

	scan := session.Scan()
	assert.Equal(t, cfg.ArtifactDir, scan.Dir)
	assert.Empty(t, scan.Missing())
}

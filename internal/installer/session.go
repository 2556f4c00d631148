package installer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/jacj/apexpilot/internal/logger"
	"github.com/jacj/apexpilot/internal/repository"
)

// Session 一次安装向导会话
// 绑定一个项目和它的待办清单；扫描结果在会话生命周期内缓存，
// 保证中途文件变化不会让同一份清单前后不一致
type Session struct {
	ID      string          // 会话标识
	Project *domain.Project // 会话绑定的项目（内存副本）
	Plan    *domain.Plan    // 待执行的阶段清单

	scan domain.ScanResult            // 缓存的扫描结果
	repo repository.ProjectRepository // 注册表

	baseStages      int                  // 会话开始时已完成的阶段数
	persistedStatus domain.InstallStatus // 注册表中最后一次写入成功的状态
	persistedStages int                  // 注册表中最后一次写入成功的阶段数
}

// StartSession 启动安装向导会话
// 依次执行扫描 → 阶段排序 → 步骤展开，一次性生成完整清单；
// 项目已是 APEX_READY 或没有剩余阶段时返回 ErrNoPendingWork
func StartSession(cfg *config.Config, repo repository.ProjectRepository, project *domain.Project) (*Session, error) {
	log := logger.GetLogger()

	scanner := NewArtifactScanner(cfg.ArtifactDir)
	scan, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("扫描安装包目录失败: %w", err)
	}

	pending := PendingStages(project, scan)
	if len(pending) == 0 {
		return nil, ErrNoPendingWork
	}

	// 阻塞阶段之后的部分无法规划，清单截断到第一个阻塞阶段为止
	stages := pending
	for i := range pending {
		if pending[i].Blocked {
			stages = pending[:i+1]
			break
		}
	}

	builder := NewChecklistBuilder(BuildVars(cfg, project, scan), scan)
	for i := range stages {
		steps, err := builder.BuildSteps(stages[i])
		if err != nil {
			return nil, err
		}
		stages[i].Steps = steps
	}

	session := &Session{
		ID:              uuid.New().String(),
		Project:         project,
		Plan:            &domain.Plan{Stages: stages},
		scan:            scan,
		repo:            repo,
		baseStages:      completedStages(project),
		persistedStatus: project.Status,
		persistedStages: project.StagesDone,
	}

	// 第一个阶段被阻塞时，把 NOT_STARTED 推进到 ARTIFACTS_PENDING
	project.StagesDone = session.baseStages
	project.Status = statusForProgress(project.Status, session.baseStages, stages[0].Blocked)
	if err := session.syncStatus(); err != nil {
		// 持久化失败不拦截会话启动，状态留在内存里等待下次确认时重试
		log.Warn("会话 %s 状态写入失败: %v", session.ID, err)
	}

	log.Info("安装会话 %s 启动: 项目=%s 待办阶段=%d", session.ID, project.Name, len(stages))
	return session, nil
}

// Scan 返回会话缓存的扫描结果
func (s *Session) Scan() domain.ScanResult {
	return s.scan
}

// CurrentStage 返回当前第一个未完成的阶段，全部完成时返回 nil
func (s *Session) CurrentStage() *domain.Stage {
	for i := range s.Plan.Stages {
		if !s.Plan.Stages[i].Completed() {
			return &s.Plan.Stages[i]
		}
	}
	return nil
}

// Completed 判断会话内所有阶段是否都已完成
func (s *Session) Completed() bool {
	return s.Plan.Completed() && s.Project.StagesDone >= StageCount()
}

// Advance 确认一个步骤已完成
// 重复确认同一步骤是无操作而不是错误；当前阶段全部步骤确认后，
// 推进已完成阶段数并请求注册表更新状态。阻塞阶段的指引步骤
// 可以确认，但不会推进阶段计数——补齐文件后需要重新启动会话
func (s *Session) Advance(stageKey string, stepIndex int) error {
	stage := s.Plan.Stage(stageKey)
	if stage == nil {
		return fmt.Errorf("清单中不存在阶段 %s", stageKey)
	}
	if stepIndex < 0 || stepIndex >= len(stage.Steps) {
		return fmt.Errorf("阶段 %s 中不存在步骤 %d", stageKey, stepIndex)
	}

	stage.Steps[stepIndex].Done = true

	// 统计清单头部连续完成的非阻塞阶段，作为新的高水位
	leadingDone := 0
	for i := range s.Plan.Stages {
		if s.Plan.Stages[i].Blocked || !s.Plan.Stages[i].Completed() {
			break
		}
		leadingDone++
	}

	s.Project.StagesDone = s.baseStages + leadingDone
	s.Project.Status = statusForProgress(s.Project.Status, s.Project.StagesDone, s.Plan.Stages[0].Blocked)

	return s.syncStatus()
}

// Finalize 收尾：记录操作员确认的 APEX 地址并把状态置为 APEX_READY
// 清单未全部完成时返回 ErrIncompletePlan 且不改动任何状态；
// url 为空时保留项目现有地址
func (s *Session) Finalize(apexURL string) error {
	if !s.Completed() {
		return ErrIncompletePlan
	}

	if apexURL != "" && apexURL != s.Project.ApexURL {
		if err := s.repo.UpdateURL(s.Project.Name, apexURL); err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		s.Project.ApexURL = apexURL
	}

	if err := s.repo.UpdateStatus(s.Project.Name, domain.StatusApexReady, StageCount()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.Project.Status = domain.StatusApexReady
	s.Project.StagesDone = StageCount()
	s.persistedStatus = s.Project.Status
	s.persistedStages = s.Project.StagesDone

	logger.GetLogger().Info("安装会话 %s 收尾完成: 项目=%s", s.ID, s.Project.Name)
	return nil
}

// syncStatus 把内存中的状态同步到注册表
// 与上次写入成功的值一致时跳过；失败时返回 ErrPersistence 包装的错误，
// 内存状态保持不变，后续任何一次确认都会自动重试
func (s *Session) syncStatus() error {
	if s.persistedStatus == s.Project.Status && s.persistedStages == s.Project.StagesDone {
		return nil
	}

	if err := s.repo.UpdateStatus(s.Project.Name, s.Project.Status, s.Project.StagesDone); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	s.persistedStatus = s.Project.Status
	s.persistedStages = s.Project.StagesDone
	return nil
}

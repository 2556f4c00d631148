package installer

import "github.com/jacj/apexpilot/internal/domain"

// stageSpec 静态定义的安装阶段
type stageSpec struct {
	Key         string
	Title       string
	Description string
	Requires    []domain.ArtifactKind
}

// stageTable 安装阶段的固定顺序
// 阶段与状态的映射集中在这张表和 statusFloor 中，调整阶段数不需要改动状态枚举
var stageTable = []stageSpec{
	{
		Key:         "copy",
		Title:       "复制安装包",
		Description: "把安装包传入容器并解压到工具目录。",
		Requires: []domain.ArtifactKind{
			domain.ArtifactJava,
			domain.ArtifactApex,
			domain.ArtifactOrds,
		},
	},
	{
		Key:         "java",
		Title:       "配置 Java 运行时",
		Description: "在容器内配置 JAVA_HOME 并验证运行时。",
		Requires:    []domain.ArtifactKind{domain.ArtifactJava},
	},
	{
		Key:         "ords",
		Title:       "安装 ORDS",
		Description: "安装 Oracle REST Data Services 并启动独立服务。",
		Requires:    []domain.ArtifactKind{domain.ArtifactOrds},
	},
	{
		Key:         "finalize",
		Title:       "完成工作区",
		Description: "安装 Oracle APEX，设置 ADMIN 密码并验证访问入口。",
		Requires:    []domain.ArtifactKind{domain.ArtifactApex},
	},
}

// statusFloor 每个状态隐含的最少已完成阶段数
// 状态作为阶段序列上的高水位标记：已越过的阶段不会再出现在待办清单里
var statusFloor = map[domain.InstallStatus]int{
	domain.StatusNotStarted:       0,
	domain.StatusArtifactsPending: 0,
	domain.StatusInProgress:       1,
	domain.StatusApexReady:        len(stageTable),
}

// StageCount 返回安装阶段总数
func StageCount() int {
	return len(stageTable)
}

// completedStages 结合状态高水位和持久化的阶段计数，得出实际已完成的阶段数
func completedStages(project *domain.Project) int {
	done := project.StagesDone
	if floor := statusFloor[project.Status]; floor > done {
		done = floor
	}
	if done > len(stageTable) {
		done = len(stageTable)
	}
	return done
}

// PendingStages 根据项目状态和扫描结果计算剩余的安装阶段
// 结果只依赖入参，相同输入永远得到相同的阶段序列和阻塞标记；
// 状态为 APEX_READY 时返回空序列
func PendingStages(project *domain.Project, scan domain.ScanResult) []domain.Stage {
	done := completedStages(project)

	var stages []domain.Stage
	for _, spec := range stageTable[done:] {
		stages = append(stages, domain.Stage{
			Key:         spec.Key,
			Title:       spec.Title,
			Description: spec.Description,
			Requires:    spec.Requires,
			Blocked:     scan.AllMissing(spec.Requires),
		})
	}

	return stages
}

// statusForProgress 根据已完成阶段数推导项目状态
// 终态 APEX_READY 只由收尾操作显式设置，这里最多推进到 IN_PROGRESS
func statusForProgress(current domain.InstallStatus, stagesDone int, firstStageBlocked bool) domain.InstallStatus {
	if current == domain.StatusApexReady {
		return current
	}
	if stagesDone >= 1 {
		return domain.StatusInProgress
	}
	if firstStageBlocked {
		return domain.StatusArtifactsPending
	}
	return current
}

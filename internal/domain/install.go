package domain

// ArtifactKind 安装包角色
type ArtifactKind string

const (
	ArtifactJava ArtifactKind = "java" // Linux x64 JDK 压缩包
	ArtifactApex ArtifactKind = "apex" // Oracle APEX 发行包
	ArtifactOrds ArtifactKind = "ords" // Oracle REST Data Services 发行包
)

// Artifact 一次扫描中某个安装包角色的匹配结果
// 每次扫描重新生成，不做持久化
type Artifact struct {
	Kind         ArtifactKind // 安装包角色
	FriendlyName string       // 展示名称
	DownloadURL  string       // 官方下载地址
	Found        bool         // 是否在本地找到
	Path         string       // 匹配文件的完整路径（未找到时为空）
	FileName     string       // 匹配文件名（未找到时为空）
}

// ScanResult 安装包目录的一次完整扫描结果
type ScanResult struct {
	Dir       string                    // 被扫描的目录
	Artifacts map[ArtifactKind]Artifact // 按角色索引的匹配结果
}

// Artifact 返回指定角色的匹配结果
func (r ScanResult) Artifact(kind ArtifactKind) Artifact {
	return r.Artifacts[kind]
}

// Missing 返回所有未找到的安装包，顺序与扫描角色定义一致
func (r ScanResult) Missing() []Artifact {
	var missing []Artifact
	for _, kind := range []ArtifactKind{ArtifactJava, ArtifactApex, ArtifactOrds} {
		if a, ok := r.Artifacts[kind]; ok && !a.Found {
			missing = append(missing, a)
		}
	}
	return missing
}

// AllMissing 判断给定角色的安装包是否全部缺失
func (r ScanResult) AllMissing(kinds []ArtifactKind) bool {
	if len(kinds) == 0 {
		return false
	}
	for _, kind := range kinds {
		if r.Artifacts[kind].Found {
			return false
		}
	}
	return true
}

// Step 阶段内的一条可执行指令
type Step struct {
	Title       string   // 指令标题
	Context     string   // 执行环境（宿主机 shell / 容器 shell / 浏览器）
	Description string   // 操作说明
	Commands    []string // 可直接复制的命令文本（阻塞阶段不携带命令）
	TargetPath  string   // 涉及的目标路径（可选）
	Done        bool     // 操作员是否已确认完成
}

// Stage 安装清单中的一个阶段，顺序固定
type Stage struct {
	Key         string         // 阶段标识（copy/java/ords/finalize）
	Title       string         // 阶段标题
	Description string         // 阶段说明
	Requires    []ArtifactKind // 阶段依赖的安装包角色
	Blocked     bool           // 依赖的安装包全部缺失时为 true
	Steps       []Step         // 阶段内的有序步骤
}

// DoneCount 返回阶段内已确认完成的步骤数
func (s *Stage) DoneCount() int {
	count := 0
	for _, step := range s.Steps {
		if step.Done {
			count++
		}
	}
	return count
}

// Completed 判断阶段内所有步骤是否都已确认
func (s *Stage) Completed() bool {
	return len(s.Steps) > 0 && s.DoneCount() == len(s.Steps)
}

// Plan 一次安装会话的完整待办清单
type Plan struct {
	Stages []Stage // 待执行的阶段，按固定顺序排列
}

// Stage 按标识查找阶段，未找到返回 nil
func (p *Plan) Stage(key string) *Stage {
	for i := range p.Stages {
		if p.Stages[i].Key == key {
			return &p.Stages[i]
		}
	}
	return nil
}

// Completed 判断清单内所有非阻塞阶段是否全部完成
// 只要存在阻塞阶段，清单就不可能完成
func (p *Plan) Completed() bool {
	if len(p.Stages) == 0 {
		return false
	}
	for i := range p.Stages {
		if p.Stages[i].Blocked || !p.Stages[i].Completed() {
			return false
		}
	}
	return true
}

package installer

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
)

// 步骤的执行环境
const (
	ContextHost      = "宿主机 shell"
	ContextContainer = "容器 shell"
	ContextBrowser   = "宿主机浏览器"
)

// Vars 模板替换用的配置值映射
// 缺失或为空的键会触发 ConfigurationIncompleteError，而不是生成残缺的命令
type Vars map[string]string

// BuildVars 从配置、项目记录和扫描结果组装模板值
// 只有扫描到的安装包才会写入对应的路径键，缺失的键由替换阶段兜底报错
func BuildVars(cfg *config.Config, project *domain.Project, scan domain.ScanResult) Vars {
	vars := Vars{
		"project":      project.Name,
		"container":    project.ContainerReference(),
		"artifact_dir": scan.Dir,
		"tools_dir":    cfg.Install.ToolsDir,
		"ords_config":  cfg.Install.OrdsConfigDir,
		"db_password":  cfg.Docker.ContainerPassword,
	}

	apexURL := project.ApexURL
	if apexURL == "" {
		apexURL = cfg.Install.DefaultApexURL
	}
	vars["apex_url"] = strings.TrimRight(apexURL, "/")

	if java := scan.Artifact(domain.ArtifactJava); java.Found {
		vars["java_path"] = java.Path
		vars["java_archive"] = java.FileName
		vars["java_home"] = guessJavaHome(java.FileName)
	}
	if apex := scan.Artifact(domain.ArtifactApex); apex.Found {
		vars["apex_path"] = apex.Path
		vars["apex_archive"] = apex.FileName
	}
	if ords := scan.Artifact(domain.ArtifactOrds); ords.Found {
		vars["ords_path"] = ords.Path
		vars["ords_archive"] = ords.FileName
	}

	return vars
}

// guessJavaHome 根据 JDK 压缩包文件名推断解压后的目录名
func guessJavaHome(archiveName string) string {
	name := archiveName
	for _, suffix := range []string{".tar.gz", ".tgz", ".tar"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}
	if idx := strings.Index(name, "_linux"); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		return "<jdk_folder>"
	}
	return name
}

// expand 替换模板中的 {key} 占位符
// 未定义或为空的键返回 ConfigurationIncompleteError，绝不静默丢弃占位符
func expand(template string, vars Vars) (string, error) {
	var out strings.Builder
	rest := template

	for {
		open := strings.Index(rest, "{")
		if open < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}
		closing := strings.Index(rest[open:], "}")
		if closing < 0 {
			out.WriteString(rest)
			return out.String(), nil
		}

		key := rest[open+1 : open+closing]
		value, ok := vars[key]
		if !ok || value == "" {
			return "", &ConfigurationIncompleteError{Key: key}
		}

		out.WriteString(rest[:open])
		out.WriteString(value)
		rest = rest[open+closing+1:]
	}
}

// ChecklistBuilder 把阶段展开为可执行的步骤清单
type ChecklistBuilder struct {
	vars Vars
	scan domain.ScanResult
}

// NewChecklistBuilder 创建步骤清单构建器
func NewChecklistBuilder(vars Vars, scan domain.ScanResult) *ChecklistBuilder {
	return &ChecklistBuilder{
		vars: vars,
		scan: scan,
	}
}

// BuildSteps 为一个阶段生成有序的步骤清单
// 阻塞阶段只生成一条补齐文件的指引，不携带任何命令文本；
// 步骤顺序固定：先复制、再配置、后执行
func (b *ChecklistBuilder) BuildSteps(stage domain.Stage) ([]domain.Step, error) {
	if stage.Blocked {
		return []domain.Step{b.blockedStep(stage)}, nil
	}

	switch stage.Key {
	case "copy":
		return b.copySteps()
	case "java":
		return b.javaSteps()
	case "ords":
		return b.ordsSteps()
	case "finalize":
		return b.finalizeSteps()
	default:
		return nil, fmt.Errorf("未知的安装阶段: %s", stage.Key)
	}
}

// blockedStep 为阻塞阶段生成唯一的补齐文件指引
func (b *ChecklistBuilder) blockedStep(stage domain.Stage) domain.Step {
	var lines []string
	for _, kind := range stage.Requires {
		artifact := b.scan.Artifact(kind)
		if artifact.Found {
			continue
		}
		lines = append(lines, fmt.Sprintf("缺少 %s，下载地址: %s", artifact.FriendlyName, artifact.DownloadURL))
	}
	lines = append(lines, fmt.Sprintf("把文件放入 %s 后重新运行安装向导。", b.scan.Dir))

	return domain.Step{
		Title:       "补齐安装包",
		Context:     ContextHost,
		Description: strings.Join(lines, " "),
		TargetPath:  b.scan.Dir,
	}
}

// stepTemplate 构建单个步骤用的模板定义
type stepTemplate struct {
	Title       string
	Context     string
	Description string
	Commands    []string
	TargetPath  string
}

// render 对模板中的描述和命令逐条做占位符替换
func (b *ChecklistBuilder) render(tmpl stepTemplate) (domain.Step, error) {
	description, err := expand(tmpl.Description, b.vars)
	if err != nil {
		return domain.Step{}, err
	}

	target, err := expand(tmpl.TargetPath, b.vars)
	if err != nil {
		return domain.Step{}, err
	}

	var commands []string
	for _, command := range tmpl.Commands {
		rendered, err := expand(command, b.vars)
		if err != nil {
			return domain.Step{}, err
		}
		commands = append(commands, rendered)
	}

	return domain.Step{
		Title:       tmpl.Title,
		Context:     tmpl.Context,
		Description: description,
		Commands:    commands,
		TargetPath:  target,
	}, nil
}

// renderAll 按顺序渲染一组步骤模板
func (b *ChecklistBuilder) renderAll(templates []stepTemplate) ([]domain.Step, error) {
	var steps []domain.Step
	for _, tmpl := range templates {
		step, err := b.render(tmpl)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// copySteps 复制安装包阶段：把找到的压缩包传入容器并解压
// 个别缺失的安装包生成补齐指引步骤，不生成引用不存在路径的命令
func (b *ChecklistBuilder) copySteps() ([]domain.Step, error) {
	var templates []stepTemplate
	var extract []string

	copyOrder := []struct {
		kind    domain.ArtifactKind
		title   string
		pathKey string
	}{
		{domain.ArtifactApex, "复制 APEX 安装包", "apex_path"},
		{domain.ArtifactJava, "复制 JDK 安装包", "java_path"},
		{domain.ArtifactOrds, "复制 ORDS 安装包", "ords_path"},
	}

	for _, entry := range copyOrder {
		artifact := b.scan.Artifact(entry.kind)
		if !artifact.Found {
			templates = append(templates, stepTemplate{
				Title:       "提供 " + artifact.FriendlyName,
				Context:     ContextHost,
				Description: fmt.Sprintf("缺少 %s，下载地址: %s。把文件放入 {artifact_dir} 后重新扫描。", artifact.FriendlyName, artifact.DownloadURL),
				TargetPath:  "{artifact_dir}",
			})
			continue
		}

		templates = append(templates, stepTemplate{
			Title:       entry.title,
			Context:     ContextHost,
			Description: "确保容器已启动，把压缩包传入容器的工具目录。",
			Commands: []string{
				"docker exec -it {container} mkdir -p {tools_dir}",
				fmt.Sprintf("docker cp {%s} {container}:{tools_dir}/", entry.pathKey),
			},
			TargetPath: "{tools_dir}",
		})
	}

	// 解压命令按找到的压缩包动态拼装，顺序与原始安装流程一致
	extract = append(extract, "cd {tools_dir}", "ls -1")
	if b.scan.Artifact(domain.ArtifactJava).Found {
		extract = append(extract, "tar -xzf {java_archive}")
	}
	if b.scan.Artifact(domain.ArtifactApex).Found {
		extract = append(extract, "unzip -o {apex_archive}")
	}
	if b.scan.Artifact(domain.ArtifactOrds).Found {
		extract = append(extract, "mkdir -p ords", "unzip -o {ords_archive} -d ords")
	}
	extract = append(extract, "ls -lh {tools_dir}")

	templates = append(templates, stepTemplate{
		Title:       "解压安装包",
		Context:     ContextContainer,
		Description: "在工具目录内解包。如文件已解压过，重新执行命令即可刷新。",
		Commands:    extract,
		TargetPath:  "{tools_dir}",
	})

	return b.renderAll(templates)
}

// javaSteps 配置 Java 运行时阶段
func (b *ChecklistBuilder) javaSteps() ([]domain.Step, error) {
	return b.renderAll([]stepTemplate{
		{
			Title:       "配置 Java 环境",
			Context:     ContextContainer,
			Description: "把 JAVA_HOME 指向刚解压的 JDK，供 ORDS 使用。目录名不一致时按实际情况调整。",
			Commands: []string{
				"cd {tools_dir}",
				"export JAVA_HOME={tools_dir}/{java_home}",
				`export PATH="$JAVA_HOME/bin:$PATH"`,
				"$JAVA_HOME/bin/java -version",
			},
		},
		{
			Title:       "持久化 Java 环境（可选）",
			Context:     ContextContainer,
			Description: "把 JAVA_HOME 写入 oracle 用户的 shell 配置，让新会话自动继承。偏好逐次手动设置时可跳过。",
			Commands: []string{
				"echo 'export JAVA_HOME={tools_dir}/{java_home}' >> ~/.bashrc",
				`echo 'export PATH="$JAVA_HOME/bin:$PATH"' >> ~/.bashrc`,
				"tail -n 5 ~/.bashrc",
			},
		},
	})
}

// ordsSteps 安装 ORDS 阶段
func (b *ChecklistBuilder) ordsSteps() ([]domain.Step, error) {
	return b.renderAll([]stepTemplate{
		{
			Title:       "启用 ORDS CLI",
			Context:     ContextContainer,
			Description: "把 ords 启动器加入当前会话的 PATH。需要每个 shell 都生效时，把 export 追加到 ~/.bashrc。",
			Commands: []string{
				"cd {tools_dir}/ords",
				`export PATH="$PATH:{tools_dir}/ords/bin"`,
				"ords --version",
			},
		},
		{
			Title:       "准备 ORDS 配置目录",
			Context:     ContextContainer,
			Description: "在 ORDS 产品路径之外创建配置目录。重试安装时先把旧配置移走。",
			Commands: []string{
				"mv {ords_config} {ords_config}.bak.$(date +%Y%m%d%H%M%S) 2>/dev/null || true",
				"mkdir -p {ords_config}",
				"ls -ld {ords_config}",
			},
			TargetPath: "{ords_config}",
		},
		{
			Title:       "安装 ORDS",
			Context:     ContextContainer,
			Description: "运行交互式安装器。连接类型选 1 (Basic)，主机 localhost，端口 1521，服务名 XEPDB1。管理员凭据使用 'sys as sysdba' 与容器密码（{db_password}）。在摘要界面编辑选项 3，为 ORDS_PUBLIC_USER 设置已知密码后确认配置。",
			Commands: []string{
				"cd {tools_dir}/ords",
				"ords --config {ords_config} install",
			},
		},
		{
			Title:       "启用 PL/SQL gateway",
			Context:     ContextContainer,
			Description: "打开 PL/SQL gateway，让 /ords/apex 和 /ords/apex_admin 可以响应。",
			Commands: []string{
				"ords --config {ords_config} config set feature.plsql.gateway.enabled true",
			},
		},
		{
			Title:       "启动 ORDS 服务",
			Context:     ContextContainer,
			Description: "启动 ORDS 监听 8080 端口。建议配合 screen、tmux 或 nohup 保持后台运行。",
			Commands: []string{
				"cd {tools_dir}/ords",
				"ords --config {ords_config} serve",
				"curl -I {apex_url}/_/",
			},
		},
	})
}

// finalizeSteps 完成工作区阶段：安装 APEX 核心并验证入口
func (b *ChecklistBuilder) finalizeSteps() ([]domain.Step, error) {
	return b.renderAll([]stepTemplate{
		{
			Title:       "检查 XDB 组件",
			Context:     ContextContainer,
			Description: "确认 XDB 组件在 CDB$ROOT 和 XEPDB1 中均为 VALID，APEX 安装要求所有容器内 XDB 有效。",
			Commands: []string{
				"sqlplus / as sysdba",
				"SELECT comp_name, status FROM dba_registry WHERE comp_id = 'XDB';",
				"ALTER SESSION SET CONTAINER = XEPDB1;",
				"SELECT comp_name, status FROM dba_registry WHERE comp_id = 'XDB';",
			},
		},
		{
			Title:       "安装 APEX 核心",
			Context:     ContextContainer,
			Description: "在 XEPDB1 可插拔数据库内执行 APEX 核心安装。前置检查报 XDB INVALID 时，先按官方文档修复再重试。",
			Commands: []string{
				"cd {tools_dir}/apex",
				"sqlplus / as sysdba",
				"ALTER SESSION SET CONTAINER = XEPDB1;",
				"@apexins.sql SYSAUX SYSAUX TEMP /i/",
			},
		},
		{
			Title:       "设置 APEX 管理员密码",
			Context:     ContextContainer,
			Description: "设置 ADMIN 密码，安装完成后用它登录 APEX 工作区。",
			Commands: []string{
				"cd {tools_dir}/apex",
				"sqlplus / as sysdba",
				"ALTER SESSION SET CONTAINER = XEPDB1;",
				"@apxchpwd.sql",
			},
		},
		{
			Title:       "配置 REST 支持",
			Context:     ContextContainer,
			Description: "执行 APEX REST 配置脚本，为 APEX_PUBLIC_USER 和 ORDS_PUBLIC_USER 设置密码。表空间按提示输入 SYSAUX 和 TEMP。",
			Commands: []string{
				"cd {tools_dir}/apex",
				"sqlplus / as sysdba",
				"ALTER SESSION SET CONTAINER = XEPDB1;",
				"@apex_rest_config.sql",
			},
		},
		{
			Title:       "验证 APEX 入口",
			Context:     ContextBrowser,
			Description: "确认 APEX 登录页可以访问。端口映射不同的话把 localhost 换成实际主机。",
			Commands: []string{
				"curl -I {apex_url}",
				browserCommand() + " {apex_url}",
			},
		},
	})
}

// browserCommand 返回当前平台打开浏览器的命令
func browserCommand() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "windows":
		return "start"
	default:
		return "xdg-open"
	}
}

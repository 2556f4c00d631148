package installer

import (
	"errors"
	"strings"
	"testing"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testProject 构造一个已登记容器的项目记录
func testProject() *domain.Project {
	return &domain.Project{
		Name:          "demo",
		ContainerName: "demo_xe",
		ContainerID:   "3f9a1b2c4d",
		Status:        domain.StatusNotStarted,
	}
}

// TestExpand 占位符替换的基本行为
func TestExpand(t *testing.T) {
	vars := Vars{"container": "demo_xe", "tools_dir": "/opt/oracle/tools"}

	out, err := expand("docker exec -it {container} mkdir -p {tools_dir}", vars)
	require.NoError(t, err)
	assert.Equal(t, "docker exec -it demo_xe mkdir -p /opt/oracle/tools", out)

	// 没有占位符的模板原样返回
	out, err = expand("ls -lh", vars)
	require.NoError(t, err)
	assert.Equal(t, "ls -lh", out)
}

// TestExpandMissingKey 未定义的键返回 ConfigurationIncompleteError
func TestExpandMissingKey(t *testing.T) {
	_, err := expand("docker cp {apex_path} {container}:/tmp/", Vars{"container": "demo_xe"})

	var confErr *ConfigurationIncompleteError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "apex_path", confErr.Key)
}

// TestExpandEmptyValue 键存在但值为空同样视为配置不完整
func TestExpandEmptyValue(t *testing.T) {
	_, err := expand("docker exec -it {container} ls", Vars{"container": ""})

	var confErr *ConfigurationIncompleteError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "container", confErr.Key)
}

// TestExpandUnclosedBrace 未闭合的大括号按字面量保留
func TestExpandUnclosedBrace(t *testing.T) {
	out, err := expand("awk '{print $1", Vars{})
	require.NoError(t, err)
	assert.Equal(t, "awk '{print $1", out)
}

// TestBuildVars 从配置、项目和扫描结果组装模板值
func TestBuildVars(t *testing.T) {
	cfg := config.Default()
	project := testProject()

	vars := BuildVars(cfg, project, fullScanResult("/tmp/apex-files"))

	assert.Equal(t, "demo", vars["project"])
	// 容器引用优先使用容器 ID
	assert.Equal(t, "3f9a1b2c4d", vars["container"])
	assert.Equal(t, cfg.Install.ToolsDir, vars["tools_dir"])
	assert.Equal(t, cfg.Docker.ContainerPassword, vars["db_password"])
	assert.Equal(t, "/tmp/apex-files/apex_24.1.zip", vars["apex_path"])
	assert.Equal(t, "jdk-21_linux-x64_bin.tar.gz", vars["java_archive"])
	assert.Equal(t, "jdk-21", vars["java_home"])
}

// TestBuildVarsApexURL APEX 地址优先用项目记录，末尾斜杠统一去掉
func TestBuildVarsApexURL(t *testing.T) {
	cfg := config.Default()
	scan := fullScanResult("/tmp/apex-files")

	project := testProject()
	project.ApexURL = "http://myhost:8080/ords/"
	vars := BuildVars(cfg, project, scan)
	assert.Equal(t, "http://myhost:8080/ords", vars["apex_url"])

	// 项目没有记录地址时回退到配置默认值
	project.ApexURL = ""
	vars = BuildVars(cfg, project, scan)
	assert.Equal(t, strings.TrimRight(cfg.Install.DefaultApexURL, "/"), vars["apex_url"])
}

// TestBuildVarsMissingArtifacts 缺失的安装包不写入路径键
func TestBuildVarsMissingArtifacts(t *testing.T) {
	vars := BuildVars(config.Default(), testProject(), emptyScanResult("/tmp/apex-files"))

	_, ok := vars["apex_path"]
	assert.False(t, ok)
	_, ok = vars["java_home"]
	assert.False(t, ok)
}

// TestGuessJavaHome 根据压缩包文件名推断解压目录
func TestGuessJavaHome(t *testing.T) {
	assert.Equal(t, "jdk-21", guessJavaHome("jdk-21_linux-x64_bin.tar.gz"))
	assert.Equal(t, "jdk-17.0.2", guessJavaHome("jdk-17.0.2_linux-aarch64_bin.tar.gz"))
	assert.Equal(t, "openjdk-21", guessJavaHome("openjdk-21.tgz"))
	assert.Equal(t, "<jdk_folder>", guessJavaHome(".tar.gz"))
}

// TestBuildStepsBlocked 阻塞阶段只生成一条补齐指引，不携带命令
func TestBuildStepsBlocked(t *testing.T) {
	scan := emptyScanResult("/tmp/apex-files")
	builder := NewChecklistBuilder(BuildVars(config.Default(), testProject(), scan), scan)

	stage := PendingStages(testProject(), scan)[0]
	require.True(t, stage.Blocked)

	steps, err := builder.BuildSteps(stage)
	require.NoError(t, err)

	require.Len(t, steps, 1)
	assert.Empty(t, steps[0].Commands)
	assert.Equal(t, scan.Dir, steps[0].TargetPath)
	assert.Contains(t, steps[0].Description, scan.Dir)
}

// TestBuildStepsCopy 复制阶段第一步引用扫描到的 APEX 压缩包路径
func TestBuildStepsCopy(t *testing.T) {
	scan := fullScanResult("/tmp/apex-files")
	builder := NewChecklistBuilder(BuildVars(config.Default(), testProject(), scan), scan)

	steps, err := builder.BuildSteps(domain.Stage{Key: "copy"})
	require.NoError(t, err)

	// APEX、JDK、ORDS 各一步复制，最后一步解压
	require.Len(t, steps, 4)
	first := steps[0]
	require.Len(t, first.Commands, 2)
	assert.Contains(t, first.Commands[1], "docker cp /tmp/apex-files/apex_24.1.zip")
	assert.Contains(t, first.Commands[1], "3f9a1b2c4d:")

	last := steps[len(steps)-1]
	assert.Equal(t, ContextContainer, last.Context)
	assert.Contains(t, strings.Join(last.Commands, "\n"), "unzip -o apex_24.1.zip")
	assert.Contains(t, strings.Join(last.Commands, "\n"), "tar -xzf jdk-21_linux-x64_bin.tar.gz")
}

// TestBuildStepsCopyPartial 个别缺失的安装包生成无命令的补齐步骤
func TestBuildStepsCopyPartial(t *testing.T) {
	scan := fullScanResult("/tmp/apex-files")
	scan.Artifacts[domain.ArtifactOrds] = domain.Artifact{
		Kind:         domain.ArtifactOrds,
		FriendlyName: "Oracle REST Data Services (ORDS)",
		DownloadURL:  "https://www.oracle.com/database/technologies/appdev/rest-data-services-downloads.html",
	}
	builder := NewChecklistBuilder(BuildVars(config.Default(), testProject(), scan), scan)

	steps, err := builder.BuildSteps(domain.Stage{Key: "copy"})
	require.NoError(t, err)
	require.Len(t, steps, 4)

	// 第三步是 ORDS 的补齐指引，不能携带引用缺失路径的命令
	supply := steps[2]
	assert.Empty(t, supply.Commands)
	assert.Contains(t, supply.Description, "Oracle REST Data Services")

	// 解压步骤不应出现 ords 相关命令
	extract := strings.Join(steps[3].Commands, "\n")
	assert.NotContains(t, extract, "ords")
}

// TestBuildStepsMissingContainer 容器信息缺失时报配置不完整而不是生成残缺命令
func TestBuildStepsMissingContainer(t *testing.T) {
	scan := fullScanResult("/tmp/apex-files")
	project := testProject()
	project.ContainerName = ""
	project.ContainerID = ""
	builder := NewChecklistBuilder(BuildVars(config.Default(), project, scan), scan)

	_, err := builder.BuildSteps(domain.Stage{Key: "copy"})

	var confErr *ConfigurationIncompleteError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, "container", confErr.Key)
}

// TestBuildStepsOrds ORDS 阶段的命令引用配置目录和数据库密码
func TestBuildStepsOrds(t *testing.T) {
	cfg := config.Default()
	scan := fullScanResult("/tmp/apex-files")
	builder := NewChecklistBuilder(BuildVars(cfg, testProject(), scan), scan)

	steps, err := builder.BuildSteps(domain.Stage{Key: "ords"})
	require.NoError(t, err)
	require.NotEmpty(t, steps)

	all := ""
	for _, step := range steps {
		all += step.Description + "\n" + strings.Join(step.Commands, "\n") + "\n"
	}
	assert.Contains(t, all, cfg.Install.OrdsConfigDir)
	assert.Contains(t, all, cfg.Docker.ContainerPassword)
	assert.Contains(t, all, "ords --config")
}

// TestBuildStepsFinalize 收尾阶段按原始安装流程执行 APEX 脚本
func TestBuildStepsFinalize(t *testing.T) {
	scan := fullScanResult("/tmp/apex-files")
	builder := NewChecklistBuilder(BuildVars(config.Default(), testProject(), scan), scan)

	steps, err := builder.BuildSteps(domain.Stage{Key: "finalize"})
	require.NoError(t, err)

	all := ""
	for _, step := range steps {
		all += strings.Join(step.Commands, "\n") + "\n"
	}
	assert.Contains(t, all, "@apexins.sql SYSAUX SYSAUX TEMP /i/")
	assert.Contains(t, all, "@apxchpwd.sql")
	assert.Contains(t, all, "@apex_rest_config.sql")

	// 最后一步在浏览器中验证入口
	last := steps[len(steps)-1]
	assert.Equal(t, ContextBrowser, last.Context)
}

// TestBuildStepsUnknownStage 未知阶段标识返回错误
func TestBuildStepsUnknownStage(t *testing.T) {
	scan := fullScanResult("/tmp/apex-files")
	builder := NewChecklistBuilder(BuildVars(config.Default(), testProject(), scan), scan)

	_, err := builder.BuildSteps(domain.Stage{Key: "bogus"})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoPendingWork))
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

// Config 应用配置
type Config struct {
	// 工作目录
	WorkDir string

	// 安装包目录（存放 JDK/APEX/ORDS 压缩包）
	ArtifactDir string

	// 项目注册表目录
	ProjectDir string

	// Docker 相关配置
	Docker DockerConfig

	// 安装向导相关配置
	Install InstallConfig

	// 日志配置
	Log LogConfig
}

// DockerConfig Docker 容器相关配置
// 仅用于生成可复制的命令文本，程序本身不与 Docker 通信
type DockerConfig struct {
	// Oracle XE 镜像
	Image string

	// 容器数据库密码（SYS/SYSTEM）
	ContainerPassword string

	// 监听端口（宿主机侧）
	ListenerPort int

	// ORDS 控制台端口（宿主机侧）
	ConsolePort int

	// APEX 端口（宿主机侧）
	ApexPort int
}

// InstallConfig 安装向导相关配置
type InstallConfig struct {
	// 容器内的安装工具目录
	ToolsDir string

	// 容器内的 ORDS 配置目录
	OrdsConfigDir string

	// 默认 APEX 访问地址
	DefaultApexURL string
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别：DEBUG, INFO, WARN, ERROR
	Level string

	// 是否启用控制台输出
	EnableConsole bool

	// 是否启用文件输出
	EnableFile bool

	// 日志目录
	LogDir string

	// 日志文件名（如果为空，则使用默认格式）
	LogFile string
}

// configSearchPaths 配置文件查找路径，按优先级排列
func configSearchPaths() []string {
	paths := []string{".apexpilot.ini"}
	if homeDir := os.Getenv("HOME"); homeDir != "" {
		paths = append(paths, filepath.Join(homeDir, ".apexpilot", ".apexpilot.ini"))
	}
	return paths
}

// LoadConfig 加载配置文件
func LoadConfig() (*Config, error) {
	config := Default()

	// 尝试读取配置文件
	var cfgFile *ini.File
	for _, configPath := range configSearchPaths() {
		if _, err := os.Stat(configPath); err == nil {
			loaded, err := ini.Load(configPath)
			if err == nil {
				cfgFile = loaded
				break
			}
		}
	}

	// 如果成功加载配置文件，读取配置值
	if cfgFile != nil {
		applyFile(config, cfgFile)
	}

	// 确保目录存在
	if err := ensureDirs(config); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	return config, nil
}

// Default 返回默认配置
// 默认值与原始部署流程保持一致：gvenzl 镜像、JACJConsulting 密码、8080 端口暴露 ORDS
func Default() *Config {
	return &Config{
		WorkDir:     ".",
		ArtifactDir: "./apex-files",
		ProjectDir:  "./projects",
		Docker: DockerConfig{
			Image:             "gvenzl/oracle-xe:21-slim",
			ContainerPassword: "JACJConsulting",
			ListenerPort:      1522,
			ConsolePort:       5501,
			ApexPort:          8080,
		},
		Install: InstallConfig{
			ToolsDir:       "/opt/oracle/tools",
			OrdsConfigDir:  "/opt/oracle/ords_config",
			DefaultApexURL: "http://localhost:8080/ords",
		},
		Log: LogConfig{
			Level:         "INFO",
			EnableConsole: true,
			EnableFile:    true,
			LogDir:        "logs",
			LogFile:       "",
		},
	}
}

// applyFile 将配置文件中的值覆盖到默认配置上
func applyFile(config *Config, cfgFile *ini.File) {
	if section := cfgFile.Section("default"); section != nil {
		if workDir := section.Key("work_dir").String(); workDir != "" {
			config.WorkDir = workDir
		}
		if artifactDir := section.Key("artifact_dir").String(); artifactDir != "" {
			config.ArtifactDir = artifactDir
		}
		if projectDir := section.Key("project_dir").String(); projectDir != "" {
			config.ProjectDir = projectDir
		}
	}

	if section := cfgFile.Section("docker"); section != nil {
		if image := section.Key("image").String(); image != "" {
			config.Docker.Image = image
		}
		if password := section.Key("container_password").String(); password != "" {
			config.Docker.ContainerPassword = password
		}
		if port := parsePort(section.Key("listener_port").String()); port > 0 {
			config.Docker.ListenerPort = port
		}
		if port := parsePort(section.Key("console_port").String()); port > 0 {
			config.Docker.ConsolePort = port
		}
		if port := parsePort(section.Key("apex_port").String()); port > 0 {
			config.Docker.ApexPort = port
		}
	}

	if section := cfgFile.Section("install"); section != nil {
		if toolsDir := section.Key("tools_dir").String(); toolsDir != "" {
			config.Install.ToolsDir = toolsDir
		}
		if ordsConfigDir := section.Key("ords_config_dir").String(); ordsConfigDir != "" {
			config.Install.OrdsConfigDir = ordsConfigDir
		}
		if apexURL := section.Key("default_apex_url").String(); apexURL != "" {
			config.Install.DefaultApexURL = apexURL
		}
	}

	if section := cfgFile.Section("log"); section != nil {
		if level := section.Key("level").String(); level != "" {
			config.Log.Level = level
		}
		if enableConsole := section.Key("enable_console").String(); enableConsole != "" {
			config.Log.EnableConsole = enableConsole == "true" || enableConsole == "1"
		}
		if enableFile := section.Key("enable_file").String(); enableFile != "" {
			config.Log.EnableFile = enableFile == "true" || enableFile == "1"
		}
		if logDir := section.Key("log_dir").String(); logDir != "" {
			config.Log.LogDir = logDir
		}
		if logFile := section.Key("log_file").String(); logFile != "" {
			config.Log.LogFile = logFile
		}
	}
}

// parsePort 解析端口号，非法值返回 0
func parsePort(value string) int {
	if value == "" {
		return 0
	}
	port, err := strconv.Atoi(value)
	if err != nil || port <= 0 || port > 65535 {
		return 0
	}
	return port
}

// ensureDirs 确保必要的目录存在
// 安装包目录的存在性由这里保证，核心扫描逻辑假定目录已就位
func ensureDirs(config *Config) error {
	dirs := []string{
		config.ProjectDir,
		config.ArtifactDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建目录 %s 失败: %w", dir, err)
		}
	}

	return nil
}

// LoadProjectRecord 加载项目记录文件
func LoadProjectRecord(projectPath string) (*ini.File, error) {
	recordPath := filepath.Join(projectPath, "project.ini")

	// 如果文件不存在，创建默认记录
	if _, err := os.Stat(recordPath); os.IsNotExist(err) {
		cfg := ini.Empty()
		if err := cfg.SaveTo(recordPath); err != nil {
			return nil, fmt.Errorf("创建项目记录失败: %w", err)
		}
	}

	return ini.Load(recordPath)
}

// SaveProjectRecord 保存项目记录文件
func SaveProjectRecord(projectPath string, cfg *ini.File) error {
	recordPath := filepath.Join(projectPath, "project.ini")
	return cfg.SaveTo(recordPath)
}

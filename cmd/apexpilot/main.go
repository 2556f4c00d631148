package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jacj/apexpilot/internal/clipboard"
	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/logger"
	"github.com/jacj/apexpilot/internal/repository"
	"github.com/jacj/apexpilot/internal/service"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
)

func main() {
	// 加载配置
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志系统
	logConfig := &logger.Config{
		Level:         logger.ParseLevel(cfg.Log.Level),
		EnableConsole: cfg.Log.EnableConsole,
		EnableFile:    cfg.Log.EnableFile,
		LogDir:        cfg.Log.LogDir,
		LogFile:       cfg.Log.LogFile,
	}

	log, err := logger.InitLogger(logConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志系统失败: %v\n", err)
		os.Exit(1)
	}

	log.Info("apexpilot 启动")
	log.Debug("配置加载成功: WorkDir=%s, ArtifactDir=%s, ProjectDir=%s",
		cfg.WorkDir, cfg.ArtifactDir, cfg.ProjectDir)

	// 初始化服务
	projectRepo := repository.NewProjectRepository(cfg)
	projectSvc := service.NewProjectService(cfg, projectRepo)
	installSvc := service.NewInstallService(cfg, projectRepo, clipboard.NewSystemCopier())

	// 创建根命令
	rootCmd := &cobra.Command{
		Use:   "apexpilot",
		Short: "apexpilot 是一个 Oracle APEX 环境搭建助手",
		Long: `apexpilot 是一个面向 Docker 环境的 Oracle APEX 安装助手。
扫描本地安装包、生成分阶段的安装清单，并逐条提供可复制执行的命令。
程序只生成命令文本，从不代替操作员执行任何命令。`,
	}

	// 添加项目命令组
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "项目管理命令",
	}
	projectCmd.AddCommand(createProjectCmd(projectSvc))
	projectCmd.AddCommand(listProjectsCmd(projectSvc))
	projectCmd.AddCommand(fixProjectCmd(projectSvc))
	projectCmd.AddCommand(updateProjectCmd(projectSvc))
	projectCmd.AddCommand(renameProjectCmd(projectSvc))
	projectCmd.AddCommand(deleteProjectCmd(projectSvc))
	rootCmd.AddCommand(projectCmd)

	// 添加安装命令组
	installCmd := &cobra.Command{
		Use:   "install",
		Short: "APEX 安装向导命令",
	}
	installCmd.AddCommand(scanArtifactsCmd(installSvc))
	installCmd.AddCommand(planInstallCmd(installSvc))
	installCmd.AddCommand(wizardInstallCmd(projectSvc, installSvc))
	rootCmd.AddCommand(installCmd)

	// 添加交互式控制台命令
	rootCmd.AddCommand(newConsoleCmd(projectSvc, installSvc))

	// 设置自动补全
	setupCompletion(rootCmd)

	// 设置动态补全
	setupDynamicCompletion(rootCmd, projectSvc)

	// 执行命令
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "执行命令失败: %v\n", err)
		os.Exit(1)
	}
}

// createProjectCmd 创建项目命令
func createProjectCmd(projectSvc service.ProjectService) *cobra.Command {
	var containerName string
	var apexURL string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "创建新项目",
		Long: `创建一个新的项目记录。项目名称只能包含字母、数字、连字符和下划线。

容器名和 APEX 地址可以先不填，后续通过 'project fix' 或 'project update' 补录。`,
		Example: `  # 创建名为 my-client 的项目
  apexpilot project create my-client

  # 创建项目并直接登记容器名
  apexpilot project create my-client --container my_client_xe`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			project, err := projectSvc.CreateProject(context.Background(), name, containerName, apexURL)
			if err != nil {
				return err
			}
			fmt.Printf("项目 %s 创建成功\n", project.Name)
			fmt.Printf("状态: %s\n", project.Status)
			if project.ContainerName == "" {
				fmt.Println("提示: 项目还没有容器，可以使用 'apexpilot project fix' 补录。")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&containerName, "container", "c", "", "登记已有容器的名称")
	cmd.Flags().StringVarP(&apexURL, "url", "u", "", "登记 APEX 访问地址")
	return cmd
}

// listProjectsCmd 列出项目命令
func listProjectsCmd(projectSvc service.ProjectService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "列出所有项目",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := projectSvc.ListProjects(context.Background())
			if err != nil {
				return err
			}

			if len(projects) == 0 {
				fmt.Println("没有找到项目")
				return nil
			}

			fmt.Println("项目列表:")
			for _, project := range projects {
				container := project.ContainerName
				if container == "" {
					container = "(无容器)"
				}
				fmt.Printf("  - %s [%s] 容器: %s\n", project.Name, project.Status, container)
				if project.ApexURL != "" {
					fmt.Printf("    APEX: %s\n", project.ApexURL)
				}
			}
			return nil
		},
	}
	return cmd
}

// fixProjectCmd 补录容器信息命令
// 为缺少容器的项目生成 docker run 命令文本，并引导操作员登记容器名和容器 ID
func fixProjectCmd(projectSvc service.ProjectService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix [name]",
		Short: "为缺少容器的项目补录容器信息",
		Long: `列出缺少容器信息的项目，生成启动 Oracle XE 容器的命令文本并引导登记。

不带参数时列出所有缺少容器的项目；指定项目名时进入交互式补录流程。
程序只生成命令文本，容器需要操作员自己在终端执行命令创建。`,
		Example: `  # 列出缺少容器的项目
  apexpilot project fix

  # 为项目 my-client 补录容器
  apexpilot project fix my-client`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				projects, err := projectSvc.ListProjectsMissingContainer(context.Background())
				if err != nil {
					return err
				}
				if len(projects) == 0 {
					fmt.Println("所有项目都已登记容器信息")
					return nil
				}
				fmt.Println("缺少容器信息的项目:")
				for _, project := range projects {
					fmt.Printf("  - %s [%s]\n", project.Name, project.Status)
				}
				fmt.Println("\n使用 'apexpilot project fix <name>' 进入补录流程。")
				return nil
			}

			return runContainerFix(projectSvc, args[0])
		},
	}
	return cmd
}

// updateProjectCmd 更新项目信息命令
func updateProjectCmd(projectSvc service.ProjectService) *cobra.Command {
	var containerName string
	var containerID string
	var apexURL string

	cmd := &cobra.Command{
		Use:   "update <name>",
		Short: "更新项目的容器信息或 APEX 地址",
		Example: `  # 登记容器 ID
  apexpilot project update my-client --container-id 3f9a1b2c4d

  # 更新 APEX 访问地址
  apexpilot project update my-client --url http://localhost:8080/ords/apex`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			updated := false

			if containerName != "" || containerID != "" {
				if err := projectSvc.AssignContainer(context.Background(), name, containerName, containerID); err != nil {
					return err
				}
				updated = true
			}

			if apexURL != "" {
				if err := projectSvc.UpdateApexURL(context.Background(), name, apexURL); err != nil {
					return err
				}
				updated = true
			}

			if !updated {
				return fmt.Errorf("没有提供任何更新内容，请使用 --container、--container-id 或 --url 标志")
			}

			fmt.Printf("项目 %s 更新成功\n", name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&containerName, "container", "c", "", "容器名称")
	cmd.Flags().StringVar(&containerID, "container-id", "", "容器 ID")
	cmd.Flags().StringVarP(&apexURL, "url", "u", "", "APEX 访问地址")
	return cmd
}

// renameProjectCmd 重命名项目命令
func renameProjectCmd(projectSvc service.ProjectService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rename <old-name> <new-name>",
		Short: "重命名项目",
		Example: `  # 把项目 my-client 改名为 acme
  apexpilot project rename my-client acme`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := projectSvc.RenameProject(context.Background(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("项目 %s 已重命名为 %s\n", args[0], args[1])
			return nil
		},
	}
	return cmd
}

// deleteProjectCmd 删除项目命令
func deleteProjectCmd(projectSvc service.ProjectService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "删除项目记录",
		Long:  "删除指定项目的注册表记录。注意：只删除记录本身，不会停止或删除 Docker 容器。",
		Example: `  # 删除项目 my-client 的记录
  apexpilot project delete my-client`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := projectSvc.DeleteProject(context.Background(), name); err != nil {
				return err
			}
			fmt.Printf("项目 %s 删除成功\n", name)
			return nil
		},
	}
	return cmd
}

// scanArtifactsCmd 扫描安装包命令
func scanArtifactsCmd(installSvc service.InstallService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "扫描安装包目录",
		Long: `扫描安装包目录，报告 JDK、APEX 和 ORDS 安装包的识别结果。

同一类安装包存在多个版本时，自动选用修改时间最新的文件。
缺失的安装包会给出官方下载地址提示。`,
		Example: `  # 扫描安装包目录
  apexpilot install scan`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scan, err := installSvc.ScanArtifacts(context.Background())
			if err != nil {
				return err
			}

			fmt.Printf("安装包目录: %s\n", scan.Dir)
			for _, line := range installSvc.ArtifactSummary(scan) {
				fmt.Printf("  %s\n", line)
			}

			notes := installSvc.MissingArtifactNotes(scan)
			if len(notes) > 0 {
				fmt.Println()
				for _, note := range notes {
					fmt.Printf("  %s\n", note)
				}
			}
			return nil
		},
	}
	return cmd
}

// planInstallCmd 查看安装计划命令
func planInstallCmd(installSvc service.InstallService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan <project>",
		Short: "查看项目剩余的安装阶段",
		Long: `根据项目当前状态和安装包扫描结果，列出剩余的安装阶段。

只做只读计算，不会修改项目状态，也不会启动安装会话。`,
		Example: `  # 查看项目 my-client 的安装计划
  apexpilot install plan my-client`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stages, err := installSvc.PendingStages(context.Background(), args[0])
			if err != nil {
				return err
			}

			if len(stages) == 0 {
				fmt.Printf("项目 %s 没有剩余的安装阶段\n", args[0])
				return nil
			}

			fmt.Printf("项目 %s 的安装计划:\n", args[0])
			for i, stage := range stages {
				marker := " "
				if stage.Blocked {
					marker = "!"
				}
				fmt.Printf("  %s %d. %s - %s\n", marker, i+1, stage.Title, stage.Description)
				if stage.Blocked {
					fmt.Println("      该阶段缺少安装包，补齐文件后重新扫描。")
				}
			}
			return nil
		},
	}
	return cmd
}

// wizardInstallCmd 启动安装向导命令
func wizardInstallCmd(projectSvc service.ProjectService, installSvc service.InstallService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wizard <project>",
		Short: "启动交互式安装向导",
		Long: `为指定项目启动交互式安装向导。

向导按阶段展示待执行的步骤，每个步骤提供可复制执行的命令文本。
输入命令编号即可把命令复制到剪贴板；全部步骤确认完成后进入收尾流程。`,
		Example: `  # 为项目 my-client 启动安装向导
  apexpilot install wizard my-client`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstallWizard(cfg, projectSvc, installSvc, args[0])
		},
	}
	return cmd
}

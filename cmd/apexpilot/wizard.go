package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jacj/apexpilot/internal/config"
	"github.com/jacj/apexpilot/internal/domain"
	"github.com/jacj/apexpilot/internal/installer"
	"github.com/jacj/apexpilot/internal/service"
)

// runInstallWizard 运行交互式安装向导
// 按阶段逐步展示清单，操作员在自己的终端执行命令后回到向导确认完成。
// 所有命令只作为文本提供，编号复制到剪贴板由操作员粘贴执行
func runInstallWizard(cfg *config.Config, projectSvc service.ProjectService, installSvc service.InstallService, projectName string) error {
	project, err := projectSvc.GetProject(context.Background(), projectName)
	if err != nil {
		return err
	}

	// 没有登记容器时先走补录流程，安装命令都依赖容器引用
	if project.ContainerReference() == "" {
		fmt.Printf("项目 %s 还没有登记容器信息。\n", projectName)
		if err := runContainerFix(projectSvc, projectName); err != nil {
			return err
		}
	}

	session, err := installSvc.StartSession(context.Background(), projectName)
	if err != nil {
		if errors.Is(err, installer.ErrNoPendingWork) {
			fmt.Printf("项目 %s 没有待执行的安装阶段。\n", projectName)
			return nil
		}
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	total := len(session.Plan.Stages)

	fmt.Printf("\n安装向导已启动: 项目 %s，共 %d 个待办阶段\n", projectName, total)
	fmt.Println("提示: 输入命令编号复制到剪贴板，回车确认步骤完成，s 跳过，q 退出向导")

	for stageIdx := range session.Plan.Stages {
		stage := &session.Plan.Stages[stageIdx]

		fmt.Printf("\n══ 阶段 %d/%d: %s ══\n", stageIdx+1, total, stage.Title)
		fmt.Println(stage.Description)
		if stage.Blocked {
			fmt.Println("⚠ 该阶段缺少安装包，只能展示指引，无法继续安装。")
		}

		for stepIdx := range stage.Steps {
			quit, err := runWizardStep(reader, installSvc, session, stage, stepIdx)
			if err != nil {
				return err
			}
			if quit {
				fmt.Println("已退出向导，进度已保存。随时可以重新运行向导继续。")
				return nil
			}
		}

		// 阻塞阶段之后没有可规划的内容，提示后结束
		if stage.Blocked {
			fmt.Println("\n补齐缺失的安装包后，重新运行 'apexpilot install scan' 和向导。")
			return nil
		}
	}

	if !session.Completed() {
		fmt.Println("\n还有未确认的步骤，向导结束。重新运行向导可以继续。")
		return nil
	}

	return runWizardFinalize(reader, cfg, session)
}

// runWizardStep 展示一个步骤并处理操作员输入
// 返回值 quit 表示操作员要求退出向导
func runWizardStep(reader *bufio.Reader, installSvc service.InstallService, session *installer.Session, stage *domain.Stage, stepIdx int) (bool, error) {
	step := &stage.Steps[stepIdx]

	fmt.Printf("\n── 步骤 %d/%d: %s [%s]\n", stepIdx+1, len(stage.Steps), step.Title, step.Context)
	if step.Description != "" {
		fmt.Println(step.Description)
	}
	for i, command := range step.Commands {
		fmt.Printf("  [%d] %s\n", i+1, command)
	}

	for {
		fmt.Print("wizard> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			// 输入流关闭等同于退出
			return true, nil
		}
		input := strings.TrimSpace(line)

		switch input {
		case "", "y", "done":
			if err := session.Advance(stage.Key, stepIdx); err != nil {
				if errors.Is(err, installer.ErrPersistence) {
					// 注册表写入失败不终止向导，下一次确认会自动重试
					fmt.Printf("⚠ 进度保存失败: %v\n", err)
					return false, nil
				}
				return false, err
			}
			fmt.Println("✓ 步骤已确认")
			return false, nil
		case "s", "skip":
			fmt.Println("已跳过，该步骤保持未完成状态。")
			return false, nil
		case "q", "quit", "exit":
			return true, nil
		default:
			// 数字输入表示复制对应命令
			if n, err := strconv.Atoi(input); err == nil {
				if n < 1 || n > len(step.Commands) {
					fmt.Printf("没有编号为 %d 的命令\n", n)
					continue
				}
				if installSvc.CopyText(step.Commands[n-1]) {
					fmt.Println("✓ 命令已复制到剪贴板")
				} else {
					fmt.Println("⚠ 复制失败，请手动复制上面的命令文本")
				}
				continue
			}
			fmt.Println("输入命令编号复制，回车确认完成，s 跳过，q 退出")
		}
	}
}

// runWizardFinalize 收尾流程：确认 APEX 访问地址并把项目置为就绪状态
func runWizardFinalize(reader *bufio.Reader, cfg *config.Config, session *installer.Session) error {
	defaultURL := session.Project.ApexURL
	if defaultURL == "" {
		defaultURL = cfg.Install.DefaultApexURL
	}

	fmt.Println("\n所有阶段已完成，进入收尾流程。")
	fmt.Printf("请在浏览器中确认 APEX 登录页可以访问。\n")
	fmt.Printf("APEX 访问地址（回车使用 %s）: ", defaultURL)

	apexURL := defaultURL
	if line, err := reader.ReadString('\n'); err == nil {
		if input := strings.TrimSpace(line); input != "" {
			apexURL = input
		}
	}

	if err := session.Finalize(apexURL); err != nil {
		return err
	}

	fmt.Printf("\n🎉 项目 %s 安装完成，状态已更新为 %s\n", session.Project.Name, session.Project.Status)
	fmt.Printf("APEX 访问地址: %s\n", session.Project.ApexURL)
	fmt.Println("默认管理员工作区: INTERNAL / ADMIN")
	return nil
}

// runContainerFix 交互式补录容器信息
// 推荐容器名并生成 docker run 命令文本，操作员执行后回来登记容器名和容器 ID
func runContainerFix(projectSvc service.ProjectService, projectName string) error {
	project, err := projectSvc.GetProject(context.Background(), projectName)
	if err != nil {
		return err
	}

	suggested, err := projectSvc.SuggestContainerName(context.Background(), projectName)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)

	fmt.Printf("\n为项目 %s 补录容器信息\n", projectName)
	fmt.Printf("推荐容器名（回车使用 %s）: ", suggested)

	containerName := suggested
	if line, err := reader.ReadString('\n'); err == nil {
		if input := strings.TrimSpace(line); input != "" {
			containerName = input
		}
	}

	fmt.Println("\n如果容器还不存在，请在终端执行以下命令创建:")
	fmt.Printf("  %s\n", projectSvc.DockerRunCommand(containerName))
	fmt.Println("\n创建后可以用以下命令核对容器状态和 ID:")
	for _, command := range projectSvc.DockerVerifyCommands(containerName) {
		fmt.Printf("  %s\n", command)
	}

	fmt.Print("\n容器 ID（可选，直接回车跳过）: ")
	containerID := ""
	if line, err := reader.ReadString('\n'); err == nil {
		containerID = strings.TrimSpace(line)
	}

	if err := projectSvc.AssignContainer(context.Background(), projectName, containerName, containerID); err != nil {
		return err
	}

	fmt.Printf("项目 %s 的容器信息已登记: %s\n", project.Name, containerName)
	return nil
}

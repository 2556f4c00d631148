package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/jacj/apexpilot/internal/service"
	"github.com/spf13/cobra"
)

// console 表示交互式控制台结构体
// 使用 go-prompt 提供带 Tab 补全的 REPL（读取-执行-输出）循环
type console struct {
	projectSvc service.ProjectService // 项目服务
	installSvc service.InstallService // 安装向导服务
}

// newConsoleCmd 创建控制台命令
// 用户执行 `apexpilot console` 即可进入交互式控制台
func newConsoleCmd(projectSvc service.ProjectService, installSvc service.InstallService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "进入交互式控制台",
		Long: `进入交互式控制台，对项目和安装流程进行统一管理。

示例:
  apexpilot console

进入控制台后，可使用命令:
  help                         显示帮助
  project list                 列出项目
  project create <name>        创建项目
  project fix [name]           补录容器信息
  install scan                 扫描安装包目录
  install plan <project>       查看安装计划
  install wizard <project>     启动安装向导
  exit / quit                  退出控制台`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &console{
				projectSvc: projectSvc,
				installSvc: installSvc,
			}
			return c.run()
		},
	}

	return cmd
}

// run 启动交互式控制台主循环（带 Tab 补全）
func (c *console) run() error {
	c.printWelcome()

	// 使用 go-prompt 提供交互式输入和 Tab 补全
	p := prompt.New(
		c.executor,                         // 输入执行函数
		c.completer,                        // 补全函数
		prompt.OptionPrefix("apexpilot> "), // 提示符
		prompt.OptionTitle("apexpilot console"),             // 标题
		prompt.OptionSuggestionBGColor(prompt.DarkGray),     // 建议背景色
		prompt.OptionSuggestionTextColor(prompt.White),      // 建议文字颜色
		prompt.OptionSelectedSuggestionBGColor(prompt.Blue), // 选中建议背景色
		prompt.OptionSelectedSuggestionTextColor(prompt.White),
	)

	// Run 会阻塞，直到用户退出（Ctrl+D/Ctrl+C）
	p.Run()
	fmt.Println("\n已退出控制台。")
	return nil
}

// executor 执行单行命令
func (c *console) executor(in string) {
	line := strings.TrimSpace(in)
	if line == "" {
		return
	}
	if err := c.handleCommand(line); err != nil {
		fmt.Printf("错误: %v\n", err)
	}
}

// completer 提供 Tab 补全
func (c *console) completer(d prompt.Document) []prompt.Suggest {
	text := d.TextBeforeCursor()
	parts := strings.Fields(text)

	// 如果正在输入第一个单词（顶级命令）
	if len(parts) == 0 {
		return c.topLevelSuggestions("")
	}

	// 当前正在输入的 token
	current := ""
	if d.TextBeforeCursor() == "" || strings.HasSuffix(d.TextBeforeCursor(), " ") {
		// 刚输入了空格，当前 token 为空，下一个参数
		current = ""
	} else {
		current = parts[len(parts)-1]
	}

	switch parts[0] {
	case "project":
		return c.completeProject(parts[1:], current)
	case "install":
		return c.completeInstall(parts[1:], current)
	default:
		// 顶级命令补全
		if len(parts) == 1 {
			return c.topLevelSuggestions(current)
		}
	}

	return []prompt.Suggest{}
}

// topLevelSuggestions 顶级命令补全
func (c *console) topLevelSuggestions(current string) []prompt.Suggest {
	cmds := []prompt.Suggest{
		{Text: "help", Description: "显示帮助"},
		{Text: "project", Description: "项目管理命令"},
		{Text: "install", Description: "APEX 安装向导命令"},
		{Text: "exit", Description: "退出控制台"},
		{Text: "quit", Description: "退出控制台"},
	}
	var res []prompt.Suggest
	for _, s := range cmds {
		if strings.HasPrefix(s.Text, current) {
			res = append(res, s)
		}
	}
	return res
}

// completeProject project 子命令补全
func (c *console) completeProject(args []string, current string) []prompt.Suggest {
	if len(args) == 0 {
		// 补全 project 子命令
		subs := []prompt.Suggest{
			{Text: "list", Description: "列出所有项目"},
			{Text: "create", Description: "创建新项目"},
			{Text: "fix", Description: "补录容器信息"},
			{Text: "update", Description: "更新容器信息或 APEX 地址"},
			{Text: "rename", Description: "重命名项目"},
			{Text: "delete", Description: "删除项目记录"},
		}
		var res []prompt.Suggest
		for _, s := range subs {
			if strings.HasPrefix(s.Text, current) {
				res = append(res, s)
			}
		}
		return res
	}

	switch args[0] {
	case "list":
		// project list 无更多参数
		return []prompt.Suggest{}
	case "create":
		// project create <name>，不做名称补全
		return []prompt.Suggest{}
	case "fix":
		// project fix [name]，补全缺少容器的项目名
		if len(args) == 1 {
			return c.completeMissingContainerNames(current)
		}
		return []prompt.Suggest{}
	case "update", "rename", "delete":
		// 第一个参数补全项目名
		if len(args) == 1 {
			return c.completeProjectNames(current)
		}
		return []prompt.Suggest{}
	default:
		return []prompt.Suggest{}
	}
}

// completeInstall install 子命令补全
func (c *console) completeInstall(args []string, current string) []prompt.Suggest {
	if len(args) == 0 {
		subs := []prompt.Suggest{
			{Text: "scan", Description: "扫描安装包目录"},
			{Text: "plan", Description: "查看项目剩余的安装阶段"},
			{Text: "wizard", Description: "启动交互式安装向导"},
		}
		var res []prompt.Suggest
		for _, s := range subs {
			if strings.HasPrefix(s.Text, current) {
				res = append(res, s)
			}
		}
		return res
	}

	switch args[0] {
	case "scan":
		// install scan 无更多参数
		return []prompt.Suggest{}
	case "plan", "wizard":
		// 第一个参数补全项目名
		if len(args) == 1 {
			return c.completeProjectNames(current)
		}
	}

	return []prompt.Suggest{}
}

// completeProjectNames 动态补全项目名
func (c *console) completeProjectNames(current string) []prompt.Suggest {
	projects, err := c.projectSvc.ListProjects(context.Background())
	if err != nil {
		return []prompt.Suggest{}
	}
	var res []prompt.Suggest
	for _, p := range projects {
		if strings.HasPrefix(p.Name, current) {
			res = append(res, prompt.Suggest{Text: p.Name, Description: string(p.Status)})
		}
	}
	return res
}

// completeMissingContainerNames 动态补全缺少容器的项目名
func (c *console) completeMissingContainerNames(current string) []prompt.Suggest {
	projects, err := c.projectSvc.ListProjectsMissingContainer(context.Background())
	if err != nil {
		return []prompt.Suggest{}
	}
	var res []prompt.Suggest
	for _, p := range projects {
		if strings.HasPrefix(p.Name, current) {
			res = append(res, prompt.Suggest{Text: p.Name, Description: "缺少容器信息"})
		}
	}
	return res
}

// printWelcome 打印欢迎信息和基础命令提示
func (c *console) printWelcome() {
	fmt.Println("╔═════════════════════════════════════════════════════════╗")
	fmt.Println("║            ApexPilot 交互式控制台 v1.0.0                ║")
	fmt.Println("╚═════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Println("提示: 输入 'help' 查看可用命令，输入 'exit' 或 'quit' 退出")
	fmt.Println("      按 Tab 键自动补全命令和参数")
	fmt.Println()
}

// handleCommand 解析并处理一条命令
func (c *console) handleCommand(line string) error {
	// 支持用空格分隔的简单命令
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "help", "h", "?":
		c.printHelp()
		return nil
	case "exit", "quit", "q":
		fmt.Println("退出控制台。")
		os.Exit(0)
	case "project":
		return c.handleProjectCommand(parts[1:])
	case "install":
		return c.handleInstallCommand(parts[1:])
	default:
		fmt.Println("未知命令。输入 'help' 查看支持的命令。")
		return nil
	}
	return nil
}

// handleProjectCommand 处理项目相关命令
func (c *console) handleProjectCommand(args []string) error {
	if len(args) == 0 {
		fmt.Println("用法: project [list|create <name>|fix [name]|update <name> ...|rename <old> <new>|delete <name>]")
		return nil
	}

	switch args[0] {
	case "list":
		return c.cmdProjectList()
	case "create":
		if len(args) < 2 {
			fmt.Println("用法: project create <name>")
			return nil
		}
		return c.cmdProjectCreate(args[1])
	case "fix":
		if len(args) < 2 {
			return c.cmdProjectFixList()
		}
		return runContainerFix(c.projectSvc, args[1])
	case "update":
		if len(args) < 4 {
			fmt.Println("用法: project update <name> [container <container-name> [container-id]|url <apex-url>]")
			return nil
		}
		return c.cmdProjectUpdate(args[1], args[2], args[3:])
	case "rename":
		if len(args) < 3 {
			fmt.Println("用法: project rename <old-name> <new-name>")
			return nil
		}
		return c.cmdProjectRename(args[1], args[2])
	case "delete":
		if len(args) < 2 {
			fmt.Println("用法: project delete <name>")
			return nil
		}
		return c.cmdProjectDelete(args[1])
	default:
		fmt.Println("未知 project 子命令。支持: list, create, fix, update, rename, delete")
		return nil
	}
}

// handleInstallCommand 处理安装相关命令
func (c *console) handleInstallCommand(args []string) error {
	if len(args) == 0 {
		fmt.Println("用法: install [scan|plan <project>|wizard <project>]")
		return nil
	}

	switch args[0] {
	case "scan":
		return c.cmdInstallScan()
	case "plan":
		if len(args) < 2 {
			fmt.Println("用法: install plan <project>")
			return nil
		}
		return c.cmdInstallPlan(args[1])
	case "wizard":
		if len(args) < 2 {
			fmt.Println("用法: install wizard <project>")
			return nil
		}
		return runInstallWizard(cfg, c.projectSvc, c.installSvc, args[1])
	default:
		fmt.Println("未知 install 子命令。支持: scan, plan, wizard")
		return nil
	}
}

// cmdProjectList 列出所有项目
func (c *console) cmdProjectList() error {
	projects, err := c.projectSvc.ListProjects(context.Background())
	if err != nil {
		return fmt.Errorf("获取项目列表失败: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("当前没有项目。可以使用 'project create <name>' 创建新项目。")
		return nil
	}

	fmt.Println("项目列表:")
	for _, p := range projects {
		container := p.ContainerName
		if container == "" {
			container = "(无容器)"
		}
		fmt.Printf("  - %s [%s] 容器: %s\n", p.Name, p.Status, container)
		if p.ApexURL != "" {
			fmt.Printf("    APEX: %s\n", p.ApexURL)
		}
	}
	return nil
}

// cmdProjectCreate 创建新项目
func (c *console) cmdProjectCreate(name string) error {
	project, err := c.projectSvc.CreateProject(context.Background(), name, "", "")
	if err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}

	fmt.Printf("项目创建成功:\n")
	fmt.Printf("  名称: %s\n", project.Name)
	fmt.Printf("  状态: %s\n", project.Status)
	fmt.Println("提示: 可以使用 'project fix' 登记容器，再用 'install wizard' 开始安装。")
	return nil
}

// cmdProjectFixList 列出缺少容器信息的项目
func (c *console) cmdProjectFixList() error {
	projects, err := c.projectSvc.ListProjectsMissingContainer(context.Background())
	if err != nil {
		return fmt.Errorf("获取项目列表失败: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("所有项目都已登记容器信息。")
		return nil
	}

	fmt.Println("缺少容器信息的项目:")
	for _, p := range projects {
		fmt.Printf("  - %s [%s]\n", p.Name, p.Status)
	}
	fmt.Println("\n使用 'project fix <name>' 进入补录流程。")
	return nil
}

// cmdProjectUpdate 更新项目信息
// 子命令格式: update <name> container <container-name> [container-id]
//             update <name> url <apex-url>
func (c *console) cmdProjectUpdate(name, field string, values []string) error {
	switch field {
	case "container":
		containerID := ""
		if len(values) >= 2 {
			containerID = values[1]
		}
		if err := c.projectSvc.AssignContainer(context.Background(), name, values[0], containerID); err != nil {
			return fmt.Errorf("更新容器信息失败: %w", err)
		}
	case "url":
		if err := c.projectSvc.UpdateApexURL(context.Background(), name, values[0]); err != nil {
			return fmt.Errorf("更新 APEX 地址失败: %w", err)
		}
	default:
		fmt.Println("支持的更新字段: container, url")
		return nil
	}

	fmt.Printf("项目 %s 更新成功。\n", name)
	return nil
}

// cmdProjectRename 重命名项目
func (c *console) cmdProjectRename(oldName, newName string) error {
	if err := c.projectSvc.RenameProject(context.Background(), oldName, newName); err != nil {
		return fmt.Errorf("重命名项目失败: %w", err)
	}
	fmt.Printf("项目 %s 已重命名为 %s。\n", oldName, newName)
	return nil
}

// cmdProjectDelete 删除项目
func (c *console) cmdProjectDelete(name string) error {
	// 先检查项目是否存在
	_, err := c.projectSvc.GetProject(context.Background(), name)
	if err != nil {
		return fmt.Errorf("项目不存在: %w", err)
	}

	// 确认删除
	fmt.Printf("警告: 即将删除项目 %s 的注册表记录（不会停止或删除容器）。\n", name)
	fmt.Print("确认删除? (yes/no): ")

	var confirmLine string
	if _, err := fmt.Scanln(&confirmLine); err != nil {
		return fmt.Errorf("读取确认输入失败: %w", err)
	}
	confirm := strings.TrimSpace(strings.ToLower(confirmLine))
	if confirm != "yes" && confirm != "y" {
		fmt.Println("已取消删除操作。")
		return nil
	}

	if err := c.projectSvc.DeleteProject(context.Background(), name); err != nil {
		return fmt.Errorf("删除项目失败: %w", err)
	}

	fmt.Printf("项目 %s 已删除。\n", name)
	return nil
}

// cmdInstallScan 扫描安装包目录
func (c *console) cmdInstallScan() error {
	scan, err := c.installSvc.ScanArtifacts(context.Background())
	if err != nil {
		return fmt.Errorf("扫描安装包目录失败: %w", err)
	}

	fmt.Printf("安装包目录: %s\n", scan.Dir)
	for _, line := range c.installSvc.ArtifactSummary(scan) {
		fmt.Printf("  %s\n", line)
	}

	notes := c.installSvc.MissingArtifactNotes(scan)
	if len(notes) > 0 {
		fmt.Println()
		for _, note := range notes {
			fmt.Printf("  %s\n", note)
		}
	}
	return nil
}

// cmdInstallPlan 查看项目的安装计划
func (c *console) cmdInstallPlan(projectName string) error {
	stages, err := c.installSvc.PendingStages(context.Background(), projectName)
	if err != nil {
		return fmt.Errorf("计算安装计划失败: %w", err)
	}

	if len(stages) == 0 {
		fmt.Printf("项目 %s 没有剩余的安装阶段。\n", projectName)
		return nil
	}

	fmt.Printf("项目 %s 的安装计划:\n", projectName)
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
}

// printHelp 打印控制台内可用命令帮助
func (c *console) printHelp() {
	fmt.Println("可用命令:")
	fmt.Println("  help                          显示本帮助")
	fmt.Println("  exit | quit                   退出控制台")
	fmt.Println()
	fmt.Println("  project list                  列出所有项目")
	fmt.Println("  project create <name>         创建新项目")
	fmt.Println("  project fix [name]            补录容器信息")
	fmt.Println("  project update <name> container <container-name> [container-id]")
	fmt.Println("                                登记容器名和容器 ID")
	fmt.Println("  project update <name> url <apex-url>")
	fmt.Println("                                更新 APEX 访问地址")
	fmt.Println("  project rename <old> <new>    重命名项目")
	fmt.Println("  project delete <name>         删除项目记录")
	fmt.Println()
	fmt.Println("  install scan                  扫描安装包目录")
	fmt.Println("  install plan <project>        查看项目剩余的安装阶段")
	fmt.Println("  install wizard <project>      启动交互式安装向导")
	fmt.Println()
	fmt.Println("提示: 程序只生成命令文本，所有命令都需要操作员自己在终端执行。")
}

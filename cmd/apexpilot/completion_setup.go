package main

import (
	"github.com/jacj/apexpilot/internal/service"
	"github.com/spf13/cobra"
)

// setupDynamicCompletion 设置动态补全
func setupDynamicCompletion(rootCmd *cobra.Command, projectSvc service.ProjectService) {
	// 项目相关命令的补全
	setupProjectCompletion(rootCmd, projectSvc)

	// 安装相关命令的补全
	setupInstallCompletion(rootCmd, projectSvc)
}

// setupProjectCompletion 设置项目命令的补全
func setupProjectCompletion(rootCmd *cobra.Command, projectSvc service.ProjectService) {
	projectCmd := findCommand(rootCmd, "project")
	if projectCmd == nil {
		return
	}

	// fix 只补全缺少容器的项目
	fixCmd := findCommand(projectCmd, "fix")
	if fixCmd != nil {
		fixCmd.ValidArgsFunction = completeProjectsMissingContainer(projectSvc)
	}

	for _, name := range []string{"update", "rename", "delete"} {
		if sub := findCommand(projectCmd, name); sub != nil {
			sub.ValidArgsFunction = completeProjects(projectSvc)
		}
	}
}

// setupInstallCompletion 设置安装命令的补全
func setupInstallCompletion(rootCmd *cobra.Command, projectSvc service.ProjectService) {
	installCmd := findCommand(rootCmd, "install")
	if installCmd == nil {
		return
	}

	for _, name := range []string{"plan", "wizard"} {
		if sub := findCommand(installCmd, name); sub != nil {
			sub.ValidArgsFunction = completeProjects(projectSvc)
		}
	}
}

// findCommand 查找命令
func findCommand(root *cobra.Command, name string) *cobra.Command {
	for _, cmd := range root.Commands() {
		if cmd.Name() == name {
			return cmd
		}
		// 递归查找子命令
		if found := findCommand(cmd, name); found != nil {
			return found
		}
	}
	return nil
}

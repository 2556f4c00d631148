package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jacj/apexpilot/internal/service"
	"github.com/spf13/cobra"
)

// 动态补全函数

// completeProjects 补全项目名称列表
func completeProjects(projectSvc service.ProjectService) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		projects, err := projectSvc.ListProjects(context.Background())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, project := range projects {
			if strings.HasPrefix(project.Name, toComplete) {
				// 显示格式：名称 [状态]
				completions = append(completions, fmt.Sprintf("%s\t[%s]", project.Name, project.Status))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeProjectsMissingContainer 补全缺少容器信息的项目名称列表
func completeProjectsMissingContainer(projectSvc service.ProjectService) func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		projects, err := projectSvc.ListProjectsMissingContainer(context.Background())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, project := range projects {
			if strings.HasPrefix(project.Name, toComplete) {
				completions = append(completions, fmt.Sprintf("%s\t缺少容器信息", project.Name))
			}
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}

// setupCompletion 设置自动补全命令
func setupCompletion(rootCmd *cobra.Command) {
	// 添加 completion 命令
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "生成自动补全脚本",
		Long: `生成指定 shell 的自动补全脚本。

支持的 shell: bash, zsh, fish, powershell

安装方法:

Bash:
  $ source <(apexpilot completion bash)

  # 或添加到 ~/.bashrc
  $ echo 'source <(apexpilot completion bash)' >> ~/.bashrc

Zsh:
  $ source <(apexpilot completion zsh)

  # 或添加到 ~/.zshrc
  $ echo 'source <(apexpilot completion zsh)' >> ~/.zshrc

Fish:
  $ apexpilot completion fish | source

  # 或添加到 ~/.config/fish/completions/apexpilot.fish
  $ apexpilot completion fish > ~/.config/fish/completions/apexpilot.fish

PowerShell:
  $ apexpilot completion powershell | Out-String | Invoke-Expression

  # 或添加到 PowerShell profile
  $ apexpilot completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.ExactValidArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				rootCmd.GenPowerShellCompletion(os.Stdout)
			}
		},
	}

	rootCmd.AddCommand(completionCmd)
}

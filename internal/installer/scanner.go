package installer

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/jacj/apexpilot/internal/domain"
)

// artifactSpec 静态定义的安装包角色
type artifactSpec struct {
	Kind         domain.ArtifactKind
	FriendlyName string
	DownloadURL  string
	Keywords     []string // 文件名必须包含的关键字（小写、忽略空格）
	Extensions   []string // 允许的压缩包后缀
}

// requiredArtifacts 安装所需的全部安装包角色，顺序固定
var requiredArtifacts = []artifactSpec{
	{
		Kind:         domain.ArtifactJava,
		FriendlyName: "Java Development Kit for Linux x64",
		DownloadURL:  "https://www.oracle.com/java/technologies/downloads/",
		Keywords:     []string{"jdk", "linux"},
		Extensions:   []string{".tar.gz", ".tgz", ".tar"},
	},
	{
		Kind:         domain.ArtifactApex,
		FriendlyName: "Oracle APEX bundle",
		DownloadURL:  "https://www.oracle.com/tools/downloads/apex-downloads/",
		Keywords:     []string{"apex"},
		Extensions:   []string{".zip"},
	},
	{
		Kind:         domain.ArtifactOrds,
		FriendlyName: "Oracle REST Data Services (ORDS)",
		DownloadURL:  "https://www.oracle.com/database/technologies/appdev/rest-data-services-downloads.html",
		Keywords:     []string{"ords"},
		Extensions:   []string{".zip", ".jar"},
	},
}

// ArtifactScanner 安装包扫描器
// 只读检查安装包目录，缺失的文件记为 Found=false 而不是错误
type ArtifactScanner struct {
	dir string
}

// NewArtifactScanner 创建安装包扫描器
// dir 的存在性由配置加载阶段保证
func NewArtifactScanner(dir string) *ArtifactScanner {
	return &ArtifactScanner{dir: dir}
}

// candidate 扫描过程中的匹配候选
type candidate struct {
	path    string
	name    string
	modTime time.Time
}

// Scan 扫描目录并返回每个安装包角色的匹配结果
// 多个候选时选择修改时间最新的文件，修改时间相同按文件名字典序取最小
func (s *ArtifactScanner) Scan() (domain.ScanResult, error) {
	result := domain.ScanResult{
		Dir:       s.dir,
		Artifacts: make(map[domain.ArtifactKind]domain.Artifact, len(requiredArtifacts)),
	}

	// 收集目录下的全部文件（含子目录），目录不可读时视为空目录
	var files []candidate
	filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, candidate{
			path:    path,
			name:    d.Name(),
			modTime: info.ModTime(),
		})
		return nil
	})

	for _, spec := range requiredArtifacts {
		artifact := domain.Artifact{
			Kind:         spec.Kind,
			FriendlyName: spec.FriendlyName,
			DownloadURL:  spec.DownloadURL,
		}

		var best *candidate
		for i := range files {
			if !spec.matches(files[i].name) {
				continue
			}
			if best == nil || newerThan(files[i], *best) {
				best = &files[i]
			}
		}

		if best != nil {
			artifact.Found = true
			artifact.Path = best.path
			artifact.FileName = best.name
		}

		result.Artifacts[spec.Kind] = artifact
	}

	return result, nil
}

// matches 判断文件名是否匹配该安装包角色
func (spec artifactSpec) matches(fileName string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(fileName), " ", "")

	hasExtension := false
	for _, ext := range spec.Extensions {
		if strings.HasSuffix(normalized, ext) {
			hasExtension = true
			break
		}
	}
	if !hasExtension {
		return false
	}

	for _, keyword := range spec.Keywords {
		if !strings.Contains(normalized, keyword) {
			return false
		}
	}
	return true
}

// newerThan 判断候选 a 是否优先于候选 b
func newerThan(a, b candidate) bool {
	if !a.modTime.Equal(b.modTime) {
		return a.modTime.After(b.modTime)
	}
	return a.name < b.name
}

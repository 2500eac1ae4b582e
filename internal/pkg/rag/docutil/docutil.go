// Package docutil 提供文档发现与纯文本抽取。
package docutil

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles 在目录中递归查找匹配指定扩展名的文件，按路径排序返回。
// extensions 是文件扩展名列表，如 []string{".md", ".pdf"}。
func FindFiles(dir string, extensions []string) ([]string, error) {
	var files []string
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.ToLower(ext)] = true
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		// 跳过 Office 临时文件
		if strings.HasPrefix(info.Name(), "~$") {
			return nil
		}
		if extMap[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// EnsureDir 确保目录存在，如果不存在则创建。
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// DirExists 检查目录是否存在。
func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Stem 返回不含扩展名的文件名。
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

package nostd

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafePathJoin 拼接路径并确保结果不会越出基础目录
func SafePathJoin(baseDir, userInput string) (string, error) {
	cleanedPath := filepath.Clean(userInput)
	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	absFilePath, err := filepath.Abs(filepath.Join(absBaseDir, cleanedPath))
	if err != nil {
		return "", err
	}

	if !strings.HasPrefix(absFilePath, absBaseDir) {
		return "", fmt.Errorf("invalid file path: %s", userInput)
	}
	return absFilePath, nil
}

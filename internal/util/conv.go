package util

import (
	"strconv"
	"strings"
)

// AtoiDefault 解析失败时返回默认值
func AtoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

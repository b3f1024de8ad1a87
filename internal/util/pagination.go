package util

import (
	"math"
	"strconv"
	"strings"
)

// ClampPage 页码最小为 1
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampLimit 限制在 [1, MaxPageSize]，0 视为未传使用默认值
func ClampLimit(limit, def int) int {
	if limit == 0 {
		limit = def
	}
	if limit < 1 {
		return 1
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

// LimitParam 解析查询参数 limit：缺失或不是整数时用默认值，显式传入的非正数按 1 处理
func LimitParam(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if n < 1 {
		return 1
	}
	return n
}

// MaxOffset 偏移量上限，超出的页码按最后可表示的一页处理
const MaxOffset = math.MaxInt32

// Offset 分页偏移量，超大页码不会溢出为负数
func Offset(page, limit int) int {
	if page < 1 || limit < 1 {
		return 0
	}
	if page-1 > MaxOffset/limit {
		return MaxOffset / limit * limit
	}
	return (page - 1) * limit
}

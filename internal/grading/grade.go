package grading

// PassThreshold 及格线（百分比）
const PassThreshold = 60

// 下限包含，从高到低匹配
var gradeBands = []struct {
	min   int
	grade string
}{
	{97, "A+"},
	{93, "A"},
	{87, "B+"},
	{83, "B"},
	{77, "C+"},
	{73, "C"},
	{60, "D"},
}

// GradeOf 百分比到等级的映射
func GradeOf(percentage int) string {
	for _, b := range gradeBands {
		if percentage >= b.min {
			return b.grade
		}
	}
	return "F"
}

func IsPassed(percentage int) bool {
	return percentage >= PassThreshold
}

// Percentage round(earned/total*100)，total<=0 时为 0。整数运算，半数向上取整
func Percentage(earned, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*earned + total) / (2 * total)
}

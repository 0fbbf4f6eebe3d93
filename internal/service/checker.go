package service

import (
	"strconv"
	"strings"
)

// 答案等价性启发式比较，非符号数学引擎，尽力而为
// 更强的代数等价后端（如SymPy sidecar）可在同一入口后替换

// IsEquivalent 判断提交答案是否与标准答案等价
//
// 依次尝试：规整后全等 → 双向包含（容忍任一侧多余包装）→
// 有序数字序列相等（提交侧至少含一个数字）
func IsEquivalent(submitted, canonical string) bool {
	sub := normalizeExpr(submitted)
	can := normalizeExpr(canonical)

	if sub == can {
		return true
	}

	if strings.Contains(can, sub) || strings.Contains(sub, can) {
		return true
	}

	subNums := extractNumbers(sub)
	canNums := extractNumbers(can)
	if len(subNums) > 0 && numbersEqual(subNums, canNums) {
		return true
	}

	return false
}

// normalizeExpr 去空白、去\left/\right尺寸标记、\cdot改*、转小写
func normalizeExpr(s string) string {
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, `\left`, "")
	s = strings.ReplaceAll(s, `\right`, "")
	s = strings.ReplaceAll(s, `\cdot`, "*")
	return strings.ToLower(s)
}

// extractNumbers 按出现顺序提取所有可解析的数字token
// 分隔规则：非数字、非'.'、非'-'的字符均视为分隔符
func extractNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(c rune) bool {
		return (c < '0' || c > '9') && c != '.' && c != '-'
	})

	nums := make([]float64, 0, len(fields))
	for _, f := range fields {
		if v, err := strconv.ParseFloat(f, 64); err == nil {
			nums = append(nums, v)
		}
	}
	return nums
}

func numbersEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

package service

import (
	"strings"
	"unicode"
)

// 车牌长度限制（规范化后）
const (
	plateMinLen = 5
	plateMaxLen = 10
)

// NormalizePlate 规范化车牌：剔除所有非字母数字字符并转为大写。
// 任何涉及车牌的比较、存储、校验都先经过此函数。幂等。
func NormalizePlate(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z':
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidPlate 校验规范化后的车牌：长度 5-10 且仅含大写字母或数字
func ValidPlate(plate string) bool {
	if len(plate) < plateMinLen || len(plate) > plateMaxLen {
		return false
	}
	for _, r := range plate {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

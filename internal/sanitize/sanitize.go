package sanitize

import (
	"regexp"
	"strings"
)

// controlPattern 匹配对传输编码不安全的 ASCII 控制字符。
// 换行（0x0A）、制表符（0x09）和回车（0x0D）被排除在外。
var controlPattern = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")

// Clean 从文本中剥离控制字符与 NUL 字节并去除首尾空白。
// 仅用于自由文本字段；枚举、日期等已受约束的字段不经过此处。
// 幂等：Clean(Clean(x)) == Clean(x)。
func Clean(text string) string {
	return strings.TrimSpace(controlPattern.ReplaceAllString(text, ""))
}

// CleanFields 对映射中指定键的值就地执行 Clean，返回同一映射。
func CleanFields(fields map[string]string, keys []string) map[string]string {
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			fields[k] = Clean(v)
		}
	}
	return fields
}

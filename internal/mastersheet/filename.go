package mastersheet

import (
	"fmt"
	"strings"
	"unicode"
)

// FileName 生成下载文件名
// Master-Sheet_<Wall|A4>_<Department>_<Class>_<AcademicYear>_<TermCode>.<ext>
func FileName(format Format, department, class, academicYear string, term Term, ext string) string {
	return fmt.Sprintf("Master-Sheet_%s_%s_%s_%s_%s.%s",
		format.FileLabel(),
		fileSegment(department),
		fileSegment(class),
		fileSegment(academicYear),
		term.Code(),
		strings.TrimPrefix(ext, "."),
	)
}

// fileSegment 去掉路径分隔符等不能出现在文件名里的字符，空白折叠为 "-"
func fileSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r), strings.ContainsRune(`/\:*?"<>|_`, r):
			if !dash && b.Len() > 0 {
				b.WriteRune('-')
				dash = true
			}
		case unicode.IsPrint(r):
			b.WriteRune(r)
			dash = false
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "NA"
	}
	return out
}

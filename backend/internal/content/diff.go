package content

import (
	"fmt"
	"html"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

type lineOp int

const (
	opEqual lineOp = iota
	opDelete
	opInsert
)

type diffLine struct {
	op    lineOp
	text  string
	oldNo int
	newNo int
}

type diffResult struct {
	fragment string
	added    int
	removed  int
}

// lineDiff 行级比较，行号从 1 开始
func lineDiff(oldText, newText string) []diffLine {
	differ := dmp.New()
	a, b, lines := differ.DiffLinesToChars(oldText, newText)
	diffs := differ.DiffCharsToLines(differ.DiffMain(a, b, false), lines)

	var out []diffLine
	oldNo, newNo := 1, 1
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			l := diffLine{text: line, oldNo: oldNo, newNo: newNo}
			switch d.Type {
			case dmp.DiffEqual:
				l.op = opEqual
				oldNo++
				newNo++
			case dmp.DiffDelete:
				l.op = opDelete
				oldNo++
			case dmp.DiffInsert:
				l.op = opInsert
				newNo++
			}
			out = append(out, l)
		}
	}
	return out
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	for i := range parts {
		parts[i] = strings.TrimSuffix(parts[i], "\n")
	}
	return parts
}

// renderDiff 输出表格行；变化行前后只保留 context 行上下文
func renderDiff(oldText, newText string, context int) diffResult {
	lines := lineDiff(oldText, newText)
	show := visibleLines(lines, context)

	var res diffResult
	var b strings.Builder
	skipped := true
	for i := 0; i < len(lines); {
		if !show[i] {
			skipped = true
			i++
			continue
		}
		if skipped {
			fmt.Fprintf(&b, `<tr class="diff-hunk"><td colspan="4">@@ -%d +%d @@</td></tr>`, lines[i].oldNo, lines[i].newNo)
			skipped = false
		}

		switch lines[i].op {
		case opEqual:
			writeRow(&b, "diff-context", lines[i].oldNo, lines[i].newNo, " ", html.EscapeString(lines[i].text))
			i++
		case opInsert:
			for i < len(lines) && lines[i].op == opInsert {
				writeRow(&b, "diff-added", 0, lines[i].newNo, "+", html.EscapeString(lines[i].text))
				res.added++
				i++
			}
		case opDelete:
			delEnd := i
			for delEnd < len(lines) && lines[delEnd].op == opDelete {
				delEnd++
			}
			insEnd := delEnd
			for insEnd < len(lines) && lines[insEnd].op == opInsert {
				insEnd++
			}
			dels, ins := lines[i:delEnd], lines[delEnd:insEnd]
			// 删除与新增一一配对的行做行内比较
			for k, l := range dels {
				text := html.EscapeString(l.text)
				if k < len(ins) {
					text, _ = inlineDiff(l.text, ins[k].text)
				}
				writeRow(&b, "diff-deleted", l.oldNo, 0, "−", text)
				res.removed++
			}
			for k, l := range ins {
				text := html.EscapeString(l.text)
				if k < len(dels) {
					_, text = inlineDiff(dels[k].text, l.text)
				}
				writeRow(&b, "diff-added", 0, l.newNo, "+", text)
				res.added++
			}
			i = insEnd
		}
	}
	if res.added == 0 && res.removed == 0 {
		return diffResult{}
	}
	res.fragment = b.String()
	return res
}

func visibleLines(lines []diffLine, context int) []bool {
	show := make([]bool, len(lines))
	if context < 0 {
		context = 0
	}
	last := -1 << 30
	for i, l := range lines {
		if l.op != opEqual {
			last = i
			show[i] = true
		} else if i-last <= context {
			show[i] = true
		}
	}
	next := 1 << 30
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].op != opEqual {
			next = i
		} else if next-i <= context {
			show[i] = true
		}
	}
	return show
}

// inlineDiff 返回旧行与新行各自带 <del>/<ins> 标记的 HTML
func inlineDiff(oldLine, newLine string) (string, string) {
	differ := dmp.New()
	diffs := differ.DiffCleanupSemantic(differ.DiffMain(oldLine, newLine, false))

	var oldB, newB strings.Builder
	for _, d := range diffs {
		text := html.EscapeString(d.Text)
		switch d.Type {
		case dmp.DiffEqual:
			oldB.WriteString(text)
			newB.WriteString(text)
		case dmp.DiffDelete:
			oldB.WriteString(`<del class="diffchange">`)
			oldB.WriteString(text)
			oldB.WriteString("</del>")
		case dmp.DiffInsert:
			newB.WriteString(`<ins class="diffchange">`)
			newB.WriteString(text)
			newB.WriteString("</ins>")
		}
	}
	return oldB.String(), newB.String()
}

func writeRow(b *strings.Builder, class string, oldNo, newNo int, marker, text string) {
	fmt.Fprintf(b, `<tr class="%s"><td class="diff-lineno">%s</td><td class="diff-lineno">%s</td><td class="diff-marker">%s</td><td class="diff-text">%s</td></tr>`,
		class, lineNo(oldNo), lineNo(newNo), marker, text)
}

func lineNo(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprint(n)
}

package title

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var ErrInvalidTitle = errors.New("invalid title")

// 数据库中 page_title 的最大字节数
const MaxTitleBytes = 255

// Title 是规范化后的页面引用
type Title struct {
	Namespace int
	// Text 为展示形式（空格分隔），DBKey 为存储形式（下划线分隔）
	Text  string
	DBKey string
}

// PrefixedText 返回带命名空间前缀的展示文本
func (t Title) PrefixedText() string {
	name := NamespaceName(t.Namespace)
	if name == "" {
		return t.Text
	}
	return name + ":" + t.Text
}

func (t Title) String() string { return t.PrefixedText() }

// CanExist 特殊页面没有修订版本
func (t Title) CanExist() bool { return t.Namespace >= NSMain }

type Parser struct {
	// 首字母大写（$wgCapitalLinks）
	capitalLinks bool
}

func NewParser(capitalLinks bool) *Parser {
	return &Parser{capitalLinks: capitalLinks}
}

// Parse 把用户输入解析为 Title，失败时返回 ErrInvalidTitle
func (p *Parser) Parse(text string) (Title, error) {
	s := norm.NFC.String(text)
	s = strings.ReplaceAll(s, "_", " ")
	s = collapseSpaces(s)
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimSpace(s)

	// 片段部分（#之后）不属于标题
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if s == "" {
		return Title{}, ErrInvalidTitle
	}

	ns := NSMain
	if i := strings.IndexByte(s, ':'); i > 0 {
		if id, ok := LookupNamespace(strings.TrimSpace(s[:i])); ok {
			ns = id
			s = strings.TrimSpace(s[i+1:])
			if s == "" {
				return Title{}, ErrInvalidTitle
			}
		}
	}

	if err := checkLegal(s); err != nil {
		return Title{}, err
	}
	if p.capitalLinks {
		s = upperFirst(s)
	}
	if len(s) > MaxTitleBytes {
		return Title{}, ErrInvalidTitle
	}
	return Title{Namespace: ns, Text: s, DBKey: strings.ReplaceAll(s, " ", "_")}, nil
}

func checkLegal(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidTitle
	}
	for _, r := range s {
		if r == utf8.RuneError || unicode.IsControl(r) {
			return ErrInvalidTitle
		}
		switch r {
		case '<', '>', '[', ']', '|', '{', '}':
			return ErrInvalidTitle
		}
	}
	// 相对路径
	if s == "." || s == ".." ||
		strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../") ||
		strings.Contains(s, "/./") || strings.Contains(s, "/../") ||
		strings.HasSuffix(s, "/.") || strings.HasSuffix(s, "/..") {
		return ErrInvalidTitle
	}
	// 签名
	if strings.Contains(s, "~~~") {
		return ErrInvalidTitle
	}
	return nil
}

func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

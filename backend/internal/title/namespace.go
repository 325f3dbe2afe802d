package title

import "strings"

const (
	NSSpecial       = -1
	NSMain          = 0
	NSTalk          = 1
	NSUser          = 2
	NSUserTalk      = 3
	NSProject       = 4
	NSProjectTalk   = 5
	NSFile          = 6
	NSFileTalk      = 7
	NSMediaWiki     = 8
	NSMediaWikiTalk = 9
	NSTemplate      = 10
	NSTemplateTalk  = 11
	NSHelp          = 12
	NSHelpTalk      = 13
	NSCategory      = 14
	NSCategoryTalk  = 15
)

var canonicalNames = map[int]string{
	NSSpecial:       "Special",
	NSTalk:          "Talk",
	NSUser:          "User",
	NSUserTalk:      "User talk",
	NSProject:       "Project",
	NSProjectTalk:   "Project talk",
	NSFile:          "File",
	NSFileTalk:      "File talk",
	NSMediaWiki:     "MediaWiki",
	NSMediaWikiTalk: "MediaWiki talk",
	NSTemplate:      "Template",
	NSTemplateTalk:  "Template talk",
	NSHelp:          "Help",
	NSHelpTalk:      "Help talk",
	NSCategory:      "Category",
	NSCategoryTalk:  "Category talk",
}

var aliases = map[string]int{
	"image":      NSFile,
	"image talk": NSFileTalk,
}

// 小写名字 -> 命名空间 ID
var byName = func() map[string]int {
	m := make(map[string]int, len(canonicalNames)+len(aliases))
	for id, name := range canonicalNames {
		m[strings.ToLower(name)] = id
	}
	for name, id := range aliases {
		m[name] = id
	}
	return m
}()

// NamespaceName 返回规范名，主命名空间返回空串
func NamespaceName(id int) string { return canonicalNames[id] }

// LookupNamespace 大小写不敏感，下划线与空格等价
func LookupNamespace(prefix string) (int, bool) {
	key := strings.ToLower(strings.ReplaceAll(prefix, "_", " "))
	id, ok := byName[key]
	return id, ok
}

package contentfilter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mkblog/comment_server/config"
)

// 违规规则
const (
	RuleTooShort       = "too_short"
	RuleTooLong        = "too_long"
	RuleExcessiveLinks = "excessive_links"
	RuleProfanity      = "profanity"
	RuleSpamPattern    = "spam_pattern"
)

// 规则对应的提示消息
var ruleMessages = map[string]string{
	RuleTooShort:       "评论内容过短",
	RuleTooLong:        "评论内容过长",
	RuleExcessiveLinks: "评论包含过多链接",
	RuleProfanity:      "评论包含不当内容",
	RuleSpamPattern:    "评论疑似垃圾信息",
}

// ValidationError 内容校验失败，携带具体触发的规则
type ValidationError struct {
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

// Filter 评论内容校验管道，纯函数、无副作用
type Filter struct {
	minLength    int
	maxLength    int
	maxLinks     int
	blocklist    map[string]struct{}
	spamPatterns []*regexp.Regexp
}

// New 根据配置构建过滤器，正则非法时返回错误
func New(cfg *config.ModerationConfig) (*Filter, error) {
	blocklist := make(map[string]struct{}, len(cfg.Blocklist))
	for _, word := range cfg.Blocklist {
		blocklist[strings.ToLower(word)] = struct{}{}
	}

	patterns := make([]*regexp.Regexp, 0, len(cfg.SpamPatterns))
	for _, p := range cfg.SpamPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid spam pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	return &Filter{
		minLength:    cfg.MinLength,
		maxLength:    cfg.MaxLength,
		maxLinks:     cfg.MaxLinks,
		blocklist:    blocklist,
		spamPatterns: patterns,
	}, nil
}

// Validate 校验评论内容，返回 nil 表示通过，
// 否则返回第一个触发规则的 *ValidationError
func (f *Filter) Validate(content string) error {
	// 长度规则先行，后续规则假定内容非空
	length := utf8.RuneCountInString(content)
	if length < f.minLength {
		return newError(RuleTooShort)
	}
	if length > f.maxLength {
		return newError(RuleTooLong)
	}

	if len(urlPattern.FindAllStringIndex(content, -1)) > f.maxLinks {
		return newError(RuleExcessiveLinks)
	}

	for _, word := range strings.Fields(strings.ToLower(content)) {
		if _, ok := f.blocklist[word]; ok {
			return newError(RuleProfanity)
		}
	}

	for _, re := range f.spamPatterns {
		if re.MatchString(content) {
			return newError(RuleSpamPattern)
		}
	}

	return nil
}

func newError(rule string) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Message: ruleMessages[rule],
	}
}

package contentfilter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkblog/comment_server/config"
)

func newTestFilter(t *testing.T) *Filter {
	t.Helper()

	cfg := config.DefaultModeration()
	f, err := New(&cfg)
	require.NoError(t, err)
	return f
}

func assertRule(t *testing.T, err error, rule string) {
	t.Helper()

	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, rule, verr.Rule)
	assert.NotEmpty(t, verr.Message)
}

func TestFilter_Validate_Length(t *testing.T) {
	f := newTestFilter(t)

	t.Run("too short", func(t *testing.T) {
		assertRule(t, f.Validate(""), RuleTooShort)
		assertRule(t, f.Validate("a"), RuleTooShort)
	})

	t.Run("boundary values pass", func(t *testing.T) {
		assert.NoError(t, f.Validate("ab"))
		assert.NoError(t, f.Validate(strings.Repeat("a", 1000)))
	})

	t.Run("too long", func(t *testing.T) {
		assertRule(t, f.Validate(strings.Repeat("a", 1001)), RuleTooLong)
	})

	t.Run("length counts runes not bytes", func(t *testing.T) {
		// 500 个中文字符，utf-8 下超过 1000 字节但不超长
		assert.NoError(t, f.Validate(strings.Repeat("好", 500)))
	})
}

func TestFilter_Validate_Links(t *testing.T) {
	f := newTestFilter(t)

	t.Run("at most max links pass", func(t *testing.T) {
		assert.NoError(t, f.Validate("see http://a.co and https://b.co"))
	})

	t.Run("more than max links fail", func(t *testing.T) {
		err := f.Validate("Check this out http://a.co http://b.co http://c.co")
		assertRule(t, err, RuleExcessiveLinks)
	})

	t.Run("https counts too", func(t *testing.T) {
		err := f.Validate("https://a.co https://b.co https://c.co done")
		assertRule(t, err, RuleExcessiveLinks)
	})
}

func TestFilter_Validate_Blocklist(t *testing.T) {
	f := newTestFilter(t)

	t.Run("exact token match fails", func(t *testing.T) {
		assertRule(t, f.Validate("this is spam content"), RuleProfanity)
	})

	t.Run("match is case insensitive", func(t *testing.T) {
		assertRule(t, f.Validate("this is SPAM content"), RuleProfanity)
	})

	t.Run("substring does not match", func(t *testing.T) {
		// "spammy" 不等于 "spam"，按词精确匹配
		assert.NoError(t, f.Validate("this is spammy writing"))
	})
}

func TestFilter_Validate_SpamPatterns(t *testing.T) {
	f := newTestFilter(t)

	cases := []string{
		"limited offer just for you",
		"best casino in town",
		"you can earn money fast",
		"only $100 per month",
	}
	for _, c := range cases {
		assertRule(t, f.Validate(c), RuleSpamPattern)
	}

	assert.NoError(t, f.Validate("Great article, thanks for sharing!"))
}

func TestFilter_Validate_RuleOrder(t *testing.T) {
	f := newTestFilter(t)

	// 长度规则优先于其它规则
	assertRule(t, f.Validate("a"), RuleTooShort)

	// 链接规则优先于敏感词
	err := f.Validate("spam http://a.co http://b.co http://c.co")
	assertRule(t, err, RuleExcessiveLinks)
}

func TestNew_InvalidPattern(t *testing.T) {
	cfg := config.DefaultModeration()
	cfg.SpamPatterns = []string{"("}

	_, err := New(&cfg)
	assert.Error(t, err)
}

func TestNew_CustomConfig(t *testing.T) {
	cfg := config.ModerationConfig{
		MinLength: 1,
		MaxLength: 20,
		MaxLinks:  0,
		Blocklist: []string{"bad"},
	}
	f, err := New(&cfg)
	require.NoError(t, err)

	assert.NoError(t, f.Validate("ok"))
	assertRule(t, f.Validate("http://a.co"), RuleExcessiveLinks)
	assertRule(t, f.Validate("bad"), RuleProfanity)
	assertRule(t, f.Validate(strings.Repeat("x", 21)), RuleTooLong)
}

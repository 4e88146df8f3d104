package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/reqrep/transform/messagecontext"
)

// RewritePathPrefix replaces a leading path segment, grounded on
// middlewares/rewrite's Prefix rule. Each instance applies whenever its
// prefix matches the current path; several prefix rules in one plan all
// run in order, each seeing the path the previous one left.
type RewritePathPrefix struct {
	From, To string
}

func (RewritePathPrefix) Name() string { return "rewrite-path-prefix" }

func (RewritePathPrefix) Configure(p Params) (BufferedTransform, error) {
	from, err := p.require("rewrite-path-prefix", "from")
	if err != nil {
		return nil, err
	}
	to, err := p.require("rewrite-path-prefix", "to")
	if err != nil {
		return nil, err
	}
	return RewritePathPrefix{From: from, To: to}, nil
}

func (t RewritePathPrefix) ShouldApply(c messagecontext.Buffered) bool {
	return strings.HasPrefix(c.Address().Path, t.From)
}

func (t RewritePathPrefix) Apply(c messagecontext.Buffered) error {
	c.Address().Path = t.To + strings.TrimPrefix(c.Address().Path, t.From)
	return nil
}

// rewritePathRegexTimeout bounds how long a single regex match/replace is
// allowed to take, per spec.md's compiled-match timeout requirement —
// pathological backtracking patterns must not stall the pipeline.
const rewritePathRegexTimeout = 100 * time.Millisecond

// RewritePathRegex rewrites the path via a compiled regular expression and
// Go's $1-style capture-group substitution, grounded on
// middlewares/rewrite's Regex rule.
type RewritePathRegex struct {
	pattern     *regexp.Regexp
	replacement string
}

func (RewritePathRegex) Name() string { return "rewrite-path-regex" }

func (RewritePathRegex) Configure(p Params) (BufferedTransform, error) {
	pattern, err := p.require("rewrite-path-regex", "pattern")
	if err != nil {
		return nil, err
	}
	replacement, err := p.require("rewrite-path-regex", "replacement")
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return RewritePathRegex{pattern: re, replacement: replacement}, nil
}

func (t RewritePathRegex) ShouldApply(c messagecontext.Buffered) bool {
	return t.pattern.MatchString(c.Address().Path)
}

func (t RewritePathRegex) Apply(c messagecontext.Buffered) error {
	done := make(chan string, 1)
	go func() {
		done <- t.pattern.ReplaceAllString(c.Address().Path, t.replacement)
	}()
	select {
	case rewritten := <-done:
		c.Address().Path = rewritten
		return nil
	case <-time.After(rewritePathRegexTimeout):
		return &MissingParam{Transform: "rewrite-path-regex", Param: "pattern (match timed out)"}
	}
}

// RewriteHost replaces the outbound request's host/authority.
type RewriteHost struct {
	Host string
}

func (RewriteHost) Name() string { return "rewrite-host" }

func (RewriteHost) Configure(p Params) (BufferedTransform, error) {
	host, err := p.require("rewrite-host", "host")
	if err != nil {
		return nil, err
	}
	return RewriteHost{Host: host}, nil
}

func (RewriteHost) ShouldApply(messagecontext.Buffered) bool { return true }

func (t RewriteHost) Apply(c messagecontext.Buffered) error {
	c.Address().Host = t.Host
	return nil
}

// AddQueryParam appends a query string parameter.
type AddQueryParam struct {
	Key, Value string
}

func (AddQueryParam) Name() string { return "add-query-param" }

func (AddQueryParam) Configure(p Params) (BufferedTransform, error) {
	key, err := p.require("add-query-param", "key")
	if err != nil {
		return nil, err
	}
	value, err := p.require("add-query-param", "value")
	if err != nil {
		return nil, err
	}
	return AddQueryParam{Key: key, Value: value}, nil
}

func (AddQueryParam) ShouldApply(messagecontext.Buffered) bool { return true }

func (t AddQueryParam) Apply(c messagecontext.Buffered) error {
	q := c.Address().Query()
	q.Add(t.Key, t.Value)
	c.Address().RawQuery = q.Encode()
	return nil
}

// RemoveQueryParam deletes a query string parameter.
type RemoveQueryParam struct {
	Key string
}

func (RemoveQueryParam) Name() string { return "remove-query-param" }

func (RemoveQueryParam) Configure(p Params) (BufferedTransform, error) {
	key, err := p.require("remove-query-param", "key")
	if err != nil {
		return nil, err
	}
	return RemoveQueryParam{Key: key}, nil
}

func (t RemoveQueryParam) ShouldApply(c messagecontext.Buffered) bool {
	return c.Address().Query().Has(t.Key)
}

func (t RemoveQueryParam) Apply(c messagecontext.Buffered) error {
	q := c.Address().Query()
	q.Del(t.Key)
	c.Address().RawQuery = q.Encode()
	return nil
}

// MethodOverride replaces the outbound method based on a header or a
// query parameter — grounded on middlewares/methodoverride (the
// X-Http-Method-Override header, then the _method query parameter; a form
// body is not read) and only applied when the current method matches one
// of the configured trigger methods (by default, POST only).
type MethodOverride struct {
	Header          string
	QueryOrFormKey  string
	TriggerMethods  []string
}

func (MethodOverride) Name() string { return "method-override" }

func (MethodOverride) Configure(p Params) (BufferedTransform, error) {
	header := p.optional("header", "X-Http-Method-Override")
	field := p.optional("field", "_method")
	triggers := list(p.optional("trigger-methods", "POST"))
	return MethodOverride{Header: header, QueryOrFormKey: field, TriggerMethods: triggers}, nil
}

func (t MethodOverride) ShouldApply(c messagecontext.Buffered) bool {
	for _, m := range t.TriggerMethods {
		if strings.EqualFold(m, c.Method()) {
			return true
		}
	}
	return false
}

func (t MethodOverride) Apply(c messagecontext.Buffered) error {
	if v := c.Header(t.Header); v != "" {
		c.SetMethod(strings.ToUpper(v))
		return nil
	}
	if v := c.Address().Query().Get(t.QueryOrFormKey); v != "" {
		c.SetMethod(strings.ToUpper(v))
		return nil
	}
	return nil
}

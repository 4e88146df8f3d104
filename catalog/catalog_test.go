package catalog

import (
	"context"
	"net/url"
	"testing"

	"github.com/reqrep/transform/messagecontext"
	"github.com/reqrep/transform/payload"
)

func newBuffered(t *testing.T, method, rawurl, contentType string, body []byte) messagecontext.Buffered {
	t.Helper()
	u, err := url.Parse(rawurl)
	if err != nil {
		t.Fatal(err)
	}
	p := payload.New(contentType, body, nil)
	mc := messagecontext.New(context.Background(), messagecontext.Request, method, u, nil, p)
	return messagecontext.AsBuffered(mc)
}

func TestAddHeader(t *testing.T) {
	c := newBuffered(t, "GET", "/x", "", nil)
	tr, err := AddHeader{}.Configure(Params{"key": "X-Custom", "value": "v"})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	if got := c.Header("X-Custom"); got != "v" {
		t.Errorf("got %q, want v", got)
	}
}

func TestAddHeaderMissingParam(t *testing.T) {
	if _, err := (AddHeader{}).Configure(Params{"key": "X-Custom"}); err == nil {
		t.Error("expected MissingParam error for missing value")
	}
}

func TestRewritePathPrefix(t *testing.T) {
	c := newBuffered(t, "GET", "/old/path", "", nil)
	tr, _ := RewritePathPrefix{}.Configure(Params{"from": "/old", "to": "/new"})
	if !tr.ShouldApply(c) {
		t.Fatal("expected ShouldApply true")
	}
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	if got := c.Address().Path; got != "/new/path" {
		t.Errorf("got %q, want /new/path", got)
	}
}

func TestRewritePathRegexCapture(t *testing.T) {
	c := newBuffered(t, "GET", "/user/123/profile", "", nil)
	tr, err := RewritePathRegex{}.Configure(Params{
		"pattern":     `^/user/(\d+)/profile$`,
		"replacement": "/profiles/$1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	if got := c.Address().Path; got != "/profiles/123" {
		t.Errorf("got %q, want /profiles/123", got)
	}
}

func TestMethodOverrideViaHeader(t *testing.T) {
	c := newBuffered(t, "POST", "/test", "", nil)
	c.SetHeader("X-Http-Method-Override", "PUT")
	tr, _ := MethodOverride{}.Configure(Params{})
	if !tr.ShouldApply(c) {
		t.Fatal("expected ShouldApply true for POST")
	}
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	if c.Method() != "PUT" {
		t.Errorf("got %q, want PUT", c.Method())
	}
}

func TestSetJsonFieldNested(t *testing.T) {
	c := newBuffered(t, "POST", "/x", "application/json", []byte(`{"user":{"name":"a"}}`))
	tr, _ := SetJsonField{}.Configure(Params{"path": "user.age", "value": "30"})
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	tree, err := c.Payload().GetJson()
	if err != nil {
		t.Fatal(err)
	}
	user := tree.(map[string]any)["user"].(map[string]any)
	if user["age"] != "30" {
		t.Errorf("got %v, want 30", user["age"])
	}
}

func TestRemoveJsonField(t *testing.T) {
	c := newBuffered(t, "POST", "/x", "application/json", []byte(`{"a":1,"b":2}`))
	tr, _ := RemoveJsonField{}.Configure(Params{"path": "a"})
	if err := tr.Apply(c); err != nil {
		t.Fatal(err)
	}
	tree, _ := c.Payload().GetJson()
	m := tree.(map[string]any)
	if _, exists := m["a"]; exists {
		t.Error("expected field a removed")
	}
	if m["b"] != float64(2) {
		t.Errorf("expected b untouched, got %v", m["b"])
	}
}

func TestJWTClaimHeaderSkipsMalformedToken(t *testing.T) {
	c := newBuffered(t, "GET", "/x", "", nil)
	c.SetHeader("Authorization", "Bearer not-a-jwt")
	tr, _ := JWTClaimHeader{}.Configure(Params{"claim": "sub", "header": "X-User-Id"})
	if err := tr.Apply(c); err != nil {
		t.Fatalf("expected silent skip, got error: %v", err)
	}
	if got := c.Header("X-User-Id"); got != "" {
		t.Errorf("expected no header set, got %q", got)
	}
}

func TestRegistryResolveUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("does-not-exist", Params{}); err == nil {
		t.Error("expected ErrUnknownTransform")
	}
}

func TestRegistryResolveKnown(t *testing.T) {
	r := NewRegistry()
	tr, err := r.Resolve("add-header", Params{"key": "X-A", "value": "1"})
	if err != nil {
		t.Fatal(err)
	}
	if tr.Name() != "add-header" {
		t.Errorf("got %q, want add-header", tr.Name())
	}
}

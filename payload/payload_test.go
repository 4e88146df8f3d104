package payload

import (
	"strings"
	"sync"
	"testing"
)

func TestIsJson(t *testing.T) {
	cases := []struct {
		ct   string
		want bool
	}{
		{"application/json", true},
		{"application/json; charset=utf-8", true},
		{"application/graphql", true},
		{"application/ndjson", true},
		{"text/plain", false},
		{"application/octet-stream", false},
	}
	for _, tc := range cases {
		p := New(tc.ct, []byte(`{}`), nil)
		if got := p.IsJson(); got != tc.want {
			t.Errorf("IsJson(%q) = %v, want %v", tc.ct, got, tc.want)
		}
	}
}

func TestIsStreaming(t *testing.T) {
	cases := []struct {
		ct   string
		want bool
	}{
		{"application/octet-stream", true},
		{"multipart/form-data; boundary=x", true},
		{"application/grpc", true},
		{"application/json", false},
	}
	for _, tc := range cases {
		p := New(tc.ct, nil, nil)
		if got := p.IsStreaming(); got != tc.want {
			t.Errorf("IsStreaming(%q) = %v, want %v", tc.ct, got, tc.want)
		}
	}
}

func TestGetJsonSharedByReference(t *testing.T) {
	p := New("application/json", []byte(`{"a":1}`), nil)
	tree, err := p.GetJson()
	if err != nil {
		t.Fatal(err)
	}
	m := tree.(map[string]any)
	m["a"] = 2

	tree2, err := p.GetJson()
	if err != nil {
		t.Fatal(err)
	}
	if tree2.(map[string]any)["a"] != 2 {
		t.Errorf("expected mutation to be visible through a second GetJson call, got %v", tree2)
	}
}

func TestGetJsonOnNonJson(t *testing.T) {
	p := New("text/plain", []byte("hello"), nil)
	if _, err := p.GetJson(); err == nil {
		t.Error("expected PayloadAccessViolation for non-JSON content type")
	}
}

func TestFlushPriorityJsonOverBuffer(t *testing.T) {
	p := New("application/json", []byte(`{"a":1}`), nil)
	tree, _ := p.GetJson()
	tree.(map[string]any)["a"] = 99
	p.SetJson(tree)

	out, changed, err := p.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("expected Flush to report a change")
	}
	if !strings.Contains(string(out), "99") {
		t.Errorf("expected flushed bytes to reflect JSON mutation, got %s", out)
	}
}

func TestFlushUnreadReportsNoChange(t *testing.T) {
	p := New("application/json", []byte(`{}`), nil)
	_, changed, err := p.Flush()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("expected Flush on an untouched payload to report no change")
	}
}

func TestReplaceStreamBlocksBufferAccess(t *testing.T) {
	p := New("application/octet-stream", []byte("data"), nil)
	p.ReplaceStream(strings.NewReader("new data"))

	if _, err := p.GetBuffer(); err == nil {
		t.Error("expected PayloadAccessViolation after ReplaceStream")
	}
}

func TestConcurrentFirstParseIsRaceSafe(t *testing.T) {
	p := New("application/json", nil, strings.NewReader(`{"a":1}`))

	const n = 16
	var wg sync.WaitGroup
	results := make([][]byte, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			buf, err := p.GetBuffer()
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = buf
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if string(r) != `{"a":1}` {
			t.Errorf("goroutine %d got %q, want %q", i, r, `{"a":1}`)
		}
	}
}

package nethttp

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reqrep/transform/host"
)

func TestExchangeCaptureAndFlushRestoresWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", strings.NewReader("request body"))

	ex := NewExchange(rec, req)

	sink := ex.ResponseBody()
	sink.Capture()
	if _, err := ex.body.Write([]byte("captured")); err != nil {
		t.Fatal(err)
	}
	if got := string(sink.CapturedBody()); got != "captured" {
		t.Errorf("got %q, want captured", got)
	}

	if err := ex.Flush([]byte("final body")); err != nil {
		t.Fatal(err)
	}
	if got := rec.Body.String(); got != "final body" {
		t.Errorf("got %q, want 'final body'", got)
	}

	// downstream request body must still be readable after capture.
	b, err := io.ReadAll(req.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "request body" {
		t.Errorf("expected request body preserved, got %q", b)
	}
}

func TestHeaderAdapterCaseInsensitive(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Test", "value")

	ex := NewExchange(rec, req)
	var h host.Headers = ex.RequestHeaders()
	if got := h.Get("x-test"); got != "value" {
		t.Errorf("got %q, want value", got)
	}
}

func TestGatewayErrorMessage(t *testing.T) {
	got := host.GatewayErrorMessage("request", "add-header")
	want := "Gateway error: request transformation failed in 'add-header'."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

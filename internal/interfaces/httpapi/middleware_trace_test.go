package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestShouldTraceRequest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{path: "/healthz", want: false},
		{path: "/HEALTHZ", want: false},
		{path: " /readyz ", want: false},
		{path: "/livez", want: false},
		{path: "/v1/groups/grp-demo/proposals", want: true},
		{path: "/v1/groups/grp-demo/proposals/live", want: true},
		{path: "/v1/sessions/ses-1/rsvp", want: true},
		{path: "/", want: true},
	}

	for _, tt := range tests {
		if got := shouldTraceRequest(tt.path); got != tt.want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", tt.path, got, tt.want)
		}
	}
}

func TestRequestTracing_PassesThrough(t *testing.T) {
	var served bool
	h := RequestTracing(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		served = true
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions/ses-1/confirm", nil))

	if !served || rec.Code != http.StatusAccepted {
		t.Fatalf("expected wrapped handler to serve, served=%v code=%d", served, rec.Code)
	}
}

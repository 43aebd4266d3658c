package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestNewClient_Timeout(t *testing.T) {
	if got := NewClient(5 * time.Second).Timeout; got != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", got)
	}
	if got := NewClient(0).Timeout; got != DefaultClientConfig().Timeout {
		t.Errorf("Timeout = %v, want default", got)
	}
}

func TestCheckResponse(t *testing.T) {
	ok := &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader("audio"))}
	if err := CheckResponse(ok); err != nil {
		t.Errorf("CheckResponse(200) = %v", err)
	}

	bad := &http.Response{StatusCode: 401, Body: io.NopCloser(strings.NewReader(" invalid key \n"))}
	err := CheckResponse(bad)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.StatusCode != 401 || se.Body != "invalid key" {
		t.Errorf("StatusError = %+v", se)
	}
	if !strings.Contains(err.Error(), "Unauthorized") {
		t.Errorf("Error() = %q", err.Error())
	}
}

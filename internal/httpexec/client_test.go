package httpexec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestDoSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true}`))
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 5 * time.Second}, quietLogger())
	resp, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Body != `{"ok": true}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.ResponseSize != len(resp.Body) {
		t.Errorf("ResponseSize = %d, want %d", resp.ResponseSize, len(resp.Body))
	}
	if resp.TotalTime <= 0 {
		t.Error("TotalTime not measured")
	}
}

func TestDoSendsPayloadAndHeaders(t *testing.T) {
	var gotBody map[string]any
	var gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 5 * time.Second}, quietLogger())
	resp, err := client.Do(context.Background(), Request{
		Method:  "POST",
		URL:     server.URL,
		Payload: map[string]any{"name": "probe"},
		Headers: map[string]string{"Authorization": "Bearer token"},
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if resp.StatusCode != 201 {
		t.Errorf("StatusCode = %d, want 201", resp.StatusCode)
	}
	if gotBody["name"] != "probe" {
		t.Errorf("payload not delivered: %v", gotBody)
	}
	if gotAuth != "Bearer token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	if resp.RequestSize == 0 {
		t.Error("RequestSize not recorded")
	}
}

func TestDoReturnsResponseForHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 5 * time.Second}, quietLogger())
	resp, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})

	// Non-2xx is not a transport error: the caller gets the response
	if err != nil {
		t.Fatalf("Do returned error for HTTP failure: %v", err)
	}
	if resp.StatusCode != 500 {
		t.Errorf("StatusCode = %d, want 500", resp.StatusCode)
	}
}

func TestDoTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: 50 * time.Millisecond}, quietLogger())
	_, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Errorf("error not classified as timeout: %v", err)
	}
}

func TestDoTransportError(t *testing.T) {
	client := NewClient(Options{Timeout: time.Second}, quietLogger())
	_, err := client.Do(context.Background(), Request{Method: "GET", URL: "http://127.0.0.1:1"})

	if err == nil {
		t.Fatal("expected transport error")
	}
	re, ok := err.(*RequestError)
	if !ok {
		t.Fatalf("error is %T, want *RequestError", err)
	}
	if re.Kind != KindTransport && re.Kind != KindTimeout {
		t.Errorf("Kind = %v", re.Kind)
	}
}

func TestDoRetriesTransportFailures(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			// Drop the connection without a response
			hj, _ := w.(http.Hijacker)
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: time.Second, Retries: 2, RetryBackoff: time.Millisecond}, quietLogger())
	resp, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})
	if err != nil {
		t.Fatalf("Do failed after retries: %v", err)
	}

	if resp.Body != "ok" {
		t.Errorf("Body = %q", resp.Body)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestDoDoesNotRetryHTTPFailures(t *testing.T) {
	var calls int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Options{Timeout: time.Second, Retries: 3, RetryBackoff: time.Millisecond}, quietLogger())
	resp, err := client.Do(context.Background(), Request{Method: "GET", URL: server.URL})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if resp.StatusCode != 502 {
		t.Errorf("StatusCode = %d", resp.StatusCode)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d calls, want 1 (no retry on HTTP failure)", got)
	}
}

package leadconnector

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sngm3741/review-relay/internal/review/application"
	"github.com/sngm3741/review-relay/internal/review/domain"
)

type recordedRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Body    map[string]any
}

type fakeCRM struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeCRM) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.EscapedPath(), Headers: r.Header.Clone(), Body: body})
	f.mu.Unlock()

	if f.handler != nil {
		f.handler(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"contact":{"id":"c-1"}}`))
}

type observedCall struct {
	step   domain.Step
	status int
}

type recordingObserver struct {
	calls []observedCall
}

func (o *recordingObserver) ObserveCRMCall(step domain.Step, status int, _ time.Duration) {
	o.calls = append(o.calls, observedCall{step: step, status: status})
}

func newTestClient(t *testing.T, fake *fakeCRM, observer CallObserver) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		HTTPClient:  srv.Client(),
		BaseURL:     srv.URL + "/",
		AccessToken: "secret-token",
		Observer:    observer,
	})
}

func TestUpsertContactSendsHeadersAndBody(t *testing.T) {
	fake := &fakeCRM{}
	observer := &recordingObserver{}
	client := newTestClient(t, fake, observer)

	contact, err := client.UpsertContact(context.Background(), application.ContactUpsert{
		LocationID: "loc-1",
		Name:       "Jane Doe",
		Email:      "jane@x.com",
		Source:     "Website Review Widget",
		CustomFields: []application.CustomFieldValue{
			{ID: "f-rating", Value: "5"},
		},
	})
	if err != nil {
		t.Fatalf("UpsertContact() error = %v", err)
	}
	if !contact.Found || contact.ID != "c-1" || contact.Shape != ShapeNested {
		t.Errorf("UpsertContact() = %+v", contact)
	}

	req := fake.requests[0]
	if req.Method != http.MethodPost || req.Path != "/contacts/upsert" {
		t.Errorf("request = %s %s", req.Method, req.Path)
	}
	if got := req.Headers.Get("Authorization"); got != "Bearer secret-token" {
		t.Errorf("Authorization = %q", got)
	}
	if got := req.Headers.Get("Version"); got != DefaultAPIVersion {
		t.Errorf("Version = %q", got)
	}
	if got := req.Headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if req.Body["locationId"] != "loc-1" || req.Body["email"] != "jane@x.com" {
		t.Errorf("body = %v", req.Body)
	}
	if phone, ok := req.Body["phone"]; !ok || phone != "" {
		t.Errorf("phone must be sent as empty string, body = %v", req.Body)
	}
	fields, ok := req.Body["customFields"].([]any)
	if !ok || len(fields) != 1 {
		t.Fatalf("customFields = %v", req.Body["customFields"])
	}
	if len(observer.calls) != 1 || observer.calls[0] != (observedCall{domain.StepUpsert, 200}) {
		t.Errorf("observed calls = %+v", observer.calls)
	}
}

func TestUpsertContactOmitsEmptyCustomFields(t *testing.T) {
	fake := &fakeCRM{}
	client := newTestClient(t, fake, nil)

	if _, err := client.UpsertContact(context.Background(), application.ContactUpsert{Name: "Jane", Email: "jane@x.com"}); err != nil {
		t.Fatalf("UpsertContact() error = %v", err)
	}
	if _, ok := fake.requests[0].Body["customFields"]; ok {
		t.Errorf("customFields should be omitted, body = %v", fake.requests[0].Body)
	}
}

func TestUpsertContactUpstreamError(t *testing.T) {
	fake := &fakeCRM{handler: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"email invalid"}`))
	}}
	client := newTestClient(t, fake, nil)

	_, err := client.UpsertContact(context.Background(), application.ContactUpsert{Name: "Jane", Email: "bad"})
	var upstream *application.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("error = %v, want UpstreamError", err)
	}
	if upstream.Step != domain.StepUpsert || upstream.Status != http.StatusUnprocessableEntity || upstream.Body != `{"message":"email invalid"}` {
		t.Errorf("UpstreamError = %+v", upstream)
	}
}

func TestUpsertContactMalformedResponse(t *testing.T) {
	fake := &fakeCRM{handler: func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}}
	client := newTestClient(t, fake, nil)

	_, err := client.UpsertContact(context.Background(), application.ContactUpsert{Name: "Jane", Email: "jane@x.com"})
	if err == nil {
		t.Fatal("expected decode error")
	}
	var upstream *application.UpstreamError
	if errors.As(err, &upstream) {
		t.Errorf("decode failure must not look like an upstream status: %v", err)
	}
}

func TestEnrichmentEndpoints(t *testing.T) {
	fake := &fakeCRM{handler: func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}}
	client := newTestClient(t, fake, nil)
	ctx := context.Background()

	if err := client.UpdateCustomFields(ctx, "c 1", []application.CustomFieldValue{{ID: "f", Value: "v"}}); err != nil {
		t.Fatalf("UpdateCustomFields() error = %v", err)
	}
	if err := client.CreateNote(ctx, "c 1", "hello"); err != nil {
		t.Fatalf("CreateNote() error = %v", err)
	}
	if err := client.AddTags(ctx, "c 1", []string{"2-star-rating"}); err != nil {
		t.Fatalf("AddTags() error = %v", err)
	}

	want := []struct{ method, path string }{
		{http.MethodPut, "/contacts/c%201"},
		{http.MethodPost, "/contacts/c%201/notes"},
		{http.MethodPost, "/contacts/c%201/tags"},
	}
	if len(fake.requests) != len(want) {
		t.Fatalf("requests = %d, want %d", len(fake.requests), len(want))
	}
	for i, w := range want {
		if fake.requests[i].Method != w.method || fake.requests[i].Path != w.path {
			t.Errorf("request %d = %s %s, want %s %s", i, fake.requests[i].Method, fake.requests[i].Path, w.method, w.path)
		}
	}
	if fake.requests[1].Body["body"] != "hello" {
		t.Errorf("note body = %v", fake.requests[1].Body)
	}
	tags, _ := fake.requests[2].Body["tags"].([]any)
	if len(tags) != 1 || tags[0] != "2-star-rating" {
		t.Errorf("tags body = %v", fake.requests[2].Body)
	}
}

func TestNetworkErrorObservedWithZeroStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	observer := &recordingObserver{}
	client := NewClient(Config{BaseURL: url, AccessToken: "t", Observer: observer})
	if err := client.CreateNote(context.Background(), "c-1", "x"); err == nil {
		t.Fatal("expected network error")
	}
	if len(observer.calls) != 1 || observer.calls[0].status != 0 {
		t.Errorf("observed = %+v", observer.calls)
	}
}

package airtable

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/onyxprocessing/opsdash-backend/pkg/config"
	pkgerrors "github.com/onyxprocessing/opsdash-backend/pkg/errors"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient(config.AirtableConfig{
		APIKey:  "key-test",
		BaseID:  "appBase",
		BaseURL: "http://airtable.test/v0",
	}, WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{},
	}
}

func TestListAllFollowsOffsets(t *testing.T) {
	var urls []string
	pages := []string{
		`{"records":[{"id":"rec1","createdTime":"2024-01-02T10:00:00Z","fields":{"email":"a@x.com"}}],"offset":"next1"}`,
		`{"records":[{"id":"rec2","createdTime":"2024-01-03T10:00:00Z","fields":{"email":"b@x.com"}}]}`,
	}
	call := 0
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		urls = append(urls, req.URL.String())
		if got := req.Header.Get("Authorization"); got != "Bearer key-test" {
			t.Fatalf("missing auth header, got %q", got)
		}
		resp := jsonResponse(http.StatusOK, pages[call])
		call++
		return resp, nil
	})

	client := testClient(t, rt)
	records, err := client.ListAll(context.Background(), "orders", ListParams{
		FilterFormula: `{status}="completed"`,
	})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two records, got %d", len(records))
	}
	if records[0].ID != "rec1" || records[1].ID != "rec2" {
		t.Fatalf("unexpected records %+v", records)
	}
	if !strings.Contains(urls[0], "filterByFormula=") {
		t.Fatalf("filter missing from url %q", urls[0])
	}
	if !strings.Contains(urls[1], "offset=next1") {
		t.Fatalf("offset not propagated in %q", urls[1])
	}
}

func TestListAllHonorsMaxRecords(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"records":[{"id":"rec1","fields":{}},{"id":"rec2","fields":{}}],"offset":"more"}`), nil
	})
	client := testClient(t, rt)
	records, err := client.ListAll(context.Background(), "orders", ListParams{MaxRecords: 2})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected truncation at 2, got %d", len(records))
	}
}

func TestGetMapsNotFound(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, `{"error":"NOT_FOUND"}`), nil
	})
	client := testClient(t, rt)
	_, err := client.Get(context.Background(), "orders", "recMissing")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestUpdateSendsSparsePatch(t *testing.T) {
	var captured map[string]any
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodPatch {
			t.Fatalf("expected PATCH, got %s", req.Method)
		}
		body, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"id":"rec1","createdTime":"2024-01-02T10:00:00Z","fields":{"tracking":"9400","completed":false}}`), nil
	})
	client := testClient(t, rt)
	record, err := client.Update(context.Background(), "orders", "rec1", map[string]any{"tracking": "9400"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	fields, ok := captured["fields"].(map[string]any)
	if !ok || fields["tracking"] != "9400" {
		t.Fatalf("unexpected payload %+v", captured)
	}
	if len(fields) != 1 {
		t.Fatalf("patch should stay sparse, got %+v", fields)
	}
	if record.String("tracking") != "9400" {
		t.Fatalf("post-write entity not returned: %+v", record)
	}
}

func TestRateLimitAndDependencyErrors(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests, `{}`), nil
	})
	client := testClient(t, rt)
	_, err := client.Get(context.Background(), "orders", "rec1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	rt = roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `upstream sad`), nil
	})
	client = testClient(t, rt)
	_, err = client.Get(context.Background(), "orders", "rec1")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRecordFieldAccessors(t *testing.T) {
	record := Record{Fields: map[string]any{
		"email":     "buyer@example.com",
		"completed": true,
		"total":     float64(129),
		"createdAt": "2024-05-01T08:30:00Z",
	}}

	if record.String("email") != "buyer@example.com" {
		t.Fatalf("string accessor failed")
	}
	if !record.Bool("completed") {
		t.Fatalf("bool accessor failed")
	}
	if record.Int("total") != 129 {
		t.Fatalf("int accessor failed")
	}
	want := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	if !record.Time("createdAt").Equal(want) {
		t.Fatalf("time accessor failed: %v", record.Time("createdAt"))
	}
	if !record.Time("missing").IsZero() {
		t.Fatalf("missing timestamp should be zero")
	}
	if record.String("missing") != "" {
		t.Fatalf("missing string should be empty")
	}
}

func TestEscapeFormulaString(t *testing.T) {
	if got := EscapeFormulaString(`a"b`); got != `"a\"b"` {
		t.Fatalf("unexpected escape %q", got)
	}
}

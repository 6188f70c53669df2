package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeRepo struct {
	srv        *httptest.Server
	apiHits    atomic.Int32
	lastSearch atomic.Value // url.Values encoded
	pages      map[string]string
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	f := &fakeRepo{pages: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		f.apiHits.Add(1)
		json.NewEncoder(w).Encode(API{Refs: []Ref{{ID: "master", Ref: "master-ref", IsMasterRef: true}}})
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		f.lastSearch.Store(r.URL.RawQuery)
		if page := r.URL.Query().Get("page"); page != "" {
			w.Write([]byte(f.pages[page]))
			return
		}
		q := r.URL.Query().Get("q")
		switch {
		case strings.Contains(q, `"missing"`):
			w.Write([]byte(`{"page":1,"results":[],"next_page":null}`))
		case strings.Contains(q, "my.posts.uid"):
			w.Write([]byte(`{"page":1,"results":[{"id":"X1","uid":"hello","type":"posts","first_publication_date":"2021-03-25T19:25:28+0000","data":{"title":"Hello"}}],"next_page":null}`))
		default:
			next := f.srv.URL + "/api/v2/documents/search?page=2"
			w.Write([]byte(`{"page":1,"results":[{"id":"A","uid":"a","type":"posts","data":{}}],"next_page":"` + next + `"}`))
		}
	})
	mux.HandleFunc("/broken/api/v2", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.srv = httptest.NewServer(mux)
	f.pages["2"] = `{"page":2,"results":[{"id":"B","uid":"b","type":"posts","data":{}}],"next_page":null}`
	t.Cleanup(f.srv.Close)
	return f
}

func newTestClient(t *testing.T, f *fakeRepo, token string) *Client {
	t.Helper()
	c, err := NewClient(Config{Endpoint: f.srv.URL + "/api/v2", AccessToken: token})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientValidatesEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Error("expected error for empty endpoint")
	}
	if _, err := NewClient(Config{Endpoint: "ftp://repo.example/api/v2"}); err == nil {
		t.Error("expected error for non-http endpoint")
	}
}

func TestQueryEncodesParameters(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "secret")

	resp, err := c.Query(context.Background(), []Predicate{At("document.type", "posts")}, QueryOptions{
		Fetch:    []string{"posts.title", "posts.subtitle", "posts.author"},
		PageSize: 1,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].UID != "a" {
		t.Fatalf("Results = %+v", resp.Results)
	}
	if resp.Next() == "" {
		t.Error("expected a next page cursor")
	}

	raw := f.lastSearch.Load().(string)
	for _, want := range []string{
		"ref=master-ref",
		"pageSize=1",
		"access_token=secret",
		"fetch=posts.title%2Cposts.subtitle%2Cposts.author",
		"q=%5B%5Bat%28document.type%2C+%22posts%22%29%5D%5D",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("query %q missing %q", raw, want)
		}
	}
}

func TestMasterRefIsCached(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Query(ctx, nil, QueryOptions{}); err != nil {
			t.Fatalf("Query: %v", err)
		}
	}
	if got := f.apiHits.Load(); got != 1 {
		t.Errorf("api hits = %d, want 1", got)
	}
}

func TestResetRefRefetchesMaster(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")
	ctx := context.Background()
	c.MasterRef(ctx)
	c.ResetRef()
	c.MasterRef(ctx)
	if got := f.apiHits.Load(); got != 2 {
		t.Errorf("api hits = %d, want 2", got)
	}
}

func TestWithRefOverridesMaster(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")
	ctx := WithRef(context.Background(), "preview-ref")
	if _, err := c.Query(ctx, nil, QueryOptions{}); err != nil {
		t.Fatalf("Query: %v", err)
	}
	if raw := f.lastSearch.Load().(string); !strings.Contains(raw, "ref=preview-ref") {
		t.Errorf("query %q should use preview ref", raw)
	}
	if f.apiHits.Load() != 0 {
		t.Error("preview queries should not look up the master ref")
	}
}

func TestGetByUID(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")

	doc, err := c.GetByUID(context.Background(), "posts", "hello", QueryOptions{})
	if err != nil {
		t.Fatalf("GetByUID: %v", err)
	}
	if doc.UID != "hello" {
		t.Errorf("UID = %q, want hello", doc.UID)
	}
	var data struct {
		Title string `json:"title"`
	}
	if err := doc.DecodeData(&data); err != nil {
		t.Fatalf("DecodeData: %v", err)
	}
	if data.Title != "Hello" {
		t.Errorf("Title = %q", data.Title)
	}

	_, err = c.GetByUID(context.Background(), "posts", "missing", QueryOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryAllFollowsCursor(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")
	docs, err := c.QueryAll(context.Background(), []Predicate{At("document.type", "posts")}, QueryOptions{Fetch: []string{"posts.uid"}})
	if err != nil {
		t.Fatalf("QueryAll: %v", err)
	}
	if len(docs) != 2 || docs[0].UID != "a" || docs[1].UID != "b" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestFetchPageRejectsForeignHosts(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "")
	_, err := c.FetchPage(context.Background(), "http://attacker.example/api/v2/documents/search?page=2")
	if err == nil {
		t.Fatal("expected error for foreign cursor")
	}
	if !c.Owns(f.srv.URL + "/api/v2/documents/search?page=2") {
		t.Error("client should own its own cursors")
	}
}

func TestFetchPageAddsAccessToken(t *testing.T) {
	f := newFakeRepo(t)
	c := newTestClient(t, f, "tok")
	resp, err := c.FetchPage(context.Background(), f.srv.URL+"/api/v2/documents/search?page=2")
	if err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if resp.Next() != "" {
		t.Errorf("Next = %q, want empty", resp.Next())
	}
	if raw := f.lastSearch.Load().(string); !strings.Contains(raw, "access_token=tok") {
		t.Errorf("query %q missing token", raw)
	}
}

func TestAPIErrorCarriesStatus(t *testing.T) {
	f := newFakeRepo(t)
	c, err := NewClient(Config{Endpoint: f.srv.URL + "/broken/api/v2"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.MasterRef(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
}

func TestPredicates(t *testing.T) {
	if got := string(At("document.type", "posts")); got != `[at(document.type, "posts")]` {
		t.Errorf("At = %s", got)
	}
	if got := string(Any("document.tags", "go", "web")); got != `[any(document.tags, ["go", "web"])]` {
		t.Errorf("Any = %s", got)
	}
}

func TestParseTime(t *testing.T) {
	tests := []string{
		"2021-03-25T19:25:28+0000",
		"2021-03-25T19:25:28Z",
		"2021-03-25",
	}
	for _, s := range tests {
		got, err := ParseTime(s)
		if err != nil {
			t.Fatalf("ParseTime(%q): %v", s, err)
		}
		if got.Year() != 2021 || got.Month() != time.March || got.Day() != 25 {
			t.Errorf("ParseTime(%q) = %v", s, got)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

package spacetraveling

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

var (
	uidQuery = regexp.MustCompile(`at\(my\.posts\.uid, "([^"]*)"\)`)
	idQuery  = regexp.MustCompile(`at\(document\.id, "([^"]*)"\)`)
)

// fakeRepo is a Prismic repository over httptest. Listed posts appear in
// the listing; hidden posts resolve by UID only, like posts published
// after startup.
type fakeRepo struct {
	srv *httptest.Server

	mu        sync.Mutex
	listed    []prismic.Document
	hidden    map[string]prismic.Document
	failPages map[int]bool
	failUIDs  map[string]bool
	refs      []string
	files     map[string][]byte
}

func newFakeRepo(t *testing.T) *fakeRepo {
	t.Helper()
	f := &fakeRepo{
		hidden:    map[string]prismic.Document{},
		failPages: map[int]bool{},
		failUIDs:  map[string]bool{},
		files:     map[string][]byte{},
	}
	f.listed = []prismic.Document{
		fakePost("A", "a", "Como utilizar Hooks", "Pensando em sincronização", 3),
		fakePost("B", "b", "Criando um app CRA do zero", "Tudo sobre como criar", 250),
		fakePost("C", "c", "Mais um post", "Terceira página", 10),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(prismic.API{Refs: []prismic.Ref{{ID: "master", Ref: "master-ref", IsMasterRef: true}}})
	})
	mux.HandleFunc("/api/v2/documents/search", f.search)
	mux.HandleFunc("/img/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		data, ok := f.files[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(data)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeRepo) endpoint() string {
	return f.srv.URL + "/api/v2"
}

func (f *fakeRepo) pageURL(n int) string {
	return f.srv.URL + "/api/v2/documents/search?page=" + strconv.Itoa(n) + "&pageSize=1&ref=master-ref"
}

func (f *fakeRepo) lastRef() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.refs) == 0 {
		return ""
	}
	return f.refs[len(f.refs)-1]
}

func (f *fakeRepo) search(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	query := r.URL.Query()
	f.refs = append(f.refs, query.Get("ref"))
	q := query.Get("q")

	if m := uidQuery.FindStringSubmatch(q); m != nil {
		if f.failUIDs[m[1]] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeResults(w, f.findLocked(func(d prismic.Document) bool { return d.UID == m[1] }), "")
		return
	}
	if m := idQuery.FindStringSubmatch(q); m != nil {
		writeResults(w, f.findLocked(func(d prismic.Document) bool { return d.ID == m[1] }), "")
		return
	}

	page, _ := strconv.Atoi(query.Get("page"))
	if page == 0 {
		page = 1
	}
	size, _ := strconv.Atoi(query.Get("pageSize"))
	if size == 0 {
		size = 20
	}
	if f.failPages[page] {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	start := (page - 1) * size
	if start > len(f.listed) {
		start = len(f.listed)
	}
	end := start + size
	if end > len(f.listed) {
		end = len(f.listed)
	}
	next := ""
	if end < len(f.listed) {
		next = f.srv.URL + "/api/v2/documents/search?page=" + strconv.Itoa(page+1) + "&pageSize=" + strconv.Itoa(size) + "&ref=" + url.QueryEscape(query.Get("ref"))
	}
	writeResults(w, f.listed[start:end], next)
}

func (f *fakeRepo) findLocked(match func(prismic.Document) bool) []prismic.Document {
	for _, d := range f.listed {
		if match(d) {
			return []prismic.Document{d}
		}
	}
	for _, d := range f.hidden {
		if match(d) {
			return []prismic.Document{d}
		}
	}
	return nil
}

func writeResults(w http.ResponseWriter, docs []prismic.Document, next string) {
	resp := prismic.Response{Page: 1, Results: docs}
	if resp.Results == nil {
		resp.Results = []prismic.Document{}
	}
	if next != "" {
		resp.NextPage = &next
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func fakePost(id, uid, title, subtitle string, words int) prismic.Document {
	ts := "2021-03-25T19:25:28+0000"
	data, _ := json.Marshal(map[string]any{
		"title":    richtext.Plain(title),
		"subtitle": richtext.Plain(subtitle),
		"author":   richtext.Plain("Joseph Oliveira"),
		"banner":   map[string]string{"url": "https://images.prismic.io/" + uid + ".png", "alt": "banner " + uid},
		"content": []map[string]any{
			{"heading": "Proin et varius", "body": richtext.Plain(strings.TrimSpace(strings.Repeat("palavra ", words)))},
		},
	})
	return prismic.Document{ID: id, UID: uid, Type: "posts", FirstPublicationDate: &ts, Data: data}
}

func testConfig(t *testing.T, f *fakeRepo) SiteConfig {
	t.Helper()
	return SiteConfig{
		Name:            "spacetraveling",
		URL:             "https://blog.example",
		Description:     "Blog sobre viagens espaciais",
		PrismicEndpoint: f.endpoint(),
		SessionSecret:   "test-session-secret",
		DatabasePath:    t.TempDir() + "/posts.db",
		OutputDir:       t.TempDir(),
	}
}

func newTestApp(t *testing.T, f *fakeRepo) *App {
	t.Helper()
	return newTestAppWith(t, testConfig(t, f))
}

func newTestAppWith(t *testing.T, cfg SiteConfig) *App {
	t.Helper()
	a := New(cfg, WithStaticDir(t.TempDir()))
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func get(a *App, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func postJSON(a *App, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func (f *fakeRepo) searches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refs)
}

func (f *fakeRepo) retitle(i int, uid, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := fakePost(f.listed[i].ID, uid, title, "Atualizado", 3)
	f.listed[i] = doc
}

func htmxHeader() http.Header {
	return http.Header{"Hx-Request": []string{"true"}}
}

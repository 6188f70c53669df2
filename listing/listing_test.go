package listing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/eringen/spacetraveling/prismic"
	"github.com/eringen/spacetraveling/richtext"
)

func doc(uid string) prismic.Document {
	data, _ := json.Marshal(map[string]any{
		"title":    richtext.Plain("Post " + uid),
		"subtitle": richtext.Plain("sub"),
		"author":   richtext.Plain("Ana"),
	})
	ts := "2021-03-25T19:25:28+0000"
	return prismic.Document{UID: uid, Type: "posts", FirstPublicationDate: &ts, Data: data}
}

func response(next string, uids ...string) *prismic.Response {
	r := &prismic.Response{}
	for _, u := range uids {
		r.Results = append(r.Results, doc(u))
	}
	if next != "" {
		r.NextPage = &next
	}
	return r
}

type fakeFetcher struct {
	pages   map[string]*prismic.Response
	calls   []string
	err     error
	block   chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) FetchPage(ctx context.Context, url string) (*prismic.Response, error) {
	f.calls = append(f.calls, url)
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.pages[url], nil
}

func uids(p *Page) []string {
	var out []string
	for _, s := range p.Posts() {
		out = append(out, s.UID)
	}
	return out
}

func TestNewPageSeedsList(t *testing.T) {
	for _, n := range []int{0, 1, 3} {
		var ids []string
		for i := 0; i < n; i++ {
			ids = append(ids, string(rune('a'+i)))
		}
		p, err := NewPage(response("", ids...), &fakeFetcher{})
		if err != nil {
			t.Fatalf("NewPage: %v", err)
		}
		if p.Len() != n {
			t.Errorf("Len = %d, want %d", p.Len(), n)
		}
	}
}

func TestLoadMoreScenario(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*prismic.Response{
		"/page2": response("", "P2"),
	}}
	p, err := NewPage(response("/page2", "P1"), f)
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	if p.State() != HasMore {
		t.Fatalf("State = %v, want has_more", p.State())
	}

	added, err := p.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(added) != 1 || added[0].UID != "P2" {
		t.Errorf("added = %+v", added)
	}
	if len(f.calls) != 1 || f.calls[0] != "/page2" {
		t.Errorf("fetch calls = %v, want [/page2]", f.calls)
	}
	got := uids(p)
	if len(got) != 2 || got[0] != "P1" || got[1] != "P2" {
		t.Errorf("posts = %v, want [P1 P2]", got)
	}
	if p.State() != Exhausted {
		t.Errorf("State = %v, want exhausted", p.State())
	}
	if p.Cursor() != "" {
		t.Errorf("Cursor = %q, want empty", p.Cursor())
	}

	if _, err := p.LoadMore(context.Background()); !errors.Is(err, ErrExhausted) {
		t.Errorf("LoadMore after exhaustion = %v, want ErrExhausted", err)
	}
	if len(f.calls) != 1 {
		t.Errorf("exhausted page should not fetch, calls = %v", f.calls)
	}
}

func TestLoadMoreAppendsInSourceOrderAndKeepsDuplicates(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*prismic.Response{
		"c2": response("c3", "b", "a"),
		"c3": response("", "a"),
	}}
	p, _ := NewPage(response("c2", "a"), f)

	if _, err := p.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if p.Cursor() != "c3" || p.State() != HasMore {
		t.Errorf("cursor = %q state = %v, want c3 has_more", p.Cursor(), p.State())
	}
	if _, err := p.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	want := []string{"a", "b", "a", "a"}
	got := uids(p)
	if len(got) != len(want) {
		t.Fatalf("posts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("posts = %v, want %v", got, want)
			break
		}
	}
}

func TestLoadMoreFailureLeavesStateUnchanged(t *testing.T) {
	f := &fakeFetcher{err: errors.New("network down")}
	p, _ := NewPage(response("/page2", "P1"), f)

	if _, err := p.LoadMore(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if p.Len() != 1 || p.Cursor() != "/page2" || p.State() != HasMore {
		t.Errorf("state changed after failure: len=%d cursor=%q", p.Len(), p.Cursor())
	}
	if p.Loading() {
		t.Error("Loading should be false after failure")
	}
}

func TestLoadMoreRejectsReentrantCalls(t *testing.T) {
	f := &fakeFetcher{
		pages:   map[string]*prismic.Response{"/page2": response("", "P2")},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	p, _ := NewPage(response("/page2", "P1"), f)

	done := make(chan error, 1)
	go func() {
		_, err := p.LoadMore(context.Background())
		done <- err
	}()
	<-f.started

	if !p.Loading() {
		t.Error("Loading should be true while a fetch is pending")
	}
	if _, err := p.LoadMore(context.Background()); !errors.Is(err, ErrInFlight) {
		t.Errorf("second LoadMore = %v, want ErrInFlight", err)
	}
	close(f.block)
	if err := <-done; err != nil {
		t.Fatalf("first LoadMore: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Len = %d, want 2", p.Len())
	}
}

func TestResumeStartsEmpty(t *testing.T) {
	f := &fakeFetcher{pages: map[string]*prismic.Response{"c": response("d", "x", "y")}}
	p := Resume("c", f)
	if p.Len() != 0 || p.State() != HasMore {
		t.Fatalf("Resume: len=%d state=%v", p.Len(), p.State())
	}
	added, err := p.LoadMore(context.Background())
	if err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if len(added) != 2 || p.Cursor() != "d" {
		t.Errorf("added=%d cursor=%q", len(added), p.Cursor())
	}
}

type fakeSource struct {
	preds []prismic.Predicate
	opts  prismic.QueryOptions
}

func (s *fakeSource) Query(ctx context.Context, preds []prismic.Predicate, opts prismic.QueryOptions) (*prismic.Response, error) {
	s.preds, s.opts = preds, opts
	return response("", "a"), nil
}

func TestFirstPageQuery(t *testing.T) {
	src := &fakeSource{}
	if _, err := FirstPage(context.Background(), src, 0); err != nil {
		t.Fatalf("FirstPage: %v", err)
	}
	if len(src.preds) != 1 || src.preds[0] != prismic.At("document.type", "posts") {
		t.Errorf("preds = %v", src.preds)
	}
	if src.opts.PageSize != 1 {
		t.Errorf("PageSize = %d, want 1", src.opts.PageSize)
	}
	if len(src.opts.Fetch) != 3 || src.opts.Fetch[0] != "posts.title" {
		t.Errorf("Fetch = %v", src.opts.Fetch)
	}
}

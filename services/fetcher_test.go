package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestCollectPageLinks(t *testing.T) {
	base, _ := url.Parse("https://example.edu/StudentOnline/schedule1.php")
	html := `<html><body>
<a href="schedule1.php?view=10&kuly=KICT&sem=2">2</a>
<a href="schedule1.php?view=10&kuly=KICT&sem=2">2 again</a>
<a href="schedule1.php?view=20&kuly=KICT&sem=2">3</a>
<a href="schedule1.php?view=10&kuly=ENGIN&sem=2">other faculty</a>
<a href="logout.php">logout</a>
</body></html>`

	links, err := collectPageLinks(base, html, "KICT")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("want 2 links, got %d: %v", len(links), links)
	}
	if !strings.Contains(links[0], "view=10") || !strings.Contains(links[1], "view=20") {
		t.Fatalf("link order not kept: %v", links)
	}
	if !strings.HasPrefix(links[0], "https://example.edu/StudentOnline/") {
		t.Fatalf("relative link not resolved: %q", links[0])
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("browser user agent not sent, got %q", ua)
		}
		fmt.Fprint(w, "<html>page</html>")
	}))
	defer srv.Close()

	f := &FetcherService{client: srv.Client()}
	body, err := f.FetchPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if body != "<html>page</html>" {
		t.Fatalf("bad body: %q", body)
	}
}

func TestFetchPage_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := &FetcherService{client: srv.Client()}
	if _, err := f.FetchPage(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}

func TestFetchAllPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/schedule1.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("bad form: %v", err)
			}
			if r.PostFormValue("kuly") != "KICT" || r.PostFormValue("action") != "view" {
				t.Errorf("form fields not submitted: %v", r.PostForm)
			}
			fmt.Fprint(w, `<html><a href="schedule1.php?view=10&kuly=KICT">2</a>page one</html>`)
			return
		}
		if r.URL.Query().Get("view") == "10" {
			fmt.Fprint(w, "<html>page two</html>")
			return
		}
		http.NotFound(w, r)
	})

	f := &FetcherService{
		client:      srv.Client(),
		scheduleURL: srv.URL + "/schedule1.php",
		kulliyyah:   "KICT",
		semester:    "2",
		session:     "2024/2025",
	}

	pages, err := f.FetchAllPages(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("want 2 pages, got %d", len(pages))
	}
	if !strings.Contains(pages[0], "page one") || !strings.Contains(pages[1], "page two") {
		t.Fatalf("wrong pages: %v", pages)
	}
}

func TestFetchAllPages_DeadLinkKeepsFirstPage(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/schedule1.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `<html><a href="missing.php?view=10&kuly=KICT">2</a>first</html>`)
			return
		}
		http.NotFound(w, r)
	})

	f := &FetcherService{
		client:      srv.Client(),
		scheduleURL: srv.URL + "/schedule1.php",
		kulliyyah:   "KICT",
	}

	pages, err := f.FetchAllPages(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(pages) != 1 || !strings.Contains(pages[0], "first") {
		t.Fatalf("first page lost: %v", pages)
	}
}

func TestFetchPage_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "late")
	}))
	defer srv.Close()

	f := &FetcherService{client: srv.Client()}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.FetchPage(ctx, srv.URL); err == nil {
		t.Fatal("expected context deadline error")
	}
}

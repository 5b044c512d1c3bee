package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"attendance-api/config"

	"github.com/PuerkitoBio/goquery"
)

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FetcherService retrieves schedule pages from the university registration
// system. It owns all networking; the parser only ever sees in-memory
// strings.
type FetcherService struct {
	client      *http.Client
	scheduleURL string
	kulliyyah   string
	semester    string
	session     string
}

func NewFetcherService(cfg *config.Config) *FetcherService {
	transport := http.DefaultTransport
	if cfg.InsecureTLS {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &FetcherService{
		client: &http.Client{
			Timeout:   cfg.FetchTimeout,
			Transport: transport,
		},
		scheduleURL: cfg.ScheduleURL,
		kulliyyah:   cfg.Kulliyyah,
		semester:    cfg.Semester,
		session:     cfg.Session,
	}
}

// FetchPage retrieves a single page and returns its body as a string.
func (s *FetcherService) FetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(body), nil
}

// FetchAllPages submits the schedule search form and follows the pagination
// links it finds, returning the HTML of every result page. The first page
// comes back from the form POST itself.
func (s *FetcherService) FetchAllPages(ctx context.Context) ([]string, error) {
	form := url.Values{
		"kuly":   {s.kulliyyah},
		"sem":    {s.semester},
		"ctype":  {"<"},
		"course": {""},
		"action": {"view"},
		"ses":    {s.session},
		"search": {"Submit"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.scheduleURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build form request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit schedule form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from schedule form", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read first page: %w", err)
	}

	pages := []string{string(body)}

	links, err := collectPageLinks(resp.Request.URL, string(body), s.kulliyyah)
	if err != nil {
		return pages, nil
	}

	for _, link := range links {
		page, err := s.FetchPage(ctx, link)
		if err != nil {
			// A dead pagination link should not lose the pages we have.
			continue
		}
		pages = append(pages, page)
	}

	return pages, nil
}

// collectPageLinks discovers pagination links on a result page: anchors whose
// href carries both a "view=" offset and the kulliyyah marker, resolved
// against the page URL. Order of first appearance is kept.
func collectPageLinks(base *url.URL, html, kulliyyah string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse result page: %w", err)
	}

	marker := "kuly=" + kulliyyah
	seen := make(map[string]bool)
	var links []string

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "view=") || !strings.Contains(href, marker) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		full := base.ResolveReference(ref).String()
		if full == base.String() || seen[full] {
			return
		}
		seen[full] = true
		links = append(links, full)
	})

	return links, nil
}

// Package enrichment looks up descriptive information about first names on
// Wiktionary and stores it on catalog entries.
package enrichment

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Categories are the German Wiktionary section labels collected per name, in
// the order they are looked up.
var Categories = []string{
	"Aussprache",
	"Herkunft",
	"Koseformen",
	"Namensvarianten",
	"Weibliche Namensvarianten",
	"Männliche Namensvarianten",
	"Bekannte Namensträger",
	"Alternative Schreibweisen",
	"Abkürzungen",
}

// AudioKey holds the pronunciation recording URL.
const AudioKey = "aussprache"

var (
	footnoteRef = regexp.MustCompile(` ?\[ ?\d+ ?\]`)
	sourcesRef  = regexp.MustCompile(` ?\[.*?Quellen.*?\]`)
)

// WiktionaryFetcher scrapes name entries from a Wiktionary instance.
type WiktionaryFetcher struct {
	baseURL string
	client  *http.Client
}

// NewWiktionaryFetcher returns a fetcher for pages under baseURL, e.g.
// https://de.wiktionary.org/wiki.
func NewWiktionaryFetcher(baseURL string, timeout time.Duration) *WiktionaryFetcher {
	return &WiktionaryFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch returns category to text for the first-name entry of name. A page
// without such an entry yields an empty map and no error; transport failures
// and unexpected statuses are errors.
func (f *WiktionaryFetcher) Fetch(ctx context.Context, name string) (map[string]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "namo-enrichment/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]string{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", name, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return Extract(doc), nil
}

// Extract collects the categories of the first "Substantiv, Vorname" section.
func Extract(doc *goquery.Document) map[string]string {
	data := map[string]string{}

	heading := doc.Find("h3[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return strings.HasPrefix(id, "Substantiv,_") && strings.Contains(id, "_Vorname")
	}).First()
	if heading.Length() == 0 {
		return data
	}
	section := heading.Closest("section")
	if section.Length() == 0 {
		return data
	}

	for _, cat := range Categories {
		if cat == "Aussprache" {
			if href, ok := section.Find(`a[href$=".ogg"]`).First().Attr("href"); ok {
				if strings.HasPrefix(href, "//") {
					href = "https:" + href
				}
				data[AudioKey] = href
			}
			continue
		}

		label := section.Find("p").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.HasPrefix(strings.TrimSpace(s.Text()), cat+":")
		}).First()
		if label.Length() == 0 {
			continue
		}
		dl := label.NextAllFiltered("dl").First()
		if dl.Length() == 0 {
			continue
		}

		var entries []string
		dl.Find("dd").Each(func(_ int, dd *goquery.Selection) {
			entry := cleanText(strings.Join(strings.Fields(dd.Text()), " "))
			if cat == "Abkürzungen" && utf8.RuneCountInString(strings.TrimSpace(strings.ReplaceAll(entry, ".", ""))) <= 2 {
				return
			}
			entries = append(entries, entry)
		})
		if len(entries) > 0 {
			data[cat] = strings.Join(entries, "\n")
		}
	}
	return data
}

func cleanText(text string) string {
	text = footnoteRef.ReplaceAllString(text, "")
	text = sourcesRef.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return raw
}

func TestExtract(t *testing.T) {
	f, err := os.Open("testdata/johanna.html")
	require.NoError(t, err)
	defer f.Close()
	doc, err := goquery.NewDocumentFromReader(f)
	require.NoError(t, err)

	got := Extract(doc)

	assert.Equal(t, map[string]string{
		AudioKey:                    "https://upload.wikimedia.org/wikipedia/commons/a/a1/De-Johanna.ogg",
		"Herkunft":                  "weibliche Form von Johannes",
		"Koseformen":                "Hanna, Hanne\nJo",
		"Namensvarianten":           "Johannes, Johann",
		"Männliche Namensvarianten": "Johannes, Johann",
		"Abkürzungen":               "Joh.",
	}, got)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Maria", cleanText("Maria [ 2 ]"))
	assert.Equal(t, "Anna Karenina", cleanText("Anna Karenina [Quellen fehlen]"))
	assert.Equal(t, "plain", cleanText("  plain "))
}

func TestWiktionaryFetcher_Fetch(t *testing.T) {
	page := loadFixture(t, "johanna.html")
	empty := loadFixture(t, "no_entry.html")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Johanna":
			_, _ = w.Write(page)
		case "/Jörg":
			_, _ = w.Write(empty)
		case "/Broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	fetcher := NewWiktionaryFetcher(srv.URL+"/", 2*time.Second)
	ctx := context.Background()

	data, err := fetcher.Fetch(ctx, "Johanna")
	require.NoError(t, err)
	assert.Equal(t, "weibliche Form von Johannes", data["Herkunft"])

	data, err = fetcher.Fetch(ctx, "Jörg")
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = fetcher.Fetch(ctx, "Unbekannt")
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = fetcher.Fetch(ctx, "Broken")
	assert.Error(t, err)
}

func TestWiktionaryFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := NewWiktionaryFetcher(srv.URL, 20*time.Millisecond).Fetch(context.Background(), "Anna")
	assert.Error(t, err)
}

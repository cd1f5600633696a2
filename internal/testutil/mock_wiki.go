// Package testutil provides testing utilities for the pioneers service.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// Paths served by MockWiki.
const (
	WikipediaPath = "/wikipedia/w/api.php"
	WikidataPath  = "/wikidata/w/api.php"
)

// MockArticle is an article served by the mock Wikipedia API.
type MockArticle struct {
	Title    string
	Extract  string
	EntityID string
}

// MockResponse defines a canned response that replaces normal handling.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockWiki is a configurable mock of the Wikipedia and Wikidata action APIs.
type MockWiki struct {
	server *httptest.Server
	mu     sync.RWMutex

	articles map[string]MockArticle        // by requested title
	claims   map[string]map[string][]string // entity -> property -> referenced ids
	labels   map[string]string              // entity -> label
	images   map[string]string              // file name -> URL

	// failures keyed by title, entity id or "File:<name>"
	failures map[string]MockResponse

	// Tracking
	RequestCount      int
	ActionCount       map[string]int
	LastRequestHeader http.Header
}

// NewMockWiki creates a new mock Wikimedia server.
func NewMockWiki() *MockWiki {
	mock := &MockWiki{
		articles:    make(map[string]MockArticle),
		claims:      make(map[string]map[string][]string),
		labels:      make(map[string]string),
		images:      make(map[string]string),
		failures:    make(map[string]MockResponse),
		ActionCount: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WikipediaPath, mock.track(mock.wikipediaHandler))
	mux.HandleFunc(WikidataPath, mock.track(mock.wikidataHandler))
	mock.server = httptest.NewServer(mux)

	return mock
}

// URL returns the mock server base URL.
func (m *MockWiki) URL() string {
	return m.server.URL
}

// WikipediaURL returns the mock Wikipedia api.php endpoint.
func (m *MockWiki) WikipediaURL() string {
	return m.server.URL + WikipediaPath
}

// WikidataURL returns the mock Wikidata api.php endpoint.
func (m *MockWiki) WikidataURL() string {
	return m.server.URL + WikidataPath
}

// Close shuts down the mock server.
func (m *MockWiki) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockWiki) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ActionCount = make(map[string]int)
	m.LastRequestHeader = nil
}

// AddArticle registers an article under the title used to look it up.
func (m *MockWiki) AddArticle(lookupTitle string, article MockArticle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if article.Title == "" {
		article.Title = lookupTitle
	}
	m.articles[lookupTitle] = article
}

// AddClaims registers property claims for an entity.
func (m *MockWiki) AddClaims(entityID, property string, ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claims[entityID] == nil {
		m.claims[entityID] = make(map[string][]string)
	}
	m.claims[entityID][property] = append(m.claims[entityID][property], ids...)
}

// AddLabel registers the English label of an entity.
func (m *MockWiki) AddLabel(entityID, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.labels[entityID] = label
}

// AddImage registers the URL of a media file.
func (m *MockWiki) AddImage(fileName, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[fileName] = url
}

// Fail makes every request for key (an article title, entity id or
// "File:<name>") return resp instead of data.
func (m *MockWiki) Fail(key string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key] = resp
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockWiki) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetActionCount returns the number of requests for an action
// ("article", "claims", "labels", "imageinfo").
func (m *MockWiki) GetActionCount(action string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ActionCount[action]
}

func (m *MockWiki) track(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.RequestCount++
		m.LastRequestHeader = r.Header.Clone()
		m.mu.Unlock()
		next(w, r)
	}
}

func (m *MockWiki) count(action string) {
	m.mu.Lock()
	m.ActionCount[action]++
	m.mu.Unlock()
}

// failure returns the canned failure for key, if any, after applying its delay.
func (m *MockWiki) failure(w http.ResponseWriter, key string) bool {
	m.mu.RLock()
	resp, ok := m.failures[key]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func (m *MockWiki) wikipediaHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("titles")

	if q.Get("prop") == "imageinfo" {
		m.count("imageinfo")
		if m.failure(w, title) {
			return
		}
		m.mu.RLock()
		url, ok := m.images[strings.TrimPrefix(title, "File:")]
		m.mu.RUnlock()

		page := map[string]any{"title": title}
		if ok {
			page["imageinfo"] = []map[string]string{{"url": url}}
		} else {
			page["missing"] = true
		}
		writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{page}}})
		return
	}

	m.count("article")
	if m.failure(w, title) {
		return
	}
	m.mu.RLock()
	article, ok := m.articles[title]
	m.mu.RUnlock()

	page := map[string]any{"title": title}
	if ok {
		page["title"] = article.Title
		page["extract"] = article.Extract
		if article.EntityID != "" {
			page["pageprops"] = map[string]string{"wikibase_item": article.EntityID}
		}
	} else {
		page["missing"] = true
	}
	writeJSON(w, map[string]any{"query": map[string]any{"pages": []any{page}}})
}

func (m *MockWiki) wikidataHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("ids")
	props := q.Get("props")
	m.count(props)

	if m.failure(w, id) {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	ent := map[string]any{"id": id}
	switch props {
	case "claims":
		claims, ok := m.claims[id]
		if !ok {
			if _, labelled := m.labels[id]; !labelled {
				ent["missing"] = ""
				break
			}
		}
		out := make(map[string]any, len(claims))
		for property, ids := range claims {
			statements := make([]any, 0, len(ids))
			for _, ref := range ids {
				statements = append(statements, map[string]any{
					"mainsnak": map[string]any{
						"snaktype": "value",
						"property": property,
						"datavalue": map[string]any{
							"type":  "wikibase-entityid",
							"value": map[string]any{"entity-type": "item", "id": ref},
						},
					},
				})
			}
			out[property] = statements
		}
		ent["claims"] = out
	case "labels":
		label, ok := m.labels[id]
		if !ok {
			ent["missing"] = ""
			break
		}
		ent["labels"] = map[string]any{"en": map[string]string{"language": "en", "value": label}}
	}

	writeJSON(w, map[string]any{"entities": map[string]any{id: ent}})
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "Rate limit exceeded"}`,
	}
}

// NewAPIErrorResponse creates a 200 response carrying an action API error.
func NewAPIErrorResponse(code, info string) MockResponse {
	body, _ := json.Marshal(map[string]any{"error": map[string]string{"code": code, "info": info}})
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
	}
}

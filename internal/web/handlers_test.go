package web

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/v7h-lab/Nomen-origins/internal/explorer"
	"github.com/v7h-lab/Nomen-origins/internal/model"
	"github.com/v7h-lab/Nomen-origins/internal/provider"
	"github.com/v7h-lab/Nomen-origins/internal/tour"
	"github.com/v7h-lab/Nomen-origins/internal/tour/tourtest"
)

type stubProvider struct {
	mu      sync.Mutex
	results map[string]*model.EtymologyResult
	fail    bool
}

func (p *stubProvider) FetchEtymology(ctx context.Context, name string) (*model.EtymologyResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.results[name]
	if p.fail || !ok {
		return nil, &provider.Error{Op: provider.OpEtymology, Err: errors.New("upstream unavailable")}
	}
	return r.Clone(), nil
}

func (p *stubProvider) FetchReply(ctx context.Context, history []model.ChatMessage, message string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return "", &provider.Error{Op: provider.OpChat, Err: errors.New("upstream unavailable")}
	}
	return "Consider [Sophia].", nil
}

func (p *stubProvider) setFail(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func sophia() *model.EtymologyResult {
	return &model.EtymologyResult{
		Name:    "Sophia",
		Meaning: "Wisdom",
		Gender:  "Feminine",
		Locations: []model.Waypoint{
			{Name: "Athens", Latitude: 37.98, Longitude: 23.72, Significance: "Where the word was born.", Category: model.CategoryOrigin},
			{Name: "Madrid", Latitude: 40.42, Longitude: -3.70, Significance: "Sofia spreads.", Category: model.CategoryUsage},
		},
	}
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	p       *stubProvider
	sched   *tourtest.Scheduler
	clock   *clockwork.FakeClock
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	p := &stubProvider{results: map[string]*model.EtymologyResult{"Sophia": sophia()}}
	clock := clockwork.NewFakeClock()
	sched := &tourtest.Scheduler{}
	srv := NewServer("localhost:0", Options{
		Provider:    p,
		Scheduler:   sched,
		Clock:       clock,
		Explorer:    explorer.Options{Tour: tour.DefaultOptions()},
		IdleTimeout: time.Minute,
	})
	handler, err := srv.Handler()
	require.NoError(t, err)
	t.Cleanup(srv.Sessions().Close)
	return &testEnv{srv: srv, handler: handler, p: p, sched: sched, clock: clock}
}

func (e *testEnv) do(t *testing.T, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func cookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestStateCreatesSession(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "GET", "/api/state", "")
	require.Equal(t, http.StatusOK, w.Code)
	ck := cookieFrom(t, w)
	assert.True(t, ck.HttpOnly)

	st := decode[map[string]any](t, w)
	assert.Equal(t, "home", st["view"])

	w = env.do(t, "GET", "/api/state", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Cookies(), "known session keeps its cookie")
	assert.Equal(t, 1, env.srv.Sessions().Len())
}

func TestSubmitNameSearch(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "POST", "/api/submit", `{"input":"Sophia"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Intent string `json:"intent"`
		State  struct {
			View    string                 `json:"view"`
			Result  *model.EtymologyResult `json:"result"`
			Gender  string                 `json:"gender"`
			CanTour bool                   `json:"canTour"`
			Markers []struct {
				Index int `json:"index"`
			} `json:"markers"`
			Messages []struct {
				Segments []struct {
					Text string `json:"text"`
					Name bool   `json:"name"`
				} `json:"segments"`
			} `json:"messages"`
		} `json:"state"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))

	assert.Equal(t, "name", resp.Intent)
	assert.Equal(t, "detail", resp.State.View)
	require.NotNil(t, resp.State.Result)
	assert.Equal(t, "Wisdom", resp.State.Result.Meaning)
	assert.Equal(t, "Feminine", resp.State.Gender)
	assert.True(t, resp.State.CanTour)
	assert.Len(t, resp.State.Markers, 2)
	require.Len(t, resp.State.Messages, 2)
	assert.Equal(t, "Sophia", resp.State.Messages[0].Segments[1].Text)
	assert.True(t, resp.State.Messages[0].Segments[1].Name)
}

func TestSubmitLookupFailure(t *testing.T) {
	env := testServer(t)
	env.p.setFail(true)

	w := env.do(t, "POST", "/api/search", `{"name":"Sophia"}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[map[string]any](t, w)
	assert.Equal(t, explorer.LookupFailedMessage, st["error"])
	assert.Nil(t, st["result"])
}

func TestBadRequests(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		method, path, body string
	}{
		{"POST", "/api/submit", `{"input":"   "}`},
		{"POST", "/api/submit", `not json`},
		{"POST", "/api/chat", `{"message":""}`},
		{"POST", "/api/waypoints/select", `{"index":0}`},
		{"POST", "/api/waypoints/select", `{}`},
		{"POST", "/api/back", `{"to":"nowhere"}`},
		{"GET", "/api/classify", ""},
	}
	for _, tt := range tests {
		w := env.do(t, tt.method, tt.path, tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s %s", tt.method, tt.path, tt.body)
	}

	w := env.do(t, "POST", "/api/tour/dance", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSelectAndTourControls(t *testing.T) {
	env := testServer(t)
	w := env.do(t, "POST", "/api/search", `{"name":"Sophia"}`)
	ck := cookieFrom(t, w)

	w = env.do(t, "POST", "/api/tour/start", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["touring"])

	w = env.do(t, "POST", "/api/waypoints/select", `{"index":1}`, ck)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[map[string]any](t, w)
	assert.Equal(t, false, st["touring"])
	assert.Equal(t, float64(1), st["selected"])

	w = env.do(t, "POST", "/api/tour/toggle", "", ck)
	assert.Equal(t, true, decode[map[string]any](t, w)["touring"])
	w = env.do(t, "POST", "/api/tour/stop", "", ck)
	assert.Equal(t, false, decode[map[string]any](t, w)["touring"])

	w = env.do(t, "POST", "/api/back", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "chat", decode[map[string]any](t, w)["view"])
}

func TestClassify(t *testing.T) {
	env := testServer(t)

	w := env.do(t, "GET", "/api/classify?q=Mary+Jane+Watson", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, classifyResponse{Input: "Mary Jane Watson", Intent: "name"}, decode[classifyResponse](t, w))

	w = env.do(t, "GET", "/api/classify?q=show+strong+names", "")
	assert.Equal(t, "discovery", decode[classifyResponse](t, w).Intent)
}

func TestProviderEndpointServesProxyClients(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	proxy, err := provider.NewProxy(ts.URL+"/api/provider", 5*time.Second)
	require.NoError(t, err)

	result, err := proxy.FetchEtymology(context.Background(), "Sophia")
	require.NoError(t, err)
	assert.Equal(t, "Sophia", result.Name)
	assert.Len(t, result.Locations, 2)

	reply, err := proxy.FetchReply(context.Background(), nil, "Greek names")
	require.NoError(t, err)
	assert.Equal(t, "Consider [Sophia].", reply)

	env.p.setFail(true)
	_, err = proxy.FetchEtymology(context.Background(), "Sophia")
	require.Error(t, err)
	assert.True(t, provider.IsProviderError(err))
	assert.Contains(t, err.Error(), "upstream unavailable")

	w := env.do(t, "POST", "/api/provider", `{"action":"dance"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid action", decode[provider.ProxyErrorResponse](t, w).Error)
}

func TestHealth(t *testing.T) {
	env := testServer(t)
	w := env.do(t, "GET", "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, w)["status"])
}

func TestStaticIndex(t *testing.T) {
	env := testServer(t)
	w := env.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := w.Body.String()
	assert.Contains(t, page, "Nomen Origins")
	// A cancel naming one utterance must only stop that utterance.
	assert.Contains(t, page, "current && current.id === e.id")
	assert.NotContains(t, page, "speaking.delete(e.id) && synth")
}

func TestSweepEvictsIdleSessions(t *testing.T) {
	env := testServer(t)
	env.do(t, "GET", "/api/state", "")
	require.Equal(t, 1, env.srv.Sessions().Len())

	assert.Zero(t, env.srv.Sessions().Sweep())
	env.clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, env.srv.Sessions().Sweep())
	assert.Zero(t, env.srv.Sessions().Len())
}

type sseEvent struct {
	name string
	data string
}

func readEvents(t *testing.T, resp *http.Response) <-chan sseEvent {
	t.Helper()
	ch := make(chan sseEvent, 64)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		var cur sseEvent
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				cur.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				cur.data = strings.TrimPrefix(line, "data: ")
			case line == "" && cur.name != "":
				ch <- cur
				cur = sseEvent{}
			}
		}
	}()
	return ch
}

func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e, ok := <-events:
			require.True(t, ok, "stream closed waiting for %q", name)
			if e.name == name {
				return e
			}
		case <-timeout:
			t.Fatalf("no %q event", name)
		}
	}
}

func TestEventStreamBridgesSpeech(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	post := func(path, body string) {
		t.Helper()
		resp, err := client.Post(ts.URL+path, "application/json", bytes.NewBufferString(body))
		require.NoError(t, err)
		resp.Body.Close()
		require.Less(t, resp.StatusCode, 300, path)
	}

	post("/api/search", `{"name":"Sophia"}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := readEvents(t, resp)
	first := nextEvent(t, events, "state")
	assert.Contains(t, first.data, `"name":"Sophia"`)

	post("/api/speech/voices", `[{"name":"Samantha","lang":"en-US"}]`)
	post("/api/tour/start", "")

	var intro struct {
		ID    string  `json:"id"`
		Text  string  `json:"text"`
		Voice string  `json:"voice"`
		Rate  float64 `json:"rate"`
	}
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "speak").data), &intro))
	assert.Equal(t, "Sophia. Wisdom. Here is its journey.", intro.Text)
	assert.Equal(t, "Samantha", intro.Voice)
	assert.Equal(t, 0.9, intro.Rate)

	post("/api/speech/done", `{"id":"`+intro.ID+`"}`)

	var athens struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, "speak").data), &athens))
	assert.Equal(t, "Athens. Where the word was born.", athens.Text)

	post("/api/tour/stop", "")
	nextEvent(t, events, "cancel")
}

// onlyClient returns the server's single session.
func (e *testEnv) onlyClient(t *testing.T) *client {
	t.Helper()
	e.srv.sessions.mu.Lock()
	defer e.srv.sessions.mu.Unlock()
	require.Len(t, e.srv.sessions.clients, 1)
	for _, c := range e.srv.sessions.clients {
		return c
	}
	return nil
}

func TestTourRunsWithoutEventStream(t *testing.T) {
	env := testServer(t)
	w := env.do(t, "POST", "/api/search", `{"name":"Sophia"}`)
	ck := cookieFrom(t, w)

	w = env.do(t, "POST", "/api/tour/start", "", ck)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[map[string]any](t, w)
	assert.Equal(t, true, st["touring"])
	assert.Equal(t, float64(0), st["tourStep"], "unheard introduction does not hold the tour")
	assert.Zero(t, env.onlyClient(t).remote.Pending())

	env.sched.FireLast()
	st = decode[map[string]any](t, env.do(t, "GET", "/api/state", "", ck))
	assert.Equal(t, float64(1), st["tourStep"])

	env.sched.FireLast()
	st = decode[map[string]any](t, env.do(t, "GET", "/api/state", "", ck))
	assert.Equal(t, false, st["touring"])
}

func TestClosedStreamFailsPendingSpeech(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.Post(ts.URL+"/api/search", "application/json", strings.NewReader(`{"name":"Sophia"}`))
	require.NoError(t, err)
	resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/events", nil)
	require.NoError(t, err)
	stream, err := client.Do(req)
	require.NoError(t, err)
	events := readEvents(t, stream)
	nextEvent(t, events, "state")

	resp, err = client.Post(ts.URL+"/api/tour/start", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	nextEvent(t, events, "speak")

	c := env.onlyClient(t)
	require.Equal(t, 1, c.remote.Pending())

	cancel()
	stream.Body.Close()

	// The introduction fails over to the first waypoint, whose speak event
	// also has nobody to hear it.
	require.Eventually(t, func() bool {
		return c.hub.listeners() == 0 && c.remote.Pending() == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, c.session.Snapshot().TourStep)
}

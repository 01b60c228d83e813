package replication

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// follower is a test endpoint collecting the batches it receives.
type follower struct {
	mu      sync.Mutex
	batches []document.Batch
}

func (fl *follower) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data, _ := io.ReadAll(r.Body)
	var b document.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fl.mu.Lock()
	fl.batches = append(fl.batches, b)
	fl.mu.Unlock()
}

func TestPartialDeliveryFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.replication")
	defer teardown()
	//
	good := &follower{}
	okServer := httptest.NewServer(good)
	defer okServer.Close()
	badServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer badServer.Close()
	//
	doc := document.New()
	require.NoError(t, doc.Load([]byte(`<r><a xml:id="1"/></r>`)))
	fwd := NewForwarder()
	fwd.AddSubscriber(badServer.URL)
	fwd.AddSubscriber(okServer.URL)
	doc.SetForwarder(fwd)
	dropped := testutil.ToFloat64(subscribersDropped)
	//
	ctx := context.Background()
	_, err := doc.Paste(ctx, "/r", document.Begin, []byte(`<b/>`))
	require.NoError(t, err, "delivery failures must not be reported to the editor")
	assert.Equal(t, []string{okServer.URL}, fwd.Subscribers())
	assert.Equal(t, dropped+1, testutil.ToFloat64(subscribersDropped))
	require.Len(t, good.batches, 1)
	assert.Equal(t, 1, good.batches[0].Generation)
	assert.Equal(t, document.Command{Verb: document.VerbAdd, Path: "/r", Where: document.Begin, Data: "<b/>"},
		good.batches[0].Operations[0])
	//
	_, err = doc.Delete(ctx, "/r/b[1]")
	require.NoError(t, err)
	require.Len(t, good.batches, 2)
	assert.Equal(t, 2, good.batches[1].Generation)
}

func TestDeliveryOutlivesCaller(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.replication")
	defer teardown()
	//
	slow := func(fl *follower) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			fl.ServeHTTP(w, r)
		})
	}
	first, second := &follower{}, &follower{}
	s1 := httptest.NewServer(slow(first))
	defer s1.Close()
	s2 := httptest.NewServer(slow(second))
	defer s2.Close()
	doc := document.New()
	require.NoError(t, doc.Load([]byte(`<r/>`)))
	fwd := NewForwarder()
	fwd.AddSubscriber(s1.URL)
	fwd.AddSubscriber(s2.URL)
	doc.SetForwarder(fwd)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := doc.Paste(ctx, "/r", document.End, []byte(`<a/>`))
	require.NoError(t, err)
	assert.Equal(t, []string{s1.URL, s2.URL}, fwd.Subscribers(), "caller's deadline must not drop followers")
	assert.Len(t, first.batches, 1)
	assert.Len(t, second.batches, 1)
}

// fakeTransport fails for a set of URLs and records all others.
type fakeTransport struct {
	mu        sync.Mutex
	fail      map[string]bool
	delivered map[string]int
}

func (ft *fakeTransport) Put(_ context.Context, url string, _ []byte) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if ft.fail[url] {
		return errors.New("connection refused")
	}
	ft.delivered[url]++
	return nil
}

func TestForwarderDropsOnlyFailingSubscribers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.replication")
	defer teardown()
	//
	ft := &fakeTransport{
		fail:      map[string]bool{"http://b": true, "http://d": true},
		delivered: make(map[string]int),
	}
	fwd := NewForwarder(WithTransport(ft), WithParallel(2))
	for _, url := range []string{"http://a", "http://b", "http://c", "http://d", "http://a"} {
		fwd.AddSubscriber(url)
	}
	assert.Equal(t, []string{"http://a", "http://b", "http://c", "http://d"}, fwd.Subscribers())
	fwd.Forward(context.Background(), document.Batch{Generation: 1})
	assert.Equal(t, []string{"http://a", "http://c"}, fwd.Subscribers())
	fwd.Forward(context.Background(), document.Batch{Generation: 2})
	assert.Equal(t, map[string]int{"http://a": 2, "http://c": 2}, ft.delivered)
	assert.False(t, fwd.RemoveSubscriber("http://b"))
	assert.True(t, fwd.RemoveSubscriber("http://a"))
	assert.Equal(t, []string{"http://c"}, fwd.Subscribers())
}

func TestChainedFollowers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.replication")
	defer teardown()
	//
	ctx := context.Background()
	const src = `<r><a xml:id="a"/></r>`
	leader, middle, last := document.New(), document.New(), document.New()
	for _, doc := range []*document.Document{leader, middle, last} {
		require.NoError(t, doc.Load([]byte(src)))
	}
	// the middle document receives from the leader and forwards to the last one
	lastServer := httptest.NewServer(applier(last))
	defer lastServer.Close()
	midFwd := NewForwarder()
	midFwd.AddSubscriber(lastServer.URL)
	middle.SetForwarder(midFwd)
	midServer := httptest.NewServer(applier(middle))
	defer midServer.Close()
	leadFwd := NewForwarder()
	leadFwd.AddSubscriber(midServer.URL)
	leader.SetForwarder(leadFwd)
	//
	_, err := leader.CopySubtree(ctx, "/r/a[1]", "/r/a[1]", document.After)
	require.NoError(t, err)
	want, _ := leader.Serialize()
	for _, doc := range []*document.Document{middle, last} {
		have, _ := doc.Serialize()
		assert.Equal(t, string(want), string(have))
		assert.Equal(t, 1, doc.Generation())
	}
}

func applier(doc *document.Document) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var b document.Batch
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := doc.Apply(r.Context(), b); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	})
}

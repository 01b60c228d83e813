package replication

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/npillmayer/livedoc/document"
	"golang.org/x/sync/errgroup"
)

// Transport delivers a serialized batch to a subscriber endpoint.
type Transport interface {
	Put(ctx context.Context, url string, body []byte) error
}

// HTTPTransport delivers batches by HTTP PUT. Any response status other
// than 2xx counts as a failure.
type HTTPTransport struct {
	Client *http.Client
}

// NewHTTPTransport creates a transport with a per-request timeout.
func NewHTTPTransport(timeout time.Duration) *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{Timeout: timeout}}
}

// Put sends body as JSON to url.
func (t *HTTPTransport) Put(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("PUT %s: %s", url, resp.Status)
	}
	return nil
}

// Forwarder holds the subscribers of a document and delivers batches to
// them. It implements document.Forwarder.
type Forwarder struct {
	mu          sync.Mutex
	subscribers []string
	transport   Transport
	parallel    int
}

var _ document.Forwarder = (*Forwarder)(nil)

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithTransport sets the transport used for deliveries.
func WithTransport(t Transport) Option {
	return func(f *Forwarder) {
		f.transport = t
	}
}

// WithParallel limits the number of concurrent deliveries of a batch.
func WithParallel(n int) Option {
	return func(f *Forwarder) {
		if n > 0 {
			f.parallel = n
		}
	}
}

// NewForwarder creates a forwarder without subscribers. If no transport is
// given, batches are delivered by HTTP PUT with a timeout of 10 seconds.
func NewForwarder(opts ...Option) *Forwarder {
	f := &Forwarder{parallel: 8}
	for _, opt := range opts {
		opt(f)
	}
	if f.transport == nil {
		f.transport = NewHTTPTransport(10 * time.Second)
	}
	return f
}

// AddSubscriber registers a follower endpoint. It returns false if url is
// already subscribed.
func (f *Forwarder) AddSubscriber(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slices.Contains(f.subscribers, url) {
		return false
	}
	f.subscribers = append(f.subscribers, url)
	subscriberGauge.Inc()
	tracer().Infof("added subscriber %s", url)
	return true
}

// RemoveSubscriber deregisters a follower endpoint. It returns false if
// url has not been subscribed.
func (f *Forwarder) RemoveSubscriber(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := slices.Index(f.subscribers, url)
	if i < 0 {
		return false
	}
	f.subscribers = slices.Delete(f.subscribers, i, i+1)
	subscriberGauge.Dec()
	return true
}

// Subscribers returns the current subscribers in order of registration.
func (f *Forwarder) Subscribers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.subscribers)
}

// Forward delivers a batch to all subscribers and waits for the deliveries
// to complete. Subscribers which fail to accept the batch are removed.
// Cancellation of ctx does not abort deliveries, they are bounded by the
// transport's timeout.
func (f *Forwarder) Forward(ctx context.Context, batch document.Batch) {
	ctx = context.WithoutCancel(ctx)
	body, err := json.Marshal(batch)
	if err != nil {
		tracer().Errorf("cannot encode batch %d: %v", batch.Generation, err)
		return
	}
	batchesForwarded.Inc()
	subscribers := f.Subscribers()
	var mu sync.Mutex
	var failed []string
	var eg errgroup.Group
	eg.SetLimit(f.parallel)
	for _, url := range subscribers {
		eg.Go(func() error {
			start := time.Now()
			err := f.transport.Put(ctx, url, body)
			if err == nil {
				deliveryDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
				return nil
			}
			deliveryDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
			deliveriesFailed.Inc()
			tracer().Errorf("delivery of batch %d to %s failed: %v", batch.Generation, url, err)
			mu.Lock()
			failed = append(failed, url)
			mu.Unlock()
			return nil // other deliveries continue
		})
	}
	eg.Wait()
	for _, url := range failed {
		if f.RemoveSubscriber(url) {
			subscribersDropped.Inc()
			tracer().Infof("dropped subscriber %s", url)
		}
	}
	tracer().P("generation", batch.Generation).Debugf("batch delivered to %d of %d subscribers",
		len(subscribers)-len(failed), len(subscribers))
}

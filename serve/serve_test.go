package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutStorage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.serve")
	defer teardown()
	//
	ctx := context.Background()
	doc := document.New()
	require.NoError(t, doc.Load([]byte(`<tl:document/>`)))
	svc := New(doc)
	_, err := svc.Layout()
	assert.ErrorIs(t, err, document.ErrNotFound)
	require.NoError(t, svc.PutLayout(ctx, `{"regions":[]}`))
	layout, err := svc.Layout()
	require.NoError(t, err)
	assert.Equal(t, `{"regions":[]}`, layout)
	require.NoError(t, svc.PutLayout(ctx, `{"regions":[1]}`))
	layout, _ = svc.Layout()
	assert.Equal(t, `{"regions":[1]}`, layout)
	assert.Equal(t, 2, doc.Count(), "layout element is created only once")
	timeline, err := svc.Timeline()
	require.NoError(t, err)
	assert.Equal(t, `<tl:document><au:rawLayout>{"regions":[1]}</au:rawLayout></tl:document>`, string(timeline))
}

func TestAddCallbackCreatesForwarder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.serve")
	defer teardown()
	//
	var received atomic.Int32
	follower := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer follower.Close()
	ctx := context.Background()
	doc := document.New()
	require.NoError(t, doc.Load([]byte(`<tl:document/>`)))
	svc := New(doc)
	assert.Nil(t, svc.Callbacks())
	assert.ErrorIs(t, svc.AddCallback("not a url"), document.ErrBadParameter)
	require.NoError(t, svc.AddCallback(follower.URL))
	require.NoError(t, svc.AddCallback(follower.URL))
	assert.Equal(t, []string{follower.URL}, svc.Callbacks())
	require.NoError(t, svc.PutLayout(ctx, `{}`))
	assert.Equal(t, int32(1), received.Load(), "creation of layout element is forwarded")
	require.NoError(t, svc.PutLayout(ctx, `{"x":1}`))
	assert.Equal(t, int32(1), received.Load(), "layout text is not forwarded")
}

func TestClientDocument(t *testing.T) {
	data, err := Client("http://host/timeline", "http://host/layout")
	require.NoError(t, err)
	var client map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &client))
	assert.Equal(t, "Live Preview", client["description"])
	assert.Equal(t, "tv", client["mode"])
	variations := client["variations"].([]interface{})
	require.Len(t, variations, 1)
	opt := variations[0].(map[string]interface{})["options"].([]interface{})[0].(map[string]interface{})
	input := opt["content"].(map[string]interface{})["serviceInput"].(map[string]interface{})
	assert.Equal(t, "http://host/timeline", input["timeline"])
	assert.Equal(t, "http://host/layout", input["layout"])
}

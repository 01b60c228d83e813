package events

import (
	"context"
	"testing"

	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/tree"
	"github.com/npillmayer/livedoc/tree/treedbg"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const live = `<tl:document xmlns:tl="http://jackjansen.nl/timelines" xmlns:tt="http://jackjansen.nl/2immerse/livetrigger" xmlns:tic="http://jackjansen.nl/2immerse/component">
<tl:par xml:id="G">
<tt:events>
<tl:par xml:id="tmpl1" tt:name="Goal" tt:verb="show">
<tt:parameters>
<tt:parameter tt:name="Player" tt:parameter="./tl:ref/@tic:player" tt:type="string"/>
<tt:parameter tt:name="Minute" tt:parameter="./@tic:minute" tt:value="1"/>
</tt:parameters>
<tl:ref xml:id="ref1" tic:player="nobody"/>
</tl:par>
</tt:events>
<tl:par xml:id="running" tt:name="Score">
<tt:modparameters>
<tt:parameter tt:name="Home" tt:parameter="./tl:ref/@tic:home"/>
</tt:modparameters>
<tl:ref xml:id="score" tic:home="0" tic:away="0"/>
</tl:par>
</tl:par>
</tl:document>`

type recorder struct {
	batches []document.Batch
}

func (r *recorder) Forward(_ context.Context, b document.Batch) {
	r.batches = append(r.batches, b)
}

func setup(t *testing.T) (*document.Document, *Engine) {
	doc := document.New()
	require.NoError(t, doc.Load([]byte(live)))
	return doc, New(doc)
}

func TestTriggerAppendsCloneToGrandparent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.events")
	defer teardown()
	//
	ctx := context.Background()
	doc, engine := setup(t)
	newID, err := engine.Trigger(ctx, "tmpl1", nil)
	require.NoError(t, err)
	assert.NotEqual(t, "tmpl1", newID)
	doc.View(func(tx *document.Tx) error {
		g, err := tx.ByID("G")
		require.NoError(t, err)
		clone, err := tx.ByID(newID)
		require.NoError(t, err)
		assert.Same(t, g, tx.Parent(clone))
		last, _ := g.Child(g.ChildCount() - 1)
		assert.Same(t, clone, last, "clone is appended as last child")
		name, _ := clone.Attr(document.NameAttr)
		assert.Equal(t, "Goal (1)", name)
		treedbg.Log(g, t)
		return nil
	})
}

func TestTriggerAppliesParametersToClone(t *testing.T) {
	ctx := context.Background()
	doc, engine := setup(t)
	newID, err := engine.Trigger(ctx, "tmpl1", []Parameter{
		{Parameter: "./tl:ref/@tic:player", Value: "Messi"},
		{Parameter: "./@tic:minute", Value: "42"},
	})
	require.NoError(t, err)
	doc.View(func(tx *document.Tx) error {
		clone, _ := tx.ByID(newID)
		minute, _ := clone.Attr("tic:minute")
		assert.Equal(t, "42", minute)
		ref, err := tx.ByID("ref1-1")
		require.NoError(t, err)
		player, _ := ref.Attr("tic:player")
		assert.Equal(t, "Messi", player)
		orig, _ := tx.ByID("ref1")
		player, _ = orig.Attr("tic:player")
		assert.Equal(t, "nobody", player, "template must stay untouched")
		return nil
	})
	second, err := engine.Trigger(ctx, "tmpl1", nil)
	require.NoError(t, err)
	assert.NotEqual(t, newID, second)
}

func TestTriggerErrors(t *testing.T) {
	ctx := context.Background()
	doc, engine := setup(t)
	count := doc.Count()
	_, err := engine.Trigger(ctx, "nothing", nil)
	assert.ErrorIs(t, err, document.ErrNotFound)
	_, err = engine.Trigger(ctx, "G", nil)
	assert.ErrorIs(t, err, document.ErrNoParent)
	for _, par := range []Parameter{
		{Parameter: "./tl:missing/@tic:player", Value: "x"},
		{Parameter: "./tl:ref", Value: "x"},
		{Parameter: "./tl:ref/@zz:player", Value: "x"},
		{Parameter: "", Value: "x"},
	} {
		_, err = engine.Trigger(ctx, "tmpl1", []Parameter{par})
		assert.ErrorIs(t, err, document.ErrBadParameter, par.Parameter)
	}
	assert.Equal(t, count, doc.Count(), "failed triggers must not change the document")
}

func TestModifyCollapsesChanges(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "livedoc.events")
	defer teardown()
	//
	ctx := context.Background()
	doc, engine := setup(t)
	rec := &recorder{}
	doc.SetForwarder(rec)
	err := engine.Modify(ctx, "running", []Parameter{
		{Parameter: "./tl:ref/@tic:home", Value: "1"},
		{Parameter: "./@tic:state", Value: "live"},
		{Parameter: "./tl:ref/@tic:away", Value: "2"},
	})
	require.NoError(t, err)
	require.Len(t, rec.batches, 1)
	ops := rec.batches[0].Operations
	require.Len(t, ops, 2, "one change per touched element")
	assert.Equal(t, "/tl:document/tl:par[1]/tl:par[1]/tl:ref[1]", ops[0].Path)
	assert.Len(t, ops[0].Attrs, 2)
	assert.Equal(t, "/tl:document/tl:par[1]/tl:par[1]", ops[1].Path)
	doc.View(func(tx *document.Tx) error {
		score, _ := tx.ByID("score")
		home, _ := score.Attr("tic:home")
		away, _ := score.Attr("tic:away")
		assert.Equal(t, "1", home)
		assert.Equal(t, "2", away)
		return nil
	})
	err = engine.Modify(ctx, "running", []Parameter{{Parameter: "./tl:nothing/@x", Value: "1"}})
	assert.ErrorIs(t, err, document.ErrBadParameter)
}

func TestTriggerReplicates(t *testing.T) {
	ctx := context.Background()
	master, engine := setup(t)
	follower := document.New()
	require.NoError(t, follower.Load([]byte(live)))
	rec := &recorder{}
	master.SetForwarder(rec)
	_, err := engine.Trigger(ctx, "tmpl1", []Parameter{{Parameter: "./tl:ref/@tic:player", Value: "Pelé"}})
	require.NoError(t, err)
	require.Len(t, rec.batches, 1)
	require.NoError(t, follower.Apply(ctx, rec.batches[0]))
	master.View(func(mtx *document.Tx) error {
		return follower.View(func(ftx *document.Tx) error {
			assert.True(t, tree.Equal(mtx.Root(), ftx.Root()))
			return nil
		})
	})
}

func TestList(t *testing.T) {
	_, engine := setup(t)
	list, err := engine.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	goal := list[0]
	assert.Equal(t, "Goal", goal.Name)
	assert.Equal(t, "tmpl1", goal.ID)
	assert.True(t, goal.Trigger)
	assert.False(t, goal.Modify)
	assert.Equal(t, "show", goal.Verb)
	assert.Equal(t, []ParameterDecl{
		{Name: "Player", Parameter: "./tl:ref/@tic:player", Type: "string"},
		{Name: "Minute", Parameter: "./@tic:minute", Value: "1"},
	}, goal.Parameters)
	score := list[1]
	assert.Equal(t, "running", score.ID)
	assert.True(t, score.Modify)
	assert.Equal(t, []ParameterDecl{{Name: "Home", Parameter: "./tl:ref/@tic:home"}}, score.Parameters)
}

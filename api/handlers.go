package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/npillmayer/livedoc/document"
	"github.com/npillmayer/livedoc/events"
	"github.com/npillmayer/livedoc/serve"
	"github.com/npillmayer/livedoc/tree"
)

type handlers struct {
	registry *Registry
}

const handleKey = "livedoc.document"

// lookup resolves the :docId parameter for all routes of a single document.
func (h handlers) lookup(c *gin.Context) {
	id := c.Param("docId")
	doc, ok := h.registry.Get(id)
	if !ok {
		fail(c, fmt.Errorf("%w: no document %q", document.ErrNotFound, id))
		return
	}
	c.Set(handleKey, doc)
	c.Next()
}

func handle(c *gin.Context) *Handle {
	return c.MustGet(handleKey).(*Handle)
}

func badRequest(err error) error {
	return fmt.Errorf("%w: %v", document.ErrBadParameter, err)
}

// --- Documents -------------------------------------------------------------

func (h handlers) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.IDs())
}

// create adds a new document. If a url query parameter is given, the
// document is loaded from there, otherwise a non-empty request body is
// parsed as the document.
// Documents failing to load are not registered.
func (h handlers) create(c *gin.Context) {
	doc := document.New()
	if err := loadInto(c, doc); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documentId": h.registry.Add(doc).ID})
}

func (h handlers) load(c *gin.Context) {
	if err := loadInto(c, handle(c).Doc); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func loadInto(c *gin.Context, doc *document.Document) error {
	if url := c.Query("url"); url != "" {
		return doc.LoadURL(c.Request.Context(), url)
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return badRequest(err)
	}
	if len(data) == 0 {
		return nil
	}
	return doc.Load(data)
}

func (h handlers) serialize(c *gin.Context) {
	data, err := handle(c).Doc.Serialize()
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", data)
}

func (h handlers) dump(c *gin.Context) {
	c.String(http.StatusOK, handle(c).Doc.Dump())
}

func (h handlers) save(c *gin.Context) {
	if err := handle(c).Doc.Save(c.Query("url")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Structural editing ----------------------------------------------------

func (h handlers) get(c *gin.Context) {
	n, err := handle(c).Doc.Get(c.Query("path"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", tree.ToXML(n))
}

func position(c *gin.Context) (document.Position, error) {
	where := c.DefaultQuery("where", string(document.End))
	return document.ParsePosition(where)
}

func (h handlers) paste(c *gin.Context) {
	pos, err := position(c)
	if err != nil {
		fail(c, err)
		return
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, badRequest(err))
		return
	}
	path, err := handle(c).Doc.Paste(c.Request.Context(), c.Query("path"), pos, data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (h handlers) cut(c *gin.Context) {
	n, err := handle(c).Doc.Delete(c.Request.Context(), c.Query("path"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", tree.ToXML(n))
}

// modifyAttributes expects a JSON object mapping attribute names to new
// values. A null value removes the attribute.
func (h handlers) modifyAttributes(c *gin.Context) {
	var patch map[string]*string
	if err := c.ShouldBindJSON(&patch); err != nil {
		fail(c, badRequest(err))
		return
	}
	path, err := handle(c).Doc.PatchAttributes(c.Request.Context(), c.Query("path"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

type dataRequest struct {
	Data *string `json:"data"`
}

func (h handlers) modifyData(c *gin.Context) {
	var req dataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}
	path, err := handle(c).Doc.SetText(c.Request.Context(), c.Query("path"), req.Data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

func (h handlers) copy(c *gin.Context) {
	h.transfer(c, (*document.Document).CopySubtree)
}

func (h handlers) move(c *gin.Context) {
	h.transfer(c, (*document.Document).MoveSubtree)
}

type transferFunc func(*document.Document, context.Context, string, string, document.Position) (string, error)

func (h handlers) transfer(c *gin.Context, op transferFunc) {
	pos, err := position(c)
	if err != nil {
		fail(c, err)
		return
	}
	path, err := op(handle(c).Doc, c.Request.Context(), c.Query("sourcepath"), c.Query("path"), pos)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path})
}

// --- Events ----------------------------------------------------------------

type eventRequest struct {
	ID         string             `json:"id" binding:"required"`
	Parameters []events.Parameter `json:"parameters"`
}

func (h handlers) events(c *gin.Context) {
	list, err := handle(c).Events.List()
	if err != nil {
		fail(c, err)
		return
	}
	if list == nil {
		list = []events.Description{}
	}
	c.JSON(http.StatusOK, list)
}

func (h handlers) trigger(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}
	id, err := handle(c).Events.Trigger(c.Request.Context(), req.ID, req.Parameters)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h handlers) modify(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest(err))
		return
	}
	if err := handle(c).Events.Modify(c.Request.Context(), req.ID, req.Parameters); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Preview serving -------------------------------------------------------

func (h handlers) timeline(c *gin.Context) {
	data, err := handle(c).Serve.Timeline()
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", data)
}

func (h handlers) layout(c *gin.Context) {
	layout, err := handle(c).Serve.Layout()
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(layout))
}

func (h handlers) putLayout(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, badRequest(err))
		return
	}
	if err := handle(c).Serve.PutLayout(c.Request.Context(), string(data)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// client returns the preview client configuration. Unless given as query
// parameters, timeline and layout point to this server.
func (h handlers) client(c *gin.Context) {
	base := fmt.Sprintf("%s://%s/api/v1/document/%s/serve", scheme(c), c.Request.Host, handle(c).ID)
	timeline := c.DefaultQuery("timeline", base+"/timeline.xml")
	layout := c.DefaultQuery("layout", base+"/layout.json")
	data, err := serve.Client(timeline, layout)
	if err != nil {
		fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func scheme(c *gin.Context) string {
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}

func (h handlers) addCallback(c *gin.Context) {
	if err := handle(c).Serve.AddCallback(c.Query("url")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Replication -----------------------------------------------------------

// remote receives a batch from a leader document.
func (h handlers) remote(c *gin.Context) {
	var batch document.Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		fail(c, badRequest(err))
		return
	}
	if err := handle(c).Doc.Apply(c.Request.Context(), batch); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

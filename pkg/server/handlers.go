package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/cardtree/pkg/buildinfo"
	"github.com/matzehuels/cardtree/pkg/canvas"
	"github.com/matzehuels/cardtree/pkg/cards"
	errs "github.com/matzehuels/cardtree/pkg/errors"
	"github.com/matzehuels/cardtree/pkg/render"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := canvas.Snapshot(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "snapshot canvas"))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

type danglingJSON struct {
	Connector string `json:"connector"`
	Node      string `json:"node"`
}

type reportJSON struct {
	OK          bool                `json:"ok"`
	Dangling    []danglingJSON      `json:"dangling,omitempty"`
	MultiParent map[string][]string `json:"multi_parent,omitempty"`
	Cycles      [][]string          `json:"cycles,omitempty"`
	Invalid     []string            `json:"invalid,omitempty"`
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	doc, err := canvas.Snapshot(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "snapshot canvas"))
		return
	}
	rep := canvas.Validate(doc)
	out := reportJSON{OK: rep.OK(), MultiParent: rep.MultiParent, Cycles: rep.Cycles}
	for _, d := range rep.Dangling {
		out.Dangling = append(out.Dangling, danglingJSON{Connector: d.ConnectorID, Node: d.NodeID})
	}
	for _, e := range rep.Invalid {
		out.Invalid = append(out.Invalid, errs.UserMessage(e))
	}
	writeJSON(w, http.StatusOK, out)
}

var contentTypes = map[string]string{
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	q := r.URL.Query()
	opts := render.Options{
		Format:        format,
		ShowHidden:    q.Get("hidden") == "true",
		IncludeFields: q.Get("fields") == "true",
	}
	if v := q.Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil || scale <= 0 {
			s.writeError(w, r, errs.New(errs.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}

	doc, err := canvas.Snapshot(r.Context(), s.store)
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "snapshot canvas"))
		return
	}
	res, err := s.renderer.Render(r.Context(), doc, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[res.Format])
	w.Header().Set("ETag", strconv.Quote(res.DocHash))
	_, _ = w.Write(res.Data)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.store.Node(r.Context(), id)
	if err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "load node %s", id))
		return
	}
	if n == nil {
		s.writeError(w, r, errs.New(errs.ErrCodeNodeNotFound, "node %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

type linkJSON struct {
	Node      string `json:"node"`
	Connector string `json:"connector"`
}

type connectionsJSON struct {
	Node     string     `json:"node"`
	Parents  []linkJSON `json:"parents"`
	Children []linkJSON `json:"children"`
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Connections(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := connectionsJSON{Node: c.Node.ID, Parents: []linkJSON{}, Children: []linkJSON{}}
	for _, l := range c.Parents {
		out.Parents = append(out.Parents, linkJSON{Node: l.Node.ID, Connector: l.Connector.ID})
	}
	for _, l := range c.Children {
		out.Children = append(out.Children, linkJSON{Node: l.Node.ID, Connector: l.Connector.ID})
	}
	writeJSON(w, http.StatusOK, out)
}

// mutate runs fn for the node in the URL, flushes the store and answers
// with the node's new state.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(id string) (any, error)) {
	id := chi.URLParam(r, "id")
	if err := errs.ValidateNodeID(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := fn(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.flush(r.Context()); err != nil {
		s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "flush canvas"))
		return
	}
	if out == nil {
		n, err := s.store.Node(r.Context(), id)
		if err != nil {
			s.writeError(w, r, errs.Wrap(errs.ErrCodeStore, err, "load node %s", id))
			return
		}
		out = n
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAutoLayout(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(id string) (any, error) {
		return nil, s.engine.AutoLayout(r.Context(), id)
	})
}

func (s *Server) handleCascade(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(id string) (any, error) {
		return nil, s.engine.CascadeLayoutChange(r.Context(), id)
	})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(id string) (any, error) {
		_, err := s.editor.Collapse(r.Context(), id)
		return nil, err
	})
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	recursive := r.URL.Query().Get("recursive") == "true"
	s.mutate(w, r, func(id string) (any, error) {
		_, err := s.editor.Expand(r.Context(), id, recursive)
		return nil, err
	})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(id string) (any, error) {
		a, err := cards.ParseAction(chi.URLParam(r, "action"))
		if err != nil {
			return nil, err
		}
		return s.editor.Do(r.Context(), id, a)
	})
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/radialtree/pkg/buildinfo"
	"github.com/matzehuels/radialtree/pkg/cache"
	"github.com/matzehuels/radialtree/pkg/errors"
	"github.com/matzehuels/radialtree/pkg/pipeline"
	"github.com/matzehuels/radialtree/pkg/radial"
	"github.com/matzehuels/radialtree/pkg/session"
	"github.com/matzehuels/radialtree/pkg/tree"
)

// =============================================================================
// Health and datasets
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"datasets": s.cfg.DatasetNames()})
}

func (s *Server) handleDatasetTree(w http.ResponseWriter, r *http.Request) {
	root, _, err := s.loadDataset(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := tree.Write(root, w); err != nil {
		s.logger.Warn("write tree", "error", err)
	}
}

// datasetSource resolves a dataset name to its configured file or URL.
func (s *Server) datasetSource(name string) (string, error) {
	if err := errors.ValidateDatasetName(name); err != nil {
		return "", err
	}
	src, ok := s.cfg.Datasets[name]
	if !ok {
		return "", errors.New(errors.ErrCodeDatasetNotFound, "dataset %q not found", name)
	}
	return src, nil
}

func (s *Server) loadDataset(ctx context.Context, name string) (*tree.Node, string, error) {
	src, err := s.datasetSource(name)
	if err != nil {
		return nil, "", err
	}
	return s.runner.Load(ctx, pipeline.Options{Source: src})
}

// =============================================================================
// Layout
// =============================================================================

// layoutRequest is the body of POST /layout. Exactly one of Tree and
// Dataset must be set. Config fields override the server's layout config.
type layoutRequest struct {
	Tree     *tree.Node      `json:"tree,omitempty"`
	Dataset  string          `json:"dataset,omitempty"`
	Expanded []string        `json:"expanded,omitempty"`
	Mode     string          `json:"mode,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
	Format   string          `json:"format,omitempty"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req layoutRequest
	if err := decodeJSON(requestWithBody(r, body), &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if (req.Tree == nil) == (req.Dataset == "") {
		writeError(w, s.logger, errors.New(errors.ErrCodeInvalidInput, "exactly one of tree and dataset is required"))
		return
	}
	if req.Tree != nil && req.Tree.Name == "" {
		writeError(w, s.logger, errors.New(errors.ErrCodeInvalidTree, "tree root has no name"))
		return
	}

	cfg, err := s.layoutConfig(req.Config)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	opts := pipeline.Options{
		Tree:     req.Tree,
		Mode:     req.Mode,
		Expanded: req.Expanded,
		Config:   &cfg,
		Formats:  []string{formatOrJSON(req.Format)},
	}
	if req.Dataset != "" {
		if opts.Source, err = s.datasetSource(req.Dataset); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}
	s.serveLayout(w, r, cache.Hash(body), opts)
}

// layoutConfig overlays raw onto the server's layout config.
func (s *Server) layoutConfig(raw json.RawMessage) (radial.Config, error) {
	cfg := s.cfg.Layout
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid layout config")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// serveLayout runs the pipeline once per key among concurrent callers and
// writes the single requested artifact.
func (s *Server) serveLayout(w http.ResponseWriter, r *http.Request, key string, opts pipeline.Options) {
	format := opts.Formats[0]
	v, err, shared := s.layouts.Do(key+":"+format, func() (any, error) {
		return s.runner.Execute(context.WithoutCancel(r.Context()), opts)
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	res := v.(*pipeline.Result)

	cacheStatus := "miss"
	if res.CacheInfo.LayoutHit {
		cacheStatus = "hit"
	}
	w.Header().Set("X-Cache", cacheStatus)
	w.Header().Set("X-Layout-Shared", strconv.FormatBool(shared))
	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(res.Artifacts[format])
}

func formatOrJSON(f string) string {
	if f == "" {
		return pipeline.FormatJSON
	}
	return f
}

func contentType(format string) string {
	if format == pipeline.FormatDOT {
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "application/json"
}

func requestWithBody(r *http.Request, body []byte) *http.Request {
	r2 := r.Clone(r.Context())
	r2.Body = io.NopCloser(bytes.NewReader(body))
	return r2
}

// =============================================================================
// Sessions
// =============================================================================

// sessionView is the API representation of a session.
type sessionView struct {
	ID          string   `json:"id"`
	Dataset     string   `json:"dataset"`
	Expanded    []string `json:"expanded"`
	AllExpanded bool     `json:"all_expanded"`
	CreatedAt   string   `json:"created_at"`
	ExpiresAt   string   `json:"expires_at"`
}

func viewOf(sess *session.Session) sessionView {
	return sessionView{
		ID:          sess.ID,
		Dataset:     sess.Dataset,
		Expanded:    sess.Expanded().Paths(),
		AllExpanded: sess.State.AllExpanded,
		CreatedAt:   sess.CreatedAt.Format(time.RFC3339),
		ExpiresAt:   sess.ExpiresAt.Format(time.RFC3339),
	}
}

type createSessionRequest struct {
	Dataset string `json:"dataset"`
	Mode    string `json:"mode,omitempty"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if req.Mode == "" {
		req.Mode = pipeline.ModeInitial
	}
	if err := pipeline.ValidateMode(req.Mode); err != nil || req.Mode == pipeline.ModeExplicit {
		writeError(w, s.logger, errors.New(errors.ErrCodeInvalidInput, "invalid mode: %q (must be one of: initial, all, none)", req.Mode))
		return
	}
	root, _, err := s.loadDataset(r.Context(), req.Dataset)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	opts := pipeline.Options{Mode: req.Mode}
	sess := session.New(req.Dataset, opts.ResolveExpansion(root), s.cfg.Sessions.TTL)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.logger.Debug("session created", "id", sess.ID, "dataset", sess.Dataset)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Load(r.Context(), s.sessions, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type toggleRequest struct {
	Path string `json:"path"`
}

// handleToggle expands or collapses one category. Only nodes with
// children can be toggled.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := errors.ValidateBranchPath(req.Path); err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.updateSession(w, r, func(sess *session.Session, root *tree.Node) error {
		n := root.Find(req.Path)
		if n == nil {
			return errors.New(errors.ErrCodeNotFound, "path %q not in dataset %q", req.Path, sess.Dataset)
		}
		if tree.PathDepth(req.Path) == 0 || !n.HasChildren() {
			return errors.New(errors.ErrCodeInvalidPath, "path %q cannot be expanded", req.Path)
		}
		sess.Toggle(req.Path)
		return nil
	})
}

func (s *Server) handleExpandAll(w http.ResponseWriter, r *http.Request) {
	s.updateSession(w, r, func(sess *session.Session, root *tree.Node) error {
		sess.ExpandAll(root)
		return nil
	})
}

// updateSession loads the session and its dataset, applies fn and saves
// the renewed session. Updates to one session are serialized.
func (s *Server) updateSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session, *tree.Node) error) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	defer s.lockSession(id)()

	sess, err := session.Load(ctx, s.sessions, id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	root, _, err := s.loadDataset(ctx, sess.Dataset)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := fn(sess, root); err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess.Touch(s.cfg.Sessions.TTL)
	if err := s.sessions.Set(ctx, sess); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleSessionLayout(w http.ResponseWriter, r *http.Request) {
	sess, err := session.Load(r.Context(), s.sessions, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	src, err := s.datasetSource(sess.Dataset)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	format := formatOrJSON(r.URL.Query().Get("format"))
	if err := pipeline.ValidateFormat(format); err != nil {
		writeError(w, s.logger, err)
		return
	}

	cfg := s.cfg.Layout
	opts := pipeline.Options{
		Source:   src,
		Mode:     pipeline.ModeExplicit,
		Expanded: sess.Expanded().Paths(),
		Config:   &cfg,
		Formats:  []string{format},
	}
	key, err := cache.HashJSON(struct {
		Dataset  string
		Expanded []string
	}{sess.Dataset, opts.Expanded})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	s.serveLayout(w, r, key, opts)
}

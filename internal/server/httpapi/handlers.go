package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/dmitrijs2005/deepnote/internal/rpc"
	"github.com/dmitrijs2005/deepnote/internal/server/assets"
	"github.com/dmitrijs2005/deepnote/internal/server/auth"
	"github.com/dmitrijs2005/deepnote/internal/server/models"
	"github.com/gorilla/mux"
)

const maxSyncBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := errorFrom(err)
	if !ok {
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	WriteError(w, e)
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	archived := false
	if v := r.URL.Query().Get("archived"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, HTTPError{Title: "Bad Request", Message: "archived must be a boolean", Status: http.StatusBadRequest})
			return
		}
		archived = b
	}

	list, err := s.notes.List(r.Context(), userID, archived)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]rpc.Note, 0, len(list))
	for _, n := range list {
		out = append(out, n.RPC())
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, out)
}

// postSync applies one queued offline write.
func (s *Server) postSync(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSyncBody+1))
	if err != nil {
		WriteError(w, HTTPError{Title: "Bad Request", Message: "unreadable body", Status: http.StatusBadRequest})
		return
	}
	if len(body) > maxSyncBody {
		WriteError(w, HTTPError{Title: "Payload Too Large", Message: "sync payload too large", Status: http.StatusRequestEntityTooLarge})
		return
	}

	var p models.SyncTaskPayload
	if err := json.Unmarshal(body, &p); err != nil {
		WriteError(w, HTTPError{Title: "Bad Request", Message: "malformed JSON: " + err.Error(), Status: http.StatusBadRequest})
		return
	}

	n, err := s.notes.ApplySync(r.Context(), userID, p)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	res := rpc.SyncResult{Op: p.Op}
	if n != nil {
		rn := n.RPC()
		res.Note = &rn
	}
	s.logger.Debug(r.Context(), "sync applied", "user_id", userID, "op", p.Op, "note_id", p.NoteID)
	writeJSON(w, http.StatusOK, res)
}

// serveAsset serves one file of the embedded app shell.
func (s *Server) serveAsset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeAsset(w, r, name)
	}
}

func (s *Server) serveIcon(w http.ResponseWriter, r *http.Request) {
	s.writeAsset(w, r, path.Join("icons", path.Base(mux.Vars(r)["name"])))
}

func (s *Server) writeAsset(w http.ResponseWriter, r *http.Request, name string) {
	b, err := readAsset(name)
	if err != nil {
		WriteError(w, HTTPError{Title: "Not Found", Message: "the requested resource was unable to be found", Status: http.StatusNotFound})
		return
	}

	w.Header().Set("Content-Type", assets.ContentType(path.Ext(name)))
	w.Header().Set("Cache-Control", "no-cache")
	if name == "sw.js" {
		w.Header().Set("Service-Worker-Allowed", "/")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(b)
	}
}

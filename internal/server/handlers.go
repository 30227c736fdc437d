package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MikeyVK/stencil/internal/artifact"
	"github.com/MikeyVK/stencil/internal/introspect"
	"github.com/MikeyVK/stencil/internal/render"
	"github.com/MikeyVK/stencil/internal/scaffold"
	"github.com/MikeyVK/stencil/internal/version"
)

type scaffoldRequest struct {
	ArtifactType string         `json:"artifact_type"`
	OutputPath   string         `json:"output_path,omitempty"`
	Fields       map[string]any `json:"fields"`
}

func (s *Server) handleScaffold(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req scaffoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ArtifactType == "" {
		http.Error(w, "artifact_type is required", http.StatusBadRequest)
		return
	}

	path, err := s.mgr.ScaffoldArtifact(r.Context(), req.ArtifactType, req.OutputPath, req.Fields)
	if err != nil {
		writeJSONStatus(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]string{"status": "created", "path": path})
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	category := artifact.Category(r.URL.Query().Get("category"))
	ids := s.types.ListTypeIDs(category)

	out := make([]artifact.Definition, 0, len(ids))
	for _, id := range ids {
		def, err := s.types.GetArtifact(id)
		if err != nil {
			continue
		}
		out = append(out, def)
	}
	writeJSON(w, map[string]any{"artifact_types": out})
}

// handleTypeDetail serves /api/types/{id} and /api/types/{id}/schema.
func (s *Server) handleTypeDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/types/")
	typeID, tail, _ := strings.Cut(rest, "/")

	def, err := s.types.GetArtifact(typeID)
	if err != nil {
		writeJSONStatus(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	switch tail {
	case "":
		writeJSON(w, def)
	case "schema":
		s.writeSchema(w, r, def)
	default:
		http.NotFound(w, r)
	}
}

// writeSchema introspects the template chain the type would resolve to and
// returns the field schema. A template override can be supplied via the
// ?template= query parameter; ?service_type= selects a subtype variant.
func (s *Server) writeSchema(w http.ResponseWriter, r *http.Request, def artifact.Definition) {
	ctx := map[string]any{}
	if t := r.URL.Query().Get("template"); t != "" {
		ctx["template"] = t
	}
	if st := r.URL.Query().Get("service_type"); st != "" {
		ctx["service_type"] = st
	}

	templateID, err := scaffold.ResolveTemplate(def, ctx)
	if err != nil {
		writeJSONStatus(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	schema, err := introspect.IntrospectChain(s.templates, templateID)
	if err != nil {
		writeJSONStatus(w, errorStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{
		"artifact_type": def.TypeID,
		"template_id":   templateID,
		"required":      schema.Required,
		"optional":      schema.Optional,
	})
}

func (s *Server) handleRegistryCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.versions == nil {
		http.Error(w, "version registry disabled", http.StatusNotFound)
		return
	}

	current, err := s.versions.CurrentVersions()
	if err != nil {
		writeJSONStatus(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"current_versions": current})
}

func (s *Server) handleRegistryHash(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.versions == nil {
		http.Error(w, "version registry disabled", http.StatusNotFound)
		return
	}

	fingerprint := strings.TrimPrefix(r.URL.Path, "/api/registry/hashes/")
	if fingerprint == "" {
		http.Error(w, "fingerprint required", http.StatusBadRequest)
		return
	}

	rec, err := s.versions.LookupHash(fingerprint)
	if err != nil {
		writeJSONStatus(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rec == nil {
		writeJSONStatus(w, http.StatusNotFound, map[string]string{"error": "unknown fingerprint " + fingerprint})
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}

	records, err := s.history.ListScaffolds(100)
	if err != nil {
		writeJSONStatus(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, map[string]any{"scaffolds": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "ok",
		"template_root":  s.templates.Root(),
		"artifact_types": len(s.types.ListTypeIDs("")),
	})
}

// errorStatus maps the engine's error taxonomy onto HTTP statuses: caller
// mistakes are 4xx, collisions 409, everything else 500.
func errorStatus(err error) int {
	var verr *scaffold.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	var xerr *render.ExecError
	if errors.As(err, &xerr) {
		if xerr.Kind == render.KindNotFound {
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	}
	var cerr *artifact.ConfigError
	if errors.As(err, &cerr) {
		return http.StatusBadRequest
	}
	var collision *version.CollisionError
	if errors.As(err, &collision) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

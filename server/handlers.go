package server

import (
	"errors"
	"net/http"

	"github.com/ZaguanLabs/duotext"
	"github.com/gorilla/mux"
)

type textRequest struct {
	Text string `json:"text"`
}

type textResponse struct {
	Text string `json:"text"`
}

type composeRequest struct {
	Original    string `json:"original"`
	Translation string `json:"translation"`
	Placement   string `json:"placement,omitempty"`
}

type detectRequest struct {
	Text     string `json:"text"`
	Original string `json:"original,omitempty"`
}

type detectResponse struct {
	HasTranslation bool           `json:"has_translation"`
	Bilingual      bool           `json:"bilingual"`
	Layout         duotext.Layout `json:"layout"`
	Original       string         `json:"original"`
	Translation    string         `json:"translation"`
}

type toggleRequest struct {
	Text      string `json:"text"`
	Original  string `json:"original,omitempty"`
	Placement string `json:"placement,omitempty"`
}

type toggleResponse struct {
	Text     string `json:"text"`
	Original string `json:"original"`
}

type translateResponse struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
}

type tableRequest struct {
	Keys []string `json:"keys,omitempty"`
}

func (s *Server) placementFor(w http.ResponseWriter, name string) (duotext.Placement, bool) {
	if name == "" {
		return s.placement, true
	}
	p, err := duotext.ParsePlacement(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return p, true
}

func (s *Server) handleCompose(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if !decode(w, r, &req) {
		return
	}
	placement, ok := s.placementFor(w, req.Placement)
	if !ok {
		return
	}
	// Accept annotated input without stacking annotations.
	original := duotext.ExtractOriginal(req.Original)
	writeJSON(w, http.StatusOK, textResponse{duotext.Compose(original, req.Translation, placement)})
}

func (s *Server) handleOriginal(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{duotext.ExtractOriginal(req.Text)})
}

func (s *Server) handleTranslation(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, textResponse{duotext.ExtractTranslationOnly(req.Text)})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decode(w, r, &req) {
		return
	}
	resp := detectResponse{
		HasTranslation: duotext.HasTranslation(req.Text),
		Bilingual:      duotext.IsBilingual(req.Text),
		Layout:         duotext.ClassifyLayout(req.Text, req.Original != ""),
		Original:       duotext.ExtractOriginal(req.Text),
	}
	if resp.HasTranslation {
		resp.Translation = duotext.ExtractTranslationOnly(req.Text)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if !decode(w, r, &req) {
		return
	}
	placement, ok := s.placementFor(w, req.Placement)
	if !ok {
		return
	}
	text, original := duotext.ToggleMode(req.Text, req.Original, placement)
	writeJSON(w, http.StatusOK, toggleResponse{Text: text, Original: original})
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.annotator == nil {
		writeError(w, http.StatusServiceUnavailable, duotext.ErrNoProvider)
		return
	}
	var req textRequest
	if !decode(w, r, &req) {
		return
	}

	original := duotext.ExtractOriginal(req.Text)
	tr, err := s.annotator.TranslateText(r.Context(), original)
	if err != nil {
		s.logger.WithError(err).Warn("translate request failed")
		writeError(w, statusFor(err), err)
		return
	}
	if tr == "" || s.annotator.IsSourceLang() {
		writeJSON(w, http.StatusOK, translateResponse{Text: original})
		return
	}
	writeJSON(w, http.StatusOK, translateResponse{
		Text:        duotext.Compose(original, tr, s.annotator.Placement()),
		Translation: tr,
	})
}

func (s *Server) table(w http.ResponseWriter, r *http.Request) (duotext.FieldTable, bool) {
	if s.annotator == nil || s.tables == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("field tables are not configured"))
		return nil, false
	}
	name := mux.Vars(r)["name"]
	t := s.tables(name)
	if t == nil {
		writeError(w, http.StatusNotFound, errors.New("unknown table "+name))
		return nil, false
	}
	return t, true
}

func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	states, err := s.annotator.Inspect(r.Context(), t, r.URL.Query()["key"]...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, states)
}

func (s *Server) handleTableAction(w http.ResponseWriter, r *http.Request) {
	t, ok := s.table(w, r)
	if !ok {
		return
	}
	action, ok := duotext.ParseAction(mux.Vars(r)["action"])
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("unknown action "+mux.Vars(r)["action"]))
		return
	}

	var req tableRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	report, err := s.annotator.Run(r.Context(), t, action, req.Keys...)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": duotext.FullVersion(),
	})
}

func statusFor(err error) int {
	var provErr *duotext.ProviderError
	switch {
	case errors.Is(err, duotext.ErrFieldNotFound):
		return http.StatusNotFound
	case errors.Is(err, duotext.ErrFieldBusy):
		return http.StatusConflict
	case errors.Is(err, duotext.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.As(err, &provErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

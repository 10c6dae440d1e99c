package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/gradecurve/internal/adapters/table"
	"github.com/okian/gradecurve/internal/domain/policy"
	"github.com/okian/gradecurve/internal/domain/scoreset"
)

// scoresRequest is the JSON body of POST /grade and POST /stats. Scores may
// be numbers, numeric strings or null; non-numeric entries go through the
// invalid-row choice like table cells do.
type scoresRequest struct {
	Scores         []json.RawMessage `json:"scores"`
	IDs            []string          `json:"ids,omitempty"`
	Policy         *policy.Spec      `json:"policy,omitempty"`
	OnInvalidScore string            `json:"on_invalid_score,omitempty"`
	Standardize    *bool             `json:"standardize,omitempty"`
	Source         string            `json:"source,omitempty"`
}

// input is a decoded request regardless of its encoding.
type input struct {
	source      string
	rows        []scoreset.Row
	spec        *policy.Spec
	onInvalid   scoreset.InvalidPolicy
	standardize *bool
	format      string
}

// readInput decodes a multipart upload or a JSON body.
func (s *Server) readInput(r *http.Request, w http.ResponseWriter, op string) (*input, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = "application/json"
	}
	var in *input
	if mediaType == "multipart/form-data" {
		in, err = s.readMultipart(r)
	} else {
		in, err = readJSON(r)
	}
	if err != nil {
		return nil, WrapKind(op, ErrBadRequest, err)
	}
	if q := r.URL.Query().Get("format"); q != "" {
		in.format = q
	}
	return in, nil
}

func (s *Server) readMultipart(r *http.Request) (*input, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("form field file: %w", err)
	}
	defer func() { _ = file.Close() }()

	format, err := table.FormatOf(header.Filename)
	if err != nil {
		return nil, err
	}
	rows, err := s.loader.Read(r.Context(), file, format, header.Filename)
	if err != nil {
		return nil, err
	}

	in := &input{source: header.Filename, rows: rows, format: r.FormValue("format")}
	if raw := strings.TrimSpace(r.FormValue("policy")); raw != "" {
		var spec policy.Spec
		if err := json.Unmarshal([]byte(raw), &spec); err != nil {
			return nil, fmt.Errorf("form field policy: %w", err)
		}
		in.spec = &spec
	}
	if err := in.setInvalid(r.FormValue("on_invalid_score")); err != nil {
		return nil, err
	}
	if raw := r.FormValue("standardize"); raw != "" {
		on, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("form field standardize: %w", err)
		}
		in.standardize = &on
	}
	return in, nil
}

func readJSON(r *http.Request) (*input, error) {
	var req scoresRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if len(req.IDs) > 0 && len(req.IDs) != len(req.Scores) {
		return nil, fmt.Errorf("ids has %d entries, scores has %d", len(req.IDs), len(req.Scores))
	}

	rows := make([]scoreset.Row, len(req.Scores))
	for i, m := range req.Scores {
		raw, err := rawScore(m)
		if err != nil {
			return nil, fmt.Errorf("scores[%d]: %w", i, err)
		}
		rows[i] = scoreset.Row{Index: i, Raw: raw}
		if len(req.IDs) > 0 {
			rows[i].ID = req.IDs[i]
		}
	}

	source := req.Source
	if source == "" {
		source = "request"
	}
	in := &input{source: source, rows: rows, spec: req.Policy, standardize: req.Standardize}
	if err := in.setInvalid(req.OnInvalidScore); err != nil {
		return nil, err
	}
	return in, nil
}

func (in *input) setInvalid(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	p, err := scoreset.ParseInvalidPolicy(raw)
	if err != nil {
		return err
	}
	in.onInvalid = p
	return nil
}

// rawScore turns a JSON score into cell text.
func rawScore(m json.RawMessage) (string, error) {
	t := bytes.TrimSpace(m)
	switch {
	case len(t) == 0 || bytes.Equal(t, []byte("null")):
		return "", nil
	case t[0] == '"':
		var s string
		err := json.Unmarshal(t, &s)
		return s, err
	default:
		var n json.Number
		if err := json.Unmarshal(t, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

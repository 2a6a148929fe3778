// Package sim is a file-backed host.DocumentSource. Model documents are JSON
// manifests describing user parameters and CAM setups; Generate marks
// toolpaths on healthy operations and PostProcess writes NC program files to
// disk. The CLI's simulation mode and the pipeline tests both run against it.
package sim

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"campipe/internal/fault"
	"campipe/internal/host"
)

// Host resolves model paths to JSON manifests under a models directory and
// keeps track of documents opened during the session.
type Host struct {
	mu   sync.Mutex
	dir  string
	docs []host.Document
}

var _ host.DocumentSource = (*Host)(nil)

// NewHost returns a Host that resolves manifests relative to dir. An empty
// dir limits resolution to paths given as-is.
func NewHost(dir string) *Host {
	return &Host{dir: dir}
}

// OpenDocuments returns the documents opened so far, oldest first.
func (h *Host) OpenDocuments() []host.Document {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Document, len(h.docs))
	copy(out, h.docs)
	return out
}

// AddOpen registers an already-open document, mirroring a host session that
// had documents open before processing started.
func (h *Host) AddOpen(doc host.Document) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs = append(h.docs, doc)
}

// Open resolves path to a manifest and loads it. A model path like
// models/cabinet_door.f3d resolves to cabinet_door.json next to the path or
// under the models directory; .json paths are used directly.
func (h *Host) Open(path string) (host.Document, error) {
	manifest := h.resolveManifest(path)
	if manifest == "" {
		return nil, fault.New(fault.DocumentNotFound, "file not found: %s", path)
	}

	doc, err := loadDocument(manifest)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.docs = append(h.docs, doc)
	h.mu.Unlock()
	return doc, nil
}

func (h *Host) resolveManifest(path string) string {
	// Order files may carry Windows-style model paths; resolution works on
	// the base name either way.
	p := strings.ReplaceAll(path, "\\", "/")
	if strings.EqualFold(filepath.Ext(p), ".json") {
		for _, candidate := range []string{p, filepath.Join(h.dir, filepath.Base(p))} {
			if fileExists(candidate) {
				return candidate
			}
		}
		return ""
	}

	base := filepath.Base(p)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	candidates := []string{filepath.Join(filepath.Dir(p), name+".json")}
	if h.dir != "" {
		candidates = append(candidates, filepath.Join(h.dir, name+".json"))
	}
	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

type manifest struct {
	Name       string          `json:"name"`
	Parameters []manifestParam `json:"parameters"`
	Setups     []manifestSetup `json:"setups"`
}

type manifestParam struct {
	Name       string  `json:"name"`
	Expression string  `json:"expression"`
	Value      float64 `json:"value"`
	Unit       string  `json:"unit"`
	Comment    string  `json:"comment,omitempty"`
}

type manifestSetup struct {
	Name       string       `json:"name"`
	Operations []manifestOp `json:"operations"`
}

type manifestOp struct {
	Name       string `json:"name"`
	Suppressed bool   `json:"suppressed,omitempty"`
	Toolpath   bool   `json:"toolpath,omitempty"`
	Error      string `json:"error,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

func loadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.DocumentOpenFailed, err, "failed to open document %s", path)
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fault.Wrap(fault.DocumentOpenFailed, err, "invalid model manifest %s", path)
	}

	name := m.Name
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	doc := &Document{DocName: name}
	for _, p := range m.Parameters {
		doc.Params = append(doc.Params, &Parameter{
			ParamName: p.Name,
			Expr:      p.Expression,
			Val:       p.Value,
			UnitName:  p.Unit,
			Note:      p.Comment,
		})
	}
	for _, s := range m.Setups {
		setup := &Setup{SetupName: s.Name}
		for _, op := range s.Operations {
			setup.Ops = append(setup.Ops, &Operation{
				OpName:     op.Name,
				Suppressed: op.Suppressed,
				Toolpath:   op.Toolpath,
				ErrText:    op.Error,
				WarnText:   op.Warning,
			})
		}
		doc.SetupList = append(doc.SetupList, setup)
	}
	return doc, nil
}

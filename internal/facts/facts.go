// Package facts loads extracted-diagram fact files and applies them to a
// registry. A fact file is the JSON form of what the extraction stage feeds
// the store: targets, connections and their attributes, plus optional
// page-footer fallback context.
package facts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/diagraph/diagraph/internal/model"
	"github.com/diagraph/diagraph/internal/registry"
)

// File is one extracted document batch.
type File struct {
	Footer      []string         `json:"footer,omitempty"`
	Targets     []TargetFact     `json:"targets,omitempty"`
	Connections []ConnectionFact `json:"connections,omitempty"`
}

// TargetFact declares one device/cable/strip by tag.
type TargetFact struct {
	Tag        string          `json:"tag"`
	Category   string          `json:"category"`
	Attributes []AttributeFact `json:"attributes,omitempty"`
}

// ConnectionFact declares one wiring relation. When From/To carry connector
// suffixes the fact produces a connection with a wire link; otherwise a bare
// connection.
type ConnectionFact struct {
	Cable      string          `json:"cable,omitempty"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Attributes []AttributeFact `json:"attributes,omitempty"`
}

// AttributeFact is the JSON form of one attribute payload.
type AttributeFact struct {
	Kind      string            `json:"kind"`
	Name      string            `json:"name"`
	Value     string            `json:"value,omitempty"`
	Tracks    []string          `json:"tracks,omitempty"`
	Addresses map[string]string `json:"addresses,omitempty"`
	Page      *model.PageRef    `json:"page,omitempty"`
}

// Load reads and decodes one fact file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("facts: reading %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("facts: decoding %s: %w", path, err)
	}
	return &f, nil
}

// Result summarizes one Apply run.
type Result struct {
	Applied int
	Skipped int
}

// Apply feeds every fact into the registry. Facts that do not parse are
// logged and skipped; attribute payloads of the wrong shape are hard errors.
func Apply(reg *registry.Registry, f *File, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result
	for _, tf := range f.Targets {
		category, ok := model.ParseCategory(tf.Category)
		if !ok {
			logger.Warn("unknown target category, using other", "tag", tf.Tag, "category", tf.Category)
		}
		attrs, err := buildAttrs(tf.Attributes)
		if err != nil {
			return res, err
		}
		if _, ok := reg.CreateTarget(tf.Tag, category, attrs, f.Footer); !ok {
			logger.Warn("skipping unparseable target", "tag", tf.Tag)
			res.Skipped++
			continue
		}
		res.Applied++
	}
	for _, cf := range f.Connections {
		attrs, err := buildAttrs(cf.Attributes)
		if err != nil {
			return res, err
		}
		cfg := reg.Config()
		_, _, fromHasPin := cfg.SplitPinSuffix(cf.From)
		_, _, toHasPin := cfg.SplitPinSuffix(cf.To)
		var ok bool
		if fromHasPin && toHasPin {
			_, _, ok = reg.CreateConnectionWithLink(cf.Cable, cf.From, cf.To, attrs, f.Footer)
		} else {
			_, ok = reg.CreateConnection(cf.Cable, cf.From, cf.To, attrs, f.Footer)
		}
		if !ok {
			logger.Warn("skipping unparseable connection", "from", cf.From, "to", cf.To)
			res.Skipped++
			continue
		}
		res.Applied++
	}
	return res, nil
}

func buildAttrs(afs []AttributeFact) ([]*model.Attribute, error) {
	var out []*model.Attribute
	for _, af := range afs {
		kind := model.AttrKind(af.Kind)
		var payload any
		switch kind {
		case model.AttrSimple:
			payload = af.Value
		case model.AttrTracks:
			payload = af.Tracks
		case model.AttrAddressMap:
			payload = af.Addresses
		case model.AttrPageRef:
			payload = af.Page
		default:
			return nil, fmt.Errorf("facts: attribute %q: %w (%q)", af.Name, model.ErrPayloadType, af.Kind)
		}
		a, err := model.NewAttribute(kind, af.Name, payload)
		if err != nil {
			return nil, fmt.Errorf("facts: attribute %q: %w", af.Name, err)
		}
		out = append(out, a)
	}
	return out, nil
}

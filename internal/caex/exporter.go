package caex

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/diagraph/diagraph/internal/diag"
	"github.com/diagraph/diagraph/internal/hierarchy"
	"github.com/diagraph/diagraph/internal/metrics"
	"github.com/diagraph/diagraph/internal/model"
	"github.com/diagraph/diagraph/internal/registry"
	"github.com/diagraph/diagraph/internal/tagparse"
)

// ErrNotBuilt is returned by Encode when no build step has produced a tree.
var ErrNotBuilt = errors.New("exporter: encode called before build")

// Exporter builds perspective trees over a completed registry and serializes
// them as one document. Build must run before Encode; given well-formed
// trees, Encode is total.
type Exporter struct {
	docName string
	log     *slog.Logger
	diags   *diag.Collector
	now     func() time.Time

	cfg   tagparse.Config
	trees []*hierarchy.Tree
	built bool
}

// NewExporter creates an exporter for the named document.
func NewExporter(docName string, logger *slog.Logger, diags *diag.Collector) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	if diags == nil {
		diags = diag.NewCollector(logger)
	}
	return &Exporter{
		docName: docName,
		log:     logger,
		diags:   diags,
		now:     time.Now,
	}
}

// Diagnostics returns the soft diagnostics accumulated during build/encode.
func (e *Exporter) Diagnostics() []diag.Message {
	return e.diags.Messages()
}

// Build constructs one tree per perspective over the registry and runs the
// post-pass that reports every target never promoted into the primary tree.
func (e *Exporter) Build(reg *registry.Registry, perspectives []hierarchy.Perspective) {
	b := hierarchy.NewBuilder(reg, e.log, e.diags)
	e.trees = b.BuildAll(perspectives)
	e.cfg = reg.Config()
	e.built = true

	var primary *hierarchy.Tree
	for _, t := range e.trees {
		if t.Perspective.Primary {
			primary = t
			break
		}
	}
	if primary == nil {
		return
	}
	for _, target := range reg.TargetsOrdered() {
		if !primary.IsPromoted(target.ID) {
			e.diags.Warnf("target %q was never promoted into perspective %q",
				target.Tag.Text, primary.Perspective.Name)
			metrics.Inc(metrics.UnpromotedTargets)
		}
	}
}

// Trees returns the built perspective trees.
func (e *Exporter) Trees() []*hierarchy.Tree {
	return e.trees
}

// Encode serializes the built forest to w.
func (e *Exporter) Encode(w io.Writer) error {
	if !e.built {
		return ErrNotBuilt
	}
	doc := File{
		FileName:      e.docName,
		SchemaVersion: SchemaVersion,
		XMLNS:         Namespace,
		Info: AdditionalInformation{
			Writer: WriterHeader{
				WriterName:          writerName,
				LastWritingDateTime: e.now().Format(timeLayout),
			},
		},
	}
	for _, tree := range e.trees {
		doc.Hierarchies = append(doc.Hierarchies, e.hierarchyOf(tree))
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (e *Exporter) hierarchyOf(tree *hierarchy.Tree) InstanceHierarchy {
	ih := InstanceHierarchy{
		Name:    tree.Perspective.Name,
		Version: hierarchyVersion,
	}
	for _, root := range tree.Roots {
		ih.Elements = append(ih.Elements, e.elementOf(root))
	}
	for _, cl := range tree.CrossLinks {
		ih.Links = append(ih.Links, InternalLink{
			Name:            cl.Name,
			RefPartnerSideA: cl.SideA.ID.String(),
			RefPartnerSideB: cl.SideB.ID.String(),
		})
	}
	return ih
}

func (e *Exporter) elementOf(n *hierarchy.Node) Element {
	el := Element{
		Name: n.Label(),
		ID:   n.ID.String(),
	}
	if n.Target != nil {
		el.RefDiamondID = n.DiamondID.String()
		el.Attributes = e.targetAttrs(n.Target)
		el.Interfaces = e.interfacesOf(n)
	}
	for _, c := range n.Children {
		el.Children = append(el.Children, e.elementOf(c))
	}
	return el
}

// targetAttrs synthesizes one attribute per naming category summarizing the
// target's path within that category, followed by the target's own
// attributes.
func (e *Exporter) targetAttrs(t *model.Target) []ElemAttr {
	var out []ElemAttr
	for _, category := range e.cfg.Categories() {
		path := t.Tag.Path(e.cfg.SeparatorsOf(category))
		if path == "" {
			continue
		}
		out = append(out, ElemAttr{Name: category, DataType: "xs:string", Value: path})
	}
	for _, a := range t.Attrs.Ordered() {
		out = append(out, attrElem(a))
	}
	return out
}

// attrElem serializes one attribute payload. The switch is exhaustive over
// the closed set of attribute kinds.
func attrElem(a *model.Attribute) ElemAttr {
	el := ElemAttr{Name: a.Name}
	switch a.Kind {
	case model.AttrSimple:
		el.DataType = "xs:string"
		el.Value = a.Value
	case model.AttrTracks:
		for i, track := range a.Tracks {
			el.Nested = append(el.Nested, ElemAttr{
				Name:     "Track" + strconv.Itoa(i+1),
				DataType: "xs:string",
				Value:    track,
			})
		}
	case model.AttrAddressMap:
		for _, k := range sortedKeys(a.Addresses) {
			el.Nested = append(el.Nested, ElemAttr{
				Name:     k,
				DataType: "xs:string",
				Value:    a.Addresses[k],
			})
		}
	case model.AttrPageRef:
		el.Nested = append(el.Nested,
			ElemAttr{Name: "Page", DataType: "xs:string", Value: a.Page.Page},
			ElemAttr{Name: "X", DataType: "xs:double", Value: strconv.FormatFloat(a.Page.X, 'g', -1, 64)},
			ElemAttr{Name: "Y", DataType: "xs:double", Value: strconv.FormatFloat(a.Page.Y, 'g', -1, 64)},
		)
	}
	return el
}

// interfacesOf exposes the promoted node's connector points: one
// ConnectionPoint for every device, the cable sides when connections route
// through it, and one interface per attached pin chain.
func (e *Exporter) interfacesOf(n *hierarchy.Node) []ExternalInterface {
	cp := hierarchy.Point(n, hierarchy.RoleConnectionPoint)
	out := []ExternalInterface{{Name: cp.Role, ID: cp.ID.String()}}
	if len(n.Routed) > 0 {
		a := hierarchy.Point(n, hierarchy.RoleSideA)
		b := hierarchy.Point(n, hierarchy.RoleSideB)
		out = append(out,
			ExternalInterface{Name: a.Role, ID: a.ID.String()},
			ExternalInterface{Name: b.Role, ID: b.ID.String()},
		)
	}
	for _, p := range n.Pins {
		out = append(out, ExternalInterface{Name: p.Name, ID: p.ID.String()})
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

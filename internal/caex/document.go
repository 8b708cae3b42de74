// Package caex serializes built perspective trees into one CAEX-style
// (AutomationML container format) XML document.
package caex

import "encoding/xml"

// Container format constants.
const (
	SchemaVersion    = "2.15"
	Namespace        = "http://www.dke.de/CAEX"
	hierarchyVersion = "1.0"
	writerName       = "diagraph"
	// timeLayout is the fixed ISO-8601-with-offset generation timestamp format.
	timeLayout = "2006-01-02T15:04:05-07:00"
)

// File is the top-level document container.
type File struct {
	XMLName       xml.Name              `xml:"CAEXFile"`
	FileName      string                `xml:"FileName,attr"`
	SchemaVersion string                `xml:"SchemaVersion,attr"`
	XMLNS         string                `xml:"xmlns,attr"`
	Info          AdditionalInformation `xml:"AdditionalInformation"`
	Hierarchies   []InstanceHierarchy   `xml:"InstanceHierarchy"`
}

// AdditionalInformation carries the document metadata block.
type AdditionalInformation struct {
	Writer WriterHeader `xml:"WriterHeader"`
}

// WriterHeader records who wrote the document and when.
type WriterHeader struct {
	WriterName          string `xml:"WriterName"`
	LastWritingDateTime string `xml:"LastWritingDateTime"`
}

// InstanceHierarchy is one perspective sub-tree. Cross-reference links are
// appended at the hierarchy's top level; only the primary perspective
// carries them.
type InstanceHierarchy struct {
	Name     string         `xml:"Name,attr"`
	Version  string         `xml:"Version"`
	Elements []Element      `xml:"InternalElement"`
	Links    []InternalLink `xml:"InternalLink"`
}

// Element is one nested tree node.
type Element struct {
	Name         string              `xml:"Name,attr"`
	ID           string              `xml:"ID,attr"`
	RefDiamondID string              `xml:"RefDiamondID,attr,omitempty"`
	Attributes   []ElemAttr          `xml:"Attribute"`
	Interfaces   []ExternalInterface `xml:"ExternalInterface"`
	Children     []Element           `xml:"InternalElement"`
}

// ElemAttr is one name/value attribute child, possibly with nested entries
// for list- and map-shaped payloads.
type ElemAttr struct {
	Name     string     `xml:"Name,attr"`
	DataType string     `xml:"AttributeDataType,attr,omitempty"`
	Value    string     `xml:"Value,omitempty"`
	Nested   []ElemAttr `xml:"Attribute"`
}

// ExternalInterface is a connector point exposed by an element.
type ExternalInterface struct {
	Name string `xml:"Name,attr"`
	ID   string `xml:"ID,attr"`
}

// InternalLink references two connector-point identities.
type InternalLink struct {
	Name            string `xml:"Name,attr"`
	RefPartnerSideA string `xml:"RefPartnerSideA,attr"`
	RefPartnerSideB string `xml:"RefPartnerSideB,attr"`
}

// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package xmlconv

// NodeType identifies the kind of an XML node.
type NodeType byte

const (
	ElementNode NodeType = iota + 1
	AttributeNode
	TextNode
	CDataNode
	CommentNode
	ProcInstNode
	DeclarationNode
	DocTypeNode
	WhitespaceNode
	SignificantWhitespaceNode
	DocumentNode
)

var nodeTypeStr = [...]string{
	ElementNode:               "element",
	AttributeNode:             "attribute",
	TextNode:                  "text",
	CDataNode:                 "CDATA section",
	CommentNode:               "comment",
	ProcInstNode:              "processing instruction",
	DeclarationNode:           "XML declaration",
	DocTypeNode:               "document type",
	WhitespaceNode:            "whitespace",
	SignificantWhitespaceNode: "significant whitespace",
	DocumentNode:              "document",
}

func (t NodeType) String() string {
	if t == 0 || int(t) >= len(nodeTypeStr) {
		return "invalid"
	}
	return nodeTypeStr[t]
}

// Node is the capability interface the converter requires of an XML node.
// The converter never depends on a concrete node type.
//
// ChildNodes and Attributes may be computed lazily, and the same slice may
// be returned by successive calls until the node is modified. Callers must
// not modify the slices.
type Node interface {
	NodeType() NodeType

	// LocalName reports the local part of the node name. For a processing
	// instruction it is the target, for a declaration "xml", and for a
	// document type "DOCTYPE". Other unnamed nodes report "".
	LocalName() string

	// Prefix reports the namespace prefix of the node name, or "".
	Prefix() string

	// NamespaceURI reports the namespace of the node name, or "".
	NamespaceURI() string

	// Value reports the text of a text-like node, the value of an attribute,
	// or the instruction of a processing instruction. It is "" for
	// elements and documents.
	Value() string

	// SetValue replaces the value of the node. It reports an error for node
	// types that have no value.
	SetValue(string) error

	ChildNodes() []Node
	Attributes() []Node

	// ParentNode returns the node that contains this one, or nil. For an
	// attribute, this is the element that owns it.
	ParentNode() Node

	// AppendChild adds child as the last child of the node, and returns the
	// child as added.
	AppendChild(child Node) (Node, error)
}

// Element is the capability interface of an element node.
type Element interface {
	Node

	// SetAttributeNode adds an attribute to the element, replacing any
	// attribute with the same local name and namespace.
	SetAttributeNode(attr Node) error

	// GetPrefixOfNamespace returns the nearest non-empty prefix bound to
	// uri in the scope of the element, or "" if there is none.
	GetPrefixOfNamespace(uri string) string

	// IsEmpty reports whether the element has no content at all, as
	// distinct from an element whose content is empty text.
	IsEmpty() bool
}

// Declaration is the capability interface of an XML declaration.
type Declaration interface {
	Node
	Version() string
	Encoding() string
	Standalone() string
}

// DocumentType is the capability interface of a document type declaration.
type DocumentType interface {
	Node
	Name() string
	Public() string
	System() string
	InternalSubset() string
}

// Document is a document node that also serves as the factory for new
// nodes. Nodes created by a Document are detached until they are added to a
// parent with AppendChild or SetAttributeNode.
type Document interface {
	Node

	// CreateElement creates an element with the given qualified name
	// ("prefix:local" or "local") in the given namespace.
	CreateElement(qualifiedName, namespaceURI string) Element

	// CreateAttribute creates an attribute with the given qualified name in
	// the given namespace. An attribute named "xmlns" or with the prefix
	// "xmlns" is always in the XMLNS namespace.
	CreateAttribute(qualifiedName, namespaceURI, value string) Node

	CreateTextNode(text string) Node
	CreateCDataSection(data string) Node
	CreateComment(text string) Node
	CreateWhitespace(text string) Node
	CreateSignificantWhitespace(text string) Node
	CreateProcessingInstruction(target, data string) Node
	CreateDeclaration(version, encoding, standalone string) Node
	CreateDocumentType(name, publicID, systemID, internalSubset string) Node

	// DocumentElement returns the root element of the document, or nil.
	DocumentElement() Element
}

package soap

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/tjfontaine/polyglot-integration-gateway/internal/core/domain"
)

// personPrefix is the prefix tried first for every lookup.
const personPrefix = "per:"

// Employee tags, in output order.
const (
	TagEmployeeID      = "EmployeeId"
	TagFullName        = "FullName"
	TagDepartment      = "Department"
	TagPosition        = "Position"
	TagEmail           = "Email"
	TagSalary          = "Salary"
	TagHireDate        = "HireDate"
	TagOffice          = "Office"
	TagPhone           = "Phone"
	TagExtension       = "Extension"
	TagIsActive        = "IsActive"
	TagResponseCode    = "ResponseCode"
	TagResponseMessage = "ResponseMessage"
)

// FallbackPrefix starts the error message of every fallback record.
const FallbackPrefix = "Failed to parse SOAP response: "

// Codec decodes SOAP employee bodies for the pipeline registry.
type Codec struct{}

// New creates a SOAP codec.
func New() *Codec {
	return &Codec{}
}

// Name returns the codec name.
func (c *Codec) Name() string {
	return "soap"
}

// Decode never fails: unparsable bodies degrade to a fallback record.
func (c *Codec) Decode(body []byte) (any, error) {
	return Extract(body), nil
}

// Extract parses body and maps the employee tags onto an EmployeeRecord.
// A body that is not well-formed XML yields a fallback carrying the raw text.
func Extract(body []byte) domain.SOAPExtraction {
	doc, err := parseDocument(body)
	if err != nil {
		return domain.Fallback(FallbackPrefix+err.Error(), string(body))
	}

	return domain.Extracted(domain.EmployeeRecord{
		EmployeeID:      doc.textContent(TagEmployeeID),
		FullName:        doc.textContent(TagFullName),
		Department:      doc.textContent(TagDepartment),
		Position:        doc.textContent(TagPosition),
		Email:           doc.textContent(TagEmail),
		Salary:          doc.textContent(TagSalary),
		HireDate:        doc.textContent(TagHireDate),
		Office:          doc.textContent(TagOffice),
		Phone:           doc.textContent(TagPhone),
		Extension:       doc.textContent(TagExtension),
		IsActive:        doc.textContent(TagIsActive),
		DataSource:      domain.SOAPDataSource,
		ResponseCode:    doc.textContent(TagResponseCode),
		ResponseMessage: doc.textContent(TagResponseMessage),
	})
}

// element is one parsed element, kept in document order.
type element struct {
	qname string
	text  strings.Builder
}

type document struct {
	elements []*element
}

// textContent returns the text of the first per:<tag> element, else of the
// first element named exactly tag, else nil.
func (d *document) textContent(tag string) *string {
	if el := d.first(personPrefix + tag); el != nil {
		s := el.text.String()
		return &s
	}
	if el := d.first(tag); el != nil {
		s := el.text.String()
		return &s
	}
	return nil
}

func (d *document) first(qname string) *element {
	for _, el := range d.elements {
		if el.qname == qname {
			return el
		}
	}
	return nil
}

// frame is an open element with the prefixes it declares.
type frame struct {
	el       *element
	declared map[string]struct{}
}

// parseDocument checks well-formedness the way a namespace-aware parser does:
// matched tags, bound prefixes and exactly one root element.
func parseDocument(body []byte) (*document, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	doc := &document{}
	var stack []frame
	roots := 0

	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				roots++
				if roots > 1 {
					return nil, fmt.Errorf("line %d: markup after the root element is not allowed", line(dec))
				}
			}

			declared := declaredPrefixes(t.Attr)
			stack = append(stack, frame{declared: declared})
			if err := checkBound(stack, t.Name, "element", qualified(t.Name)); err != nil {
				return nil, err
			}
			for _, attr := range t.Attr {
				if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
					continue
				}
				if err := checkBound(stack, attr.Name, "attribute", qualified(attr.Name)); err != nil {
					return nil, err
				}
			}

			el := &element{qname: qualified(t.Name)}
			stack[len(stack)-1].el = el
			doc.elements = append(doc.elements, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("line %d: unexpected end element </%s>", line(dec), qualified(t.Name))
			}
			top := stack[len(stack)-1]
			if name := qualified(t.Name); name != top.el.qname {
				return nil, fmt.Errorf("line %d: element <%s> closed by </%s>", line(dec), top.el.qname, name)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					return nil, fmt.Errorf("line %d: content is not allowed outside the root element", line(dec))
				}
				continue
			}
			for _, f := range stack {
				f.el.text.Write(t)
			}
		}
	}

	if len(stack) > 0 {
		return nil, fmt.Errorf("unexpected EOF: element <%s> is not closed", stack[len(stack)-1].el.qname)
	}
	if roots == 0 {
		return nil, errors.New("premature end of file: no root element")
	}
	return doc, nil
}

func declaredPrefixes(attrs []xml.Attr) map[string]struct{} {
	var declared map[string]struct{}
	for _, attr := range attrs {
		if attr.Name.Space != "xmlns" {
			continue
		}
		if declared == nil {
			declared = make(map[string]struct{})
		}
		declared[attr.Name.Local] = struct{}{}
	}
	return declared
}

func checkBound(stack []frame, name xml.Name, kind, qname string) error {
	prefix := name.Space
	if prefix == "" || prefix == "xml" {
		return nil
	}
	if prefix == "xmlns" {
		return fmt.Errorf("the prefix %q is reserved and cannot be used on %s %q", prefix, kind, qname)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if _, ok := stack[i].declared[prefix]; ok {
			return nil
		}
	}
	return fmt.Errorf("the prefix %q for %s %q is not bound", prefix, kind, qname)
}

func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

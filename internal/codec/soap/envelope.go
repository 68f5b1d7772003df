// Package soap renders the employee SOAP request and extracts employee data
// from the SOAP response.
package soap

import (
	"encoding/xml"
	"strings"
)

// Namespaces used by the person service.
const (
	EnvelopeNamespace = "http://www.w3.org/2003/05/soap-envelope"
	PersonNamespace   = "http://example.com/person"
)

const envelopeHead = `<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope
    xmlns:soap="` + EnvelopeNamespace + `"
    xmlns:per="` + PersonNamespace + `">
    <soap:Header/>
    <soap:Body>
        <per:GetEmployeeRequest>
            <per:employeeId>`

const envelopeTail = `</per:employeeId>
        </per:GetEmployeeRequest>
    </soap:Body>
</soap:Envelope>
`

// BuildEnvelope renders the GetEmployeeRequest envelope for id. The output
// depends only on id. Reserved XML characters in id are escaped.
func BuildEnvelope(id string) string {
	var b strings.Builder
	b.Grow(len(envelopeHead) + len(id) + len(envelopeTail))
	b.WriteString(envelopeHead)
	// strings.Builder never fails a write.
	_ = xml.EscapeText(&b, []byte(id))
	b.WriteString(envelopeTail)
	return b.String()
}

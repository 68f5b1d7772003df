package domain

import "encoding/json"

// SOAPDataSource is stamped on every extracted employee record.
const SOAPDataSource = "SOAP/XML"

// PersonRecord is the projection of a JSON backend envelope.
// Exactly these three fields are ever serialized.
type PersonRecord struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	CreationDate string `json:"creation_date"`
}

// EmployeeRecord is the normalized view of a SOAP employee response.
// A nil field means the tag was absent from the source document and is
// serialized as JSON null.
type EmployeeRecord struct {
	EmployeeID *string `json:"employee_id"`
	FullName   *string `json:"full_name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Email      *string `json:"email"`
	Salary     *string `json:"salary"`
	HireDate   *string `json:"hire_date"`
	Office     *string `json:"office"`
	Phone      *string `json:"phone"`
	Extension  *string `json:"extension"`
	IsActive   *string `json:"is_active"`

	DataSource      string  `json:"data_source"`
	ResponseCode    *string `json:"response_code"`
	ResponseMessage *string `json:"response_message"`
}

// FallbackRecord replaces an EmployeeRecord when the SOAP body could not be
// parsed at all.
type FallbackRecord struct {
	Error       string `json:"error"`
	RawResponse string `json:"raw_response"`
}

// SOAPExtraction is the outcome of one parse attempt: exactly one of
// Employee or Fallback is set.
type SOAPExtraction struct {
	Employee *EmployeeRecord
	Fallback *FallbackRecord
}

// Extracted wraps a successfully parsed employee record.
func Extracted(rec EmployeeRecord) SOAPExtraction {
	return SOAPExtraction{Employee: &rec}
}

// Fallback wraps an unparsable response.
func Fallback(reason, raw string) SOAPExtraction {
	return SOAPExtraction{Fallback: &FallbackRecord{Error: reason, RawResponse: raw}}
}

// IsFallback reports whether the extraction degraded.
func (e SOAPExtraction) IsFallback() bool {
	return e.Fallback != nil
}

// MarshalJSON serializes whichever shape the extraction carries.
func (e SOAPExtraction) MarshalJSON() ([]byte, error) {
	if e.Fallback != nil {
		return json.Marshal(e.Fallback)
	}
	if e.Employee != nil {
		return json.Marshal(e.Employee)
	}
	return []byte("null"), nil
}

// TransformedPost is the output of the periodic fetch-and-transform route.
type TransformedPost struct {
	OriginalID              int64  `json:"originalId"`
	TransformedTitle        string `json:"transformedTitle"`
	Summary                 string `json:"summary"`
	UserID                  int64  `json:"userId"`
	TransformationTimestamp int64  `json:"transformationTimestamp"`
	Source                  string `json:"source"`
}

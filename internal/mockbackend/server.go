// Package mockbackend serves canned person, employee and post data in the
// shapes the gateway's backends use. It backs local runs and tests.
package mockbackend

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// CreatedAt is the fixed creation timestamp of every person.
const CreatedAt = "2025-08-19T09:25:30.135028Z"

var (
	firstNames    = []string{"Person", "John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve"}
	lastNames     = []string{"Doe", "Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller"}
	employeeNames = []string{"Alexandre", "Sophie", "Pierre", "Marie", "Laurent", "Isabelle", "Nicolas", "Céline"}
	departments   = []string{"IT", "HR", "Finance", "Marketing", "Operations", "Sales", "Legal", "R&D"}
	positions     = []string{"Developer", "Manager", "Analyst", "Director", "Coordinator", "Specialist", "Lead", "Consultant"}

	soapIDPattern    = regexp.MustCompile(`<(?:[\w-]+:)?(?:employeeId|personId)>(\d+)</(?:[\w-]+:)?(?:employeeId|personId)>`)
	anyNumberPattern = regexp.MustCompile(`>(\d+)<`)
)

// Server is the mock backend HTTP handler.
type Server struct {
	logger *slog.Logger
	now    func() time.Time
	router chi.Router
}

// NewServer creates the mock backend.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/person_data/{id}", s.handlePersonData)
	r.Post("/soap/PersonService", s.handlePersonService)
	r.Get("/posts/{id}", s.handlePost)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// numericID parses id, falling back to 1 for anything that is not all digits.
func numericID(id string) int {
	if id == "" {
		return 1
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return 1
		}
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return 1
	}
	return n
}

func pick(list []string, n int) string {
	i := (n - 1) % len(list)
	if i < 0 {
		i += len(list)
	}
	return list[i]
}

// PersonEnvelope returns the JSON body served for id.
func PersonEnvelope(id string) map[string]any {
	n := numericID(id)
	gender := "F"
	if n%2 == 1 {
		gender = "M"
	}
	return map[string]any{
		"Ok": map[string]any{
			"id":         n,
			"first_name": fmt.Sprintf("%s%d", pick(firstNames, n), n),
			"last_name":  fmt.Sprintf("%s%d", pick(lastNames, n), n),
			"email":      fmt.Sprintf("person%d@example.com", n),
			"phone":      fmt.Sprintf("+3312345%04d", n),
			"birth_date": "1990-05-15",
			"gender":     gender,
			"created_at": CreatedAt,
			"updated_at": CreatedAt,
			"is_active":  true,
		},
	}
}

func (s *Server) handlePersonData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(PersonEnvelope(id)); err != nil {
		s.logger.Error("failed to write person data", slog.String("error", err.Error()))
		return
	}

	s.logger.Info("REST GET returned person data", slog.String("path", r.URL.Path), slog.String("person_id", id))
}

// EmployeeIDFromEnvelope finds the requested id in a SOAP request, defaulting to "1".
func EmployeeIDFromEnvelope(envelope string) string {
	if m := soapIDPattern.FindStringSubmatch(envelope); m != nil {
		return m[1]
	}
	if m := anyNumberPattern.FindStringSubmatch(envelope); m != nil {
		return m[1]
	}
	return "1"
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// EmployeeResponse renders the SOAP 1.2 response served for id.
func EmployeeResponse(id string, at time.Time) string {
	n := numericID(id)
	first := pick(employeeNames, n)
	last := pick(employeeNames, n+1)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<soap:Envelope
    xmlns:soap="http://www.w3.org/2003/05/soap-envelope"
    xmlns:per="http://example.com/person"
    xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
    <soap:Header/>
    <soap:Body>
        <per:GetEmployeeResponse>
            <per:Employee>
`)
	field := func(tag, value string) {
		fmt.Fprintf(&b, "                <per:%s>%s</per:%s>\n", tag, esc(value), tag)
	}
	field("EmployeeId", strconv.Itoa(n))
	field("FullName", first+" "+last)
	field("FirstName", first)
	field("LastName", last)
	field("Department", pick(departments, n))
	field("Position", pick(positions, n))
	field("Email", strings.ToLower(first)+"."+strings.ToLower(last)+"@company.com")
	field("Salary", strconv.Itoa(45000+n*2500))
	field("HireDate", fmt.Sprintf("2020-0%d-15", n%9+1))
	field("IsActive", "true")
	field("Office", fmt.Sprintf("Building %d, Floor %d", n%3+1, n%10+1))
	field("Phone", fmt.Sprintf("+33 1 42 %02d %02d %02d", n, n, n))
	field("Extension", strconv.Itoa(1000+n))
	fmt.Fprintf(&b, `            </per:Employee>
            <per:ResponseCode>SUCCESS</per:ResponseCode>
            <per:ResponseMessage>Employee data retrieved successfully</per:ResponseMessage>
            <per:Timestamp>%s</per:Timestamp>
        </per:GetEmployeeResponse>
    </soap:Body>
</soap:Envelope>`, at.UTC().Format("2006-01-02T15:04:05.000000Z"))

	return b.String()
}

func (s *Server) handlePersonService(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("Server error: %v", err), http.StatusInternalServerError)
		return
	}
	id := EmployeeIDFromEnvelope(string(body))

	w.Header().Set("Content-Type", "application/soap+xml; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if _, err := io.WriteString(w, EmployeeResponse(id, s.now())); err != nil {
		s.logger.Error("failed to write SOAP response", slog.String("error", err.Error()))
		return
	}

	s.logger.Info("SOAP POST returned employee data", slog.String("path", r.URL.Path), slog.String("employee_id", id))
}

// Post returns the post served for id, shaped like a public placeholder API.
func Post(id string) map[string]any {
	n := numericID(id)
	return map[string]any{
		"userId": (n-1)/10 + 1,
		"id":     n,
		"title":  fmt.Sprintf("sample post %d about integration gateways", n),
		"body":   fmt.Sprintf("post %d body: routes fetch remote data, transform it and hand it on to the next processing step", n),
	}
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Post(id)); err != nil {
		s.logger.Error("failed to write post", slog.String("error", err.Error()))
	}
}

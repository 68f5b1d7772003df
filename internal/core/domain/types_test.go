package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		hint     string
		expected Protocol
	}{
		{"xml", ProtocolSOAP},
		{"XML", ProtocolSOAP},
		{"soap", ProtocolSOAP},
		{"SOAP", ProtocolSOAP},
		{"Soap", ProtocolSOAP},
		{" xml ", ProtocolJSON},
		{"json", ProtocolJSON},
		{"JSON", ProtocolJSON},
		{"", ProtocolJSON},
		{"rest", ProtocolJSON},
		{"soap12", ProtocolJSON},
		{"xmlsoap", ProtocolJSON},
	}

	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseProtocol(tt.hint))
		})
	}
}

func TestProtocol_DataType(t *testing.T) {
	assert.Equal(t, "JSON/REST", ProtocolJSON.DataType())
	assert.Equal(t, "XML/SOAP", ProtocolSOAP.DataType())
}

func TestSOAPExtraction_MarshalJSON(t *testing.T) {
	t.Run("fallback carries exactly error and raw_response", func(t *testing.T) {
		ext := Fallback("Failed to parse SOAP response: EOF", "<broken")

		data, err := json.Marshal(ext)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Len(t, got, 2)
		assert.Equal(t, "<broken", got["raw_response"])
		assert.True(t, ext.IsFallback())
	})

	t.Run("extracted emits nulls for absent fields", func(t *testing.T) {
		id := "7"
		ext := Extracted(EmployeeRecord{EmployeeID: &id, DataSource: SOAPDataSource})

		data, err := json.Marshal(ext)
		require.NoError(t, err)

		var got map[string]any
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "7", got["employee_id"])
		assert.Equal(t, "SOAP/XML", got["data_source"])
		assert.Contains(t, got, "full_name")
		assert.Nil(t, got["full_name"])
		assert.NotContains(t, got, "error")
		assert.False(t, ext.IsFallback())
	})
}

func TestPersonRecord_JSONShape(t *testing.T) {
	data, err := json.Marshal(PersonRecord{FirstName: "Jean", LastName: "Dupont", CreationDate: "2025-08-19T09:25:30.135028Z"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"first_name":"Jean","last_name":"Dupont","creation_date":"2025-08-19T09:25:30.135028Z"}`, string(data))
}

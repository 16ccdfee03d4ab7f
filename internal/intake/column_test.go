package intake

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumns_UniqueIDsRoundTrip(t *testing.T) {
	pairs := []ColumnValue{
		{ColumnID: ColumnFullName, StringValue: "Jane Q Public"},
		{ColumnID: ColumnEmail, StringValue: "jane@example.com"},
		{ColumnID: ColumnPhone, StringValue: "(480) 555-0101"},
		{ColumnID: "your_preferred_option", StringValue: "Mesa"},
	}
	cols := Columns(pairs)
	require.Len(t, cols, len(pairs))
	for _, p := range pairs {
		assert.Equal(t, p.StringValue, cols[p.ColumnID])
	}
}

func TestColumns_LastDuplicateWins(t *testing.T) {
	cols := Columns([]ColumnValue{
		{ColumnID: ColumnEmail, StringValue: "first@example.com"},
		{ColumnID: ColumnEmail, StringValue: "second@example.com"},
	})
	assert.Equal(t, "second@example.com", cols[ColumnEmail])
}

func TestColumnAdapter_Extract(t *testing.T) {
	var p LeadAdPayload
	body := `{
		"google_key": "k",
		"lead_id": "TeSter-123",
		"campaign_id": 12345678901234567890,
		"form_id": "55",
		"is_test": true,
		"user_column_data": [
			{"column_id": "FULL_NAME", "column_name": "Full Name", "string_value": " Jane Q Public "},
			{"column_id": "EMAIL", "string_value": "jane@example.com"},
			{"column_id": "PHONE_NUMBER", "string_value": "+14805550101"},
			{"column_id": "campus_pick", "string_value": "Scottsdale please"}
		]
	}`
	require.NoError(t, json.Unmarshal([]byte(body), &p))

	bag := ColumnAdapter{LocationColumnID: "campus_pick"}.Extract(p)
	assert.Equal(t, "Jane Q Public", bag.FullName)
	assert.Equal(t, "jane@example.com", bag.Email)
	assert.Equal(t, "+14805550101", bag.Phone)
	assert.Equal(t, "Scottsdale please", bag.LocationHint)
	assert.Equal(t, "From Google Lead Form | campaign 12345678901234567890 | form 55 | lead TeSter-123 | test", bag.Notes)
}

func TestColumnAdapter_MissingFieldsAreEmpty(t *testing.T) {
	bag := ColumnAdapter{LocationColumnID: "your_preferred_option"}.Extract(LeadAdPayload{})
	assert.True(t, bag.IsEmpty())
	assert.Equal(t, "From Google Lead Form", bag.Notes)
}

func TestFlexString(t *testing.T) {
	var v struct {
		A FlexString `json:"a"`
		B FlexString `json:"b"`
		C FlexString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 9007199254740993, "b": "x", "c": null}`), &v))
	assert.Equal(t, "9007199254740993", v.A.String())
	assert.Equal(t, "x", v.B.String())
	assert.Equal(t, "", v.C.String())

	assert.Error(t, json.Unmarshal([]byte(`{"a": [1]}`), &v))
}

package intake

import (
	"fmt"
	"strings"
)

// Well-known lead-ad column identifiers.
const (
	ColumnFullName = "FULL_NAME"
	ColumnEmail    = "EMAIL"
	ColumnPhone    = "PHONE_NUMBER"
)

// ColumnValue is one answered question in a lead-ad submission.
type ColumnValue struct {
	ColumnID    string `json:"column_id"`
	ColumnName  string `json:"column_name,omitempty"`
	StringValue string `json:"string_value"`
}

// LeadAdPayload is the body the lead-ad platform posts to the webhook.
type LeadAdPayload struct {
	GoogleKey      string        `json:"google_key"`
	LeadID         string        `json:"lead_id,omitempty"`
	CampaignID     FlexString    `json:"campaign_id,omitempty"`
	FormID         FlexString    `json:"form_id,omitempty"`
	AdGroupID      FlexString    `json:"adgroup_id,omitempty"`
	GclID          string        `json:"gcl_id,omitempty"`
	IsTest         bool          `json:"is_test,omitempty"`
	UserColumnData []ColumnValue `json:"user_column_data"`
}

// Columns folds pairs into a column_id → value map. Later duplicates win.
func Columns(pairs []ColumnValue) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.ColumnID] = p.StringValue
	}
	return out
}

// ColumnAdapter extracts a FieldBag from lead-ad column data.
type ColumnAdapter struct {
	LocationColumnID string
}

// Extract builds the bag from the payload's column data and campaign metadata.
func (a ColumnAdapter) Extract(p LeadAdPayload) FieldBag {
	cols := Columns(p.UserColumnData)
	return FieldBag{
		FullName:     strings.TrimSpace(cols[ColumnFullName]),
		Email:        strings.TrimSpace(cols[ColumnEmail]),
		Phone:        strings.TrimSpace(cols[ColumnPhone]),
		LocationHint: strings.TrimSpace(cols[a.LocationColumnID]),
		Notes:        leadAdNotes(p),
	}
}

func leadAdNotes(p LeadAdPayload) string {
	parts := []string{"From Google Lead Form"}
	if p.CampaignID != "" {
		parts = append(parts, fmt.Sprintf("campaign %s", p.CampaignID))
	}
	if p.FormID != "" {
		parts = append(parts, fmt.Sprintf("form %s", p.FormID))
	}
	if p.LeadID != "" {
		parts = append(parts, fmt.Sprintf("lead %s", p.LeadID))
	}
	if p.IsTest {
		parts = append(parts, "test")
	}
	return strings.Join(parts, " | ")
}

package leads

import "net/url"

// Origin describes where a lead came from and the defaults that apply to it.
type Origin struct {
	Name            string
	DefaultFullName string
	FallbackSource  string
}

var (
	// OriginLeadAd is the lead-ad form webhook.
	OriginLeadAd = Origin{Name: "google_lead_form", DefaultFullName: "Google Lead", FallbackSource: "Google"}

	// OriginSiteForm is the website form builder webhook.
	OriginSiteForm = Origin{Name: "site_form", DefaultFullName: "Website Lead", FallbackSource: "Website"}
)

// Lead is the canonical record forwarded to the CRM
type Lead struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
	LocationID    string `json:"location_id"`
	LocationLabel string `json:"locations_select,omitempty"`
	Source        string `json:"source"`
	Notes         string `json:"notes,omitempty"`
}

// Form flattens the lead for the CRM's form-encoded endpoint. Empty optional
// fields are left out; the location id is sent under both accepted keys.
func (l Lead) Form() url.Values {
	form := url.Values{}
	set := func(key, value string) {
		if value != "" {
			form.Set(key, value)
		}
	}
	set("first_name", l.FirstName)
	set("last_name", l.LastName)
	set("phone", l.Phone)
	set("email", l.Email)
	set("source", l.Source)
	set("location_id", l.LocationID)
	set("location", l.LocationID)
	set("locations_select", l.LocationLabel)
	set("notes", l.Notes)
	return form
}

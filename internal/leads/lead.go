// Package leads extracts purchase signals from chat messages and scores
// the accumulated lead for sales follow-up.
package leads

import "slices"

// Company size buckets.
const (
	SizeSmall      = "1-50"
	SizeMedium     = "51-200"
	SizeLarge      = "201-1000"
	SizeEnterprise = "1000+"
)

// Timeline buckets.
const (
	TimelineImmediate = "immediate"
	TimelineMonths    = "1-3 months"
	TimelineQuarter   = "3-6 months"
	TimelineLater     = "6+ months"
)

// Contact preferences.
const (
	ContactEmail   = "email"
	ContactPhone   = "phone"
	ContactMeeting = "meeting"
)

// LeadInfo is what is known about a prospect. Empty fields are absent.
type LeadInfo struct {
	Email             string   `json:"email,omitempty"`
	Company           string   `json:"company,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	CompanySize       string   `json:"companySize,omitempty"`
	Needs             []string `json:"needs,omitempty"`
	Timeline          string   `json:"timeline,omitempty"`
	Budget            string   `json:"budget,omitempty"`
	ContactPreference string   `json:"contactPreference,omitempty"`
}

// Merge overlays the present fields of partial onto l. Needs are unioned
// so the set never shrinks.
func (l *LeadInfo) Merge(partial LeadInfo) {
	overwrite(&l.Email, partial.Email)
	overwrite(&l.Company, partial.Company)
	overwrite(&l.Industry, partial.Industry)
	overwrite(&l.CompanySize, partial.CompanySize)
	overwrite(&l.Timeline, partial.Timeline)
	overwrite(&l.Budget, partial.Budget)
	overwrite(&l.ContactPreference, partial.ContactPreference)

	for _, need := range partial.Needs {
		if need != "" && !slices.Contains(l.Needs, need) {
			l.Needs = append(l.Needs, need)
		}
	}
}

// Clone returns a deep copy.
func (l LeadInfo) Clone() LeadInfo {
	l.Needs = slices.Clone(l.Needs)
	return l
}

func overwrite(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

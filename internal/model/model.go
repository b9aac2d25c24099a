// Package model defines the shared types for the prospecting workflow.
package model

import "time"

// ICP is an Ideal Customer Profile: the buyer-fit criteria used to
// discover and score companies. Immutable once constructed.
type ICP struct {
	Industries   []string `json:"industries"`
	RevenueMin   int      `json:"revenue_min"`
	RevenueMax   int      `json:"revenue_max"`
	HeadcountMin int      `json:"headcount_min"`
	HeadcountMax int      `json:"headcount_max"`
}

// HasHeadcountRange reports whether the headcount bounds are present.
// A zero max means no bound was given.
func (p ICP) HasHeadcountRange() bool {
	return p.HeadcountMax > 0
}

// HasRevenueRange reports whether the revenue bounds are present.
func (p ICP) HasRevenueRange() bool {
	return p.RevenueMax > 0
}

// CompanyRecord is the normalized view of one upstream company payload.
// Headcount and revenue of 0 mean "unknown", not "zero". The record lives
// for a single request/response cycle and is never read back into scoring.
type CompanyRecord struct {
	Name         string   `json:"name"`
	Domain       string   `json:"domain"`
	Headcount    int      `json:"headcount"`
	Revenue      int      `json:"revenue"`
	Headquarters string   `json:"headquarters,omitempty"`
	Industries   []string `json:"industries"`
	FoundedYear  string   `json:"founded_year,omitempty"`
	Score        float64  `json:"score"`

	// LinkedinIndustries is the LinkedIn-only tag list, kept separate from
	// the merged Industries union for the quality sub-score's
	// classification-depth check. Scoring input only, never serialized.
	LinkedinIndustries []string `json:"-"`
}

// SearchResponse is the ranked result of one ICP search.
type SearchResponse struct {
	Companies    []CompanyRecord `json:"companies"`
	TotalFound   int             `json:"total_found"`
	SearchTimeMS int             `json:"search_time_ms"`
	ICP          ICP             `json:"icp"`
}

// DecisionMaker is a company-affiliated person holding a leadership title.
type DecisionMaker struct {
	Name              string `json:"name"`
	Title             string `json:"title"`
	LinkedinURL       string `json:"linkedin_profile_url,omitempty"`
	FlagshipURL       string `json:"flagship_profile_url,omitempty"`
	Email             string `json:"email,omitempty"`
	Location          string `json:"location,omitempty"`
	Headline          string `json:"headline,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	CompanyName       string `json:"company_name"`
	IsDecisionMaker   bool   `json:"is_decision_maker"`
}

// EmailRequest carries everything needed to generate and send one
// personalized outreach email.
type EmailRequest struct {
	Recipient     string `json:"recipient"`
	RecipientName string `json:"recipient_name,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty"`
	ProfileText   string `json:"profile_text"`
	ProductGoal   string `json:"product_goal"`
}

// EmailResult reports a generated (and possibly sent) email.
type EmailResult struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	BodyHTML  string `json:"body_html"`
	Sent      bool   `json:"sent"`
}

// SearchRun is the persisted record of one search request.
type SearchRun struct {
	ID           string    `json:"id"`
	ICP          ICP       `json:"icp"`
	TotalFound   int       `json:"total_found"`
	Returned     int       `json:"returned"`
	TopScore     float64   `json:"top_score"`
	SearchTimeMS int       `json:"search_time_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// EmailLog is the persisted record of one outreach send.
type EmailLog struct {
	ID        string    `json:"id"`
	Recipient string    `json:"recipient"`
	Company   string    `json:"company,omitempty"`
	Subject   string    `json:"subject"`
	Sent      bool      `json:"sent"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

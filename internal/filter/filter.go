// Package filter builds the AND/OR condition trees consumed by the
// provider's screening endpoint.
package filter

import (
	"github.com/sells-group/outreach-cli/internal/model"
)

// Operators understood by the screening endpoint.
const (
	OpContains = "(.)" // case-insensitive substring match
	OpGTE      = "=>"
	OpLTE      = "=<"
	OpIn       = "in"
)

// Condition is a leaf of the filter tree.
type Condition struct {
	Column    string `json:"column"`
	Type      string `json:"type"`
	Value     any    `json:"value"`
	AllowNull bool   `json:"allow_null"`
}

// Node is an AND/OR combinator over leaf conditions and nested nodes.
// Conditions and Children marshal into the same "conditions" array.
type Node struct {
	Op         string `json:"op"`
	Conditions []any  `json:"conditions"`
}

// And creates an AND node.
func And(conditions ...any) *Node {
	return &Node{Op: "and", Conditions: conditions}
}

// Or creates an OR node.
func Or(conditions ...any) *Node {
	return &Node{Op: "or", Conditions: conditions}
}

// industryColumns are the taxonomy fields searched for each target industry.
var industryColumns = []string{
	"linkedin_industries",
	"linkedin_categories",
	"crunchbase_categories",
	"markets",
}

// Build turns an ICP into the screening filter tree. Absent clauses are
// omitted rather than emitted as vacuous trues; an empty ICP yields an AND
// node with zero conditions, which is still a well-formed tree.
func Build(icp model.ICP) *Node {
	root := And()

	if len(icp.Industries) > 0 {
		group := Or()
		for _, industry := range icp.Industries {
			for _, col := range industryColumns {
				group.Conditions = append(group.Conditions, Condition{
					Column:    col,
					Type:      OpContains,
					Value:     industry,
					AllowNull: true,
				})
			}
		}
		root.Conditions = append(root.Conditions, group)
	}

	if icp.HasHeadcountRange() {
		root.Conditions = append(root.Conditions,
			Condition{Column: "linkedin_headcount", Type: OpGTE, Value: icp.HeadcountMin, AllowNull: false},
			Condition{Column: "linkedin_headcount", Type: OpLTE, Value: icp.HeadcountMax, AllowNull: false},
		)
	}

	if icp.HasRevenueRange() {
		root.Conditions = append(root.Conditions,
			Condition{Column: "estimated_revenue_lower_bound_usd", Type: OpGTE, Value: icp.RevenueMin, AllowNull: false},
			Condition{Column: "estimated_revenue_lower_bound_usd", Type: OpLTE, Value: icp.RevenueMax, AllowNull: false},
		)
	}

	return root
}

// PersonFilter is a leaf of the people-search filter list, which uses a
// different shape from the company screen.
type PersonFilter struct {
	FilterType string `json:"filter_type"`
	Type       string `json:"type"`
	Value      []string `json:"value"`
}

// decisionMakerTitles are the titles treated as decision-making roles.
var decisionMakerTitles = []string{
	"CEO", "Chief Executive Officer", "CTO", "Chief Technology Officer",
	"CFO", "Chief Financial Officer", "CMO", "Chief Marketing Officer",
	"COO", "Chief Operating Officer", "President", "VP", "Vice President",
	"Director", "Head", "Manager",
}

// BuildPeople builds the people-search filters targeting leadership roles
// at one company.
func BuildPeople(companyName, companyDomain string) []PersonFilter {
	return []PersonFilter{
		{FilterType: "CURRENT_COMPANY", Type: OpIn, Value: []string{companyDomain, companyName}},
		{FilterType: "CURRENT_TITLE", Type: OpIn, Value: decisionMakerTitles},
	}
}

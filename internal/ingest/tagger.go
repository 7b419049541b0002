package ingest

import (
	"strings"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// taggerRule maps keyword fragments to a department. Rules are checked in
// order; the first matching fragment wins.
type taggerRule struct {
	fragments  []string
	department department.Label
}

var taggerRules = []taggerRule{
	{
		fragments:  []string{"leave", "recruit", "salar", "benefit", "onboard", "hr"},
		department: department.HR,
	},
	{
		fragments:  []string{"pricing", "plan", "sales", "customer acquisition", "market"},
		department: department.Sales,
	},
	{
		fragments:  []string{"invoice", "payment", "tax", "reimburs", "financ", "budget"},
		department: department.Finance,
	},
	{
		fragments:  []string{"login", "ticket", "support", "troubleshoot", "help desk", "customer issue"},
		department: department.Support,
	},
}

// TagDepartment assigns a department to a policy section by keyword
// heuristic over the lowercased text. Sections matching nothing default to
// Engineering, which owns the general technical policies in the handbook.
func TagDepartment(text string) department.Label {
	lowered := strings.ToLower(text)
	for _, rule := range taggerRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(lowered, fragment) {
				return rule.department
			}
		}
	}
	return department.Engineering
}

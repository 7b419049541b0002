package pipeline

import (
	"strings"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

// UnavailableAnswer is the sentinel a department returns when the knowledge
// base holds nothing relevant for it. The merger compares answers against
// this exact text, so every producer must use the shared constant.
const UnavailableAnswer = "The requested information is not available in company records."

// routerPrompt renders the classification prompt. The department list is
// generated from the taxonomy, so routing and answering cannot drift apart.
func routerPrompt(query string) string {
	var b strings.Builder
	b.WriteString("You are an internal routing system for NovaTech Solutions Pvt. Ltd.\n\n")
	b.WriteString("Available Departments:\n\n")
	for _, dept := range department.All() {
		b.WriteString(dept.String())
		b.WriteString(":\n- ")
		b.WriteString(department.ProfileFor(dept).Scope)
		b.WriteString("\n\n")
	}
	b.WriteString(`Rules:
1. Return ONLY valid JSON.
2. Do NOT explain reasoning.
3. Do NOT answer the user.
4. If unclear, return: {"departments": []}

Output format:
{
  "departments": ["DepartmentName"]
}

User Query:
`)
	b.WriteString(query)
	return b.String()
}

// departmentPrompt renders the grounded answer prompt for one department.
// policyContext is the retrieved policy text, already joined with blank
// lines in retrieval order.
func departmentPrompt(dept department.Label, policyContext, query string) string {
	var b strings.Builder
	b.WriteString("You are the ")
	b.WriteString(dept.String())
	b.WriteString(" Department of NovaTech Solutions Pvt. Ltd.\n")
	b.WriteString(department.ProfileFor(dept).Persona)
	b.WriteString("\n\nUse ONLY the company policy information below to answer.\n\n")
	b.WriteString("If the answer is not present in the provided context, say:\n\"")
	b.WriteString(UnavailableAnswer)
	b.WriteString("\"\n\nCompany Policy Information:\n")
	b.WriteString(policyContext)
	b.WriteString("\n\nUser Query:\n")
	b.WriteString(query)
	return b.String()
}

// mergePrompt renders the synthesis prompt over two or more department
// answers, joined with blank lines in department order.
func mergePrompt(answers []string) string {
	var b strings.Builder
	b.WriteString(`You are a senior manager at NovaTech Solutions Pvt. Ltd.

Combine the following department responses into ONE clear,
professional, and structured final answer.

Do not mention departments.
Ensure logical flow.
Remove repetition.
If all responses indicate information is unavailable,
return exactly:
"`)
	b.WriteString(UnavailableAnswer)
	b.WriteString("\"\n\nResponses:\n")
	b.WriteString(strings.Join(answers, "\n\n"))
	return b.String()
}

package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

func TestRouterPrompt(t *testing.T) {
	want := `You are an internal routing system for NovaTech Solutions Pvt. Ltd.

Available Departments:

HR:
- Hiring, Leave policy, Payroll, Employee benefits, Internal policies

Engineering:
- System architecture, Deployment, APIs, Technical stack, Infrastructure

Sales:
- Pricing plans, Product packages, Enterprise proposals, Discounts

Finance:
- Invoice process, Payment terms, Billing, Refund policy

Support:
- Login issues, Account recovery, Ticket process, Customer complaints

Rules:
1. Return ONLY valid JSON.
2. Do NOT explain reasoning.
3. Do NOT answer the user.
4. If unclear, return: {"departments": []}

Output format:
{
  "departments": ["DepartmentName"]
}

User Query:
What is the leave policy?`

	assert.Equal(t, want, routerPrompt("What is the leave policy?"))
}

func TestDepartmentPrompt(t *testing.T) {
	got := departmentPrompt(department.Finance,
		"Invoices are settled within 30 days.\n\nRefunds need written approval.",
		"How long until my invoice is paid?")

	want := `You are the Finance Department of NovaTech Solutions Pvt. Ltd.
Be clear and factual.

Use ONLY the company policy information below to answer.

If the answer is not present in the provided context, say:
"The requested information is not available in company records."

Company Policy Information:
Invoices are settled within 30 days.

Refunds need written approval.

User Query:
How long until my invoice is paid?`

	assert.Equal(t, want, got)
}

func TestDepartmentPrompt_PersonaPerDepartment(t *testing.T) {
	for _, dept := range department.All() {
		got := departmentPrompt(dept, "some policy text", "some query")
		assert.Contains(t, got, "You are the "+dept.String()+" Department")
		assert.Contains(t, got, department.ProfileFor(dept).Persona)
		assert.Contains(t, got, UnavailableAnswer)
	}
}

func TestMergePrompt(t *testing.T) {
	got := mergePrompt([]string{"HR answer.", "Finance answer."})

	assert.True(t, strings.HasPrefix(got, "You are a senior manager at NovaTech Solutions Pvt. Ltd."))
	assert.Contains(t, got, "Do not mention departments.")
	assert.Contains(t, got, `"`+UnavailableAnswer+`"`)
	assert.True(t, strings.HasSuffix(got, "Responses:\nHR answer.\n\nFinance answer."))
}

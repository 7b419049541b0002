package department

// Profile describes how a department presents itself to the language model:
// the responsibilities the router classifies against and the voice the
// department answers in. A single parameterized prompt template consumes
// these rows; there are no per-department prompt copies.
type Profile struct {
	// Scope lists the department's responsibilities, comma separated.
	Scope string

	// Persona is the tone instruction appended to the answer prompt.
	Persona string
}

var profiles = map[Label]Profile{
	HR: {
		Scope:   "Hiring, Leave policy, Payroll, Employee benefits, Internal policies",
		Persona: "Be professional and concise.",
	},
	Engineering: {
		Scope:   "System architecture, Deployment, APIs, Technical stack, Infrastructure",
		Persona: "Be precise and technical.",
	},
	Sales: {
		Scope:   "Pricing plans, Product packages, Enterprise proposals, Discounts",
		Persona: "Maintain a professional tone.",
	},
	Finance: {
		Scope:   "Invoice process, Payment terms, Billing, Refund policy",
		Persona: "Be clear and factual.",
	},
	Support: {
		Scope:   "Login issues, Account recovery, Ticket process, Customer complaints",
		Persona: "Be polite and helpful.",
	},
}

// ProfileFor returns the prompt profile for a department. Unknown labels
// return a zero Profile; callers only hold labels produced by Parse.
func ProfileFor(l Label) Profile {
	return profiles[l]
}

package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHandbook = `COMPANY POLICY HANDBOOK

1. Leave Policy
Employees accrue two days of paid leave per month. Unused leave carries over up to ten days.

2. Invoice Terms
Invoices are payable within 30 days. Late payments attract a 2% monthly surcharge on the outstanding balance.

3. X
short

4. Support Escalation
Login issues are resolved by raising a ticket with the desk team within one business day.`

func TestSectionSplitter_Split(t *testing.T) {
	splitter := NewSectionSplitter(0)

	sections, err := splitter.Split(testHandbook)
	require.NoError(t, err)
	require.Len(t, sections, 3, "preamble and short sections are dropped")

	assert.True(t, strings.HasPrefix(sections[0], "Leave Policy"))
	assert.True(t, strings.HasPrefix(sections[1], "Invoice Terms"))
	assert.True(t, strings.HasPrefix(sections[2], "Support Escalation"))
}

func TestSectionSplitter_Split_DropsShortSections(t *testing.T) {
	splitter := NewSectionSplitter(0)

	sections, err := splitter.Split("intro\n1. tiny\n2. also tiny")
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestSectionSplitter_Split_CustomMinLength(t *testing.T) {
	splitter := NewSectionSplitter(10)

	sections, err := splitter.Split("intro\n1. Badge Access\nContact Support.\n2. tiny")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.True(t, strings.HasPrefix(sections[0], "Badge Access"))
}

func TestSectionSplitter_Split_MultiDigitHeadings(t *testing.T) {
	splitter := NewSectionSplitter(0)

	text := "\n12. Expense Reports\nAll reimbursement claims must include itemized receipts and manager approval before processing."
	sections, err := splitter.Split(text)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.True(t, strings.HasPrefix(sections[0], "Expense Reports"))
}

func TestNewRecursiveSplitter_Validation(t *testing.T) {
	_, err := NewRecursiveSplitter(-1, 0)
	require.Error(t, err)

	_, err = NewRecursiveSplitter(100, 100)
	require.Error(t, err)

	_, err = NewRecursiveSplitter(100, -5)
	require.Error(t, err)
}

func TestRecursiveSplitter_Split(t *testing.T) {
	splitter, err := NewRecursiveSplitter(80, 10)
	require.NoError(t, err)

	long := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
	sections, err := splitter.Split(long)
	require.NoError(t, err)
	require.Greater(t, len(sections), 1, "long text splits into multiple chunks")

	for _, section := range sections {
		assert.NotEmpty(t, section)
		assert.Equal(t, strings.TrimSpace(section), section)
	}
}

func TestRecursiveSplitter_Split_ShortText(t *testing.T) {
	splitter, err := NewRecursiveSplitter(0, 0)
	require.NoError(t, err)

	sections, err := splitter.Split("A single short paragraph.")
	require.NoError(t, err)
	assert.Equal(t, []string{"A single short paragraph."}, sections)
}

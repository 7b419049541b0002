package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/deskd/internal/department"
)

func TestNewRouter(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		router, err := NewRouter(&fakeModel{}, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, router)
	})

	t.Run("nil model", func(t *testing.T) {
		_, err := NewRouter(nil, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("nil logger defaults to nop", func(t *testing.T) {
		router, err := NewRouter(&fakeModel{}, nil)
		require.NoError(t, err)
		require.NotNil(t, router)
	})
}

func TestRouter_Route(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  Decision
	}{
		{
			name:  "single department",
			reply: `{"departments": ["Finance"]}`,
			want:  Decision{department.Finance},
		},
		{
			name:  "multiple departments preserve model order",
			reply: `{"departments": ["Support", "HR"]}`,
			want:  Decision{department.Support, department.HR},
		},
		{
			name:  "duplicates keep first position",
			reply: `{"departments": ["HR", "Finance", "HR"]}`,
			want:  Decision{department.HR, department.Finance},
		},
		{
			name:  "unknown labels dropped",
			reply: `{"departments": ["Legal", "Finance", "Facilities"]}`,
			want:  Decision{department.Finance},
		},
		{
			name:  "labels matched case insensitively",
			reply: `{"departments": ["finance", "SUPPORT"]}`,
			want:  Decision{department.Finance, department.Support},
		},
		{
			name:  "empty list",
			reply: `{"departments": []}`,
			want:  Decision{},
		},
		{
			name:  "missing key",
			reply: `{}`,
			want:  Decision{},
		},
		{
			name:  "surrounding whitespace tolerated",
			reply: "  {\"departments\": [\"HR\"]}\n",
			want:  Decision{department.HR},
		},
		{
			name:  "prose reply treated as ambiguous",
			reply: "I believe this is a Finance question.",
			want:  Decision{},
		},
		{
			name:  "wrong value type treated as ambiguous",
			reply: `{"departments": "Finance"}`,
			want:  Decision{},
		},
		{
			name:  "bare json array treated as ambiguous",
			reply: `["Finance"]`,
			want:  Decision{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &fakeModel{replies: []string{tt.reply}}
			router, err := NewRouter(model, zap.NewNop())
			require.NoError(t, err)

			got, err := router.Route(context.Background(), "test query")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1, model.calls())
		})
	}
}

func TestRouter_Route_ModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	router, err := NewRouter(model, zap.NewNop())
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "query")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifying query")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestRouter_Route_PromptContainsQueryAndTaxonomy(t *testing.T) {
	model := &fakeModel{replies: []string{`{"departments": []}`}}
	router, err := NewRouter(model, zap.NewNop())
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "Can I carry over unused leave days?")
	require.NoError(t, err)

	require.Equal(t, 1, model.calls())
	prompt := model.recorded()[0]
	assert.Contains(t, prompt, "Can I carry over unused leave days?")
	for _, dept := range department.All() {
		assert.Contains(t, prompt, dept.String()+":")
		assert.Contains(t, prompt, department.ProfileFor(dept).Scope)
	}
}

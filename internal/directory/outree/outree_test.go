package outree

import (
	"encoding/json"
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNestsChildUnderParent(t *testing.T) {
	roots := Build([]Entry{
		{ID: "OU=B,OU=A,DC=x", Name: "B"},
		{ID: "OU=A,DC=x", Name: "A"},
	})

	require.Len(t, roots, 1)
	assert.Equal(t, "A", roots[0].Name)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, "B", roots[0].Children[0].Name)
	assert.Empty(t, roots[0].Children[0].Children)
}

func TestBuildWithoutCommaIsRoot(t *testing.T) {
	roots := Build([]Entry{{ID: "OU=Lonely", Name: "Lonely"}})

	require.Len(t, roots, 1)
	assert.Equal(t, "OU=Lonely", roots[0].ID)
}

func TestBuildDeepTreeAndOrder(t *testing.T) {
	roots := Build([]Entry{
		{ID: "OU=Sales,DC=corp,DC=example", Name: "Sales"},
		{ID: "OU=EMEA,OU=Sales,DC=corp,DC=example", Name: "EMEA"},
		{ID: "OU=Berlin,OU=EMEA,OU=Sales,DC=corp,DC=example", Name: "Berlin"},
		{ID: "OU=APAC,OU=Sales,DC=corp,DC=example", Name: "APAC"},
		{ID: "OU=IT,DC=corp,DC=example", Name: "IT"},
		{ID: "OU=IT,DC=corp,DC=example", Name: "duplicate"},
	})

	require.Len(t, roots, 2)
	assert.Equal(t, "Sales", roots[0].Name)
	assert.Equal(t, "IT", roots[1].Name)

	sales := roots[0]
	require.Len(t, sales.Children, 2)
	assert.Equal(t, "EMEA", sales.Children[0].Name)
	assert.Equal(t, "APAC", sales.Children[1].Name)
	require.Len(t, sales.Children[0].Children, 1)
	assert.Equal(t, "Berlin", sales.Children[0].Children[0].Name)
}

func TestBuildEmpty(t *testing.T) {
	roots := Build(nil)
	assert.NotNil(t, roots)
	assert.Empty(t, roots)

	out, err := json.Marshal(roots)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(out))
}

func TestParent(t *testing.T) {
	tests := []struct {
		id     string
		parent string
		ok     bool
	}{
		{"OU=B,OU=A,DC=x", "OU=A,DC=x", true},
		{`OU=Smith\, John,OU=A,DC=x`, "OU=A,DC=x", true},
		{"DC=x", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			parent, ok := Parent(tt.id)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.parent, parent)
		})
	}
}

func TestFromLDAP(t *testing.T) {
	entries := []*ldap.Entry{
		ldap.NewEntry("OU=A,DC=x", map[string][]string{"OU": {"A"}, "distinguishedname": {"OU=A,DC=x"}}),
		ldap.NewEntry("OU=B,OU=A,DC=x", map[string][]string{"ou": {"B"}}),
		ldap.NewEntry("OU=C,DC=x", map[string][]string{"description": {"no name"}}),
	}

	got := FromLDAP(entries)
	assert.Equal(t, []Entry{
		{ID: "OU=A,DC=x", Name: "A"},
		{ID: "OU=B,OU=A,DC=x", Name: "B"},
	}, got)
}

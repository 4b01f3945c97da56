package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LucasPickering/slumber/collection"
)

const sampleDoc = `
profiles:
  p1:
    default: true
    data:
      host: "http://localhost"
      user_id: "1"
  p2:
    name: Staging
    data:
      host: "https://staging.example.com"

recipes:
  get_user:
    method: get
    url: "{{ host }}/users/{{ user_id }}"
    headers:
      Accept: "application/json"
    query:
      verbose: "true"
    persist: false
  auth:
    method: POST
    url: "{{ host }}/login"
    authentication:
      bearer: "{{ token }}"
    body:
      json:
        username: "{{ user_id }}"
        active: true
  group:
    requests:
      nested:
        method: DELETE
        url: "{{ host }}/users/{{ user_id }}"
`

func TestParseSampleDocument(t *testing.T) {
	coll, err := Parse([]byte(sampleDoc), "test.yaml")
	require.NoError(t, err)

	require.Len(t, coll.Profiles, 2)
	p1, ok := coll.Profile("p1")
	require.True(t, ok)
	assert.True(t, p1.Default)
	assert.Equal(t, "p1", p1.Name)
	_, ok = p1.Field("host")
	assert.True(t, ok)

	p2, ok := coll.Profile("p2")
	require.True(t, ok)
	assert.Equal(t, "Staging", p2.Name)
	assert.False(t, p2.Default)

	def, ok := coll.DefaultProfile()
	require.True(t, ok)
	assert.Equal(t, collection.ProfileID("p1"), def.ID)

	getUser, err := coll.Tree.GetRecipe("get_user")
	require.NoError(t, err)
	assert.Equal(t, "GET", getUser.Method)
	assert.False(t, getUser.Persist)
	require.Len(t, getUser.Headers, 1)
	assert.Equal(t, "Accept", getUser.Headers[0].Name)
	require.Len(t, getUser.Query, 1)
	assert.Equal(t, "verbose", getUser.Query[0].Name)

	auth, err := coll.Tree.GetRecipe("auth")
	require.NoError(t, err)
	require.NotNil(t, auth.Auth)
	assert.Equal(t, collection.AuthBearer, auth.Auth.Kind)
	require.NotNil(t, auth.Body)
	assert.Equal(t, collection.BodyJSON, auth.Body.Kind)

	nested, err := coll.Tree.GetRecipe("nested")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", nested.Method)

	node, ok := coll.Tree.TryGet("group")
	require.True(t, ok)
	folder, ok := node.(*collection.Folder)
	require.True(t, ok)
	assert.Equal(t, "group", string(folder.ID))
}

func TestParseRejectsUnknownTopLevelField(t *testing.T) {
	_, err := Parse([]byte("bogus: 1\n"), "test.yaml")
	require.Error(t, err)
}

func TestParseAllowsDotPrefixedTopLevelField(t *testing.T) {
	_, err := Parse([]byte(".meta: {anything: here}\nprofiles: {}\n"), "test.yaml")
	require.NoError(t, err)
}

func TestParseRejectsUnknownRecipeField(t *testing.T) {
	doc := `
recipes:
  r1:
    method: GET
    url: "http://localhost"
    bogus: true
`
	_, err := Parse([]byte(doc), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsInvalidMethod(t *testing.T) {
	doc := `
recipes:
  r1:
    method: FROB
    url: "http://localhost"
`
	_, err := Parse([]byte(doc), "test.yaml")
	require.Error(t, err)
}

func TestParseRejectsDuplicateNodeID(t *testing.T) {
	doc := `
recipes:
  r1:
    method: GET
    url: "http://localhost"
  group:
    requests:
      r1:
        method: POST
        url: "http://localhost"
`
	_, err := Parse([]byte(doc), "test.yaml")
	require.Error(t, err)
}

func TestParseQueryPreservesOrder(t *testing.T) {
	doc := `
recipes:
  r1:
    method: GET
    url: "http://localhost"
    query:
      b: "2"
      a: "1"
      c: "3"
`
	coll, err := Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	r, err := coll.Tree.GetRecipe("r1")
	require.NoError(t, err)
	require.Len(t, r.Query, 3)
	assert.Equal(t, []string{"b", "a", "c"}, []string{r.Query[0].Name, r.Query[1].Name, r.Query[2].Name})
}

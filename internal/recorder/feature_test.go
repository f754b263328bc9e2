package recorder

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginFeature = `@auth
Feature: Login
  Scenario: Valid login
    Given I open the login page
    When I log in as "agent"
    Then the client selection dialog is shown
`

func TestFeatureIndex_TitleFromParsedDocument(t *testing.T) {
	idx := NewFeatureIndex(nil)
	idx.Register("features/login.feature", []byte(loginFeature))

	assert.Equal(t, "Login", idx.Title("features/login.feature"))
	assert.Equal(t, "Login", idx.Title("features/login.feature:3"))
	doc := idx.Document("features/login.feature")
	require.NotNil(t, doc)
	require.NotNil(t, doc.Feature)
	assert.Len(t, doc.Feature.Children, 1)
}

func TestFeatureIndex_FallsBackToFeatureLine(t *testing.T) {
	idx := NewFeatureIndex(nil)
	// Unparseable: a step before any scenario.
	idx.Register("broken.feature", []byte("Given stray step\nFeature: Hotel Search  \n"))

	assert.Equal(t, "Hotel Search", idx.Title("broken.feature"))
	assert.Nil(t, idx.Document("broken.feature"))
}

func TestFeatureIndex_FallsBackToFileName(t *testing.T) {
	idx := NewFeatureIndex(nil)
	assert.Equal(t, "hotel_availability", idx.Title("features/missing/hotel_availability.feature"))
	assert.Equal(t, UnknownFeature, idx.Title(""))
}

func TestFeatureIndex_ReadsFromFSThenDisk(t *testing.T) {
	fsys := fstest.MapFS{
		"features/client.feature": {Data: []byte("Feature: Client Selection\n")},
	}
	idx := NewFeatureIndex(fsys)
	assert.Equal(t, "Client Selection", idx.Title("features/client.feature"))

	dir := t.TempDir()
	p := filepath.Join(dir, "search.feature")
	require.NoError(t, os.WriteFile(p, []byte("Feature: Hotel Search\n"), 0o644))
	assert.Equal(t, "Hotel Search", idx.Title(p))
}

func TestFeatureIndex_ConcurrentLookupsShareOneEntry(t *testing.T) {
	idx := NewFeatureIndex(nil)
	idx.Register("login.feature", []byte(loginFeature))

	var wg sync.WaitGroup
	docs := make([]any, 16)
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs[i] = idx.Document("login.feature")
		}(i)
	}
	wg.Wait()
	for _, d := range docs {
		assert.Same(t, docs[0], d)
	}
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t,
		"<span style='color:#0074D9;font-weight:bold;'>Given</span> I search for &#34;Paris &amp; Co&#34;",
		EmphasizeKeyword(`Given I search for "Paris & Co"`))
	assert.Equal(t, "Anderson is here", EmphasizeKeyword("Anderson is here"))
	assert.Equal(t, "* a step", EmphasizeKeyword("* a step"))

	assert.Equal(t, "Search", DisplayName("Search", "12"))
	assert.Equal(t, "Search [Example: 2]", DisplayName("Search", "12;2"))
	assert.Equal(t, "Search", DisplayName("Search", "12;"))

	assert.Equal(t, []string{"smoke", "regression"}, Categories([]string{"@smoke", "regression", "@"}))
}

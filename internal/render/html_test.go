package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhanz/storymap-api/internal/domain"
)

func TestProfileHTML(t *testing.T) {
	t.Parallel()

	profile := sampleProfile()
	profile.Person.Birth = domain.LifeEvent{Date: "1037年", Location: "眉州"}
	profile.Person.Death = domain.LifeEvent{Date: "1101年", Location: "常州"}

	html, err := ProfileHTML(profile)
	require.NoError(t, err)

	assert.Contains(t, html, "<title>苏轼的人生足迹地图</title>")
	assert.Contains(t, html, `"name":"苏轼"`)
	assert.Contains(t, html, `"modernName":"四川眉山"`)
	assert.Contains(t, html, `data-export="geojson"`)
	assert.Contains(t, html, `data-export="csv"`)
	assert.Contains(t, html, `data-export="markdown"`)
	assert.False(t, strings.Contains(html, "__DATA__"), "data placeholder is replaced")
	assert.False(t, strings.Contains(html, "__TITLE__"), "title placeholder is replaced")

	t.Run("nameless profile keeps generic title", func(t *testing.T) {
		t.Parallel()
		anon := sampleProfile()
		anon.Person.Name = ""
		html, err := ProfileHTML(anon)
		require.NoError(t, err)
		assert.Contains(t, html, "<title>人生足迹地图</title>")
	})
}

func TestMultiHTML(t *testing.T) {
	t.Parallel()

	view := MultiView{
		Title: "多人物合并视图",
		People: []PersonLayer{
			{Person: domain.PersonInfo{Name: "苏轼"}, Locations: sampleProfile().Locations, Color: "#1e40af"},
		},
		Overlaps: []domain.Overlap{{Name: "开封", Count: 2}},
	}

	html, err := MultiHTML(view)
	require.NoError(t, err)
	assert.Contains(t, html, "<title>多人物合并视图</title>")
	assert.Contains(t, html, `"color":"#1e40af"`)
	assert.Contains(t, html, `"overlaps":[{"name":"开封","count":2}]`)

	t.Run("empty title falls back", func(t *testing.T) {
		t.Parallel()
		html, err := MultiHTML(MultiView{})
		require.NoError(t, err)
		assert.Contains(t, html, "<title>多人物合并视图</title>")
	})
}

func TestFallbackHTML(t *testing.T) {
	t.Parallel()

	html := FallbackHTML("苏轼")
	assert.Contains(t, html, "苏轼")
	assert.False(t, strings.Contains(html, "__TITLE__"))
}

func TestIsFreshHTML(t *testing.T) {
	t.Parallel()

	profile := sampleProfile()
	profile.Person.Birth = domain.LifeEvent{Date: "1037年"}
	profile.Person.Death = domain.LifeEvent{Date: "1101年"}
	html, err := ProfileHTML(profile)
	require.NoError(t, err)

	t.Run("current page is fresh", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsFreshHTML(html, "1037年", "1101年"))
	})

	t.Run("unknown dates are not required", func(t *testing.T) {
		t.Parallel()
		assert.True(t, IsFreshHTML(html, "", ""))
	})

	t.Run("page without export bar is stale", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsFreshHTML("<html><body>old page</body></html>", "", ""))
	})

	t.Run("page with different dates is stale", func(t *testing.T) {
		t.Parallel()
		assert.False(t, IsFreshHTML(html, "1036年", "1101年"))
		assert.False(t, IsFreshHTML(html, "1037年", "1100年"))
	})
}

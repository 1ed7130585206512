package story

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunhanz/storymap-api/internal/domain"
	"github.com/yunhanz/storymap-api/internal/geo"
	"github.com/yunhanz/storymap-api/internal/placename"
)

// fixedSplitter answers from a static table without any model traffic.
type fixedSplitter struct {
	pairs map[string]placename.Pair
}

func (f *fixedSplitter) BatchSplit(ctx context.Context, texts []string) map[string]placename.Pair {
	out := make(map[string]placename.Pair, len(texts))
	for _, t := range texts {
		out[t] = f.pairs[t]
	}
	return out
}

func (f *fixedSplitter) Split(ctx context.Context, text string) placename.Pair {
	return f.pairs[text]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildProfile(t *testing.T) {
	t.Parallel()

	geocoder := &mapGeocoder{coords: map[string]geo.Coord{
		"四川眉山": {Lat: 30.048, Lng: 103.831},
		"常州":   {Lat: 31.811, Lng: 119.974},
	}}
	builder := NewBuilder(&fixedSplitter{}, geocoder, discardLogger())

	profile := builder.BuildProfile(context.Background(), sampleBiography)
	require.NotNil(t, profile)

	person := profile.Person
	assert.Equal(t, "苏轼", person.Name, "parenthesized alias is dropped from the name")
	assert.Equal(t, "千古第一文人", person.Title)
	assert.Equal(t, "北宋", person.Dynasty)
	assert.Equal(t, "64岁", person.Lifespan)
	assert.Equal(t, "苏轼是北宋文学家、书画家，一生宦海沉浮，足迹遍及大半个中国。", person.Description)
	assert.Equal(t, "大江东去，浪淘尽", person.Quote, "first quote line replaces the title as the quote")

	assert.Equal(t, "1037年", person.Birth.Date)
	assert.Equal(t, "眉州眉山（今四川眉山）", person.Birth.Location)
	require.NotNil(t, person.Birth.Lat)
	assert.InDelta(t, 30.048, *person.Birth.Lat, 0.001)

	assert.Equal(t, "1101年", person.Death.Date)
	require.NotNil(t, person.Death.Lat)
	assert.InDelta(t, 31.811, *person.Death.Lat, 0.001)

	require.Len(t, profile.Locations, 3)
	assert.Equal(t, domain.LocationBirth, profile.Locations[0].Type)
	assert.Equal(t, domain.LocationNormal, profile.Locations[1].Type)
	assert.Equal(t, domain.LocationDeath, profile.Locations[2].Type)

	// Coordinates come from the document's own table, not the geocoder.
	huang := profile.Locations[1]
	assert.InDelta(t, 30.453, huang.Lat, 0.001)
	assert.InDelta(t, 114.872, huang.Lng, 0.001)
	assert.Equal(t, []string{"大江东去，浪淘尽", "一蓑烟雨任平生"}, huang.QuoteLines)

	assert.Equal(t, domain.DefaultMapStyle(), profile.MapStyle)
}

func TestBuildProfileSplitterNamesWin(t *testing.T) {
	t.Parallel()

	splitter := &fixedSplitter{pairs: map[string]placename.Pair{
		"黄州（今湖北黄冈）": {Ancient: "黄州", Modern: "湖北黄冈"},
	}}
	geocoder := &mapGeocoder{coords: map[string]geo.Coord{}}
	builder := NewBuilder(splitter, geocoder, discardLogger())

	profile := builder.BuildProfile(context.Background(), sampleBiography)
	require.NotNil(t, profile)

	var huang *domain.LocationEvent
	for i := range profile.Locations {
		if profile.Locations[i].ModernName == "湖北黄冈" {
			huang = &profile.Locations[i]
		}
	}
	require.NotNil(t, huang)
	assert.Equal(t, "黄州", huang.AncientName)
}

func TestBuildProfileFallsBackToGeocoder(t *testing.T) {
	t.Parallel()

	// No coordinate table in the document, so every location needs the
	// geocoder.
	md := `## 人物档案

### 基本信息

- **姓名**：李白
- **时代**：唐

## 人生历程

### 长安

- **时间**：742年
- **位置**：长安（今西安）
- **事迹**：供奉翰林
`
	geocoder := &mapGeocoder{coords: map[string]geo.Coord{
		"西安": {Lat: 34.3416, Lng: 108.9398},
	}}
	builder := NewBuilder(&fixedSplitter{}, geocoder, discardLogger())

	profile := builder.BuildProfile(context.Background(), md)
	require.NotNil(t, profile)
	require.Len(t, profile.Locations, 1)
	assert.InDelta(t, 34.3416, profile.Locations[0].Lat, 0.001)
	assert.Contains(t, geocoder.asked, "西安")
}

func TestBuildProfileNilCases(t *testing.T) {
	t.Parallel()

	builder := NewBuilder(&fixedSplitter{}, &mapGeocoder{}, discardLogger())

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, builder.BuildProfile(context.Background(), "  "))
	})

	t.Run("no basic info", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, builder.BuildProfile(context.Background(), "## 人生历程\n\n### 长安\n\n- **事迹**：供奉翰林\n"))
	})

	t.Run("no location sections", func(t *testing.T) {
		t.Parallel()
		md := "## 人物档案\n\n### 基本信息\n\n- **姓名**：李白\n"
		assert.Nil(t, builder.BuildProfile(context.Background(), md))
	})

	t.Run("no location resolves", func(t *testing.T) {
		t.Parallel()
		md := `## 人物档案

### 基本信息

- **姓名**：李白

## 人生历程

### 长安

- **位置**：长安（今西安）
- **事迹**：供奉翰林
`
		assert.Nil(t, builder.BuildProfile(context.Background(), md))
	})
}

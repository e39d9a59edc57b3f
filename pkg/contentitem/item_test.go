package contentitem

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItem(t *testing.T) {
	item := New("Article")
	assert.Equal(t, "Article", item.ContentType)
	assert.NotEqual(t, item.ID, item.VersionID)
	assert.True(t, item.Latest)
	assert.Zero(t, item.PartCount())
	assert.Empty(t, item.PartNames())
}

func TestItemJSONDocument(t *testing.T) {
	item := New("Article")
	item.DisplayText = "Hello"
	item.Owner = "alice"
	Apply(item, &Color{Value: "red"})
	require.NoError(t, item.SetRawPart("TitlePart", json.RawMessage(`{"Title":"Hello"}`)))

	data, err := json.Marshal(item)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"ContentItemId", "ContentItemVersionId", "ContentType", "Latest", "Published", "CreatedUtc", "ModifiedUtc", "Parts"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "PublishedUtc")
	assert.JSONEq(t, `{"Color":{"Value":"red"},"TitlePart":{"Title":"Hello"}}`, string(doc["Parts"]))

	decoded := &ContentItem{}
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, item.ID, decoded.ID)
	assert.Equal(t, item.VersionID, decoded.VersionID)
	assert.Equal(t, "Hello", decoded.DisplayText)
	assert.Equal(t, "alice", decoded.Owner)
	assert.True(t, item.CreatedAt.Equal(decoded.CreatedAt))
	assert.Equal(t, []string{"Color", "TitlePart"}, decoded.PartNames())
	assert.Equal(t, "red", As[Color](decoded).Value)
}

func TestItemPublishedUtc(t *testing.T) {
	item := New("Article")
	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	item.Published = true
	item.PublishedAt = &published

	data, err := json.Marshal(item)
	require.NoError(t, err)

	decoded := &ContentItem{}
	require.NoError(t, json.Unmarshal(data, decoded))
	require.NotNil(t, decoded.PublishedAt)
	assert.True(t, published.Equal(*decoded.PublishedAt))
}

func TestSetRawPartValidation(t *testing.T) {
	item := New("Article")

	err := item.SetRawPart("", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrInvalidPartName)

	err = item.SetRawPart("TitlePart", json.RawMessage(`{nope`))
	var partErr *PartError
	require.ErrorAs(t, err, &partErr)
	assert.Equal(t, "TitlePart", partErr.Part)
	assert.False(t, item.HasPart("TitlePart"))
}

func TestSetRawPartCopiesInput(t *testing.T) {
	item := New("Article")
	raw := json.RawMessage(`{"Value":"red"}`)
	require.NoError(t, item.SetRawPart("Color", raw))

	copy(raw, `{"Value":"tan"}`)
	assert.Equal(t, "red", As[Color](item).Value)
}

func TestWeldRawPart(t *testing.T) {
	item := New("Product")

	welded, err := item.WeldRawPart("Color", json.RawMessage(`{"Value":"red"}`))
	require.NoError(t, err)
	assert.True(t, welded)

	welded, err = item.WeldRawPart("Color", json.RawMessage(`{"Value":"blue"}`))
	require.NoError(t, err)
	assert.False(t, welded)
	assert.Equal(t, "red", As[Color](item).Value)
}

func TestMergeRawPart(t *testing.T) {
	item := New("Product")
	Apply(item, &PricePart{X: 1, Currency: "EUR"})

	require.NoError(t, item.MergeRawPart("PricePart", json.RawMessage(`{"X":5}`)))
	price := As[PricePart](item)
	require.NotNil(t, price)
	assert.Equal(t, 5, price.X)
	assert.Equal(t, "EUR", price.Currency)

	require.NoError(t, item.MergeRawPart("PricePart", json.RawMessage(`{"Currency":null}`)))
	assert.Equal(t, "", As[PricePart](item).Currency)

	require.NoError(t, item.MergeRawPart("Color", json.RawMessage(`{"Value":"red"}`)))
	assert.Equal(t, "red", As[Color](item).Value)

	assert.Error(t, item.MergeRawPart("Color", json.RawMessage(`"red"`)))

	require.NoError(t, item.SetRawPart("Tags", json.RawMessage(`["a"]`)))
	assert.Error(t, item.MergeRawPart("Tags", json.RawMessage(`{"a":1}`)))
}

func TestRemovePart(t *testing.T) {
	item := New("Product")
	Apply(item, &Color{Value: "red"})

	assert.True(t, item.RemovePart("Color"))
	assert.False(t, item.RemovePart("Color"))
	assert.Nil(t, As[Color](item))

	_, err := item.RawPart("Color")
	assert.ErrorIs(t, err, ErrPartNotFound)
}

func TestCloneIsDeep(t *testing.T) {
	item := New("Product")
	Apply(item, &Color{Value: "red"})

	clone, err := item.Clone()
	require.NoError(t, err)
	assert.Equal(t, item.ID, clone.ID)

	As[Color](clone).Value = "blue"
	assert.Equal(t, "red", As[Color](item).Value)
	assert.Equal(t, "blue", As[Color](clone).Value)

	var nilItem *ContentItem
	_, err = nilItem.Clone()
	assert.ErrorIs(t, err, ErrNilContentItem)
}

func TestPartsJSON(t *testing.T) {
	item := New("Product")
	Apply(item, &Color{Value: "red"})

	data, err := item.PartsJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"Color":{"Value":"red"}}`, string(data))

	other := New("Product")
	require.NoError(t, other.SetPartsJSON(data))
	assert.Equal(t, "red", As[Color](other).Value)

	require.NoError(t, other.SetPartsJSON(nil))
	assert.Zero(t, other.PartCount())

	assert.Error(t, other.SetPartsJSON([]byte(`[1]`)))
}

func TestZeroValueItem(t *testing.T) {
	var item ContentItem
	Apply(&item, &Color{Value: "red"})
	assert.Equal(t, "red", As[Color](&item).Value)
}

package catalog

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func mustParse(t *testing.T, doc string) Batch {
	t.Helper()
	batch, err := ParseBatch([]byte(doc))
	require.NoError(t, err)
	return batch
}

func mergeDoc(t *testing.T, doc string) Document {
	t.Helper()
	return NewMerger(WithClock(func() time.Time { return fixedNow })).Merge(mustParse(t, doc))
}

func TestMergeEndToEndDuplicates(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"X1","price":100,"salePrice":90,"mediaUrl":"u1"},
		{"itemNo":"X1","price":80,"salePrice":95,"mediaUrl":"u2"}
	]}`)

	require.Len(t, out.Items, 1)
	entry := out.Items[0]
	require.NotNil(t, entry.Price)
	require.NotNil(t, entry.SalePrice)
	assert.Equal(t, 80.0, *entry.Price)
	assert.Equal(t, 90.0, *entry.SalePrice)
	assert.Equal(t, []string{"u1", "u2"}, entry.MediaItems)
	assert.Equal(t, "u1", entry.MediaURL)
	assert.Equal(t, 2, entry.Provenance.Occurrences)
}

func TestMergeMediaUnionPreservesOrder(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"K","mediaItems":["A","B"]},
		{"itemNo":"K","mediaItems":["B","C"]}
	]}`)

	require.Len(t, out.Items, 1)
	assert.Equal(t, []string{"A", "B", "C"}, out.Items[0].MediaItems)
	assert.Equal(t, "A", out.Items[0].MediaURL, "representative url back-filled from union")
}

func TestMergeKeepsMinimumPrice(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"P","price":100,"mediaUrl":"m"},
		{"itemNo":"P","price":80},
		{"itemNo":"P","price":"n/a"}
	]}`)

	require.Len(t, out.Items, 1)
	assert.Equal(t, 80.0, *out.Items[0].Price)
}

func TestMergeTakesFirstPriceWhenEarlierMissing(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"P","mediaUrl":"m"},
		{"itemNo":"P","price":120}
	]}`)

	require.NotNil(t, out.Items[0].Price)
	assert.Equal(t, 120.0, *out.Items[0].Price)
}

func TestMergeDropsEntriesWithoutMedia(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"A","mediaUrl":"a.png"},
		{"itemNo":"B","name":"no media"},
		{"itemNo":"C","mediaItems":[]}
	]}`)

	assert.Len(t, out.Items, 1)
	assert.Equal(t, 2, out.Meta.RemovedNoMedia)
	assert.Equal(t, 3, out.Meta.GroupedItems)
	assert.Equal(t, 1, out.Meta.TotalItems)
}

func TestMergeKeepsEntryWhoseOnlyMediaIsOnASize(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"S","sizes":[{"size":"M","mediaUrl":"size.png"}]}
	]}`)

	require.Len(t, out.Items, 1)
	assert.Equal(t, "size.png", out.Items[0].MediaURL)
	assert.Equal(t, []string{"size.png"}, out.Items[0].MediaItems)
}

func TestMergeOrdersSizesBaseFirstThenName(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"T","mediaUrl":"m","sizes":[
			{"name":"B","size":"1","baseSize":false},
			{"name":"A","size":"2","baseSize":true},
			{"name":"C","size":"3","baseSize":false}
		]}
	]}`)

	require.Len(t, out.Items, 1)
	names := []string{}
	for _, s := range out.Items[0].Sizes {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestMergeOrdersSizesBySizeLabelWhenNamesTie(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"T","mediaUrl":"m","sizes":[
			{"name":"Cup","size":"L"},
			{"name":"Cup","size":"M"},
			{"name":"Cup"}
		]}
	]}`)

	labels := []string{}
	for _, s := range out.Items[0].Sizes {
		labels = append(labels, sizeLabel(s))
	}
	assert.Equal(t, []string{"", "L", "M"}, labels)
}

func TestMergeConsolidatesSizesAcrossDuplicates(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"D","price":30000,"salePrice":28000,"mediaUrl":"m","sizes":[
			{"name":"Size M","size":"M","addSalePrice":5000},
			{"name":"Size L","size":"L","addSalePrice":10000,"baseSize":false}
		]},
		{"itemNo":"D","price":29000,"sizes":[
			{"name":"Size M","size":"M","addSalePrice":5000,"baseSize":true,"mediaUrl":"m-size.png"},
			"junk"
		]}
	]}`)

	require.Len(t, out.Items, 1)
	sizes := out.Items[0].Sizes
	require.Len(t, sizes, 2)

	medium := sizes[0]
	assert.Equal(t, "Size M", medium.Name)
	assert.True(t, medium.BaseSize, "baseSize is sticky once asserted")
	assert.Equal(t, "m-size.png", medium.MediaURL)
	assert.Equal(t, 34000.0, *medium.Price, "29000+5000 beats 30000+5000")
	assert.Equal(t, 33000.0, *medium.SalePrice, "28000+5000 beats 29000+5000")

	large := sizes[1]
	assert.Equal(t, 40000.0, *large.Price)
	assert.Equal(t, 38000.0, *large.SalePrice)

	assert.Contains(t, out.Items[0].MediaItems, "m-size.png")
	assert.Equal(t, 3, out.Items[0].Provenance.SizeRecords)
}

func TestMergeSalePriceFallsBackToPrice(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"E","price":10,"mediaUrl":"m","sizes":[{"size":"S","addSalePrice":2}]}
	]}`)

	size := out.Items[0].Sizes[0]
	assert.Equal(t, 12.0, *size.Price)
	assert.Equal(t, 12.0, *size.SalePrice)
}

func TestMergeStripsSizeMarkers(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"N","name":"Trà Sữa Trân Châu (M)","subName":"Ly lớn (L) ","mediaUrl":"m"},
		{"itemNo":"O","name":"Bánh (Mini)","mediaUrl":"m"}
	]}`)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "Trà Sữa Trân Châu", out.Items[0].Name)
	assert.Equal(t, "Ly lớn", out.Items[0].SubName)
	assert.Equal(t, "Bánh (Mini)", out.Items[1].Name)
	assert.Equal(t, []string{"(S)", "(M)", "(L)", "(H)"}, out.Meta.Normalizations.NameSuffixRemoved)
}

func TestMergeKeepsEarliestNonEmptyScalars(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"itemNo":"F","name":"","seoName":"first-seo","mediaUrl":"m"},
		{"itemNo":"F","name":"Later Name (H)","seoName":"second-seo","updatedDate":"2024-01-02"}
	]}`)

	entry := out.Items[0]
	assert.Equal(t, "Later Name", entry.Name)
	assert.Equal(t, "first-seo", entry.SeoName)
	assert.Equal(t, "2024-01-02", entry.UpdatedDate)
}

func TestMergeGroupingKeyFallbacks(t *testing.T) {
	out := mergeDoc(t, `{"items":[
		{"id":42,"mediaUrl":"a"},
		{"id":"42","mediaUrl":"b"},
		{"name":"keyless one","mediaUrl":"c"},
		{"name":"keyless two","mediaUrl":"d"},
		"not an object",
		null,
		7
	]}`)

	require.Len(t, out.Items, 2)
	assert.Equal(t, "42", out.Items[0].Key())
	assert.Equal(t, []string{"a", "b"}, out.Items[0].MediaItems)
	assert.Equal(t, unknownKey, out.Items[1].Key())
	assert.Equal(t, "keyless one", out.Items[1].Name)
	assert.Equal(t, 7, out.Meta.OriginalItems)
	assert.Equal(t, 2, out.Meta.GroupedItems)
}

func TestMergeIsDeterministic(t *testing.T) {
	doc := `{"items":[
		{"itemNo":"A","mediaUrl":"1","sizes":[{"name":"z","size":"1"},{"name":"y","size":"2","baseSize":true}]},
		{"itemNo":"B","mediaUrl":"2"},
		{"itemNo":"A","mediaItems":["3"]}
	]}`
	first, err := json.Marshal(mergeDoc(t, doc))
	require.NoError(t, err)
	second, err := json.Marshal(mergeDoc(t, doc))
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
}

func TestMergeMetaCarriesUpstreamFields(t *testing.T) {
	out := mergeDoc(t, `{"meta":{"source":"winmart","pageSize":100,"totalItems":999},"items":[{"itemNo":"A","mediaUrl":"m"}]}`)

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, out))

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	meta := decoded["meta"]
	assert.Equal(t, "winmart", meta["source"])
	assert.Equal(t, true, meta["merged"])
	assert.Equal(t, 1.0, meta["totalItems"], "merge fields override upstream keys")
	assert.Equal(t, "2026-03-01T08:00:00Z", meta["generatedAt"])

	roundTrip, err := ReadDocument(&buf)
	require.NoError(t, err)
	assert.Equal(t, "winmart", roundTrip.Meta.Upstream["source"])
	assert.Equal(t, 1, roundTrip.Meta.TotalItems)
	assert.True(t, roundTrip.Meta.GeneratedAt.Equal(fixedNow))
}

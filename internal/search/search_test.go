package search

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swastik007sharma/sweet-shop-manager/internal/repo"
)

func queryBody(t *testing.T, f repo.ItemFilter, from, size int) map[string]any {
	t.Helper()
	r, err := buildQuery(f, from, size)
	require.NoError(t, err)

	raw, err := io.ReadAll(r)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestBuildQuery(t *testing.T) {
	body := queryBody(t, repo.ItemFilter{Query: "gulab"}, 20, 10)
	assert.EqualValues(t, 20, body["from"])
	assert.EqualValues(t, 10, body["size"])

	boolQ := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQ["must"].([]any)
	require.Len(t, must, 1)
	mm := must[0].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "gulab", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Contains(t, mm["fields"], "name^2")
	assert.Empty(t, boolQ["filter"])
}

func TestBuildQuery_CarriesFilters(t *testing.T) {
	minPrice, maxPrice := 2.0, 10.0
	body := queryBody(t, repo.ItemFilter{
		Query:    "ladoo",
		Name:     "mo*tichoor",
		Category: "Indian",
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	}, 0, 20)

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	require.Len(t, filters, 3)

	name := filters[0].(map[string]any)["wildcard"].(map[string]any)["name.keyword"].(map[string]any)
	assert.Equal(t, `*mo\*tichoor*`, name["value"])
	assert.Equal(t, true, name["case_insensitive"])

	category := filters[1].(map[string]any)["wildcard"].(map[string]any)["category.keyword"].(map[string]any)
	assert.Equal(t, "*Indian*", category["value"])

	price := filters[2].(map[string]any)["range"].(map[string]any)["price"].(map[string]any)
	assert.EqualValues(t, 2, price["gte"])
	assert.EqualValues(t, 10, price["lte"])
}

func TestBuildQuery_OpenPriceBound(t *testing.T) {
	maxPrice := 10.0
	body := queryBody(t, repo.ItemFilter{Query: "ladoo", MaxPrice: &maxPrice}, 0, 20)

	filters := body["query"].(map[string]any)["bool"].(map[string]any)["filter"].([]any)
	require.Len(t, filters, 1)
	price := filters[0].(map[string]any)["range"].(map[string]any)["price"].(map[string]any)
	assert.NotContains(t, price, "gte")
	assert.EqualValues(t, 10, price["lte"])
}

func TestDecodeHits(t *testing.T) {
	id := uuid.New()
	payload := `{"hits":{"total":{"value":3},"hits":[{"_source":{"id":"` + id.String() + `","name":"Gulab Jamun","price":30,"stock":4}}]}}`

	total, items, err := decodeHits(strings.NewReader(payload))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "Gulab Jamun", items[0].Name)
	assert.EqualValues(t, 4, items[0].Stock)

	_, _, err = decodeHits(strings.NewReader("{"))
	require.Error(t, err)
}

func TestDisabled(t *testing.T) {
	var idx Index = Disabled{}
	ctx := context.Background()

	_, _, err := idx.Search(ctx, repo.ItemFilter{Query: "x"}, 0, 10)
	require.ErrorIs(t, err, ErrDisabled)
	require.NoError(t, idx.DeleteItem(ctx, uuid.New()))
}

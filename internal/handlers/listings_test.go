package handlers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autoagora/autoagora-backend/internal/models"
)

func TestParseSearchCriteriaEmpty(t *testing.T) {
	criteria := parseSearchCriteria(url.Values{})

	assert.Empty(t, criteria.Make)
	assert.Nil(t, criteria.MinYear)
	assert.Nil(t, criteria.MaxPrice)
	assert.Equal(t, models.SortNewest, criteria.Sort)
}

func TestParseSearchCriteriaFull(t *testing.T) {
	q := url.Values{}
	q.Set("make", "Toyota")
	q.Set("model", "Corolla")
	q.Set("min_year", "2015")
	q.Set("max_year", "2020")
	q.Set("min_price", "5000")
	q.Set("max_price", "15000")
	q.Set("min_mileage", "0")
	q.Set("max_mileage", "100000")
	q.Set("condition", "used")
	q.Set("location", "Nicosia")
	q.Set("fuel_type", "diesel")
	q.Set("transmission", "automatic")
	q.Set("body_type", "suv")
	q.Set("sort", "price_asc")

	criteria := parseSearchCriteria(q)

	assert.Equal(t, "Toyota", criteria.Make)
	assert.Equal(t, "Corolla", criteria.Model)
	require.NotNil(t, criteria.MinYear)
	assert.Equal(t, 2015, *criteria.MinYear)
	require.NotNil(t, criteria.MaxYear)
	assert.Equal(t, 2020, *criteria.MaxYear)
	require.NotNil(t, criteria.MinPrice)
	assert.Equal(t, 5000, *criteria.MinPrice)
	require.NotNil(t, criteria.MaxPrice)
	assert.Equal(t, 15000, *criteria.MaxPrice)
	require.NotNil(t, criteria.MinMileage)
	assert.Equal(t, 0, *criteria.MinMileage)
	require.NotNil(t, criteria.MaxMileage)
	assert.Equal(t, 100000, *criteria.MaxMileage)
	assert.Equal(t, "used", criteria.Condition)
	assert.Equal(t, "Nicosia", criteria.Location)
	assert.Equal(t, "diesel", criteria.FuelType)
	assert.Equal(t, "automatic", criteria.Transmission)
	assert.Equal(t, "suv", criteria.BodyType)
	assert.Equal(t, models.SortPriceAsc, criteria.Sort)
}

func TestParseSearchCriteriaMalformedNumbersDropPredicate(t *testing.T) {
	q := url.Values{}
	q.Set("min_year", "twenty15")
	q.Set("max_price", "")
	q.Set("min_price", "  7000 ")

	criteria := parseSearchCriteria(q)

	assert.Nil(t, criteria.MinYear)
	assert.Nil(t, criteria.MaxPrice)
	require.NotNil(t, criteria.MinPrice)
	assert.Equal(t, 7000, *criteria.MinPrice)
}

func TestParseSearchCriteriaUnknownSortFallsBack(t *testing.T) {
	q := url.Values{}
	q.Set("sort", "bogus")

	criteria := parseSearchCriteria(q)
	assert.Equal(t, models.SortNewest, criteria.Sort)
}

func TestParseSearchCriteriaSortKeys(t *testing.T) {
	for raw, want := range map[string]models.SortKey{
		"newest":     models.SortNewest,
		"price_asc":  models.SortPriceAsc,
		"price_desc": models.SortPriceDesc,
		"year_desc":  models.SortYearDesc,
		"mileage_asc": models.SortMileage,
	} {
		q := url.Values{}
		q.Set("sort", raw)
		assert.Equal(t, want, parseSearchCriteria(q).Sort, "sort=%s", raw)
	}
}

package http

import (
	"net/url"
	"testing"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_AbsentKeepsDefaults(t *testing.T) {
	q, err := parseQuery(url.Values{})
	require.NoError(t, err)

	assert.Nil(t, q.MinFRP)
	assert.Nil(t, q.HourMin)
	assert.Nil(t, q.HourMax)
	assert.Nil(t, q.DayNight)
	assert.Nil(t, q.Regions)
	assert.Nil(t, q.Grouping)
	assert.Nil(t, q.TopN)
	assert.Nil(t, q.Dense)
	assert.Nil(t, q.ExcludeOther)
	assert.Nil(t, q.FocusIndex)
}

func TestParseQuery_AllParameters(t *testing.T) {
	values, err := url.ParseQuery("min_frp=2.5&hour_min=3&hour_max=20&daynight=d,n&region=Asia&region=Europe" +
		"&grouping=country&n=7&dense=true&exclude_other=1&index=2")
	require.NoError(t, err)

	q, err := parseQuery(values)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, *q.MinFRP, 1e-9)
	assert.Equal(t, 3, *q.HourMin)
	assert.Equal(t, 20, *q.HourMax)
	assert.Equal(t, []string{"D", "N"}, q.DayNight)
	assert.Equal(t, []string{"Asia", "Europe"}, q.Regions)
	assert.Equal(t, domain.GroupByCountry, *q.Grouping)
	assert.Equal(t, 7, *q.TopN)
	assert.True(t, *q.Dense)
	assert.True(t, *q.ExcludeOther)
	assert.Equal(t, 2, *q.FocusIndex)
}

func TestListParam(t *testing.T) {
	values := url.Values{"empty": {""}, "spaced": {" a , ,b "}}

	assert.Nil(t, listParam(values, "missing"))
	assert.Equal(t, []string{}, listParam(values, "empty"))
	assert.Equal(t, []string{"a", "b"}, listParam(values, "spaced"))
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPagination(t *testing.T) {
	e := newEcho()
	parse := func(q string) (int, int, error) {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/x?"+q, nil), httptest.NewRecorder())
		return pagination(c)
	}

	page, per, err := parse("")
	require.NoError(t, err)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, per)

	page, per, err = parse("page=3&items_per_page=500")
	require.NoError(t, err)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, per)

	page, _, err = parse("page=" + strconv.Itoa(maxPage))
	require.NoError(t, err)
	assert.Equal(t, maxPage, page)

	for _, q := range []string{"page=0", "page=-1", "page=x", "items_per_page=0", "page=9223372036854775807", "page=" + strconv.Itoa(maxPage+1)} {
		_, _, err = parse(q)
		assert.Error(t, err, q)
	}
}

func TestNewPage_HasMore(t *testing.T) {
	assert.True(t, newPage[int](nil, 21, 2, 10).HasMore)
	assert.False(t, newPage[int](nil, 20, 2, 10).HasMore)
	assert.NotNil(t, newPage[int](nil, 0, 1, 10).Data)
}

func TestValidator_UsesJSONNames(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&subCategoryCreate{SubCategory: "x"})
	require.Error(t, err)
	assert.Equal(t, "category_id is required", err.Error())
	assert.NoError(t, v.Validate(&subCategoryCreate{SubCategory: "x", CategoryID: 1}))
}

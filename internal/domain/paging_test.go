package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_OffsetAndTotalPages(t *testing.T) {
	p := Page{Page: 2, Limit: 10}
	assert.Equal(t, 10, p.Offset())
	assert.Equal(t, 2, p.TotalPages(12))
	assert.Equal(t, 1, p.TotalPages(10))
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 0, Page{Page: 1}.TotalPages(5))
}

func TestLeadStatus_Valid(t *testing.T) {
	for _, s := range LeadStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, LeadStatus("new").Valid())
	assert.False(t, LeadStatus("").Valid())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("lead not found")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := Internal("db error", ErrNotFound)
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.Equal(t, "db error", wrapped.Error())
}

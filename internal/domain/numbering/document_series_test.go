package numbering

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentSeries(t *testing.T) {
	tenantID := uuid.New()

	series, err := NewDocumentSeries(tenantID, "FR", "A")
	require.NoError(t, err)
	assert.Equal(t, tenantID, series.TenantID)
	assert.Equal(t, "FR", series.Prefix)
	assert.Equal(t, "A", series.Label)
	assert.Equal(t, int64(0), series.LastNumber)
	assert.True(t, series.IsActive)
}

func TestNewDocumentSeries_Invalid(t *testing.T) {
	tenantID := uuid.New()

	_, err := NewDocumentSeries(tenantID, "", "A")
	assert.Error(t, err)

	_, err = NewDocumentSeries(tenantID, "FR", "")
	assert.Error(t, err)
}

func TestDocumentSeries_Allocate(t *testing.T) {
	series, err := NewDocumentSeries(uuid.New(), "FR", "A")
	require.NoError(t, err)

	for want := int64(1); want <= 5; want++ {
		got := series.Allocate()
		assert.Equal(t, want, got)
		assert.Equal(t, want, series.LastNumber)
	}
}

func TestReceiptNumber(t *testing.T) {
	tests := []struct {
		prefix string
		label  string
		number int64
		want   string
	}{
		{"FR", "A", 1, "FR A/0001"},
		{"FR", "A", 42, "FR A/0042"},
		{"FR", "B", 9999, "FR B/9999"},
		{"FR", "A", 12345, "FR A/12345"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ReceiptNumber(tt.prefix, tt.label, tt.number))
		})
	}
}

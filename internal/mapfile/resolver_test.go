package mapfile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver(t *testing.T) {
	symbols := []*SizedSymbol{
		{RawSymbol: RawSymbol{Name: "b", Segment: 1, Offset: 0x40, RVA: 0x1040, HasRVA: true}, Size: 0x20},
		{RawSymbol: RawSymbol{Name: "a", Segment: 1, Offset: 0x00, RVA: 0x1000, HasRVA: true}, Size: 0x40},
		{RawSymbol: RawSymbol{Name: "d", Segment: 2, Offset: 0x00}, Size: 0x10},
	}
	r := NewResolver(symbols)

	tests := []struct {
		rva        uint64
		wantName   string
		wantOffset uint64
		expectErr  bool
	}{
		{rva: 0x1000, wantName: "a", wantOffset: 0},
		{rva: 0x103f, wantName: "a", wantOffset: 0x3f},
		{rva: 0x1050, wantName: "b", wantOffset: 0x10},
		{rva: 0x0fff, expectErr: true},
		{rva: 0x1060, expectErr: true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("rva=0x%x", tt.rva), func(t *testing.T) {
			sym, off, err := r.ResolveRVA(tt.rva)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, sym.Name)
			assert.Equal(t, tt.wantOffset, off)
		})
	}

	sym, off, err := r.ResolveOffset(2, 0x8)
	require.NoError(t, err)
	assert.Equal(t, "d", sym.Name)
	assert.Equal(t, uint64(8), off)

	_, _, err = r.ResolveOffset(3, 0)
	assert.Error(t, err)
	_, _, err = r.ResolveOffset(2, 0x10)
	assert.Error(t, err)
}

func TestResolver_Empty(t *testing.T) {
	r := NewResolver(nil)
	_, _, err := r.ResolveRVA(0)
	assert.Error(t, err)
	_, _, err = r.ResolveOffset(1, 0)
	assert.Error(t, err)
}

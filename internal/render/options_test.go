package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPDFOptions(t *testing.T) {
	opts := DefaultPDFOptions()

	assert.Equal(t, 8.27, opts.PaperWidthInch)
	assert.Equal(t, 11.69, opts.PaperHeightInch)
	assert.True(t, opts.PrintBackground)
	assert.InDelta(t, 20/25.4, opts.MarginTopInch, 1e-9)
	assert.InDelta(t, 20/25.4, opts.MarginBottomInch, 1e-9)
	assert.InDelta(t, 10/25.4, opts.MarginLeftInch, 1e-9)
	assert.InDelta(t, 10/25.4, opts.MarginRightInch, 1e-9)
}

func TestNewPDFOptions_MillimetreMargins(t *testing.T) {
	opts, err := NewPDFOptions(PageSettings{
		Format:          PageFormatLetter,
		PrintBackground: true,
		MarginTopMM:     12.7,
		MarginBottomMM:  25.4,
		MarginLeftMM:    6.35,
		MarginRightMM:   0,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, opts.MarginTopInch, 1e-9)
	assert.InDelta(t, 1.0, opts.MarginBottomInch, 1e-9)
	assert.InDelta(t, 0.25, opts.MarginLeftInch, 1e-9)
	assert.Zero(t, opts.MarginRightInch)
	assert.True(t, opts.PrintBackground)
}

func TestNewPDFOptions(t *testing.T) {
	tests := []struct {
		format     string
		wantWidth  float64
		wantHeight float64
		wantErr    bool
	}{
		{format: PageFormatA4, wantWidth: 8.27, wantHeight: 11.69},
		{format: PageFormatLetter, wantWidth: 8.5, wantHeight: 11},
		{format: PageFormatLegal, wantWidth: 8.5, wantHeight: 14},
		{format: "A5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			opts, err := NewPDFOptions(PageSettings{Format: tt.format, MarginTopMM: 25.4})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantWidth, opts.PaperWidthInch)
			assert.Equal(t, tt.wantHeight, opts.PaperHeightInch)
			assert.InDelta(t, 1.0, opts.MarginTopInch, 1e-9)
			assert.False(t, opts.PrintBackground)
		})
	}
}

package render

import "fmt"

// Supported page formats.
const (
	PageFormatA4     = "A4"
	PageFormatLetter = "Letter"
	PageFormatLegal  = "Legal"
)

const mmPerInch = 25.4

// PageSettings describes the printed page in the units users configure:
// a named format and margins in millimetres.
type PageSettings struct {
	Format          string
	PrintBackground bool
	MarginTopMM     float64
	MarginBottomMM  float64
	MarginLeftMM    float64
	MarginRightMM   float64
}

// PDFOptions are the print settings passed to the browser. Lengths are in
// inches.
type PDFOptions struct {
	PaperWidthInch   float64
	PaperHeightInch  float64
	MarginTopInch    float64
	MarginBottomInch float64
	MarginLeftInch   float64
	MarginRightInch  float64
	PrintBackground  bool
}

var paperSizes = map[string][2]float64{
	PageFormatA4:     {8.27, 11.69},
	PageFormatLetter: {8.5, 11},
	PageFormatLegal:  {8.5, 14},
}

// DefaultPDFOptions returns A4 with background graphics and margins of
// 20mm top and bottom, 10mm left and right.
func DefaultPDFOptions() PDFOptions {
	opts, _ := NewPDFOptions(PageSettings{
		Format:          PageFormatA4,
		PrintBackground: true,
		MarginTopMM:     20,
		MarginBottomMM:  20,
		MarginLeftMM:    10,
		MarginRightMM:   10,
	})
	return opts
}

// NewPDFOptions converts page settings to print settings.
func NewPDFOptions(cfg PageSettings) (PDFOptions, error) {
	size, ok := paperSizes[cfg.Format]
	if !ok {
		return PDFOptions{}, fmt.Errorf("unsupported page format %q", cfg.Format)
	}
	return PDFOptions{
		PaperWidthInch:   size[0],
		PaperHeightInch:  size[1],
		MarginTopInch:    cfg.MarginTopMM / mmPerInch,
		MarginBottomInch: cfg.MarginBottomMM / mmPerInch,
		MarginLeftInch:   cfg.MarginLeftMM / mmPerInch,
		MarginRightInch:  cfg.MarginRightMM / mmPerInch,
		PrintBackground:  cfg.PrintBackground,
	}, nil
}

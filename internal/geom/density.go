package geom

// A4 portrait sheet size in output pixels (150 dpi).
const (
	SheetWidth  = 1240
	SheetHeight = 1754
)

// SheetMargin and SheetGutter are the fixed page margin and inter-tile
// spacing, in sheet pixels.
const (
	SheetMargin = 40
	SheetGutter = 16
)

// SupportedDensities are the coupon-per-sheet counts the paginator accepts.
var SupportedDensities = []int{5, 10, 15, 20}

// Grid describes the tile arrangement for one density: the geometry is a
// function of the density alone, never of the rendered content.
type Grid struct {
	Columns int
	Rows    int
}

var densityGrids = map[int]Grid{
	5:  {Columns: 1, Rows: 5},
	10: {Columns: 2, Rows: 5},
	15: {Columns: 3, Rows: 5},
	20: {Columns: 4, Rows: 5},
}

// NearestDensity snaps an arbitrary perPage request onto the supported
// set. Ties resolve to the smaller density.
func NearestDensity(perPage int) int {
	best := SupportedDensities[0]
	bestDist := abs(perPage - best)
	for _, d := range SupportedDensities[1:] {
		if dist := abs(perPage - d); dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

// GridFor returns the sheet grid for a density, snapping unsupported
// values to the nearest supported one.
func GridFor(perPage int) Grid {
	if g, ok := densityGrids[perPage]; ok {
		return g
	}
	return densityGrids[NearestDensity(perPage)]
}

// CellRect returns the top-left position and size of grid cell i
// (row-major) for the given grid, in sheet pixels.
func (g Grid) CellRect(i int) (x, y, w, h int) {
	usableW := SheetWidth - 2*SheetMargin - (g.Columns-1)*SheetGutter
	usableH := SheetHeight - 2*SheetMargin - (g.Rows-1)*SheetGutter
	w = usableW / g.Columns
	h = usableH / g.Rows
	col := i % g.Columns
	row := i / g.Columns
	x = SheetMargin + col*(w+SheetGutter)
	y = SheetMargin + row*(h+SheetGutter)
	return x, y, w, h
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

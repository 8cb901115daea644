package processor

// The responsive width ladder. Downstream CSS breakpoints and sizes
// attributes depend on these values; changing them changes every srcset.
const (
	LadderMin  uint32 = 100
	LadderMax  uint32 = 4000
	LadderStep uint32 = 100
)

// Ladder returns every rung, ascending.
func Ladder() []uint32 {
	rungs := make([]uint32, 0, (LadderMax-LadderMin)/LadderStep+1)
	for w := LadderMin; w <= LadderMax; w += LadderStep {
		rungs = append(rungs, w)
	}
	return rungs
}

// AvailableWidths returns the rungs not wider than originalWidth, ascending.
// It is empty for images narrower than LadderMin.
func AvailableWidths(originalWidth uint32) []uint32 {
	if originalWidth < LadderMin {
		return nil
	}
	top := originalWidth
	if top > LadderMax {
		top = LadderMax
	}

	widths := make([]uint32, 0, (top-LadderMin)/LadderStep+1)
	for w := LadderMin; w <= top; w += LadderStep {
		widths = append(widths, w)
	}
	return widths
}

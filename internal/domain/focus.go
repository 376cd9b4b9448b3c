package domain

// Default map view: the whole world, tilted for extruded density columns.
const (
	DefaultViewLatitude  = 20.0
	DefaultViewLongitude = 0.0
	DefaultViewZoom      = 1.5
	DefaultViewPitch     = 40.5
	FocusZoom            = 8.0
)

// View is the camera hint a map client uses to center itself.
type View struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Zoom      float64 `json:"zoom"`
	Pitch     float64 `json:"pitch"`
	// Selected is the ranking position being focused, nil for the default view.
	Selected *int `json:"selected,omitempty"`
}

// DefaultView returns the world view used when nothing is selected.
func DefaultView() View {
	return View{
		Latitude:  DefaultViewLatitude,
		Longitude: DefaultViewLongitude,
		Zoom:      DefaultViewZoom,
		Pitch:     DefaultViewPitch,
	}
}

// Focus centers the map on the ranking row at index. A nil or out-of-range
// index returns the default view. Selection never affects filtering or
// aggregation.
func Focus(ranking []RankedThreat, index *int) View {
	if index == nil || *index < 0 || *index >= len(ranking) {
		return DefaultView()
	}
	row := ranking[*index]
	pos := *index
	return View{
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
		Zoom:      FocusZoom,
		Pitch:     DefaultViewPitch,
		Selected:  &pos,
	}
}

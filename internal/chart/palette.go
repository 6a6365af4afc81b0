package chart

// Style is the color and legend label of a process phase.
type Style struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

// DefaultStyle is used for process codes outside the palette.
var DefaultStyle = Style{Color: "#9E9E9E", Label: "Unknown"}

// Palette maps process codes to their phase style.
var Palette = map[int64]Style{
	0: {Color: "#B0BEC5", Label: "Standby"},
	1: {Color: "#FFB74D", Label: "Heating"},
	2: {Color: "#4FC3F7", Label: "Vacuum"},
	3: {Color: "#E57373", Label: "Sterilize"},
	4: {Color: "#81C784", Label: "Exhaust"},
	5: {Color: "#BA68C8", Label: "Drying"},
	6: {Color: "#4DB6AC", Label: "Complete"},
}

// StyleFor returns the palette entry of code, or DefaultStyle.
func StyleFor(code int64) Style {
	if s, ok := Palette[code]; ok {
		return s
	}
	return DefaultStyle
}

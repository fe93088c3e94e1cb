package prefs

// Palette is the native chrome color set for a resolved scheme.
type Palette struct {
	Primary       string    `json:"primary"`
	Secondary     string    `json:"secondary"`
	Background    string    `json:"background"`
	Surface       string    `json:"surface"`
	Text          string    `json:"text"`
	TextSecondary string    `json:"text_secondary"`
	TextLight     string    `json:"text_light"`
	Success       string    `json:"success"`
	Warning       string    `json:"warning"`
	Error         string    `json:"error"`
	Info          string    `json:"info"`
	Border        string    `json:"border"`
	Gradient      [2]string `json:"gradient"`
}

var (
	lightPalette = Palette{
		Primary:       "#6e11b0",
		Secondary:     "#1c398e",
		Background:    "#f5f5f5",
		Surface:       "#ffffff",
		Text:          "#333333",
		TextSecondary: "#666666",
		TextLight:     "#888888",
		Success:       "#4CAF50",
		Warning:       "#FF9800",
		Error:         "#FF6B6B",
		Info:          "#2196F3",
		Border:        "#e0e0e0",
		Gradient:      [2]string{"#6e11b0", "#1c398e"},
	}
	darkPalette = Palette{
		Primary:       "#8e44d1",
		Secondary:     "#4a6bd4",
		Background:    "#121212",
		Surface:       "#1e1e1e",
		Text:          "#ffffff",
		TextSecondary: "#b3b3b3",
		TextLight:     "#808080",
		Success:       "#66bb6a",
		Warning:       "#ffa726",
		Error:         "#ef5350",
		Info:          "#42a5f5",
		Border:        "#333333",
		Gradient:      [2]string{"#8e44d1", "#4a6bd4"},
	}
)

// PaletteFor returns the palette of a resolved scheme.
func PaletteFor(s Scheme) Palette {
	if s == SchemeDark {
		return darkPalette
	}
	return lightPalette
}

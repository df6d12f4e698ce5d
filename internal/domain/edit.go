package domain

// PixelFormatRGBA8 is 8-bit truecolor with an alpha channel.
const PixelFormatRGBA8 = "rgba8"

// NormalizedImage is the reference image after it was fitted onto the target canvas.
// Width and Height always equal the configured canvas and the pixels always carry alpha.
type NormalizedImage struct {
	Data        []byte
	Width       int
	Height      int
	MIME        string
	PixelFormat string
}

// PresenceResult reports whether a person or mannequin appears in the reference image.
// Confidence is passed through from the analysis model without clamping.
type PresenceResult struct {
	HasPerson  bool    `json:"has_person"`
	Confidence float64 `json:"confidence"`
	Summary    string  `json:"summary"`
}

// GenerationResult is the terminal artifact of a run. Locator is a remote URL or a data URI.
type GenerationResult struct {
	Locator string `json:"locator"`
}

package imagegen

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"garmentedit/internal/domain"
)

// Section headers of the synthesized prompt, in output order.
const (
	HeaderGarmentContext = "GARMENT CONTEXT (from the reference image):"
	HeaderColorFidelity  = "COLOR FIDELITY:"
	HeaderAllowedChange  = "ONLY ALLOWED CHANGE:"
	HeaderIdentity       = "IDENTITY:"
	HeaderComposition    = "COMPOSITION:"
	HeaderBackground     = "BACKGROUND:"
	HeaderStyle          = "LIGHTING AND STYLE:"
)

var contextFields = []struct {
	key   string
	label string
}{
	{domain.FieldGarmentType, "Garment type"},
	{domain.FieldCutAndFit, "Cut and fit"},
	{domain.FieldGarmentStructure, "Construction"},
	{domain.FieldTexturesAndMaterials, "Materials and texture"},
	{domain.FieldColorAndPattern, "Color and pattern"},
	{domain.FieldOverallView, "Overall view"},
}

const (
	identityMannequin = `- Replace any real person in the reference with a neutral, featureless mannequin in the same pose and proportions.
- Do not reproduce the original face, identity, skin marks or any other identifying feature.`
	identityNoPerson = `- Do not add any real person, model or body part.
- Show the garment as a standalone product or on a neutral mannequin.`

	compositionRules = `- Exactly one subject.
- Exactly one continuous full-body framing showing the whole garment.
- No collage, grid, split screen or multi-panel output.
- No added text, logos, watermarks or labels.`
	backgroundRules = `- Uniform neutral studio background, pure white or a light gradient.
- At most a soft shadow on the floor; no props or scenery.`
	styleRules = `- Even, soft studio lighting without dramatic shadows or colored light.
- Photorealistic fashion catalogue photograph, not an illustration or 3D render.`
)

// Synthesize builds the generation prompt. It is pure: the same description,
// instruction and presence flag always produce the same string. Blocks appear in a
// fixed order: garment context, color fidelity, the allowed change, identity
// handling, composition, background and style. The garment context block keeps its
// header with an empty body when the description carries no usable text.
func Synthesize(desc domain.GarmentDescription, instruction string, hasPerson bool) string {
	blocks := make([]string, 0, 7)
	blocks = append(blocks,
		section(HeaderGarmentContext, strings.Join(garmentContext(desc), "\n")),
		section(HeaderColorFidelity, colorFidelity(desc)),
		section(HeaderAllowedChange, fmt.Sprintf("Apply exactly this edit request and leave everything else unchanged:\n\"%s\"", instruction)),
	)
	if hasPerson {
		blocks = append(blocks, section(HeaderIdentity, identityMannequin))
	} else {
		blocks = append(blocks, section(HeaderIdentity, identityNoPerson))
	}
	blocks = append(blocks,
		section(HeaderComposition, compositionRules),
		section(HeaderBackground, backgroundRules),
		section(HeaderStyle, styleRules),
	)
	return strings.Join(blocks, "\n\n")
}

func section(header, body string) string {
	if body == "" {
		return header
	}
	return header + "\n" + body
}

// garmentContext prefers the fixed priority fields. Without any of them it lists every
// string field in received order.
func garmentContext(desc domain.GarmentDescription) []string {
	var lines []string
	for _, f := range contextFields {
		if text := desc.Text(f.key); text != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", f.label, text))
		}
	}
	if len(lines) > 0 {
		return lines
	}
	caser := cases.Title(language.English)
	for _, f := range desc.Fields() {
		text, ok := f.Value.(string)
		if !ok {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		label := caser.String(strings.ReplaceAll(f.Key, "_", " "))
		lines = append(lines, fmt.Sprintf("- %s: %s", label, text))
	}
	return lines
}

func colorFidelity(desc domain.GarmentDescription) string {
	dominant := desc.DominantColorHex()
	if dominant == "" {
		return "- Preserve the exact garment colors seen in the reference image; do not shift hue, saturation or brightness."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "- Keep the dominant garment color at %s, preserving its hue and brightness.", dominant)
	if secondary := desc.SecondaryColorsHex(); len(secondary) > 0 {
		fmt.Fprintf(&sb, "\n- Keep secondary colors coherent with %s.", strings.Join(secondary, ", "))
	}
	return sb.String()
}

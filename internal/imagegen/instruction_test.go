package imagegen

import (
	"strings"
	"testing"

	"garmentedit/internal/domain"
)

func fullDescription() domain.GarmentDescription {
	return domain.NewGarmentDescription(
		domain.DescriptionField{Key: domain.FieldOverallView, Value: "studio photo of a dress on a mannequin"},
		domain.DescriptionField{Key: domain.FieldGarmentType, Value: "midi dress"},
		domain.DescriptionField{Key: domain.FieldCutAndFit, Value: "A-line, fitted waist"},
		domain.DescriptionField{Key: domain.FieldGarmentStructure, Value: "short puff sleeves, V neckline"},
		domain.DescriptionField{Key: domain.FieldTexturesAndMaterials, Value: "matte cotton poplin"},
		domain.DescriptionField{Key: domain.FieldColorAndPattern, Value: "solid navy"},
		domain.DescriptionField{Key: domain.FieldLighting, Value: "softbox from the left"},
		domain.DescriptionField{Key: domain.FieldDominantColorHex, Value: "#1F2A44"},
		domain.DescriptionField{Key: domain.FieldSecondaryColorsHex, Value: []any{"#FFFFFF", "#C0C0C0"}},
	)
}

func mustIndex(t *testing.T, s, sub string) int {
	t.Helper()
	idx := strings.Index(s, sub)
	if idx < 0 {
		t.Fatalf("prompt missing %q:\n%s", sub, s)
	}
	return idx
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	desc := fullDescription()
	first := Synthesize(desc, "make the sleeves red", true)
	for i := 0; i < 5; i++ {
		if got := Synthesize(desc, "make the sleeves red", true); got != first {
			t.Fatalf("run %d differs:\n%s\nvs\n%s", i, got, first)
		}
	}
}

func TestSynthesizeBlockOrder(t *testing.T) {
	got := Synthesize(fullDescription(), "make the sleeves red", false)
	order := []string{
		HeaderGarmentContext,
		HeaderColorFidelity,
		HeaderAllowedChange,
		`"make the sleeves red"`,
		HeaderIdentity,
		HeaderComposition,
		HeaderBackground,
		HeaderStyle,
	}
	prev := -1
	for _, marker := range order {
		idx := mustIndex(t, got, marker)
		if idx <= prev {
			t.Fatalf("%q out of order in:\n%s", marker, got)
		}
		prev = idx
	}
}

func TestSynthesizeGarmentContextUsesPriorityFields(t *testing.T) {
	got := Synthesize(fullDescription(), "shorten the hem", false)
	order := []string{
		"Garment type: midi dress",
		"Cut and fit: A-line, fitted waist",
		"Construction: short puff sleeves, V neckline",
		"Materials and texture: matte cotton poplin",
		"Color and pattern: solid navy",
		"Overall view: studio photo of a dress on a mannequin",
	}
	prev := -1
	for _, marker := range order {
		idx := mustIndex(t, got, marker)
		if idx <= prev {
			t.Fatalf("%q out of order", marker)
		}
		prev = idx
	}
	if strings.Contains(got, "softbox from the left") {
		t.Fatalf("non-priority field leaked into context:\n%s", got)
	}
}

func TestSynthesizeGarmentContextFallsBackToStringFields(t *testing.T) {
	desc := domain.NewGarmentDescription(
		domain.DescriptionField{Key: "lighting", Value: "hard flash"},
		domain.DescriptionField{Key: "camera_config", Value: 35},
		domain.DescriptionField{Key: "atmosphere", Value: "playful"},
		domain.DescriptionField{Key: "tags", Value: []any{"summer"}},
	)
	got := Synthesize(desc, "add pockets", false)
	light := mustIndex(t, got, "- Lighting: hard flash")
	mood := mustIndex(t, got, "- Atmosphere: playful")
	if light > mood {
		t.Fatalf("fallback fields not in received order:\n%s", got)
	}
	if strings.Contains(got, "Camera Config") || strings.Contains(got, "summer") {
		t.Fatalf("non-string fields must be skipped:\n%s", got)
	}
}

func TestSynthesizeEmptyDescription(t *testing.T) {
	got := Synthesize(domain.GarmentDescription{}, "make it blue", true)
	if !strings.HasPrefix(got, HeaderGarmentContext+"\n\n"+HeaderColorFidelity) {
		t.Fatalf("empty description should keep an empty context block before color fidelity:\n%s", got)
	}
	for _, header := range []string{HeaderGarmentContext, HeaderColorFidelity, HeaderAllowedChange, HeaderIdentity, HeaderComposition, HeaderBackground, HeaderStyle} {
		mustIndex(t, got, header)
	}
	mustIndex(t, got, "make it blue")
}

func TestSynthesizeColorFidelity(t *testing.T) {
	tests := []struct {
		name    string
		desc    domain.GarmentDescription
		want    []string
		notWant []string
	}{
		{
			name:    "dominant and secondary",
			desc:    fullDescription(),
			want:    []string{"#1F2A44", "coherent with #FFFFFF, #C0C0C0"},
			notWant: []string{"exact garment colors seen in the reference"},
		},
		{
			name:    "dominant only",
			desc:    domain.NewGarmentDescription(domain.DescriptionField{Key: domain.FieldDominantColorHex, Value: "#AA0000"}),
			want:    []string{"dominant garment color at #AA0000"},
			notWant: []string{"Keep secondary colors"},
		},
		{
			name:    "no dominant ignores secondary",
			desc:    domain.NewGarmentDescription(domain.DescriptionField{Key: domain.FieldSecondaryColorsHex, Value: []any{"#00FF00"}}),
			want:    []string{"exact garment colors seen in the reference image"},
			notWant: []string{"#00FF00", "dominant garment color"},
		},
		{
			name:    "blank dominant",
			desc:    domain.NewGarmentDescription(domain.DescriptionField{Key: domain.FieldDominantColorHex, Value: "  "}),
			want:    []string{"exact garment colors seen in the reference image"},
			notWant: []string{"dominant garment color"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Synthesize(tc.desc, "edit", false)
			for _, w := range tc.want {
				mustIndex(t, got, w)
			}
			for _, nw := range tc.notWant {
				if strings.Contains(got, nw) {
					t.Fatalf("prompt should not contain %q:\n%s", nw, got)
				}
			}
		})
	}
}

func TestSynthesizeIdentity(t *testing.T) {
	withPerson := Synthesize(fullDescription(), "edit", true)
	mustIndex(t, withPerson, "neutral, featureless mannequin")
	mustIndex(t, withPerson, "Do not reproduce the original face, identity")
	if strings.Contains(withPerson, "Do not add any real person") {
		t.Fatalf("person prompt carries the no-person rule:\n%s", withPerson)
	}

	without := Synthesize(fullDescription(), "edit", false)
	mustIndex(t, without, "Do not add any real person")
	if strings.Contains(without, "Do not reproduce the original face") {
		t.Fatalf("no-person prompt carries the identity rule:\n%s", without)
	}
}

func TestSynthesizeFixedConstraints(t *testing.T) {
	got := Synthesize(domain.GarmentDescription{}, "edit", false)
	for _, rule := range []string{
		"Exactly one subject.",
		"one continuous full-body framing",
		"No collage, grid, split screen or multi-panel output.",
		"No added text, logos, watermarks or labels.",
		"pure white or a light gradient",
		"soft shadow on the floor",
		"Even, soft studio lighting",
	} {
		mustIndex(t, got, rule)
	}
}

func TestSynthesizeFallbackDescription(t *testing.T) {
	desc := domain.NewGarmentDescription(domain.DescriptionField{Key: domain.FieldOverallView, Value: "not json"})
	got := Synthesize(desc, "make the sleeves red", false)
	mustIndex(t, got, "Overall view: not json")
}

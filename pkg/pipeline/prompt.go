package pipeline

import (
	"fmt"
	"strings"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// negativePrompt steers the generation model away from empty or degraded
// renders.
const negativePrompt = "empty room, bare room, vacant room, no furniture, unfurnished, " +
	"bare walls, empty space, construction, unfinished, " +
	"blurry, distorted, low quality, " +
	"dark, poorly lit, " +
	"cartoon, sketch, drawing, unrealistic, " +
	"people, humans, faces, " +
	"text, watermark, logo, " +
	"broken furniture, floating objects, " +
	"cluttered, messy, damaged"

// buildRenderPrompt assembles a generation prompt from room context and the
// top suggested additions, leaning hard on furniture so the model does not
// render an empty room.
func buildRenderPrompt(roomType, style, palette string, suggestions []types.Suggestion, isEmpty bool) string {
	roomType = strings.ReplaceAll(roomType, "_", " ")
	if roomType == "" {
		roomType = "room"
	}
	if style == "" {
		style = "modern"
	}

	var items []string
	for _, s := range suggestions {
		if s.Kind == types.SuggestionAddition && s.Item != "" {
			items = append(items, s.Item)
		}
		if len(items) == 5 {
			break
		}
	}

	var parts []string
	if isEmpty || len(items) > 0 {
		joined := "furniture"
		if len(items) > 0 {
			joined = strings.Join(items, ", ")
		}
		parts = append(parts,
			fmt.Sprintf("beautifully furnished %s %s interior", style, roomType),
			"with "+joined,
			"fully furnished and decorated",
			"complete furniture arrangement",
			"elegant furniture pieces",
		)
	} else {
		parts = append(parts, fmt.Sprintf("furnished %s %s interior", style, roomType))
	}

	if palette != "" {
		parts = append(parts, palette+" color scheme")
	}

	parts = append(parts,
		"professional interior design",
		"high-end furniture",
		"well-furnished room",
		"photorealistic",
		"natural lighting",
		"sharp focus",
		"architectural photography",
	)

	return strings.Join(parts, ", ")
}

// Package suggest evaluates a fixed rule set over detections and
// measurements and returns ranked design suggestions. Evaluation is
// deterministic: identical input always yields identical output order.
package suggest

import (
	"fmt"
	"image"
	"sort"
	"strings"

	"github.com/yogitha-jain/interio-ai/pkg/types"
)

// Rule confidence by category. Essentials outrank placement warnings, which
// outrank nice-to-haves.
const (
	confEssential = 0.90
	confPlacement = 0.80
	confCommon    = 0.70
	confLayout    = 0.60
	confLuxury    = 0.55
	confStyle     = 0.50
)

// Input is everything one analysis run hands the engine.
type Input struct {
	Detections   []types.DetectedObject
	Measurements []types.Measurement
	// RoomType, when set, overrides room-type inference.
	RoomType string
	// Style, when set, overrides style identification.
	Style string
	// Image, when set, enables palette-based style hints.
	Image image.Image
}

// Result is the engine's output.
type Result struct {
	RoomType    RoomType
	Style       string
	Suggestions []types.Suggestion
}

// Engine evaluates the rule set. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	rules *RuleSet
}

// New creates an Engine over the given rules. A nil rule set falls back to
// the built-in defaults.
func New(rules *RuleSet) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

// Analyze runs every rule and returns suggestions ordered by confidence
// descending, ties broken by rule-declaration order.
func (e *Engine) Analyze(in Input) *Result {
	roomType := e.identifyRoomType(in)
	style := e.identifyStyle(in)

	detected := make([]string, len(in.Detections))
	for i, d := range in.Detections {
		detected[i] = normalizeLabel(d.Label)
	}

	var suggestions []types.Suggestion
	suggestions = append(suggestions, e.missingEssentials(roomType, detected)...)
	suggestions = append(suggestions, e.clearanceWarnings(in)...)
	suggestions = append(suggestions, e.additions(roomType, detected)...)
	suggestions = append(suggestions, e.layoutTips(roomType)...)
	suggestions = append(suggestions, e.styleHints(in, style)...)

	// Stable sort keeps declaration order within equal confidence.
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	return &Result{
		RoomType:    roomType,
		Style:       style,
		Suggestions: suggestions,
	}
}

// identifyRoomType infers the room type from detected furniture unless the
// caller forced one.
func (e *Engine) identifyRoomType(in Input) RoomType {
	if in.RoomType != "" {
		return NormalizeRoomType(in.RoomType)
	}

	best := LivingRoom
	bestScore := 0
	for _, room := range roomOrder {
		indicators := e.rules.RoomIndicators[room]
		score := 0
		for _, d := range in.Detections {
			label := normalizeLabel(d.Label)
			for _, ind := range indicators {
				if strings.Contains(label, ind) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = room
			bestScore = score
		}
	}
	return best
}

// identifyStyle scores style keywords against detected labels. Detector
// labels are rarely style-bearing, so this usually falls through to the
// default unless the caller forced a style.
func (e *Engine) identifyStyle(in Input) string {
	if in.Style != "" {
		return strings.ToLower(strings.TrimSpace(in.Style))
	}

	best := "modern"
	bestScore := 0
	for _, style := range styleOrder {
		profile := e.rules.Styles[style]
		score := 0
		for _, d := range in.Detections {
			label := normalizeLabel(d.Label)
			for _, kw := range profile.Keywords {
				if strings.Contains(label, kw) {
					score++
					break
				}
			}
		}
		if score > bestScore {
			best = style
			bestScore = score
		}
	}
	return best
}

// missingEssentials flags essential furniture absent from the room.
func (e *Engine) missingEssentials(room RoomType, detected []string) []types.Suggestion {
	set, ok := e.rules.Furniture[room]
	if !ok {
		return nil
	}

	var out []types.Suggestion
	for _, essential := range set.Essential {
		if hasItem(detected, essential) {
			continue
		}
		out = append(out, types.Suggestion{
			Kind:       types.SuggestionAddition,
			Target:     -1,
			Item:       essential,
			Rationale:  fmt.Sprintf("A %s is essential for a %s", essential, roomName(room)),
			Confidence: confEssential,
		})
	}
	return out
}

// clearanceWarnings fires a placement suggestion for each pair of detected
// objects whose boxes overlap or sit closer than the minimum clearance.
// Measured clearance is only available when measurements exist; without
// them the check falls back to raw box overlap.
func (e *Engine) clearanceWarnings(in Input) []types.Suggestion {
	var out []types.Suggestion

	scale := measuredScale(in)
	for i := 0; i < len(in.Detections); i++ {
		for j := i + 1; j < len(in.Detections); j++ {
			a, b := in.Detections[i], in.Detections[j]
			gap := boxGapPx(a.Box, b.Box)

			if gap < 0 {
				out = append(out, types.Suggestion{
					Kind:       types.SuggestionPlacement,
					Target:     i,
					Rationale:  fmt.Sprintf("The %s overlaps the %s; separate them for walkable space", a.Label, b.Label),
					Confidence: confPlacement,
				})
				continue
			}
			if scale > 0 && float64(gap)*scale < e.rules.MinClearanceCm {
				out = append(out, types.Suggestion{
					Kind:       types.SuggestionPlacement,
					Target:     i,
					Rationale:  fmt.Sprintf("Leave at least %.0f cm between the %s and the %s", e.rules.MinClearanceCm, a.Label, b.Label),
					Confidence: confPlacement,
				})
			}
		}
	}
	return out
}

// additions proposes common and luxury items not already in the room,
// capped so the list stays actionable.
func (e *Engine) additions(room RoomType, detected []string) []types.Suggestion {
	set, ok := e.rules.Furniture[room]
	if !ok {
		return nil
	}

	var out []types.Suggestion
	commonCount := 0
	for _, item := range set.Common {
		if hasItem(detected, item) || commonCount >= 3 {
			continue
		}
		commonCount++
		out = append(out, types.Suggestion{
			Kind:       types.SuggestionAddition,
			Target:     -1,
			Item:       item,
			Rationale:  fmt.Sprintf("A %s would round out the %s", item, roomName(room)),
			Confidence: confCommon,
		})
	}

	luxuryCount := 0
	for _, item := range set.Luxury {
		if hasItem(detected, item) || luxuryCount >= 2 {
			continue
		}
		luxuryCount++
		out = append(out, types.Suggestion{
			Kind:       types.SuggestionAddition,
			Target:     -1,
			Item:       item,
			Rationale:  fmt.Sprintf("For a premium touch, consider a %s", item),
			Confidence: confLuxury,
		})
	}
	return out
}

// layoutTips surfaces the room's general arrangement advice.
func (e *Engine) layoutTips(room RoomType) []types.Suggestion {
	tips := e.rules.LayoutTips[room]
	if len(tips) > 3 {
		tips = tips[:3]
	}

	out := make([]types.Suggestion, 0, len(tips))
	for _, tip := range tips {
		out = append(out, types.Suggestion{
			Kind:       types.SuggestionPlacement,
			Target:     -1,
			Rationale:  tip,
			Confidence: confLayout,
		})
	}
	return out
}

// styleHints proposes the style's signature materials, plus a palette-based
// hint when the image is available.
func (e *Engine) styleHints(in Input, style string) []types.Suggestion {
	profile, ok := e.rules.Styles[style]
	if !ok {
		return nil
	}

	var out []types.Suggestion
	if len(profile.Materials) > 0 {
		out = append(out, types.Suggestion{
			Kind:       types.SuggestionMaterial,
			Target:     -1,
			Rationale:  fmt.Sprintf("For a %s look, favor %s", style, strings.Join(profile.Materials, ", ")),
			Confidence: confStyle,
		})
	}

	if in.Image != nil {
		if hint := paletteHint(in.Image, style, profile); hint != "" {
			out = append(out, types.Suggestion{
				Kind:       types.SuggestionStyle,
				Target:     -1,
				Rationale:  hint,
				Confidence: confStyle,
			})
		}
	}
	return out
}

// hasItem reports whether any detected label matches the wanted item,
// accepting partial matches in either direction.
func hasItem(detected []string, item string) bool {
	for _, d := range detected {
		if strings.Contains(d, item) || strings.Contains(item, d) {
			return true
		}
	}
	return false
}

// boxGapPx returns the smallest axis gap between two boxes in pixels, or a
// negative value when they overlap.
func boxGapPx(a, b types.Box) int {
	gapX := maxInt(a.X-(b.X+b.W), b.X-(a.X+a.W))
	gapY := maxInt(a.Y-(b.Y+b.H), b.Y-(a.Y+a.H))
	return maxInt(gapX, gapY)
}

// measuredScale recovers the cm-per-pixel scale from the first measurement
// with a usable width. Returns 0 when no measurements exist.
func measuredScale(in Input) float64 {
	for _, m := range in.Measurements {
		if m.ObjectIndex < 0 || m.ObjectIndex >= len(in.Detections) {
			continue
		}
		w := in.Detections[m.ObjectIndex].Box.W
		if w > 0 && m.Width > 0 {
			return m.Width / float64(w)
		}
	}
	return 0
}

func roomName(room RoomType) string {
	return strings.ReplaceAll(string(room), "_", " ")
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

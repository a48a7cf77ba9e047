package types

// Box is an axis-aligned bounding box in pixel space.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// DetectedObject is a single object located by the detection model.
// Instances are immutable once produced by the adapter.
type DetectedObject struct {
	Label      string  `json:"label"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Measurement is the physical size of a detected object, derived from its
// bounding box and a reference scale. Values are rounded to the estimator's
// declared precision; ErrorMargin is always reported and never negative.
type Measurement struct {
	ObjectIndex int     `json:"object_index"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Unit        string  `json:"unit"`
	ErrorMargin float64 `json:"error_margin"`
}

// RoomDimensions is a whole-room estimate derived from the image extent and
// the reference scale.
type RoomDimensions struct {
	LengthM    float64 `json:"length_m"`
	WidthM     float64 `json:"width_m"`
	HeightM    float64 `json:"height_m"`
	LengthFt   float64 `json:"length_ft"`
	WidthFt    float64 `json:"width_ft"`
	HeightFt   float64 `json:"height_ft"`
	FloorSqM   float64 `json:"floor_area_sqm"`
	FloorSqFt  float64 `json:"floor_area_sqft"`
	Confidence string  `json:"confidence"`
}

// CostEstimate is the priced line item for one object.
// Invariant: Subtotal = UnitPrice * Quantity.
type CostEstimate struct {
	ObjectIndex int    `json:"object_index"`
	Name        string `json:"name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int    `json:"quantity"`
	Subtotal    string `json:"subtotal"`
	Currency    string `json:"currency"`
}

// UnpricedItem flags a label absent from the pricing table.
type UnpricedItem struct {
	ObjectIndex int    `json:"object_index"`
	Label       string `json:"label"`
	Reason      string `json:"reason"`
}

// CostBreakdown aggregates line items. Labels missing from the pricing table
// end up in Unpriced instead of failing the whole estimate.
type CostBreakdown struct {
	Items        []CostEstimate `json:"items"`
	Unpriced     []UnpricedItem `json:"unpriced,omitempty"`
	Subtotal     string         `json:"subtotal"`
	Installation string         `json:"installation"`
	Total        string         `json:"total"`
	Currency     string         `json:"currency"`
	BudgetLevel  string         `json:"budget_level"`
}

// SuggestionKind classifies a suggestion.
type SuggestionKind string

const (
	SuggestionAddition  SuggestionKind = "addition"
	SuggestionPlacement SuggestionKind = "placement"
	SuggestionStyle     SuggestionKind = "style"
	SuggestionMaterial  SuggestionKind = "material"
)

// Suggestion is one proposed design adjustment. Target is the index of the
// detected object it refers to, or -1 when it applies to the room as a whole.
type Suggestion struct {
	Kind       SuggestionKind `json:"kind"`
	Target     int            `json:"target"`
	Item       string         `json:"item,omitempty"`
	Rationale  string         `json:"rationale"`
	Confidence float64        `json:"confidence"`
}

// GenerationParams tunes the image generation model.
type GenerationParams struct {
	Strength       float64 `json:"strength,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

// GenerationRequest asks the generation model for a redesigned room image.
// ReferenceImage, when set, switches the model to image-to-image mode.
type GenerationRequest struct {
	Prompt         string
	ReferenceImage []byte
	Params         GenerationParams
}

// GenerationResult carries the generated image as encoded bytes.
type GenerationResult struct {
	Image    []byte
	MimeType string
}

// SectionState reports whether a sub-result of a composed response is
// usable, degraded, or missing.
type SectionState string

const (
	SectionComplete SectionState = "complete"
	SectionPartial  SectionState = "partial"
	SectionAbsent   SectionState = "absent"
)

// SectionStatus is attached to every sub-result of a Report. An absent or
// partial section always names its reason; nothing is dropped silently.
type SectionStatus struct {
	State  SectionState `json:"state"`
	Reason string       `json:"reason,omitempty"`
}

// Report is the composed response of one pipeline run.
type Report struct {
	RequestID string `json:"request_id"`
	RoomType  string `json:"room_type,omitempty"`
	Style     string `json:"style,omitempty"`

	Detections      []DetectedObject `json:"detections,omitempty"`
	AnnotatedImage  string           `json:"annotated_image,omitempty"`
	DetectionStatus SectionStatus    `json:"detection_status"`

	Measurements      []Measurement   `json:"measurements,omitempty"`
	Room              *RoomDimensions `json:"room,omitempty"`
	MeasurementStatus SectionStatus   `json:"measurement_status"`

	Costs      *CostBreakdown `json:"costs,omitempty"`
	CostStatus SectionStatus  `json:"cost_status"`

	Suggestions      []Suggestion  `json:"suggestions,omitempty"`
	SuggestionStatus SectionStatus `json:"suggestion_status"`

	RenderedImage    string        `json:"rendered_image,omitempty"`
	ComparisonImage  string        `json:"comparison_image,omitempty"`
	GenerationStatus SectionStatus `json:"generation_status"`
}

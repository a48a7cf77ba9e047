package suggest

// RoomType names a supported room category.
type RoomType string

const (
	LivingRoom RoomType = "living_room"
	Bedroom    RoomType = "bedroom"
	Kitchen    RoomType = "kitchen"
	DiningRoom RoomType = "dining_room"
	Bathroom   RoomType = "bathroom"
	Office     RoomType = "office"
	PoojaRoom  RoomType = "pooja_room"
)

// FurnitureSet groups a room's furniture by priority.
type FurnitureSet struct {
	Essential []string
	Common    []string
	Luxury    []string
}

// StyleProfile describes an interior style's signature.
type StyleProfile struct {
	Keywords  []string
	Colors    []string
	Materials []string
}

// RuleSet is the process-wide, read-only rule configuration. It is loaded
// once at startup and never mutated.
type RuleSet struct {
	Furniture      map[RoomType]FurnitureSet
	RoomIndicators map[RoomType][]string
	Styles         map[string]StyleProfile
	LayoutTips     map[RoomType][]string
	// MinClearanceCm is the smallest acceptable gap between two pieces of
	// furniture before a placement warning fires.
	MinClearanceCm float64
}

// roomOrder fixes iteration order over room types so rule evaluation is
// deterministic.
var roomOrder = []RoomType{LivingRoom, Bedroom, Kitchen, DiningRoom, Bathroom, Office, PoojaRoom}

// styleOrder fixes iteration order over styles.
var styleOrder = []string{"modern", "indian", "minimalist", "scandinavian", "italian"}

// DefaultRules returns the built-in rule set.
func DefaultRules() *RuleSet {
	return &RuleSet{
		MinClearanceCm: 45,
		Furniture: map[RoomType]FurnitureSet{
			LivingRoom: {
				Essential: []string{"sofa", "coffee table", "tv stand"},
				Common:    []string{"armchair", "side table", "floor lamp", "rug", "bookshelf"},
				Luxury:    []string{"ottoman", "console table", "armchair"},
			},
			Bedroom: {
				Essential: []string{"bed", "nightstand", "wardrobe"},
				Common:    []string{"dresser", "bedside lamp", "rug", "mirror"},
				Luxury:    []string{"vanity", "armchair", "bench"},
			},
			Kitchen: {
				Essential: []string{"dining table", "chair"},
				Common:    []string{"bar stool", "pendant light", "kitchen island"},
				Luxury:    []string{"wine rack", "bar cart"},
			},
			DiningRoom: {
				Essential: []string{"dining table", "dining chair"},
				Common:    []string{"sideboard", "pendant light", "centerpiece", "rug"},
				Luxury:    []string{"bar cart", "wall art"},
			},
			Bathroom: {
				Essential: []string{"vanity", "mirror"},
				Common:    []string{"storage cabinet", "towel rack", "bath mat"},
				Luxury:    []string{"decorative shelf", "plant stand"},
			},
			Office: {
				Essential: []string{"desk", "office chair"},
				Common:    []string{"bookshelf", "desk lamp", "filing cabinet", "rug"},
				Luxury:    []string{"credenza", "wall shelf"},
			},
			PoojaRoom: {
				Essential: []string{"puja shelf", "deity idols"},
				Common:    []string{"diya stand", "prayer mat", "incense holder"},
				Luxury:    []string{"wooden puja mandir", "prayer bells"},
			},
		},
		RoomIndicators: map[RoomType][]string{
			Bedroom:    {"bed", "nightstand", "dresser", "wardrobe"},
			LivingRoom: {"sofa", "couch", "tv stand", "coffee table", "armchair", "tv"},
			Kitchen:    {"stove", "refrigerator", "oven", "kitchen island", "microwave"},
			DiningRoom: {"dining table", "dining chair", "sideboard"},
			Bathroom:   {"toilet", "bathtub", "shower", "towel rack"},
			Office:     {"desk", "office chair", "filing cabinet", "bookshelf"},
		},
		Styles: map[string]StyleProfile{
			"modern": {
				Keywords:  []string{"modern", "contemporary", "minimalist"},
				Colors:    []string{"gray", "white", "black", "navy"},
				Materials: []string{"glass", "metal", "leather"},
			},
			"indian": {
				Keywords:  []string{"traditional", "ethnic", "carved", "ornate"},
				Colors:    []string{"red", "gold", "maroon", "orange"},
				Materials: []string{"wood", "brass", "silk"},
			},
			"minimalist": {
				Keywords:  []string{"simple", "clean", "minimal", "functional"},
				Colors:    []string{"white", "beige", "gray"},
				Materials: []string{"wood", "concrete", "linen"},
			},
			"scandinavian": {
				Keywords:  []string{"light", "cozy", "natural", "simple"},
				Colors:    []string{"white", "light gray", "beige", "pastel"},
				Materials: []string{"light wood", "wool", "cotton"},
			},
			"italian": {
				Keywords:  []string{"elegant", "sophisticated", "luxurious"},
				Colors:    []string{"cream", "gold", "burgundy"},
				Materials: []string{"marble", "velvet", "leather"},
			},
		},
		LayoutTips: map[RoomType][]string{
			LivingRoom: {
				"Arrange seating to encourage conversation",
				"Place TV at comfortable viewing distance",
				"Use area rug to define seating area",
			},
			Bedroom: {
				"Position bed as focal point",
				"Ensure adequate lighting with bedside lamps",
				"Create symmetry with matching nightstands",
			},
			Kitchen: {
				"Maintain work triangle between stove, sink, and fridge",
				"Ensure adequate counter space for prep work",
				"Add task lighting above work areas",
			},
			DiningRoom: {
				"Center dining table in room",
				"Allow 90 cm clearance around table",
				"Hang pendant light 75-90 cm above table",
			},
			Office: {
				"Position desk near natural light",
				"Ensure ergonomic chair placement",
				"Organize with adequate storage",
			},
			Bathroom: {
				"Maximize storage with cabinets and shelves",
				"Ensure proper ventilation",
				"Use water-resistant materials",
			},
			PoojaRoom: {
				"Face the shrine east where possible",
				"Keep the prayer area free of clutter",
				"Use warm, soft lighting",
			},
		},
	}
}

// NormalizeRoomType maps free-form room names from the API to canonical
// room types. Unrecognized names default to living room.
func NormalizeRoomType(name string) RoomType {
	switch normalizeLabel(name) {
	case "bedroom":
		return Bedroom
	case "kitchen":
		return Kitchen
	case "bathroom":
		return Bathroom
	case "dining room", "dining_room":
		return DiningRoom
	case "office", "study room", "study_room":
		return Office
	case "pooja room", "pooja_room":
		return PoojaRoom
	default:
		return LivingRoom
	}
}

package mraid

// Version is the MRAID protocol version implemented by the engine.
const Version = "2.0"

// PlacementType tells whether the ad is embedded in content or shown full screen.
type PlacementType string

const (
	PlacementInline       PlacementType = "inline"
	PlacementInterstitial PlacementType = "interstitial"
)

// State is the container lifecycle state.
type State string

const (
	StateLoading  State = "loading"
	StateDefault  State = "default"
	StateHidden   State = "hidden"
	StateResized  State = "resized"
	StateExpanded State = "expanded"
)

// ForceOrientation is the orientation a creative may request.
type ForceOrientation string

const (
	OrientationPortrait  ForceOrientation = "portrait"
	OrientationLandscape ForceOrientation = "landscape"
	OrientationNone      ForceOrientation = "none"
)

var forceOrientations = []ForceOrientation{OrientationPortrait, OrientationLandscape, OrientationNone}

// ClosePosition anchors the close control of a resized ad.
type ClosePosition string

const (
	CloseTopLeft      ClosePosition = "top-left"
	CloseTopRight     ClosePosition = "top-right"
	CloseCenter       ClosePosition = "center"
	CloseBottomLeft   ClosePosition = "bottom-left"
	CloseBottomRight  ClosePosition = "bottom-right"
	CloseTopCenter    ClosePosition = "top-center"
	CloseBottomCenter ClosePosition = "bottom-center"
)

var closePositions = []ClosePosition{
	CloseTopLeft, CloseTopRight, CloseCenter,
	CloseBottomLeft, CloseBottomRight, CloseTopCenter, CloseBottomCenter,
}

// Rect is a position and size in density-independent pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size is a width and height in density-independent pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Positions carries the geometry the native layer pushes. Nil fields are left unchanged.
type Positions struct {
	CurrentPosition *Rect
	MaxSize         *Size
	ScreenSize      *Size
}

// Props is a loosely typed property object as supplied by a creative.
type Props map[string]any

// ExpandProperties is the creative-visible view of the expand properties.
type ExpandProperties struct {
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	UseCustomClose bool    `json:"useCustomClose"`
	IsModal        bool    `json:"isModal"`
}

// ResizeProperties are the last successfully validated resize properties.
type ResizeProperties struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`

	// CustomClosePosition is empty when the creative did not set one.
	CustomClosePosition ClosePosition `json:"customClosePosition,omitempty"`
	// AllowOffscreen is nil when the creative did not set it.
	AllowOffscreen *bool `json:"allowOffscreen,omitempty"`
}

// OrientationProperties are the creative's orientation preferences.
type OrientationProperties struct {
	AllowOrientationChange bool             `json:"allowOrientationChange"`
	ForceOrientation       ForceOrientation `json:"forceOrientation"`
}

// expandProps holds what the creative stored; nil means unset.
type expandProps struct {
	width          *float64
	height         *float64
	useCustomClose *bool
}

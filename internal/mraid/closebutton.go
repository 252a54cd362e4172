package mraid

const (
	// minSize is the smallest width or height accepted for expand and resize.
	minSize = 50
	// closeControlSize is the side of the square close control of a resized ad.
	closeControlSize = 50
)

// closeButtonRect computes where the close control lands once the ad at
// origin is resized with p.
func closeButtonRect(origin Rect, p ResizeProperties) Rect {
	left := origin.X + p.OffsetX
	top := origin.Y + p.OffsetY
	right := left + p.Width - closeControlSize
	bottom := top + p.Height - closeControlSize
	centerX := left + p.Width/2 - closeControlSize/2
	centerY := top + p.Height/2 - closeControlSize/2

	r := Rect{Width: closeControlSize, Height: closeControlSize}
	switch p.CustomClosePosition {
	case CloseTopLeft:
		r.X, r.Y = left, top
	case CloseTopRight, "":
		r.X, r.Y = right, top
	case CloseBottomLeft:
		r.X, r.Y = left, bottom
	case CloseBottomRight:
		r.X, r.Y = right, bottom
	case CloseTopCenter:
		r.X, r.Y = centerX, top
	case CloseBottomCenter:
		r.X, r.Y = centerX, bottom
	default:
		r.X, r.Y = centerX, centerY
	}
	return r
}

func fitsMaxSize(r Rect, bounds Size) bool {
	return r.X >= 0 && r.X <= bounds.Width-r.Width &&
		r.Y >= 0 && r.Y <= bounds.Height-r.Height
}

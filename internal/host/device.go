package host

import (
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// Location is the fixed position the simulated device reports.
type Location struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

// Device answers MMJS device, media, calendar and notification calls the
// way a device without a camera or photo library would.
type Device struct {
	native   *Native
	location Location
	logger   *zap.Logger
}

// NewDevice registers the device handlers on n.
func NewDevice(n *Native, location Location, logger *zap.Logger) *Device {
	d := &Device{
		native:   n,
		location: location,
		logger:   logger.With(zap.String("component", "device")),
	}

	succeed := []string{
		"openInBrowser", "call", "sms", "email", "openMap", "openAppStore",
		"addCalendarEvent", "addReminder", "savePictureToPhotoLibrary",
	}
	for _, action := range succeed {
		n.Handle(protocol.ModuleMMJS, action, d.answer(true))
	}
	unavailable := []string{
		"isSchemeAvailable", "isPackageAvailable", "isSourceTypeAvailable",
		"getPictureFromPhotoLibrary", "openCamera",
	}
	for _, action := range unavailable {
		n.Handle(protocol.ModuleMMJS, action, d.answer(false))
	}
	n.Handle(protocol.ModuleMMJS, "getAvailableSourceTypes", d.answer([]any{}))
	n.Handle(protocol.ModuleMMJS, "location", d.getLocation)
	n.Handle(protocol.ModuleMMJS, "vibrate", d.vibrate)
	return d
}

func (d *Device) answer(result any) Handler {
	return func(call protocol.Call) {
		d.logger.Info("Device request",
			zap.String("action", call.Action),
			zap.Any("params", call.Values()),
		)
		d.native.CallbackFrom(call, "callbackId", result)
	}
}

func (d *Device) getLocation(call protocol.Call) {
	d.native.CallbackFrom(call, "callbackId", map[string]any{
		"latitude":  d.location.Latitude,
		"longitude": d.location.Longitude,
	})
}

func (d *Device) vibrate(call protocol.Call) {
	pattern, _ := call.Value("pattern")
	d.logger.Info("Vibrating", zap.Any("pattern", pattern))
	d.native.CallbackFrom(call, "onStartCallbackId")
	d.native.CallbackFrom(call, "onFinishCallbackId")
}

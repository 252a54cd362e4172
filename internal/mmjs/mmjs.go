// Package mmjs implements the device, media, calendar and notification calls
// offered to creatives. Each call formats its arguments and dispatches once;
// results come back through the optional callback.
package mmjs

import (
	"github.com/woxQAQ/creative-bridge/internal/bridge"
	"github.com/woxQAQ/creative-bridge/pkg/protocol"
	"go.uber.org/zap"
)

// API groups the pass-through calls of one page.
type API struct {
	Device       *Device
	Media        *Media
	Calendar     *Calendar
	Notification *Notification
}

// New creates the pass-through API over b.
func New(b *bridge.Bridge, logger *zap.Logger) *API {
	c := &caller{bridge: b, logger: logger.With(zap.String("component", "mmjs"))}
	return &API{
		Device:       &Device{c},
		Media:        &Media{c},
		Calendar:     &Calendar{c},
		Notification: &Notification{c},
	}
}

type caller struct {
	bridge *bridge.Bridge
	logger *zap.Logger
}

func (c *caller) call(action string, params ...protocol.Param) {
	c.logger.Debug("MMJS call", zap.String("action", action))
	c.bridge.Call(protocol.ModuleMMJS, action, params...)
}

func (c *caller) callback(cb bridge.Callback) protocol.Param {
	return c.callbackParam("callbackId", cb)
}

func (c *caller) callbackParam(name string, cb bridge.Callback) protocol.Param {
	return protocol.NewParam(name, c.bridge.CallbackID(cb))
}

// Device opens other apps and queries device capabilities.
type Device struct{ c *caller }

func (d *Device) OpenInBrowser(url any, cb bridge.Callback) {
	d.c.call("openInBrowser", protocol.NewParam("url", url), d.c.callback(cb))
}

func (d *Device) IsSchemeAvailable(name any, cb bridge.Callback) {
	d.c.call("isSchemeAvailable", protocol.NewParam("name", name), d.c.callback(cb))
}

func (d *Device) IsPackageAvailable(name any, cb bridge.Callback) {
	d.c.call("isPackageAvailable", protocol.NewParam("name", name), d.c.callback(cb))
}

func (d *Device) Call(number any, cb bridge.Callback) {
	d.c.call("call", protocol.NewParam("number", number), d.c.callback(cb))
}

func (d *Device) ComposeSMS(recipients, message any, cb bridge.Callback) {
	d.c.call("sms",
		protocol.NewParam("recipients", recipients),
		protocol.NewParam("message", message),
		d.c.callback(cb),
	)
}

// EmailOptions describes an email to compose.
type EmailOptions struct {
	Recipients any
	Subject    any
	Message    any
	Type       any
}

func (d *Device) ComposeEmail(opts EmailOptions, cb bridge.Callback) {
	d.c.call("email",
		protocol.NewParam("recipients", opts.Recipients),
		protocol.NewParam("subject", opts.Subject),
		protocol.NewParam("message", opts.Message),
		protocol.NewParam("type", opts.Type),
		d.c.callback(cb),
	)
}

// OpenMapAddress opens the map app at a street address.
func (d *Device) OpenMapAddress(address string, cb bridge.Callback) {
	d.c.call("openMap", protocol.NewParam("address", address), d.c.callback(cb))
}

// OpenMapCoordinates opens the map app at a latitude and longitude.
func (d *Device) OpenMapCoordinates(latitude, longitude float64, cb bridge.Callback) {
	d.c.call("openMap",
		protocol.NewParam("latitude", latitude),
		protocol.NewParam("longitude", longitude),
		d.c.callback(cb),
	)
}

// OpenAppStore opens the store page of appId. affiliateId and campaignId may be nil.
func (d *Device) OpenAppStore(appID, affiliateID, campaignID any, cb bridge.Callback) {
	d.c.call("openAppStore",
		protocol.NewParam("appId", appID),
		protocol.NewParam("affiliateId", affiliateID),
		protocol.NewParam("campaignId", campaignID),
		d.c.callback(cb),
	)
}

func (d *Device) GetLocation(cb bridge.Callback) {
	d.c.call("location", d.c.callback(cb))
}

// Media reaches the camera and photo library.
type Media struct{ c *caller }

func (m *Media) IsSourceTypeAvailable(sourceType any, cb bridge.Callback) {
	m.c.call("isSourceTypeAvailable", protocol.NewParam("sourceType", sourceType), m.c.callback(cb))
}

func (m *Media) GetAvailableSourceTypes(cb bridge.Callback) {
	m.c.call("getAvailableSourceTypes", m.c.callback(cb))
}

func (m *Media) GetPictureFromPhotoLibrary(size any, cb bridge.Callback) {
	m.c.call("getPictureFromPhotoLibrary", protocol.NewParam("size", size), m.c.callback(cb))
}

func (m *Media) OpenCamera(preferredCamera, size any, cb bridge.Callback) {
	m.c.call("openCamera",
		protocol.NewParam("preferredCamera", preferredCamera),
		protocol.NewParam("size", size),
		m.c.callback(cb),
	)
}

// SavePictureToPhotoLibrary saves the picture at url. name and description may be nil.
func (m *Media) SavePictureToPhotoLibrary(url, name, description any, cb bridge.Callback) {
	m.c.call("savePictureToPhotoLibrary",
		protocol.NewParam("url", url),
		protocol.NewParam("name", name),
		protocol.NewParam("description", description),
		m.c.callback(cb),
	)
}

// Calendar adds events and reminders.
type Calendar struct{ c *caller }

func (c *Calendar) AddEvent(options any, cb bridge.Callback) {
	c.c.call("addCalendarEvent", protocol.NewParam("options", options), c.c.callback(cb))
}

func (c *Calendar) AddReminder(options any, cb bridge.Callback) {
	c.c.call("addReminder", protocol.NewParam("options", options), c.c.callback(cb))
}

// Notification drives the vibrator.
type Notification struct{ c *caller }

// Vibrate runs pattern; onStart and onFinish are optional.
func (n *Notification) Vibrate(pattern any, onStart, onFinish bridge.Callback) {
	n.c.call("vibrate",
		protocol.NewParam("pattern", pattern),
		n.c.callbackParam("onStartCallbackId", onStart),
		n.c.callbackParam("onFinishCallbackId", onFinish),
	)
}

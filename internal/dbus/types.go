package dbus

import (
	"github.com/godbus/dbus/v5"
)

// Urgency levels used by freedesktop notification servers.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// Notification is an outgoing org.freedesktop.Notifications.Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// NewNotification creates a notification with server-default expiry.
func NewNotification(appName, summary, body string) *Notification {
	return &Notification{
		AppName:       appName,
		Summary:       summary,
		Body:          body,
		Hints:         make(map[string]dbus.Variant),
		ExpireTimeout: -1,
	}
}

// SetHint sets an arbitrary hint value.
func (n *Notification) SetHint(key string, value any) {
	if n.Hints == nil {
		n.Hints = make(map[string]dbus.Variant)
	}
	n.Hints[key] = dbus.MakeVariant(value)
}

// SetUrgency sets the urgency hint. Out-of-range values become normal.
func (n *Notification) SetUrgency(level byte) {
	if level > UrgencyCritical {
		level = UrgencyNormal
	}
	n.SetHint("urgency", level)
}

// SetTransient marks the notification as not to be kept in history.
func (n *Notification) SetTransient(transient bool) {
	n.SetHint("transient", transient)
}

// SetStackTag groups notifications so daemons that support it replace
// older ones with the same tag.
func (n *Notification) SetStackTag(tag string) {
	n.SetHint("x-dunst-stack-tag", tag)
}

// SetProgress sets the progress value hint (0-100).
func (n *Notification) SetProgress(pct int) {
	n.SetHint("value", int32(max(0, min(100, pct))))
}

// Urgency returns the urgency hint, or UrgencyNormal if unset.
func (n *Notification) Urgency() byte {
	if v, ok := n.Hints["urgency"]; ok {
		if b, ok := v.Value().(byte); ok {
			return b
		}
	}
	return UrgencyNormal
}

// args returns the Notify method arguments in wire order.
func (n *Notification) args() []any {
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	return []any{
		n.AppName,
		n.ReplacesID,
		n.AppIcon,
		n.Summary,
		n.Body,
		actions,
		hints,
		n.ExpireTimeout,
	}
}

// ServerInfo contains information about the notification server.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

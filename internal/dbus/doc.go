// Package dbus talks to the org.freedesktop.Notifications D-Bus interface
// as a client. It sends Notify and CloseNotification calls on the session
// bus so countdown bubbles can be shown and replaced in place.
package dbus

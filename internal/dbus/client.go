package dbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	// DBusInterface is the notification interface name.
	DBusInterface = "org.freedesktop.Notifications"
	// DBusPath is the notification object path.
	DBusPath = "/org/freedesktop/Notifications"
	// DBusBusName is the bus name of the notification daemon.
	DBusBusName = "org.freedesktop.Notifications"
)

// Client sends notifications to the session notification daemon.
type Client struct {
	mu     sync.Mutex
	conn   *dbus.Conn
	obj    dbus.BusObject
	logger *slog.Logger
}

// NewClient creates a new Client. Call Connect before sending.
func NewClient(logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{logger: logger}
}

// Connect opens a private session bus connection.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	c.conn = conn
	c.obj = conn.Object(DBusBusName, DBusPath)
	return nil
}

// Notify sends a notification and returns the id assigned by the daemon.
// Set n.ReplacesID to update an existing notification in place.
func (c *Client) Notify(ctx context.Context, n *Notification) (uint32, error) {
	obj, err := c.object()
	if err != nil {
		return 0, err
	}

	var id uint32
	call := obj.CallWithContext(ctx, DBusInterface+".Notify", 0, n.args()...)
	if call.Err != nil {
		return 0, fmt.Errorf("notify call failed: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}

	c.logger.Debug("sent notification", "id", id, "summary", n.Summary, "replaces", n.ReplacesID, "urgency", n.Urgency())
	return id, nil
}

// CloseNotification asks the daemon to close the notification with id.
func (c *Client) CloseNotification(ctx context.Context, id uint32) error {
	obj, err := c.object()
	if err != nil {
		return err
	}

	if err := obj.CallWithContext(ctx, DBusInterface+".CloseNotification", 0, id).Err; err != nil {
		return fmt.Errorf("close notification %d failed: %w", id, err)
	}
	return nil
}

// ServerInformation returns the daemon's GetServerInformation reply.
func (c *Client) ServerInformation(ctx context.Context) (ServerInfo, error) {
	obj, err := c.object()
	if err != nil {
		return ServerInfo{}, err
	}

	var info ServerInfo
	call := obj.CallWithContext(ctx, DBusInterface+".GetServerInformation", 0)
	if call.Err != nil {
		return ServerInfo{}, fmt.Errorf("GetServerInformation failed: %w", call.Err)
	}
	if err := call.Store(&info.Name, &info.Vendor, &info.Version, &info.SpecVersion); err != nil {
		return ServerInfo{}, err
	}
	return info, nil
}

// Close releases the bus connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.obj = nil
	return err
}

func (c *Client) object() (dbus.BusObject, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.obj == nil {
		return nil, fmt.Errorf("not connected to D-Bus")
	}
	return c.obj, nil
}

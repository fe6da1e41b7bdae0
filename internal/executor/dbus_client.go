//go:build linux
// +build linux

package executor

import (
	"github.com/godbus/dbus/v5"
)

// DBusClient defines the interface for D-Bus operations.
// This abstraction allows us to mock D-Bus interactions in tests.
//
//go:generate mockgen -destination=mocks/dbus_client_mock.go -package=mocks github.com/genricoloni/visuals/internal/executor DBusClient
type DBusClient interface {
	// Close closes the D-Bus connection
	Close() error

	// ListNames returns all names on the bus
	ListNames() ([]string, error)

	// CallString invokes method on the object at dest/path and returns its
	// single string reply
	CallString(dest, path, method string, args ...any) (string, error)
}

// StdDBusClient is the real implementation using godbus
type StdDBusClient struct {
	conn *dbus.Conn
}

// NewStdDBusClient creates a D-Bus client connected to a private session
// bus connection
func NewStdDBusClient() (*StdDBusClient, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, err
	}
	return &StdDBusClient{conn: conn}, nil
}

// Close closes the D-Bus connection
func (c *StdDBusClient) Close() error {
	return c.conn.Close()
}

// ListNames returns all names on the bus
func (c *StdDBusClient) ListNames() ([]string, error) {
	var names []string
	err := c.conn.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names)
	return names, err
}

// CallString invokes a method returning one string
func (c *StdDBusClient) CallString(dest, path, method string, args ...any) (string, error) {
	var out string
	err := c.conn.Object(dest, dbus.ObjectPath(path)).Call(method, 0, args...).Store(&out)
	return out, err
}

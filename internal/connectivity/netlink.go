package connectivity

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"offlineform/internal/logging"
)

// NetlinkMonitor listens for udev events on network interfaces and reports
// the interface name of every matching event.
type NetlinkMonitor struct {
	logger  *slog.Logger
	onEvent func(iface string)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewNetlinkMonitor creates a monitor that calls onEvent for interface
// additions, changes, and renames.
func NewNetlinkMonitor(logger *slog.Logger, onEvent func(iface string)) *NetlinkMonitor {
	return &NetlinkMonitor{
		logger:  logging.NewComponentLogger(logger, "netlink-monitor"),
		onEvent: onEvent,
	}
}

// Start begins listening. Failing to open the netlink socket is logged and
// leaves the monitor stopped; polling still detects restoration.
func (m *NetlinkMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; relying on polling",
			logging.Error(err),
			logging.String(logging.FieldEventType, "netlink_connect_failed"),
			logging.String(logging.FieldErrorHint, "ensure the process may open netlink sockets"),
			logging.String(logging.FieldImpact, "connectivity restoration noticed on the next poll only"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Info("netlink monitor started",
		logging.String(logging.FieldEventType, "netlink_monitor_started"),
	)
	return nil
}

// Stop shuts the monitor down. Safe to call more than once.
func (m *NetlinkMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("netlink monitor stopped",
		logging.String(logging.FieldEventType, "netlink_monitor_stopped"),
	)
}

// Running reports whether the monitor is active.
func (m *NetlinkMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *NetlinkMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("netlink monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "netlink_monitor_error"),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "interface events may be missed"),
			)
		}
	}
}

// buildMatcher matches SUBSYSTEM=net with ACTION=add|change|move.
func buildMatcher() netlink.Matcher {
	action := "^(add|change|move)$"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "^net$",
		},
	})
	return rules
}

func (m *NetlinkMonitor) handleEvent(uevent netlink.UEvent) {
	iface := uevent.Env["INTERFACE"]
	if iface == "" || iface == "lo" {
		m.logger.Debug("ignoring network event",
			logging.String("interface", iface),
			logging.String("kobj", uevent.KObj),
		)
		return
	}

	m.logger.Debug("network interface event",
		logging.String(logging.FieldEventType, "netlink_interface_event"),
		logging.String("interface", iface),
		logging.String("uevent_action", string(uevent.Action)),
	)
	if m.onEvent != nil {
		m.onEvent(iface)
	}
}

package discovery

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/device"
	"github.com/tapo-protocol/tapo-go/pkg/errs"
	"github.com/tapo-protocol/tapo-go/pkg/wire"
)

// Defaults.
const (
	// Port is the UDP port devices listen on for probes.
	Port = 20002

	// ProbeInterval is how often the probe is repeated.
	ProbeInterval = 3 * time.Second

	// ScanTimeout bounds a scan when the config sets no timeout.
	ScanTimeout = 10 * time.Second

	// maxPacket bounds one reply.
	maxPacket = 2048
)

// Connector opens a handle for a discovered device.
type Connector interface {
	Connect(ctx context.Context, address string, category device.Category, variant wire.Variant) (device.Device, error)
}

// ScannerConfig configures a Scanner.
type ScannerConfig struct {
	// Connector is used by Result.Connect. Optional.
	Connector Connector

	// Port overrides the probe port (default: 20002).
	Port int

	// ProbeInterval overrides the probe period (default: 3s).
	ProbeInterval time.Duration

	// Timeout bounds each scan (default: 10s).
	Timeout time.Duration

	// Logger is used for operational logging. Nil disables it.
	Logger *slog.Logger

	// ListenPacket opens the scan socket (default: net.ListenPacket).
	// Set this in tests to inject a fake connection.
	ListenPacket func(network, address string) (net.PacketConn, error)

	// Probe builds the probe (default: NewProbe).
	Probe func() ([]byte, error)
}

// Scanner finds devices by broadcasting probes.
type Scanner struct {
	config ScannerConfig
	logger *slog.Logger
}

// NewScanner creates a Scanner.
func NewScanner(config ScannerConfig) *Scanner {
	if config.Port == 0 {
		config.Port = Port
	}
	if config.ProbeInterval == 0 {
		config.ProbeInterval = ProbeInterval
	}
	if config.Timeout == 0 {
		config.Timeout = ScanTimeout
	}
	if config.ListenPacket == nil {
		config.ListenPacket = net.ListenPacket
	}
	if config.Probe == nil {
		config.Probe = NewProbe
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scanner{config: config, logger: logger}
}

// Result is one device that answered.
type Result struct {
	// From is the source of the reply.
	From net.Addr

	Category device.Category
	Summary  *Summary

	connector Connector
}

// Connect opens a handle for the device, skipping scheme detection when the
// reply announced one.
func (r *Result) Connect(ctx context.Context) (device.Device, error) {
	if r.connector == nil {
		return nil, errors.New("discovery: scanner has no connector")
	}
	return r.connector.Connect(ctx, r.Summary.Address(), r.Category, r.Summary.Variant())
}

// Item is one element of a Stream: a result or the error of one reply.
type Item struct {
	Result *Result
	Err    error
}

// Scan starts probing target, a broadcast or unicast address. Replies arrive
// on the returned Stream until the timeout elapses, ctx ends or, for a
// unicast target, the target has answered.
func (s *Scanner) Scan(ctx context.Context, target string) (*Stream, error) {
	const op = "discovery"

	ip := net.ParseIP(target)
	if ip == nil {
		return nil, errs.Newf(errs.KindInvalidParameters, op, "target %q is not an IP address", target)
	}
	network, bind := "udp4", "0.0.0.0:0"
	if ip.To4() == nil {
		network, bind = "udp6", "[::]:0"
	}
	dst, err := net.ResolveUDPAddr(network, net.JoinHostPort(target, strconv.Itoa(s.config.Port)))
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameters, op, err)
	}

	probe, err := s.config.Probe()
	if err != nil {
		return nil, errs.New(errs.KindUnknown, op, err)
	}
	conn, err := s.config.ListenPacket(network, bind)
	if err != nil {
		return nil, errs.New(errs.KindNetwork, op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	st := &Stream{
		items:  make(chan Item, 64),
		cancel: cancel,
	}

	unicast := !ip.Equal(net.IPv4bcast) && !ip.IsMulticast() && !ip.IsUnspecified()

	// Closing the socket unblocks the reader.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	st.wg.Go(func() { s.probe(ctx, conn, dst, probe) })
	st.wg.Go(func() {
		defer cancel()
		s.receive(ctx, conn, ip, unicast, st.items)
	})
	go func() {
		st.wg.Wait()
		close(st.items)
	}()

	s.logger.Debug("scan started", "target", dst.String(), "timeout", s.config.Timeout)
	return st, nil
}

func (s *Scanner) probe(ctx context.Context, conn net.PacketConn, dst net.Addr, probe []byte) {
	ticker := time.NewTicker(s.config.ProbeInterval)
	defer ticker.Stop()
	for {
		if _, err := conn.WriteTo(probe, dst); err != nil {
			if ctx.Err() == nil {
				s.logger.Debug("probe failed", "error", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scanner) receive(ctx context.Context, conn net.PacketConn, target net.IP, unicast bool, out chan<- Item) {
	seen := make(map[string]bool)
	buf := make([]byte, maxPacket)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			emit(ctx, out, Item{Err: errs.New(errs.KindNetwork, "discovery", err)})
			return
		}
		// Only a readable reply marks its source as seen.
		key := from.String()
		if seen[key] {
			continue
		}
		item := s.item(buf[:n], from)
		if item.Err == nil {
			seen[key] = true
		}
		if !emit(ctx, out, item) {
			return
		}
		if item.Err == nil && unicast && hostIP(from).Equal(target) {
			return
		}
	}
}

func (s *Scanner) item(b []byte, from net.Addr) Item {
	sum, err := ParseReply(b)
	if err != nil {
		s.logger.Debug("malformed reply", "from", from.String(), "error", err)
		return Item{Err: err}
	}
	s.logger.Debug("device found", "from", from.String(), "model", sum.DeviceModel)
	return Item{Result: &Result{
		From:      from,
		Category:  device.CategoryForModel(sum.DeviceModel),
		Summary:   sum,
		connector: s.config.Connector,
	}}
}

func emit(ctx context.Context, out chan<- Item, it Item) bool {
	select {
	case out <- it:
		return true
	case <-ctx.Done():
		return false
	}
}

func hostIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.UDPAddr:
		return v.IP
	default:
		host, _, err := net.SplitHostPort(a.String())
		if err != nil {
			return nil
		}
		return net.ParseIP(host)
	}
}

// Stream is the lazy, single-pass sequence of scan results. Stop consuming
// it by calling Close.
type Stream struct {
	items  chan Item
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Next blocks for the next item. It returns false when the scan is over or
// ctx ends.
func (st *Stream) Next(ctx context.Context) (Item, bool) {
	select {
	case it, ok := <-st.items:
		return it, ok
	case <-ctx.Done():
		return Item{}, false
	}
}

// All iterates the remaining items. Breaking out of the loop closes the
// stream.
func (st *Stream) All() iter.Seq2[*Result, error] {
	return func(yield func(*Result, error) bool) {
		for it := range st.items {
			if !yield(it.Result, it.Err) {
				_ = st.Close()
				return
			}
		}
	}
}

// Close stops the scan and releases the socket.
func (st *Stream) Close() error {
	st.once.Do(func() {
		st.cancel()
	})
	return nil
}

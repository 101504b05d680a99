// Command pico-gorouter wires the embeddable server core into a standalone
// binary: it builds the routing tree, starts the main and health listeners
// as ifrit processes alongside the background monitors, and waits for
// SIGTERM/SIGINT/SIGUSR1 to drain, mirroring the shape of the teacher's
// main.go (config -> logger -> component wiring -> grouper.NewOrdered ->
// sigmon -> wait).
package main

import (
	"context"
	"flag"
	"os"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tedsuo/ifrit"
	"github.com/tedsuo/ifrit/grouper"
	"github.com/tedsuo/ifrit/sigmon"
	"go.uber.org/zap"

	"code.cloudfoundry.org/picogorouter/accept"
	"code.cloudfoundry.org/picogorouter/common/health"
	"code.cloudfoundry.org/picogorouter/config"
	"code.cloudfoundry.org/picogorouter/errorwriter"
	"code.cloudfoundry.org/picogorouter/handlers"
	"code.cloudfoundry.org/picogorouter/logger"
	"code.cloudfoundry.org/picogorouter/metrics"
	"code.cloudfoundry.org/picogorouter/metrics/monitor"
	"code.cloudfoundry.org/picogorouter/reader"
	"code.cloudfoundry.org/picogorouter/response"
	"code.cloudfoundry.org/picogorouter/router"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "c", "", "Configuration File")
	flag.Parse()

	log := logger.CreateLogger("pico-gorouter")

	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		cfg, err = config.InitConfigFromFile(configFile)
		if err != nil {
			log.Fatal("error-loading-config", zap.Error(err))
		}
	}

	log.Info("starting", zap.String("addr", cfg.Addr()))

	var ew errorwriter.ErrorWriter
	if cfg.ErrorTemplateFile != "" {
		var err error
		ew, err = errorwriter.NewHTMLErrorWriterFromFile(cfg.ErrorTemplateFile)
		if err != nil {
			log.Fatal("new-html-error-writer", zap.Error(err))
		}
	} else {
		ew = errorwriter.NewPlaintextErrorWriter()
	}

	heartbeat := &health.Health{}
	reporter := metrics.NewReporter()

	var natsConn *nats.Conn
	if cfg.NATS != nil {
		var err error
		natsConn, err = connectNATS(cfg.NATS.URL, log.Session("nats"))
		if err != nil {
			log.Fatal("nats-connection-error", zap.Error(err))
		}
	}

	root := buildRoutes(natsConn, cfg, heartbeat, reporter, ew, log)

	acceptor := accept.New(cfg, root, reporter, log.Session("accept"))

	healthCfg := *cfg
	healthCfg.Port = cfg.HealthPort
	healthAcceptor := accept.NewHealthAcceptor(&healthCfg, heartbeat, log.Session("health"))

	members := grouper.Members{
		{Name: "fd-monitor", Runner: monitor.NewFileDescriptor(fdPath(), reporter.Registry(), time.NewTicker(5*time.Second), log.Session("fd-monitor"))},
		{Name: "uptime-monitor", Runner: monitor.NewUptime(reporter.Registry(), 5*time.Second, log.Session("uptime-monitor"))},
		{Name: "health-acceptor", Runner: healthAcceptor},
		{Name: "acceptor", Runner: acceptor},
	}

	if natsConn != nil {
		sub, err := natsConn.Subscribe(cfg.NATS.Subject, func(*nats.Msg) {})
		if err != nil {
			log.Fatal("nats-monitor-subscribe-error", zap.Error(err))
		}
		members = append(grouper.Members{
			{Name: "nats-monitor", Runner: &monitor.NATSMonitor{
				Subscription: sub,
				Registry:     reporter.Registry(),
				TickChan:     time.NewTicker(5 * time.Second).C,
				Log:          log.Session("nats-monitor"),
			}},
		}, members...)
	}

	group := grouper.NewOrdered(os.Interrupt, members)
	process := ifrit.Invoke(sigmon.New(group, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1))

	<-process.Ready()
	heartbeat.SetHealth(health.Healthy)
	log.Info("started")

	if err := <-process.Wait(); err != nil {
		log.Fatal("pico-gorouter-exited-with-failure", zap.Error(err))
	}
	os.Exit(0)
}

// buildRoutes assembles the demo routing tree: a ping endpoint, the §6
// supplemented-feature demos (request info, query/form extraction,
// graceful-shutdown-aware SSE and WebSocket), and, when NATS is
// configured, the NATS-to-SSE broadcast demo. VcapRequestID, AccessLog,
// PanicCheck, Metrics, and ErrorPages wrap the whole tree as layers,
// outermost first, mirroring the teacher's handler chain ordering in router.go.
func buildRoutes(nc *nats.Conn, cfg *config.Config, heartbeat *health.Health, reporter *metrics.Reporter, ew errorwriter.ErrorWriter, log logger.Logger) router.Node {
	pingRoute := &router.Route{
		Matcher: router.Literal("/ping"),
		Methods: router.Get(router.HandlerFunc(func(_ context.Context, _ *reader.Request, _ *router.Params) (*response.Response, error) {
			return &response.Response{Status: response.StatusOK, Body: response.Text("text/plain; charset=utf-8", "pong\n")}, nil
		})),
		Fallback: router.NotFound,
	}

	root := router.Node(pingRoute)

	root = &router.Route{Matcher: router.Literal("/request-info"), Methods: router.Get(handlers.RequestInfo()), Fallback: root}
	root = &router.Route{Matcher: router.Literal("/get-thing"), Methods: router.Get(handlers.GetThing()), Fallback: root}
	root = &router.Route{Matcher: router.Literal("/submit"), Methods: router.Post(handlers.SubmitForm()), Fallback: root}
	root = &router.Route{Matcher: router.Literal("/counter"), Methods: router.Get(handlers.Counter(time.Second)), Fallback: root}
	root = &router.Route{Matcher: router.Literal("/ws"), Methods: router.Get(handlers.Echo(time.Second)), Fallback: root}

	if nc != nil {
		root = &router.Route{Matcher: router.Literal("/events"), Methods: router.Get(handlers.Broadcast(nc, cfg.NATS.Subject)), Fallback: root}
	}

	return router.ApplyLayers(root,
		handlers.VcapRequestID(log.Session("request-id")),
		handlers.AccessLog(log.Session("access-log")),
		handlers.PanicCheck(heartbeat, log.Session("panic-check")),
		handlers.Metrics(reporter),
		handlers.ErrorPages(ew, log.Session("error-pages")),
	)
}

func fdPath() string {
	return "/proc/self/fd"
}

func connectNATS(url string, log logger.Logger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.MaxReconnects(-1),
		nats.ClosedHandler(func(conn *nats.Conn) {
			log.Error("nats-connection-closed", zap.Error(conn.LastError()))
		}),
		nats.DisconnectErrHandler(func(conn *nats.Conn, err error) {
			log.Info("nats-connection-disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("nats-connection-reconnected", zap.String("url", conn.ConnectedUrl()))
		}),
	}

	var (
		conn *nats.Conn
		err  error
	)
	for attempts := 3; attempts > 0; attempts-- {
		conn, err = nats.Connect(url, opts...)
		if err == nil {
			log.Info("nats-connected", zap.String("url", conn.ConnectedUrl()))
			return conn, nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil, err
}

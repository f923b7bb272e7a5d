package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/golang/glog"
	"github.com/prebid/auction-core/config"
	metricsconfig "github.com/prebid/auction-core/metrics/config"
)

const (
	mainServerTimeout = 15 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Listen serves the auction, admin and (optionally) Prometheus endpoints. It blocks until the process
// receives SIGTERM or SIGINT and every server has shut down.
func Listen(cfg *config.Configuration, handler http.Handler, adminHandler http.Handler, metrics *metricsconfig.DetailedMetricsEngine) error {
	stopSignals := make(chan os.Signal, 1)
	signal.Notify(stopSignals, syscall.SIGTERM, syscall.SIGINT)
	return listen(cfg, handler, adminHandler, metrics, stopSignals)
}

type namedServer struct {
	name string
	*http.Server
}

func listen(cfg *config.Configuration, handler http.Handler, adminHandler http.Handler, metrics *metricsconfig.DetailedMetricsEngine, stopSignals <-chan os.Signal) error {
	servers := []namedServer{
		{"Main", newMainServer(cfg, handler)},
		{"Admin", newAdminServer(cfg, adminHandler)},
	}
	if cfg.Metrics.Prometheus.Port != 0 {
		promServer, err := newPrometheusServer(cfg, metrics)
		if err != nil {
			return err
		}
		servers = append(servers, namedServer{"Prometheus", promServer})
	}

	// Bind everything up front so a taken port fails startup instead of one server.
	listeners := make([]net.Listener, len(servers))
	for i, s := range servers {
		ln, err := newListener(s.Addr)
		if err != nil {
			for _, bound := range listeners[:i] {
				bound.Close()
			}
			return fmt.Errorf("%s server: %v", s.name, err)
		}
		listeners[i] = ln
	}

	done := make(chan struct{})
	stoppers := make([]chan<- os.Signal, len(servers))
	for i, s := range servers {
		stopper := make(chan os.Signal)
		stoppers[i] = stopper
		go shutdownAfterSignals(s.Server, stopper, done)
		go serve(s, listeners[i])
	}

	wait(stopSignals, done, stoppers...)
	return nil
}

func newAdminServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.AdminPort)),
		Handler: handler,
	}
}

func newMainServer(cfg *config.Configuration, handler http.Handler) *http.Server {
	if cfg.EnableGzip {
		handler = gziphandler.GzipHandler(handler)
	}
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      handler,
		ReadTimeout:  mainServerTimeout,
		WriteTimeout: mainServerTimeout,
	}
}

func serve(s namedServer, ln net.Listener) {
	glog.Infof("%s server starting on: %s", s.name, s.Addr)
	if err := s.Serve(ln); err != http.ErrServerClosed {
		glog.Errorf("%s server quit with error: %v", s.name, err)
	}
}

func newListener(address string) (net.Listener, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("Error listening for TCP connections on %s: %v", address, err)
	}
	tcp, ok := ln.(*net.TCPListener)
	if !ok {
		glog.Warningf("Listener on %s is not TCP. Connections will not use keep-alives.", address)
		return ln, nil
	}
	return &tcpKeepAliveListener{tcp}, nil
}

// wait blocks for the first inbound signal, hands it to every outbound channel and returns once each
// of them has reported on done.
func wait(inbound <-chan os.Signal, done <-chan struct{}, outbound ...chan<- os.Signal) {
	sig := <-inbound
	for _, out := range outbound {
		go func(out chan<- os.Signal) { out <- sig }(out)
	}
	for range outbound {
		<-done
	}
}

func shutdownAfterSignals(server *http.Server, stopper <-chan os.Signal, done chan<- struct{}) {
	sig := <-stopper
	glog.Infof("Stopping %s because of signal: %s", server.Addr, sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		glog.Errorf("Failed to shutdown %s: %v", server.Addr, err)
	}
	done <- struct{}{}
}

package gatewaysim

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Simulator bundles the three protocol surfaces over one shared universe.
type Simulator struct {
	State *State

	modbus  *ModbusServer
	httpLn  net.Listener
	httpSrv *http.Server
	logger  *slog.Logger
}

// New builds a simulator with the default fixture layout.
func New(logger *slog.Logger) *Simulator {
	state := NewState()
	return &Simulator{
		State:  state,
		modbus: &ModbusServer{State: state, Logger: logger},
		logger: logger,
	}
}

// Start binds both listeners and begins serving in the background. Pass
// ":0" addresses for ephemeral ports and read ModbusAddr/HTTPAddr after.
func (s *Simulator) Start(modbusAddr, httpAddr string) error {
	if err := s.modbus.Listen(modbusAddr); err != nil {
		return err
	}
	httpLn, err := net.Listen("tcp", httpAddr)
	if err != nil {
		s.modbus.Close()
		return err
	}
	s.httpLn = httpLn
	s.httpSrv = &http.Server{Handler: NewHTTPServer(s.State, s.logger).Router()}

	go func() {
		if err := s.modbus.Serve(); err != nil && s.logger != nil {
			s.logger.Error("modbus server", "err", err)
		}
	}()
	go func() {
		if err := s.httpSrv.Serve(httpLn); err != nil && !errors.Is(err, http.ErrServerClosed) && s.logger != nil {
			s.logger.Error("http server", "err", err)
		}
	}()

	if s.logger != nil {
		s.logger.Info("simulator up", "modbus", s.ModbusAddr(), "http", s.HTTPAddr())
	}
	return nil
}

// ModbusAddr returns the bound Modbus TCP address.
func (s *Simulator) ModbusAddr() string { return s.modbus.Addr() }

// HTTPAddr returns the bound HTTP/WebSocket address.
func (s *Simulator) HTTPAddr() string { return s.httpLn.Addr().String() }

// Close shuts both surfaces down.
func (s *Simulator) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.modbus.Close()
	if s.httpSrv != nil {
		if herr := s.httpSrv.Shutdown(ctx); err == nil {
			err = herr
		}
	}
	return err
}

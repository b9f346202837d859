package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/Comcast/rebind/core"
	"github.com/Comcast/rebind/sio"
	"github.com/Comcast/rebind/util"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var config string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a page that mutations keep current",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ReadConfig(config)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)
			go func() {
				select {
				case <-sigs:
					log.Printf("interrupted")
					cancel()
				case <-ctx.Done():
				}
			}()

			s, err := NewServer(ctx, c)
			if err != nil {
				return err
			}
			return s.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&config, "config", "c", "serve.yaml", "Configuration filename (YAML)")

	return cmd
}

// Server is a rendered page, its Pump, and the Couplings that feed
// the Pump.
type Server struct {
	Config    *Config
	Pump      *sio.Pump
	Couplings []sio.Couplings

	hub *sio.Hub
}

// NewServer loads and renders the page and makes the Couplings.
func NewServer(ctx context.Context, c *Config) (*Server, error) {
	e := core.NewEngine(core.NewRegistry())
	if c.Attr != "" {
		e.Attr = c.Attr
	}
	e.Strict = c.Strict
	e.Debug = util.Logging

	root, err := loadTemplate(c.Template)
	if err != nil {
		return nil, err
	}
	scope, _, err := loadScope(ctx, e, c.Data)
	if err != nil {
		return nil, err
	}

	e.Name(c.Name, scope)
	if _, err = e.RenderWith(&core.RenderOpts{Node: root, Scope: scope, Anchor: true}); err != nil {
		return nil, errors.Wrap(err, "rendering")
	}
	util.Logf("rendered %s with %d bindings", c.Template, e.Registry.Len())

	s := &Server{
		Config: c,
		Pump:   sio.NewPump(e, root),
	}
	s.Pump.Verbose = util.Logging

	if c.Stdio {
		std := sio.NewStdio(false)
		s.Pump.OnRendered(std.Rendered)
		s.Couplings = append(s.Couplings, std)
	}

	if c.HTTP.WebSocket != "" {
		s.hub = sio.NewHub()
		s.hub.Verbose = util.Logging
		s.hub.Snapshot = s.Markup
		s.Pump.OnRendered(s.hub.Rendered)
		s.Couplings = append(s.Couplings, s.hub)
	}

	if mc := c.MQTT; mc != nil {
		opts := mqtt.NewClientOptions()
		opts.AddBroker(mc.Broker)
		opts.SetClientID(mc.ClientId)
		opts.SetKeepAlive(mc.KeepAlive)
		opts.SetPingTimeout(10 * time.Second)
		opts.Username = mc.Username
		opts.Password = mc.Password
		opts.AutoReconnect = mc.Reconnect
		m := sio.NewMQTT(opts, mc.Topics)
		m.TopicPrefix = mc.Prefix
		m.PubTopic = mc.PubTopic
		s.Pump.OnRendered(m.Rendered)
		s.Couplings = append(s.Couplings, m)
	}

	if 0 < len(c.Timers) {
		ts := sio.NewTimers()
		ts.Verbose = util.Logging
		for _, t := range c.Timers {
			if err := ts.Add(t); err != nil {
				return nil, err
			}
		}
		s.Couplings = append(s.Couplings, ts)
	}

	return s, nil
}

// Markup returns the current markup.
func (s *Server) Markup() string {
	var markup string
	s.Pump.View(func(root core.Node) {
		markup = sio.Markup(root)
	})
	return markup
}

// Handler serves the current markup (and the websocket endpoint if
// there is one).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, s.Markup())
	})
	if s.hub != nil {
		mux.Handle(s.Config.HTTP.WebSocket, s.hub)
	}
	return mux
}

// Run starts the Couplings and the HTTP server and then pumps
// mutations until the context is done or all input is closed.
func (s *Server) Run(ctx context.Context) error {
	var ins []chan *sio.Mutation
	for _, c := range s.Couplings {
		if err := c.Start(ctx); err != nil {
			return err
		}
		in, err := c.IO(ctx)
		if err != nil {
			return err
		}
		ins = append(ins, in)
	}

	srv := &http.Server{
		Addr:    s.Config.HTTP.Addr,
		Handler: s.Handler(),
	}
	go func() {
		log.Printf("serving %s on %s", s.Config.Template, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Warnf("HTTP server error: %s", err)
		}
	}()

	if len(ins) == 0 {
		<-ctx.Done()
	} else if err := s.Pump.Loop(ctx, sio.Merge(ctx, ins...)); err != nil {
		return err
	}

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, c := range s.Couplings {
		if err := c.Stop(shutdown); err != nil {
			util.Warnf("stop error: %s", err)
		}
	}
	return srv.Shutdown(shutdown)
}

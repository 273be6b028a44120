package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dennis-mud/dennis/pkg/oob"
	"golang.org/x/sync/errgroup"
)

// writeTimeout bounds a single write to a telnet client.
const writeTimeout = 5 * time.Second

// redacted replaces credentials in logged command lines.
const redacted = "********"

// Server runs the game loop and its listeners.
type Server struct {
	Game *Game

	mu       sync.Mutex
	telnetLn net.Listener
	web      *WebServer
	ready    chan struct{}
}

// NewServer creates a server for g.
func NewServer(g *Game) *Server {
	return &Server{Game: g, ready: make(chan struct{})}
}

// Ready is closed once every enabled listener is accepting.
func (srv *Server) Ready() <-chan struct{} { return srv.ready }

// TelnetAddr returns the telnet listener's address, or nil before Run.
func (srv *Server) TelnetAddr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.telnetLn == nil {
		return nil
	}
	return srv.telnetLn.Addr()
}

// Run starts the event loop and the enabled listeners and blocks until ctx
// is cancelled or one of them fails.
func (srv *Server) Run(ctx context.Context) error {
	g := srv.Game
	conf := g.Conf
	if !conf.Telnet.Enabled && !conf.Web.Enabled {
		return errors.New("both telnet and web listeners are disabled; nothing to listen on")
	}

	var telnetLn, webLn net.Listener
	var web *WebServer
	if conf.Telnet.Enabled {
		addr := net.JoinHostPort(conf.Telnet.Host, fmt.Sprint(conf.Telnet.Port))
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("telnet listener: %w", err)
		}
		telnetLn = ln
		log.Printf("Listening (telnet) on %s", ln.Addr())
	}
	if conf.Web.Enabled {
		web = NewWebServer(g)
		ln, err := web.Listen()
		if err != nil {
			if telnetLn != nil {
				telnetLn.Close()
			}
			return fmt.Errorf("web listener: %w", err)
		}
		webLn = ln
	}
	srv.mu.Lock()
	srv.telnetLn, srv.web = telnetLn, web
	srv.mu.Unlock()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.Loop.Run(ctx, conf.TickEvery(), g.Tick)
	})
	if telnetLn != nil {
		eg.Go(func() error {
			<-ctx.Done()
			return telnetLn.Close()
		})
		eg.Go(func() error {
			srv.acceptLoop(ctx, telnetLn)
			return nil
		})
	}
	if web != nil {
		eg.Go(func() error {
			return web.Serve(webLn)
		})
		eg.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			defer cancel()
			return web.Stop(stopCtx)
		})
	}
	close(srv.ready)

	err := eg.Wait()
	for _, s := range g.Router.Sessions() {
		s.Close()
	}
	log.Printf("Server stopped")
	return err
}

// acceptLoop accepts connections until the listener is closed.
func (srv *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			log.Printf("Accept error: %v", err)
			continue
		}
		go srv.handleConnection(conn)
	}
}

// telnetTransport writes text to a telnet client, converting line endings
// and compressing once MCCP2 is active.
type telnetTransport struct {
	conn net.Conn

	mu   sync.Mutex
	out  io.Writer
	mccp *oob.Compressor
}

func newTelnetTransport(conn net.Conn) *telnetTransport {
	return &telnetTransport{conn: conn, out: conn}
}

// WriteText sends msg as one or more CRLF-terminated lines.
func (t *telnetTransport) WriteText(msg string) error {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", "\r\n")
	return t.writeRaw([]byte(msg + "\r\n"))
}

// writeRaw sends bytes as-is, through the compressor when active.
func (t *telnetTransport) writeRaw(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_, err := t.out.Write(p)
	return err
}

func (t *telnetTransport) startCompression() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mccp != nil {
		return nil
	}
	t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	c, err := oob.StartMCCP(t.conn)
	if err != nil {
		return err
	}
	t.mccp = c
	t.out = c
	return nil
}

func (t *telnetTransport) stopCompression() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mccp == nil {
		return
	}
	t.mccp.Close()
	t.mccp = nil
	t.out = t.conn
}

func (t *telnetTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.mccp != nil {
		t.mccp.Close()
		t.mccp = nil
	}
	return t.conn.Close()
}

// handleConnection runs one telnet client from connect to disconnect. Input
// is decoded here; everything that touches game state is posted to the loop.
func (srv *Server) handleConnection(conn net.Conn) {
	g := srv.Game
	t := newTelnetTransport(conn)
	s := NewSession(TransportTelnet, conn.RemoteAddr().String(), t)
	g.Router.Add(s)
	log.Printf("[%s] New telnet connection from %s", s.ID, s.Addr)

	defer g.hangUp(s)

	if err := t.writeRaw(oob.Offers(g.Conf.Telnet.MCCP)); err != nil {
		log.Printf("[%s] negotiation offer failed: %v", s.ID, err)
		return
	}
	g.Loop.Post(func() { s.Send(g.MOTD(TransportTelnet)) })

	dec := oob.NewDecoder()
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		for _, tok := range dec.Feed(buf[:n]) {
			if !srv.handleToken(s, t, tok) {
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Printf("[%s] read error: %v", s.ID, err)
			}
			return
		}
	}
}

// handleToken processes one decoded unit of input. It returns false when
// the connection should end.
func (srv *Server) handleToken(s *Session, t *telnetTransport, tok oob.Token) bool {
	g := srv.Game
	if tok.Cmd != nil {
		cmd := *tok.Cmd
		return g.Loop.Post(func() { srv.negotiate(s, t, cmd) })
	}

	return g.submitLine(s, tok.Line)
}

// submitLine queues one raw input line from a transport reader. Undecodable
// lines are dropped. It returns false when the connection should end.
func (g *Game) submitLine(s *Session, raw []byte) bool {
	if !utf8.Valid(raw) {
		log.Printf("[%s] Discarded garbage line", s.ID)
		return true
	}
	line := strings.TrimRight(string(raw), "\r")
	if strings.TrimSpace(line) == "" {
		return true
	}
	log.Printf("[%s] CMD %q", s.ID, redactLine(line))

	if line == "quit" {
		g.Loop.Call(func() { s.Send("Goodbye for now.") })
		return false
	}
	return g.Loop.Post(func() {
		if !s.Closed() {
			g.HandleLine(s, line)
		}
	})
}

// hangUp tears down a session whose reader has finished.
func (g *Game) hangUp(s *Session) {
	if !g.Loop.Call(func() { g.Disconnect(s) }) {
		g.Router.Remove(s.ID)
		s.Close()
	}
}

// negotiate answers a telnet option command. It runs on the loop.
func (srv *Server) negotiate(s *Session, t *telnetTransport, cmd oob.Command) {
	g := srv.Game
	log.Printf("[%s] telnet %s %d", s.ID, oob.VerbName(cmd.Verb), cmd.Option)

	switch {
	case cmd.Verb == oob.DO && cmd.Option == oob.TeloptMSSP:
		s.Caps.MSSP = true
		if err := t.writeRaw(oob.EncodeMSSP(g.MSSPData())); err != nil {
			log.Printf("[%s] MSSP reply failed: %v", s.ID, err)
		}

	case cmd.Verb == oob.DO && cmd.Option == oob.TeloptMCCP2:
		if !g.Conf.Telnet.MCCP {
			return
		}
		if err := t.startCompression(); err != nil {
			log.Printf("[%s] MCCP start failed: %v", s.ID, err)
			return
		}
		s.Caps.MCCP = true

	case cmd.Verb == oob.DONT && cmd.Option == oob.TeloptMCCP2:
		t.stopCompression()
		s.Caps.MCCP = false

	case cmd.Verb == oob.WILL && cmd.Option == oob.TeloptTTYPE:
		t.writeRaw(oob.RequestTerminalType())

	case cmd.Verb == oob.SB && cmd.Option == oob.TeloptTTYPE:
		if s.Caps.TerminalTypeReply(cmd.Payload) {
			t.writeRaw(oob.RequestTerminalType())
		} else if s.Caps.TerminalType != "" {
			log.Printf("[%s] terminal %q utf8=%v screenreader=%v", s.ID, s.Caps.TerminalType, s.Caps.UTF8, s.Caps.ScreenReader)
		}
	}
}

// redactLine hides passwords in a command line before it is logged.
func redactLine(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 || !credentialCommands[strings.ToLower(fields[0])] {
		return line
	}
	keep := 2 // login and register keep the username
	if strings.EqualFold(fields[0], "password") {
		keep = 1
	}
	for i := keep; i < len(fields); i++ {
		fields[i] = redacted
	}
	return strings.Join(fields, " ")
}

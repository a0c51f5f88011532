package viewer

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/wavetiles/internal/database"
	"github.com/lawnchairsociety/wavetiles/internal/wfc"
)

// Client commands.
const (
	cmdStep     = "step"
	cmdRun      = "run"
	cmdPause    = "pause"
	cmdReset    = "reset"
	cmdSnapshot = "snapshot"
)

// Message types sent to the client.
const (
	msgSnapshot = "snapshot"
	msgStopped  = "stopped"
	msgError    = "error"
)

// message is the JSON envelope for everything sent to a client.
type message struct {
	Type     string        `json:"type"`
	Snapshot *wfc.Snapshot `json:"snapshot,omitempty"`
	Outcome  string        `json:"outcome,omitempty"`
	Steps    int           `json:"steps,omitempty"`
	Seed     int64         `json:"seed,omitempty"`
	RunID    int64         `json:"run_id,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// session is one client's engine. Only the goroutine in run touches the
// engine or writes to the connection.
type session struct {
	srv    *Server
	conn   *conn
	rng    *rand.Rand
	engine *wfc.Engine
	log    *slog.Logger

	seed     int64
	started  time.Time
	finished bool
}

func (s *Server) newSession(c *conn, ip string) (*session, error) {
	seed := s.nextSeed()
	sess := &session{
		srv:     s,
		conn:    c,
		rng:     rand.New(rand.NewSource(seed)),
		log:     s.log.With("client_ip", ip),
		seed:    seed,
		started: time.Now(),
	}

	engine, err := wfc.NewEngine(s.catalog, s.columns, s.rows, sess.rng,
		wfc.WithLogger(sess.log.With("seed", seed)))
	if err != nil {
		return nil, err
	}
	sess.engine = engine
	return sess, nil
}

// run serves commands until the client disconnects or ctx ends.
func (s *session) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	commands := make(chan string)
	go s.readCommands(ctx, commands)

	s.log.Info("Viewer session started", "seed", s.seed)
	if err := s.sendSnapshot(); err != nil {
		return err
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	stopTicker := func() {
		if ticker != nil {
			ticker.Stop()
			ticker, tick = nil, nil
		}
	}
	defer stopTicker()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-tick:
			if err := s.step(); err != nil {
				return err
			}
			if s.engine.Done() {
				stopTicker()
			}

		case cmd, ok := <-commands:
			if !ok {
				s.log.Info("Viewer session closed", "steps", s.engine.Steps())
				return nil
			}

			switch cmd {
			case cmdStep:
				stopTicker()
				if err := s.step(); err != nil {
					return err
				}
			case cmdRun:
				if ticker == nil && !s.engine.Done() {
					ticker = time.NewTicker(s.interval())
					tick = ticker.C
				}
			case cmdPause:
				stopTicker()
				if err := s.sendSnapshot(); err != nil {
					return err
				}
			case cmdReset:
				stopTicker()
				if err := s.reset(); err != nil {
					return err
				}
			case cmdSnapshot:
				if err := s.sendSnapshot(); err != nil {
					return err
				}
			default:
				if err := s.conn.WriteJSON(message{Type: msgError, Error: "unknown command: " + cmd}); err != nil {
					return err
				}
			}
		}
	}
}

// readCommands forwards client commands until the connection fails, then
// closes out.
func (s *session) readCommands(ctx context.Context, out chan<- string) {
	defer close(out)
	for {
		cmd, err := s.conn.ReadCommand()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Viewer read failed", "error", err)
			}
			return
		}
		select {
		case out <- cmd:
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) interval() time.Duration {
	if d := s.srv.cfg.StepInterval(); d > 0 {
		return d
	}
	return time.Millisecond
}

// step advances the engine once and pushes the new snapshot. The first step
// that stops the engine also archives the run and sends the stopped message.
func (s *session) step() error {
	if err := s.engine.Step(); err != nil {
		s.conn.WriteJSON(message{Type: msgError, Error: err.Error()})
		return err
	}
	if err := s.sendSnapshot(); err != nil {
		return err
	}
	if s.engine.Done() && !s.finished {
		s.finished = true
		return s.sendStopped(s.archive())
	}
	return nil
}

// reset reseeds the session and starts a fresh run on the same grid.
func (s *session) reset() error {
	s.seed = s.srv.nextSeed()
	s.rng.Seed(s.seed)
	if err := s.engine.Reset(); err != nil {
		return err
	}
	s.started = time.Now()
	s.finished = false

	s.log.Debug("Viewer session reset", "seed", s.seed)
	return s.sendSnapshot()
}

// archive saves the finished run and returns its id, or 0 when there is no
// store or the save failed.
func (s *session) archive() int64 {
	if s.srv.store == nil {
		return 0
	}

	run := &database.Run{
		Tileset:        s.srv.set.Ref(),
		Fingerprint:    s.srv.fingerprint,
		Seed:           s.seed,
		Columns:        s.srv.columns,
		Rows:           s.srv.rows,
		Outcome:        s.engine.Outcome().String(),
		Contradictions: len(s.engine.Grid().Contradictions()),
		StartedAt:      s.started,
		FinishedAt:     time.Now(),
	}
	id, err := s.srv.store.SaveRun(run, s.engine.History())
	if err != nil {
		s.log.Warn("Failed to archive run", "seed", s.seed, "error", err)
		return 0
	}
	return id
}

func (s *session) sendSnapshot() error {
	return s.conn.WriteJSON(message{Type: msgSnapshot, Snapshot: s.engine.Snapshot()})
}

func (s *session) sendStopped(runID int64) error {
	msg := message{
		Type:    msgStopped,
		Outcome: s.engine.Outcome().String(),
		Steps:   s.engine.Steps(),
		Seed:    s.seed,
		RunID:   runID,
	}
	if failure := s.engine.Failure(); failure != nil {
		msg.Error = failure.Error()
	}
	return s.conn.WriteJSON(msg)
}

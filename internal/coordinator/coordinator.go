package coordinator

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/draftboard/internal/conn"
	"github.com/DoyleJ11/draftboard/internal/draftapi"
	"github.com/DoyleJ11/draftboard/internal/dragdrop"
	"github.com/DoyleJ11/draftboard/internal/engine"
	"github.com/DoyleJ11/draftboard/internal/fit"
	"github.com/DoyleJ11/draftboard/internal/journal"
	"github.com/DoyleJ11/draftboard/internal/metrics"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"github.com/DoyleJ11/draftboard/internal/state"
	"github.com/DoyleJ11/draftboard/internal/types"
	"github.com/DoyleJ11/draftboard/internal/ui"
	"github.com/DoyleJ11/draftboard/internal/view"
	"go.uber.org/zap"
)

var ErrClosed = errors.New("coordinator closed")
var ErrInvalidPosition = errors.New("invalid position")

// Realtime is the connection manager as seen by the board.
type Realtime interface {
	Connect(ctx context.Context, cb conn.Callbacks) error
	On(event string, h conn.Handler)
	Emit(event string, payload any) error
	IsConnected() bool
	State() conn.State
}

// DraftAPI is the request/response path used while realtime is degraded.
type DraftAPI interface {
	DraftPlayer(ctx context.Context, req draftapi.DraftRequest) (draftapi.DraftResponse, error)
}

// Scheduler runs f after d on any goroutine. The coordinator moves f onto its loop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type clock struct{}

func (clock) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

type Options struct {
	Realtime Realtime
	API      DraftAPI     // nil disables the HTTP draft path
	Analyzer fit.Analyzer // nil disables fit badges
	Store    *state.Store
	Toaster  ui.Toaster
	Loader   ui.Loader
	Journal  journal.Store
	Metrics  *metrics.Metrics
	Logger   *zap.Logger

	Scheduler          Scheduler
	Now                func() time.Time
	TransactionTimeout time.Duration
	AnimationDelay     time.Duration
	RecountDelay       time.Duration
	NoticeTTL          time.Duration
	HTTPTimeout        time.Duration
	FitTimeout         time.Duration
}

func (o *Options) defaults() {
	if o.Scheduler == nil {
		o.Scheduler = clock{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.TransactionTimeout <= 0 {
		o.TransactionTimeout = 10 * time.Second
	}
	if o.NoticeTTL <= 0 {
		o.NoticeTTL = 4 * time.Second
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 8 * time.Second
	}
	if o.Journal == nil {
		o.Journal = journal.NewMemoryStore(0)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Coordinator owns the board. Every mutation happens on its loop goroutine.
type Coordinator struct {
	inbox chan Msg
	done  chan struct{}
	ctx   context.Context
	stop  context.CancelFunc

	opts    Options
	rt      Realtime
	store   *state.Store
	roster  *roster.Roster
	view    *view.Engine
	dnd     *dragdrop.Controller
	fit     *fit.Highlighter
	metrics *metrics.Metrics
	logger  *zap.Logger
	league  string

	tx      engine.State
	via     string
	version int
	clients map[string]chan Board

	// staleDraftError swallows the server's refusal of a draft that a broadcast already settled.
	staleDraftError bool
}

// New builds the board, registers the server event handlers, starts the loop and connects.
func New(parent context.Context, opts Options) (*Coordinator, error) {
	if opts.Realtime == nil || opts.Store == nil || opts.Toaster == nil || opts.Loader == nil {
		return nil, errors.New("coordinator: realtime, store, toaster and loader are required")
	}
	opts.defaults()
	ctx, cancel := context.WithCancel(parent)

	c := &Coordinator{
		inbox:   make(chan Msg, 64),
		done:    make(chan struct{}),
		ctx:     ctx,
		stop:    cancel,
		opts:    opts,
		rt:      opts.Realtime,
		store:   opts.Store,
		metrics: opts.Metrics,
		league:  opts.Store.Session().LeagueName,
		clients: make(map[string]chan Board),
	}
	c.logger = opts.Logger.Named("coordinator").With(zap.String("league", c.league))
	c.roster = roster.New(roster.Options{
		Scheduler:      loopScheduler{c},
		AnimationDelay: opts.AnimationDelay,
		RecountDelay:   opts.RecountDelay,
	})
	c.view = view.New(c.roster, c.store)
	c.dnd = dragdrop.New(c.roster, opts.Toaster)
	c.fit = fit.New(fit.Options{
		API:     opts.Analyzer,
		League:  c.league,
		Roster:  c.roster,
		Post:    func(f func()) { c.post(run{func() { f(); c.changed() }}) },
		Timeout: opts.FitTimeout,
		Metrics: opts.Metrics,
		Logger:  opts.Logger,
	})

	for _, ev := range []string{
		types.EventJoinedRoom, types.EventPlayerDrafted, types.EventPlayerRemoved, types.EventUserDrafting,
		types.EventError, types.EventDraftError, types.EventRemoveError, types.EventPositionUpdated,
	} {
		event := ev
		c.rt.On(event, func(payload []byte) { c.post(serverEvent{Event: event, Payload: payload}) })
	}

	go c.loop()

	err := c.rt.Connect(ctx, conn.Callbacks{
		OnConnectionChange: func(s conn.State) { c.post(connectionChanged{State: s}) },
		OnError:            func(err error) { c.logger.Debug("realtime error", zap.Error(err)) },
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// loopScheduler fires on the wall clock (or a test clock) and runs f on the loop.
type loopScheduler struct{ c *Coordinator }

func (s loopScheduler) AfterFunc(d time.Duration, f func()) {
	s.c.opts.Scheduler.AfterFunc(d, func() { s.c.post(run{f}) })
}

func (c *Coordinator) post(m Msg) {
	select {
	case c.inbox <- m:
	case <-c.done:
	}
}

func (c *Coordinator) Inbox() chan<- Msg { return c.inbox }

func (c *Coordinator) Done() <-chan struct{} { return c.done }

func (c *Coordinator) Close() {
	c.post(Shutdown{})
	<-c.done
}

func (c *Coordinator) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case m := <-c.inbox:
			switch msg := m.(type) {
			case Intent:
				msg.Reply <- c.begin(msg.Intent)

			case Select:
				msg.Reply <- c.selectPlayer(msg.PlayerID)

			case DragStart:
				err := c.dnd.OnDragStart(msg.PlayerID)
				if err != nil {
					c.opts.Toaster.Toast("That player is no longer on the board", ui.SeverityError)
				}
				msg.Reply <- err

			case Drop:
				msg.Reply <- c.drop(msg)

			case SetView:
				msg.Reply <- c.setView(msg)

			case OpenTeam:
				msg.Reply <- c.openTeam(msg.TeamID)

			case UpdatePosition:
				msg.Reply <- c.updatePosition(msg)

			case Seed:
				c.roster.Seed(msg.Available, msg.Teams)
				c.view.Reapply()
				c.changed()
				close(msg.Reply)

			case Watch:
				c.clients[msg.ClientID] = msg.Outbox
				c.send(msg.ClientID, msg.Outbox, c.board())

			case Unwatch:
				if ch, ok := c.clients[msg.ClientID]; ok {
					close(ch)
					delete(c.clients, msg.ClientID)
				}

			case GetBoard:
				msg.Reply <- c.board()

			case serverEvent:
				c.onServerEvent(msg.Event, msg.Payload)

			case connectionChanged:
				c.store.SetConnection(msg.State)
				c.logger.Info("connection changed",
					zap.Stringer("status", msg.State.Status),
					zap.Stringer("mode", msg.State.Mode))
				c.changed()

			case timeout:
				c.onTimeout(msg.Generation)

			case httpSettled:
				c.onHTTPSettled(msg)

			case run:
				msg.f()

			case Shutdown:
				c.shutdown()
				return
			}
		}
	}
}

func (c *Coordinator) shutdown() {
	for id, ch := range c.clients {
		close(ch)
		delete(c.clients, id)
	}
	c.stop()
}

// changed bumps the board version and pushes a snapshot to every watcher.
func (c *Coordinator) changed() {
	c.version++
	if len(c.clients) == 0 {
		return
	}
	b := c.board()
	for id, ch := range c.clients {
		c.send(id, ch, b)
	}
}

func (c *Coordinator) send(id string, ch chan Board, b Board) {
	select {
	case ch <- b:
	default:
		// Watcher is slow or full; drop it.
		close(ch)
		delete(c.clients, id)
	}
}

func (c *Coordinator) board() Board {
	b := Board{
		Version:    c.version,
		League:     c.league,
		Connection: c.store.Connection(),
		Phase:      c.tx.Phase(),
		ActiveTeam: c.store.ActiveTeam(),
		View:       c.store.View(),
		Roster:     c.roster.Snapshot(),
	}
	if c.tx.Pending != nil {
		tx := *c.tx.Pending
		b.Pending = &tx
	}
	b.Selected, _ = c.store.Selected()
	b.Dragging, _ = c.dnd.Dragged()
	return b
}

// call posts a message and waits for the loop to answer on reply.
func call[T any](c *Coordinator, m Msg, reply chan T) (T, error) {
	select {
	case c.inbox <- m:
	case <-c.done:
		var zero T
		return zero, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-c.done:
		var zero T
		return zero, ErrClosed
	}
}

func (c *Coordinator) callErr(m Msg, reply chan error) error {
	err, cerr := call(c, m, reply)
	if cerr != nil {
		return cerr
	}
	return err
}

// Select marks the player the Draft button acts on. Zero clears the selection.
func (c *Coordinator) Select(playerID int) error {
	reply := make(chan error, 1)
	return c.callErr(Select{PlayerID: playerID, Reply: reply}, reply)
}

// Draft assigns the selected player to teamID.
func (c *Coordinator) Draft(teamID int) error {
	id, _ := c.store.Selected()
	return c.DraftPlayer(id, teamID)
}

func (c *Coordinator) DraftPlayer(playerID, teamID int) error {
	reply := make(chan error, 1)
	return c.callErr(Intent{Intent: engine.Intent{Kind: engine.KindDraft, PlayerID: playerID, TeamID: teamID}, Reply: reply}, reply)
}

// Remove sends a player on teamID back to the available pool.
func (c *Coordinator) Remove(playerID, teamID int) error {
	reply := make(chan error, 1)
	return c.callErr(Intent{Intent: engine.Intent{Kind: engine.KindRemove, PlayerID: playerID, TeamID: teamID}, Reply: reply}, reply)
}

func (c *Coordinator) DragStart(playerID int) error {
	reply := make(chan error, 1)
	return c.callErr(DragStart{PlayerID: playerID, Reply: reply}, reply)
}

func (c *Coordinator) DropOnTeam(teamID int) error {
	reply := make(chan error, 1)
	return c.callErr(Drop{TeamID: teamID, Reply: reply}, reply)
}

func (c *Coordinator) DropOnAvailable() error {
	reply := make(chan error, 1)
	return c.callErr(Drop{ToAvailable: true, Reply: reply}, reply)
}

// Search, Filter and Sort return the number of visible available cards.
func (c *Coordinator) Search(query string) (int, error) {
	return c.SetView(SetView{Query: &query})
}

func (c *Coordinator) Filter(position string) (int, error) {
	return c.SetView(SetView{Position: &position})
}

func (c *Coordinator) Sort(key string) (int, error) {
	return c.SetView(SetView{SortKey: &key})
}

func (c *Coordinator) SetView(v SetView) (int, error) {
	v.Reply = make(chan int, 1)
	return call(c, v, v.Reply)
}

// OpenTeam marks the team as the expanded one and refreshes fit badges for it.
func (c *Coordinator) OpenTeam(teamID int) error {
	reply := make(chan error, 1)
	return c.callErr(OpenTeam{TeamID: teamID, Reply: reply}, reply)
}

func (c *Coordinator) UpdatePosition(playerID, teamID int, position string) error {
	reply := make(chan error, 1)
	return c.callErr(UpdatePosition{PlayerID: playerID, TeamID: teamID, Position: position, Reply: reply}, reply)
}

// Seed loads the server-rendered starting board.
func (c *Coordinator) Seed(available []types.Player, teams []roster.TeamSeed) error {
	reply := make(chan struct{})
	_, err := call(c, Seed{Available: available, Teams: teams, Reply: reply}, reply)
	return err
}

func (c *Coordinator) Snapshot() (Board, error) {
	reply := make(chan Board, 1)
	return call(c, GetBoard{Reply: reply}, reply)
}

// Watch subscribes outbox to board snapshots. The current board is sent at once.
// A watcher whose outbox is full is dropped and its outbox closed.
func (c *Coordinator) Watch(clientID string, outbox chan Board) {
	c.post(Watch{ClientID: clientID, Outbox: outbox})
}

func (c *Coordinator) Unwatch(clientID string) {
	c.post(Unwatch{ClientID: clientID})
}

// Package router owns the set of reservable dates and the shard behind each one.
package router

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	bookingserrors "campsite/internal/bookings/errors"
	"campsite/internal/bookings/repository"
	"campsite/internal/bookings/rules"
	"campsite/internal/bookings/shard"
	"campsite/pkg/logger"
	"campsite/pkg/model"
)

const DefaultMailboxSize = 256

type Options struct {
	MailboxSize      int
	ShardMailboxSize int
}

type routerMsg interface {
	isRouterMsg()
}

type startMsg struct {
	ctx     context.Context
	current model.Date
	reply   chan error
}

type rolloverMsg struct {
	ctx     context.Context
	current model.Date
	reply   chan error
}

type deactivateMsg struct {
	reply chan struct{}
}

type queryableDatesMsg struct {
	replyTo chan<- shard.Response
}

type commandMsg struct {
	cmd shard.Command
}

// retiredMsg reports that a retiring shard has no pending transition left.
type retiredMsg struct {
	key     string
	settled <-chan struct{}
}

type retiree struct {
	shard   *shard.Shard
	settled <-chan struct{}
}

func (startMsg) isRouterMsg()          {}
func (rolloverMsg) isRouterMsg()       {}
func (deactivateMsg) isRouterMsg()     {}
func (queryableDatesMsg) isRouterMsg() {}
func (commandMsg) isRouterMsg()        {}
func (retiredMsg) isRouterMsg()        {}

// Router runs one goroutine that owns the date -> shard map. Callers talk to it
// only through messages, so the map is never shared.
type Router struct {
	rules   *rules.Rules
	store   repository.Store
	opts    Options
	log     *logger.Logger
	mailbox chan routerMsg
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	active  atomic.Bool

	currentDate atomic.Value

	current model.Date
	shards  map[string]*shard.Shard

	// retiring holds shards whose date left the window. They only receive Commit and
	// Revert until their last pending transition settles.
	retiring map[string]retiree
}

func New(r *rules.Rules, store repository.Store, opts Options, log *logger.Logger) *Router {
	if opts.MailboxSize < 1 {
		opts.MailboxSize = DefaultMailboxSize
	}
	if opts.ShardMailboxSize < 1 {
		opts.ShardMailboxSize = shard.DefaultMailboxSize
	}
	rt := &Router{
		rules:   r,
		store:   store,
		opts:    opts,
		log:     log.Component("router"),
		mailbox: make(chan routerMsg, opts.MailboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),

		retiring: make(map[string]retiree),
	}
	go rt.run()
	return rt
}

// Start creates a shard for every date of the window around current.
// Starting an active router is ignored.
func (r *Router) Start(ctx context.Context, current model.Date) error {
	reply := make(chan error, 1)
	if err := r.tell(startMsg{ctx: ctx, current: current, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Rollover moves the window to current. Dates in both windows keep their shard and any
// pending transition. Dates leaving the window stop once their pending transition is
// committed or reverted. An inactive router is simply started.
// Commands queued behind it are routed against the new window.
func (r *Router) Rollover(ctx context.Context, current model.Date) error {
	reply := make(chan error, 1)
	if err := r.tell(rolloverMsg{ctx: ctx, current: current, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the date the active window was computed from.
func (r *Router) Current() model.Date {
	if v := r.currentDate.Load(); v != nil {
		return v.(model.Date)
	}
	return model.Date{}
}

// Deactivate stops every shard. Each date's log stays on disk for the next Start.
func (r *Router) Deactivate(ctx context.Context) error {
	reply := make(chan struct{}, 1)
	if err := r.tell(deactivateMsg{reply: reply}); err != nil {
		return err
	}
	select {
	case <-reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tell routes cmd. Dated commands go to their shard, or are answered with OutOfRange
// when the date is outside the window. UpdateBooking and CancelBooking go to their target
// shards. Every command addressed to a date gets exactly one reply for it, ShardStopped
// when no running shard could take it.
func (r *Router) Tell(cmd shard.Command) error {
	return r.tell(commandMsg{cmd: cmd})
}

// GetQueryableDates replies with QueryableDates listing every active date.
func (r *Router) GetQueryableDates(replyTo chan<- shard.Response) error {
	return r.tell(queryableDatesMsg{replyTo: replyTo})
}

func (r *Router) Active() bool {
	return r.active.Load()
}

// Done is closed once the router has shut down.
func (r *Router) Done() <-chan struct{} {
	return r.stopped
}

// Close deactivates the router and ends its goroutine.
func (r *Router) Close() {
	r.once.Do(func() { close(r.done) })
	<-r.stopped
}

func (r *Router) tell(msg routerMsg) error {
	select {
	case <-r.done:
		return bookingserrors.ErrRouterStopped
	default:
	}
	select {
	case r.mailbox <- msg:
		return nil
	case <-r.done:
		return bookingserrors.ErrRouterStopped
	}
}

func (r *Router) run() {
	defer close(r.stopped)
	defer r.deactivate()

	for {
		select {
		case msg := <-r.mailbox:
			r.handle(msg)
		case <-r.done:
			return
		}
	}
}

func (r *Router) handle(msg routerMsg) {
	switch m := msg.(type) {
	case startMsg:
		m.reply <- r.start(m.ctx, m.current)
	case rolloverMsg:
		m.reply <- r.rollover(m.ctx, m.current)
	case retiredMsg:
		r.retired(m)
	case deactivateMsg:
		r.deactivate()
		m.reply <- struct{}{}
	case queryableDatesMsg:
		m.replyTo <- shard.QueryableDates{Dates: r.queryableDates()}
	case commandMsg:
		r.route(m.cmd)
	}
}

func (r *Router) start(ctx context.Context, current model.Date) error {
	if r.shards != nil {
		r.log.Warn("Start received while active, ignoring",
			"current", r.current.Key(),
			"requested", current.Key(),
		)
		return nil
	}

	dates := r.rules.ReservableDates(current)
	shards := make(map[string]*shard.Shard, len(dates))
	for _, d := range dates {
		s, err := shard.Start(ctx, d, r.store, r.opts.ShardMailboxSize, r.log)
		if err != nil {
			for _, started := range shards {
				started.Stop()
			}
			return fmt.Errorf("failed to start shard %s: %w", d.Key(), err)
		}
		shards[d.Key()] = s
	}

	r.setCurrent(current)
	r.shards = shards
	r.active.Store(true)
	r.log.Info("Date router active",
		"current", current.Key(),
		"first_date", dates[0].Key(),
		"last_date", dates[len(dates)-1].Key(),
		"shards", len(shards),
	)
	return nil
}

// rollover slides an active window to current. On error the old window stays in place.
func (r *Router) rollover(ctx context.Context, current model.Date) error {
	if r.shards == nil {
		return r.start(ctx, current)
	}

	dates := r.rules.ReservableDates(current)
	next := make(map[string]*shard.Shard, len(dates))
	var started []*shard.Shard
	for _, d := range dates {
		key := d.Key()
		if s, ok := r.shards[key]; ok {
			next[key] = s
			continue
		}
		if rt, ok := r.retiring[key]; ok {
			next[key] = rt.shard
			continue
		}
		s, err := shard.Start(ctx, d, r.store, r.opts.ShardMailboxSize, r.log)
		if err != nil {
			for _, st := range started {
				st.Stop()
			}
			return fmt.Errorf("failed to start shard %s: %w", key, err)
		}
		next[key] = s
		started = append(started, s)
	}

	retired := 0
	for key, s := range r.shards {
		if _, kept := next[key]; !kept {
			r.retire(key, s)
			retired++
		}
	}
	for key := range next {
		delete(r.retiring, key)
	}

	previous := r.current
	r.setCurrent(current)
	r.shards = next
	r.log.Info("Date window rolled over",
		"from", previous.Key(),
		"current", current.Key(),
		"started", len(started),
		"retired", retired,
	)
	return nil
}

// retire keeps s reachable for Commit and Revert until it has nothing pending, then stops it.
func (r *Router) retire(key string, s *shard.Shard) {
	settled := s.Retire()
	r.retiring[key] = retiree{shard: s, settled: settled}
	go func() {
		select {
		case <-settled:
			_ = r.tell(retiredMsg{key: key, settled: settled})
		case <-s.Done():
		case <-r.done:
		}
	}()
}

func (r *Router) retired(m retiredMsg) {
	// The date may have re-entered the window since, in which case the shard is live again.
	rt, ok := r.retiring[m.key]
	if !ok || rt.settled != m.settled {
		return
	}
	delete(r.retiring, m.key)
	rt.shard.Stop()
	r.log.Debug("Retired shard stopped", "date", m.key)
}

func (r *Router) setCurrent(current model.Date) {
	r.current = current
	r.currentDate.Store(current)
}

func (r *Router) deactivate() {
	for key, rt := range r.retiring {
		rt.shard.Stop()
		delete(r.retiring, key)
	}
	if r.shards == nil {
		return
	}
	r.active.Store(false)
	for _, s := range r.shards {
		s.Stop()
	}
	r.log.Info("Date router deactivated", "shards", len(r.shards))
	r.shards = nil
}

func (r *Router) queryableDates() []model.Date {
	dates := make([]model.Date, 0, len(r.shards))
	for _, s := range r.shards {
		dates = append(dates, s.Date())
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func (r *Router) route(cmd shard.Command) {
	if r.shards == nil {
		r.dropInactive(cmd)
		return
	}

	switch c := cmd.(type) {
	case shard.CancelBooking:
		r.broadcast(c, nil)
	case shard.UpdateBooking:
		outOfRange := r.outOfRange(c.Booking.Dates())
		shard.Reply(c, shard.RequestedDatesOutOfRange{Dates: outOfRange})
		r.broadcast(c, outOfRange)
	case shard.Commit, shard.Revert:
		date, _ := shard.DateOf(cmd)
		if rt, ok := r.retiring[date.Key()]; ok {
			r.send(rt.shard, cmd)
			return
		}
		r.routeDated(cmd)
	default:
		r.routeDated(cmd)
	}
}

func (r *Router) routeDated(cmd shard.Command) {
	date, ok := shard.DateOf(cmd)
	if !ok {
		r.log.Error("Command without a date cannot be routed", "command", fmt.Sprintf("%T", cmd))
		return
	}
	if verdict := r.rules.IsDateInWindow(date, r.current); !verdict.OK() {
		shard.Reply(cmd, shard.OutOfRange{Date: date, Reason: verdict.Reason})
		return
	}
	s, ok := r.shards[date.Key()]
	if !ok {
		// Every in-window date got a shard in start; a miss means the map is broken.
		r.log.Error("No shard for in-window date", "date", date.Key(), "current", r.current.Key())
		panic(fmt.Errorf("%w: %s", bookingserrors.ErrUnknownDate, date.Key()))
	}
	r.send(s, cmd)
}

func (r *Router) outOfRange(dates []model.Date) []shard.OutOfRange {
	out := make([]shard.OutOfRange, 0)
	for _, d := range dates {
		if verdict := r.rules.IsDateInWindow(d, r.current); !verdict.OK() {
			out = append(out, shard.OutOfRange{Date: d, Reason: verdict.Reason})
		}
	}
	return out
}

// broadcast sends cmd to the shards of its targets, or to every shard when it names none.
// A target without a shard is answered here, unless reported already covers it.
func (r *Router) broadcast(cmd shard.Command, reported []shard.OutOfRange) {
	targets := shard.Targets(cmd)
	if targets == nil {
		for _, s := range r.shards {
			r.send(s, cmd)
		}
		return
	}

	answered := make(map[string]struct{}, len(targets))
	for _, o := range reported {
		answered[o.Date.Key()] = struct{}{}
	}
	for _, d := range targets {
		if _, ok := answered[d.Key()]; ok {
			continue
		}
		answered[d.Key()] = struct{}{}
		if s, ok := r.shards[d.Key()]; ok {
			r.send(s, cmd)
		} else {
			shard.Reply(cmd, shard.ShardStopped{Date: d})
		}
	}
}

// dropInactive answers a command that arrived while no shard runs.
func (r *Router) dropInactive(cmd shard.Command) {
	r.log.Warn("Command received while inactive", "command", fmt.Sprintf("%T", cmd))
	if date, ok := shard.DateOf(cmd); ok {
		shard.Reply(cmd, shard.ShardStopped{Date: date})
		return
	}
	answered := make(map[string]struct{})
	for _, d := range shard.Targets(cmd) {
		if _, ok := answered[d.Key()]; ok {
			continue
		}
		answered[d.Key()] = struct{}{}
		shard.Reply(cmd, shard.ShardStopped{Date: d})
	}
}

func (r *Router) send(s *shard.Shard, cmd shard.Command) {
	if err := s.Send(cmd); err != nil {
		r.log.Error("Failed to deliver command to shard",
			"date", s.Date().Key(),
			"command", fmt.Sprintf("%T", cmd),
			"error", err,
		)
		shard.Reply(cmd, shard.ShardStopped{Date: s.Date()})
	}
}

// Package session wires one game table to a dispatcher and turns console
// lines into action requests.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wendellvieira/rpg-ai-sub001/internal/command"
	"github.com/wendellvieira/rpg-ai-sub001/internal/data"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dice"
	"github.com/wendellvieira/rpg-ai-sub001/internal/dispatch"
	"github.com/wendellvieira/rpg-ai-sub001/internal/game"
	"github.com/wendellvieira/rpg-ai-sub001/internal/logger"
	"github.com/wendellvieira/rpg-ai-sub001/internal/parser"
	"github.com/wendellvieira/rpg-ai-sub001/internal/persistence"
	"github.com/wendellvieira/rpg-ai-sub001/internal/rules"
)

// Options configures a Session. The zero value is a usable in-memory
// session with crypto dice and default dispatch settings.
type Options struct {
	ID       string
	DataDirs []string
	// Seed makes dice reproducible. Zero uses crypto/rand.
	Seed     int64
	Source   dice.Source
	Dispatch *dispatch.Config
	Store    persistence.Store
	// Journal, when set, receives every dispatch event.
	Journal *persistence.Journal
	Logger  logrus.FieldLogger
}

// Session is one running game: a table, the handlers bound to it and the
// dispatcher in front of them.
type Session struct {
	id         string
	table      *game.Table
	registry   *dispatch.Registry
	dispatcher *dispatch.Dispatcher
	log        logrus.FieldLogger
	stop       func()
}

func New(opts Options) (*Session, error) {
	if opts.ID == "" {
		opts.ID = "main"
	}
	log := opts.Logger
	if log == nil {
		log = logger.Log
	}
	cfg := dispatch.DefaultConfig()
	if opts.Dispatch != nil {
		cfg = *opts.Dispatch
	}

	src := opts.Source
	if src == nil && opts.Seed != 0 {
		src = dice.NewSeededSource(opts.Seed)
	}
	roller := dice.NewRoller(src)

	tableOpts := []game.Option{}
	if opts.Store != nil {
		tableOpts = append(tableOpts, game.WithStore(opts.Store))
	}
	table := game.NewTable(opts.ID, data.NewLoader(opts.DataDirs), roller, tableOpts...)

	formulas, err := rules.NewRegistry(func(notation string) (int, error) {
		r, err := roller.Roll(notation)
		return r.Total, err
	})
	if err != nil {
		return nil, err
	}

	reg := dispatch.NewRegistry()
	if err := command.Register(reg, table, formulas); err != nil {
		return nil, fmt.Errorf("failed to register handlers: %w", err)
	}

	s := &Session{
		id:         opts.ID,
		table:      table,
		registry:   reg,
		dispatcher: dispatch.New(reg, cfg, dispatch.WithLogger(log)),
		log:        log,
		stop:       func() {},
	}
	if opts.Journal != nil {
		s.stop = s.dispatcher.On(dispatch.Wildcard, func(e dispatch.Event) {
			if err := opts.Journal.Append(string(e.Type), e); err != nil {
				log.WithError(err).Warn("failed to journal event")
			}
		})
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }
func (s *Session) Table() *game.Table { return s.table }
func (s *Session) Dispatcher() *dispatch.Dispatcher { return s.dispatcher }
func (s *Session) Catalog() []dispatch.FunctionDef { return s.dispatcher.Catalog() }
func (s *Session) Usage() parser.UsageFunc { return command.Usage(s.registry) }

// Context builds the action context for participantID from the current
// turn and round.
func (s *Session) Context(participantID string) dispatch.ActionContext {
	var actx dispatch.ActionContext
	_ = s.table.Do(func(st *game.State) error {
		actx = dispatch.NewActionContext(s.id, participantID, st.Scheduler.TurnIndex(), st.Scheduler.Round())
		return nil
	})
	return actx
}

// Dispatch sends req with a context built for participantID.
func (s *Session) Dispatch(ctx context.Context, req dispatch.ActionRequest, participantID string) dispatch.ActionResponse {
	return s.dispatcher.Dispatch(ctx, req, s.Context(participantID))
}

// Execute parses a console line such as
// "attack by: fighter to: goblin advantage: true" and dispatches it. Without
// "by:" the current participant acts, or the GM when no encounter runs.
// Parse failures are returned as errors; everything else is in the response.
func (s *Session) Execute(ctx context.Context, input string) (dispatch.ActionResponse, error) {
	line, err := parser.ParseLine(input)
	if err != nil {
		return dispatch.ActionResponse{}, parser.MapError(input, err, s.Usage())
	}

	req := dispatch.ActionRequest{
		ID:        uuid.NewString(),
		Method:    line.Method(),
		Params:    line.Params(),
		Timestamp: time.Now(),
	}
	return s.Dispatch(ctx, req, s.resolveActor(line.ActorName())), nil
}

func (s *Session) resolveActor(name string) string {
	if strings.EqualFold(name, game.ActorGM) {
		return game.ActorGM
	}
	id := game.ActorGM
	_ = s.table.Do(func(st *game.State) error {
		if name == "" {
			if cur, ok := st.Scheduler.Current(); ok {
				id = cur.ID
			}
			return nil
		}
		id = data.Slug(name)
		if c, err := st.Combatant(name); err == nil {
			id = c.ID
		}
		return nil
	})
	return id
}

// Save persists the table to the session store.
func (s *Session) Save(ctx context.Context) error {
	return s.table.Save(ctx)
}

// Restore reloads the table from the session store.
func (s *Session) Restore(ctx context.Context) error {
	return s.table.Restore(ctx)
}

// Close detaches the journal listener. It does not close the journal.
func (s *Session) Close() {
	s.stop()
}

// Describe renders a response for a human: the result's description when
// it has one, its JSON otherwise, or the error.
func Describe(resp dispatch.ActionResponse) string {
	if !resp.Success {
		return fmt.Sprintf("%s: %s", resp.Code, resp.Error)
	}
	b, err := json.Marshal(resp.Result)
	if err != nil {
		return fmt.Sprint(resp.Result)
	}
	var m map[string]any
	if json.Unmarshal(b, &m) == nil {
		if d, ok := m["description"].(string); ok && d != "" {
			return d
		}
	}
	return string(b)
}

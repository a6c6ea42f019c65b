package attract

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/Ning0612/mistergen/internal/domain"
	"github.com/Ning0612/mistergen/internal/logger"
)

// Player launches a random game from a gamelist on every run.
// It implements scheduler.Runner.
type Player struct {
	list     *Gamelist
	launcher Launcher
	log      logger.Logger
	onLaunch func(name string)

	mu   sync.Mutex
	rand *rand.Rand
	last int
}

// PlayerOption configures a Player
type PlayerOption func(*Player)

// WithRand sets the random source
func WithRand(r *rand.Rand) PlayerOption {
	return func(p *Player) {
		p.rand = r
	}
}

// WithOnLaunch is called with the display name of every launched game
func WithOnLaunch(fn func(name string)) PlayerOption {
	return func(p *Player) {
		p.onLaunch = fn
	}
}

// NewPlayer creates a player over a non-empty gamelist
func NewPlayer(list *Gamelist, launcher Launcher, opts ...PlayerOption) (*Player, error) {
	if list == nil || len(list.Games) == 0 {
		return nil, fmt.Errorf("%w: no launchers to play", domain.ErrInvalidConfiguration)
	}
	if launcher == nil {
		return nil, fmt.Errorf("launcher cannot be nil")
	}

	p := &Player{
		list:     list,
		launcher: launcher,
		log:      logger.Get(),
		rand:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		last:     -1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Next picks the next game, never the same one twice in a row when there
// is a choice
func (p *Player) Next() string {
	return p.list.Games[p.pick()]
}

func (p *Player) pick() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.list.Games)
	i := p.rand.IntN(n)
	if n > 1 && i == p.last {
		i = (i + 1 + p.rand.IntN(n-1)) % n
	}
	p.last = i
	return i
}

// Run launches one game
func (p *Player) Run(ctx context.Context) error {
	i := p.pick()
	game := p.list.Games[i]
	name := DisplayName(game)

	p.log.Info("launching game", "game", name, "launcher", game)
	if err := p.launcher.Launch(ctx, p.list.Path(i)); err != nil {
		p.log.Warn("failed to launch game", "game", name, "error", err)
		return err
	}

	if p.onLaunch != nil {
		p.onLaunch(name)
	}
	return nil
}

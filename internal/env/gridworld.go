package env

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
)

const (
	GridLeft = iota
	GridDown
	GridRight
	GridUp
)

// Built-in FrozenLake layouts.
var Maps = map[string][]string{
	"4x4": {
		"SFFF",
		"FHFH",
		"FFFH",
		"HFFG",
	},
	"8x8": {
		"SFFFFFFF",
		"FFFFFFFF",
		"FFFHFFFF",
		"FFFFFHFF",
		"FFFHFFFF",
		"FHHFFFHF",
		"FHFFHFHF",
		"FFFHFFFG",
	},
}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

type GridWorldConfig struct {
	Layout     []string
	Slippery   bool
	StepCost   float64
	HoleReward float64
	// GoalReward defaults to 1 when nil.
	GoalReward *float64
	Seed       int64
}

// GridWorld is a FrozenLake-style grid: S start, F frozen, H hole, G goal. Holes and
// the goal terminate the episode. When slippery, the intended move happens a third of
// the time and each perpendicular move a third of the time.
type GridWorld struct {
	tiles      [][]byte
	start      Cell
	slippery   bool
	stepCost   float64
	holeReward float64
	goalReward float64
	rng        *rand.Rand

	pos    Cell
	active bool
	ended  bool
}

func NewGridWorld(cfg GridWorldConfig) (*GridWorld, error) {
	layout := cfg.Layout
	if len(layout) == 0 {
		layout = Maps["4x4"]
	}
	tiles := make([][]byte, 0, len(layout))
	var start *Cell
	goals := 0
	for r, raw := range layout {
		row := strings.TrimSpace(raw)
		if len(row) == 0 {
			return nil, fmt.Errorf("gridworld row %d is empty", r)
		}
		if len(tiles) > 0 && len(row) != len(tiles[0]) {
			return nil, fmt.Errorf("gridworld row %d has width %d, want %d", r, len(row), len(tiles[0]))
		}
		for c := 0; c < len(row); c++ {
			switch row[c] {
			case 'S':
				if start != nil {
					return nil, fmt.Errorf("gridworld has more than one start")
				}
				start = &Cell{Row: r, Col: c}
			case 'G':
				goals++
			case 'F', 'H':
			default:
				return nil, fmt.Errorf("gridworld tile %q at (%d,%d) is not one of S,F,H,G", row[c], r, c)
			}
		}
		tiles = append(tiles, []byte(row))
	}
	if start == nil {
		return nil, fmt.Errorf("gridworld has no start tile")
	}
	if goals == 0 {
		return nil, fmt.Errorf("gridworld has no goal tile")
	}

	goal := 1.0
	if cfg.GoalReward != nil {
		goal = *cfg.GoalReward
	}
	return &GridWorld{
		tiles:      tiles,
		start:      *start,
		slippery:   cfg.Slippery,
		stepCost:   cfg.StepCost,
		holeReward: cfg.HoleReward,
		goalReward: goal,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

func (g *GridWorld) Name() string {
	return "gridworld"
}

func (g *GridWorld) Reset(ctx context.Context) (Cell, error) {
	if err := ctx.Err(); err != nil {
		return Cell{}, err
	}
	g.pos = g.start
	g.active = true
	g.ended = false
	return g.pos, nil
}

func (g *GridWorld) Step(ctx context.Context, action int) (Step[Cell], error) {
	if err := ctx.Err(); err != nil {
		return Step[Cell]{}, err
	}
	if err := checkAction(action, 4); err != nil {
		return Step[Cell]{}, err
	}
	if !g.active {
		if g.ended {
			return Step[Cell]{}, ErrEpisodeOver
		}
		return Step[Cell]{}, ErrNotReset
	}

	move := action
	if g.slippery {
		// one of: counter-clockwise, intended, clockwise
		move = (action + []int{3, 0, 1}[g.rng.Intn(3)]) % 4
	}
	g.pos = g.moved(g.pos, move)

	switch g.tiles[g.pos.Row][g.pos.Col] {
	case 'G':
		g.finish()
		return Step[Cell]{State: g.pos, Reward: g.goalReward, Terminated: true}, nil
	case 'H':
		g.finish()
		return Step[Cell]{State: g.pos, Reward: g.holeReward, Terminated: true}, nil
	default:
		return Step[Cell]{State: g.pos, Reward: g.stepCost}, nil
	}
}

func (g *GridWorld) SampleAction() int {
	return g.rng.Intn(4)
}

func (g *GridWorld) StateShape() []int {
	return []int{len(g.tiles), len(g.tiles[0])}
}

func (g *GridWorld) ActionCount() int {
	return 4
}

// Tile returns the layout byte at cell, or 0 when cell is off the grid.
func (g *GridWorld) Tile(cell Cell) byte {
	if cell.Row < 0 || cell.Row >= len(g.tiles) || cell.Col < 0 || cell.Col >= len(g.tiles[0]) {
		return 0
	}
	return g.tiles[cell.Row][cell.Col]
}

func (g *GridWorld) finish() {
	g.active = false
	g.ended = true
}

func (g *GridWorld) moved(from Cell, move int) Cell {
	to := from
	switch move {
	case GridLeft:
		to.Col--
	case GridDown:
		to.Row++
	case GridRight:
		to.Col++
	case GridUp:
		to.Row--
	}
	if g.Tile(to) == 0 {
		return from
	}
	return to
}

package engine

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jesper-olsen/mateus-sub000/internal/board"
)

// PlayOut lets the engine play both sides from the current position until
// the game ends or maxPlies moves have been played (0 means no limit). It
// returns the moves played and the final outcome.
func (e *Engine) PlayOut(ctx context.Context, limits Limits, maxPlies int) ([]board.Move, Outcome, error) {
	var played []board.Move
	for {
		if o := e.Outcome(); o != Ongoing {
			log.Info().Str("outcome", o.String()).Int("plies", len(played)).Msg("playout-finished")
			return played, o, nil
		}
		if maxPlies > 0 && len(played) >= maxPlies {
			return played, Ongoing, nil
		}
		if err := ctx.Err(); err != nil {
			return played, Ongoing, err
		}

		r, err := e.Search(ctx, limits)
		if err != nil {
			return played, Ongoing, err
		}
		log.Debug().
			Int("ply", e.game.Ply()).
			Str("move", e.game.SAN(r.Move)).
			Int("score", r.Score).
			Bool("book", r.FromBook).
			Msg("playout-move")
		e.Play(r.Move)
		played = append(played, r.Move)
	}
}

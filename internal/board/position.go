package board

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrIllegalMove = errors.New("illegal move")
	ErrMissingKing = errors.New("each side needs exactly one king")
)

// CastlingRights holds the four castling flags.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle reports whether c still has the right to castle on the given wing.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	switch {
	case c == White && kingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case kingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// cornerRights is the right lost when anything moves from or to a rook's
// home square.
var cornerRights = map[Square]CastlingRights{
	H1: WhiteKingSideCastle,
	A1: WhiteQueenSideCastle,
	H8: BlackKingSideCastle,
	A8: BlackQueenSideCastle,
}

// Position is a static description of a game state, as read from or written
// to FEN. A Game is built from one and can report its current one.
type Position struct {
	Board         [64]Piece
	Side          Color
	Castling      CastlingRights
	EnPassant     Square // NoSquare if none
	HalfMoveClock int
	FullMove      int
}

// EmptyPosition returns a position with no pieces and White to move.
func EmptyPosition() Position {
	var p Position
	for sq := range p.Board {
		p.Board[sq] = NoPiece
	}
	p.EnPassant = NoSquare
	p.FullMove = 1
	return p
}

// Validate checks the invariants a Game relies on: one king per side and no
// pawns on the first or last rank.
func (p *Position) Validate() error {
	var kings [2]int
	for sq, pc := range p.Board {
		switch pc.Type() {
		case King:
			kings[pc.Color()]++
		case Pawn:
			if SquareBB(Square(sq))&(Rank1|Rank8) != 0 {
				return fmt.Errorf("%w: pawn on %s", ErrInvalidFEN, Square(sq))
			}
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return fmt.Errorf("%w: white %d, black %d", ErrMissingKing, kings[White], kings[Black])
	}
	return nil
}

// sanitizeCastling drops rights whose king or rook is not on its home square.
func (p *Position) sanitizeCastling() CastlingRights {
	cr := p.Castling
	if p.Board[E1] != WhiteKing {
		cr &^= WhiteKingSideCastle | WhiteQueenSideCastle
	}
	if p.Board[E8] != BlackKing {
		cr &^= BlackKingSideCastle | BlackQueenSideCastle
	}
	if p.Board[H1] != WhiteRook {
		cr &^= WhiteKingSideCastle
	}
	if p.Board[A1] != WhiteRook {
		cr &^= WhiteQueenSideCastle
	}
	if p.Board[H8] != BlackRook {
		cr &^= BlackKingSideCastle
	}
	if p.Board[A8] != BlackRook {
		cr &^= BlackQueenSideCastle
	}
	return cr
}

package board

import (
	"fmt"
	"strings"
)

// Bitmaps are the occupancy sets kept alongside the board array. They must
// always equal what the array implies.
type Bitmaps struct {
	Pawns     Bitboard
	White     Bitboard
	Black     Bitboard
	WhiteKing Bitboard
	BlackKing Bitboard
}

// Color returns the occupancy of one side.
func (b *Bitmaps) Color(c Color) Bitboard {
	if c == White {
		return b.White
	}
	return b.Black
}

// King returns the king set of one side.
func (b *Bitmaps) King(c Color) Bitboard {
	if c == White {
		return b.WhiteKing
	}
	return b.BlackKing
}

func (b *Bitmaps) Occupied() Bitboard {
	return b.White | b.Black
}

func (b *Bitmaps) toggle(c Color, bb Bitboard) {
	if c == White {
		b.White ^= bb
	} else {
		b.Black ^= bb
	}
}

// undo is one entry of the per-ply log. Bitmaps are snapshotted whole so
// Backdate restores them without recomputation.
type undo struct {
	move     Move
	moved    Piece
	captured Piece
	bitmaps  Bitmaps
}

// Game is the mutable state that search drives: board, occupancy, hash,
// material, castling history and repetition counts. Update and Backdate
// must be strictly nested. A Game has a single owner and is not safe for
// concurrent use.
type Game struct {
	board    [64]Piece
	bitmaps  Bitmaps
	side     Color
	hash     uint64
	material int32 // White-positive

	castling []CastlingRights // one entry per ply, top is current
	reps     map[uint64]int
	repTotal int
	// clockBase is the FEN half-move clock carried in before the first
	// irreversible move resets the repetition map.
	clockBase int

	history  []undo
	played   int  // plies committed by Play, Backdate may not go below
	prevMove Move // synthesized from a FEN en-passant square

	startSide     Color
	startFullMove int
}

// NewGame builds a game from a position after validating it.
func NewGame(pos Position) (*Game, error) {
	if err := pos.Validate(); err != nil {
		return nil, err
	}
	g := &Game{
		board:         pos.Board,
		side:          pos.Side,
		castling:      make([]CastlingRights, 1, 64),
		reps:          make(map[uint64]int),
		clockBase:     pos.HalfMoveClock,
		history:       make([]undo, 0, 256),
		startSide:     pos.Side,
		startFullMove: pos.FullMove,
	}
	g.castling[0] = pos.sanitizeCastling()

	for sq := A1; sq <= H8; sq++ {
		pc := g.board[sq]
		if pc == NoPiece {
			continue
		}
		bb := SquareBB(sq)
		g.bitmaps.toggle(pc.Color(), bb)
		switch pc {
		case WhitePawn, BlackPawn:
			g.bitmaps.Pawns |= bb
		case WhiteKing:
			g.bitmaps.WhiteKing |= bb
		case BlackKing:
			g.bitmaps.BlackKing |= bb
		}
		if pc.Color() == White {
			g.material += PieceSquare(pc, sq)
		} else {
			g.material -= PieceSquare(pc, sq)
		}
	}
	g.hash = g.ComputeHash()
	g.reps[g.hash] = 1
	g.repTotal = 1

	if ep := pos.EnPassant; ep != NoSquare {
		// The opponent's double push is replayed as a synthetic last move
		// so en passant generation only ever looks at the move history.
		from, to := ep+8, ep-8
		if pos.Side == Black {
			from, to = ep-8, ep+8
		}
		if g.board[to] == NewPiece(Pawn, pos.Side.Other()) {
			g.prevMove = Move{From: from, To: to, Flags: FlagDoublePush}
		}
	}
	return g, nil
}

// NewStartGame returns a game at the standard starting position.
func NewStartGame() *Game {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	g, err := NewGame(pos)
	if err != nil {
		panic(err)
	}
	return g
}

// GameFromFEN is ParseFEN followed by NewGame.
func GameFromFEN(fen string) (*Game, error) {
	pos, err := ParseFEN(fen)
	if err != nil {
		return nil, err
	}
	return NewGame(pos)
}

func (g *Game) Side() Color { return g.side }
func (g *Game) Hash() uint64 { return g.hash }
func (g *Game) Material() int32 { return g.material }
func (g *Game) Bitmaps() Bitmaps { return g.bitmaps }
func (g *Game) PieceAt(sq Square) Piece { return g.board[sq] }
func (g *Game) Ply() int { return len(g.history) }
func (g *Game) CastlingRights() CastlingRights {
	return g.castling[len(g.castling)-1]
}

// RepCount is how often the current position has occurred since the last
// irreversible move, the current occurrence included.
func (g *Game) RepCount() int {
	return g.reps[g.hash]
}

// HalfMoveClock is the number of plies since the last capture or pawn move.
func (g *Game) HalfMoveClock() int {
	return g.repTotal - 1 + g.clockBase
}

// LastMove is the most recent move, the synthetic double push implied by a
// FEN en-passant square, or NoMove.
func (g *Game) LastMove() Move {
	return g.RecentMove(0)
}

// RecentMove is the move played back plies before the last one, so
// RecentMove(0) is LastMove and RecentMove(1) the side to move's own
// previous move. It is NoMove beyond the start of the game.
func (g *Game) RecentMove(back int) Move {
	switch n := len(g.history) - back; {
	case n > 0:
		return g.history[n-1].move
	case n == 0:
		return g.prevMove
	}
	return NoMove
}

// KingSquare returns the square of c's king, NoSquare if it is missing.
func (g *Game) KingSquare(c Color) Square {
	return g.bitmaps.King(c).LSB()
}

// IsCapture reports whether m takes a piece in the current position.
func (g *Game) IsCapture(m Move) bool {
	return m.IsEnPassant() || g.board[m.To] != NoPiece
}

// IsIrreversible reports whether m is a capture or a pawn move.
func (g *Game) IsIrreversible(m Move) bool {
	return g.IsCapture(m) || g.board[m.From].Type() == Pawn
}

// castleRook returns the rook's path for a castling king move.
func castleRook(kingTo Square) (from, to Square) {
	switch kingTo {
	case G1:
		return H1, F1
	case C1:
		return A1, D1
	case G8:
		return H8, F8
	default:
		return A8, D8
	}
}

// epVictim is the square of the pawn taken by an en-passant capture.
func epVictim(m Move) Square {
	return NewSquare(m.To.File(), m.From.Rank())
}

// Update makes m, which must have been generated for the current position.
func (g *Game) Update(m Move) {
	us := g.side
	moved := g.board[m.From]
	capSq := m.To
	if m.IsEnPassant() {
		capSq = epVictim(m)
	}
	captured := g.board[capSq]

	g.history = append(g.history, undo{move: m, moved: moved, captured: captured, bitmaps: g.bitmaps})

	b := &g.bitmaps
	b.toggle(us, SquareBB(m.From)|SquareBB(m.To))
	if captured != NoPiece {
		b.toggle(us.Other(), SquareBB(capSq))
		switch captured.Type() {
		case Pawn:
			b.Pawns ^= SquareBB(capSq)
		case King:
			// Only reachable on pseudo-legal probes; keeps bitmaps honest.
			if us == White {
				b.BlackKing = 0
			} else {
				b.WhiteKing = 0
			}
		}
	}

	g.board[capSq] = NoPiece
	g.board[m.From] = NoPiece
	switch moved.Type() {
	case Pawn:
		b.Pawns ^= SquareBB(m.From)
		if m.IsPromotion() {
			g.board[m.To] = NewPiece(m.Promote, us)
		} else {
			b.Pawns ^= SquareBB(m.To)
			g.board[m.To] = moved
		}
	case King:
		if us == White {
			b.WhiteKing = SquareBB(m.To)
		} else {
			b.BlackKing = SquareBB(m.To)
		}
		g.board[m.To] = moved
		if m.IsCastle() {
			rf, rt := castleRook(m.To)
			g.board[rt] = g.board[rf]
			g.board[rf] = NoPiece
			b.toggle(us, SquareBB(rf)|SquareBB(rt))
		}
	default:
		g.board[m.To] = moved
	}

	rights := g.castling[len(g.castling)-1]
	if rights != NoCastling {
		if moved.Type() == King {
			rights &^= castleRight(us, true) | castleRight(us, false)
		}
		rights &^= cornerRights[m.From] | cornerRights[m.To]
	}
	g.castling = append(g.castling, rights)

	g.hash ^= m.Hash ^ sideKey
	if us == White {
		g.material += m.Val
	} else {
		g.material -= m.Val
	}
	g.side = us.Other()
	g.reps[g.hash]++
	g.repTotal++
}

// Backdate unmakes the most recent Update.
func (g *Game) Backdate() {
	n := len(g.history)
	if n <= g.played {
		panic("board: Backdate past a committed move")
	}
	u := g.history[n-1]
	g.history = g.history[:n-1]
	m := u.move

	if c := g.reps[g.hash]; c <= 1 {
		delete(g.reps, g.hash)
	} else {
		g.reps[g.hash] = c - 1
	}
	g.repTotal--

	g.side = g.side.Other()
	us := g.side
	g.hash ^= m.Hash ^ sideKey
	if us == White {
		g.material -= m.Val
	} else {
		g.material += m.Val
	}
	g.castling = g.castling[:len(g.castling)-1]

	g.board[m.From] = u.moved
	if m.IsEnPassant() {
		g.board[m.To] = NoPiece
		g.board[epVictim(m)] = u.captured
	} else {
		g.board[m.To] = u.captured
	}
	if m.IsCastle() {
		rf, rt := castleRook(m.To)
		g.board[rf] = g.board[rt]
		g.board[rt] = NoPiece
	}
	g.bitmaps = u.bitmaps
}

// Play commits m to the game. After a capture or pawn move the repetition
// map restarts from the new position, since no earlier position can recur.
// Committed moves cannot be backdated.
func (g *Game) Play(m Move) {
	irreversible := g.IsIrreversible(m)
	g.Update(m)
	g.played = len(g.history)
	if irreversible {
		clear(g.reps)
		g.reps[g.hash] = 1
		g.repTotal = 1
		g.clockBase = 0
	}
}

// ComputeHash recomputes the position hash from the board.
func (g *Game) ComputeHash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		h ^= ZobristPiece(g.board[sq], sq)
	}
	if g.side == Black {
		h ^= sideKey
	}
	return h
}

// ComputeMaterial recomputes the White-positive material score.
func (g *Game) ComputeMaterial() int32 {
	var v int32
	for sq := A1; sq <= H8; sq++ {
		pc := g.board[sq]
		if pc == NoPiece {
			continue
		}
		if pc.Color() == White {
			v += PieceSquare(pc, sq)
		} else {
			v -= PieceSquare(pc, sq)
		}
	}
	return v
}

// ComputeBitmaps derives the occupancy sets from the board array.
func (g *Game) ComputeBitmaps() Bitmaps {
	var b Bitmaps
	for sq := A1; sq <= H8; sq++ {
		pc := g.board[sq]
		if pc == NoPiece {
			continue
		}
		bb := SquareBB(sq)
		b.toggle(pc.Color(), bb)
		switch pc {
		case WhitePawn, BlackPawn:
			b.Pawns |= bb
		case WhiteKing:
			b.WhiteKing |= bb
		case BlackKing:
			b.BlackKing |= bb
		}
	}
	return b
}

// CheckConsistency compares every incrementally maintained field with its
// recomputed value.
func (g *Game) CheckConsistency() error {
	if h := g.ComputeHash(); h != g.hash {
		return fmt.Errorf("hash %016x, recomputed %016x", g.hash, h)
	}
	if b := g.ComputeBitmaps(); b != g.bitmaps {
		return fmt.Errorf("bitmaps %+v, recomputed %+v", g.bitmaps, b)
	}
	if v := g.ComputeMaterial(); v != g.material {
		return fmt.Errorf("material %d, recomputed %d", g.material, v)
	}
	return nil
}

// Position reports the current state in FEN terms.
func (g *Game) Position() Position {
	pos := Position{
		Board:         g.board,
		Side:          g.side,
		Castling:      g.CastlingRights(),
		EnPassant:     NoSquare,
		HalfMoveClock: g.HalfMoveClock(),
	}
	plies := len(g.history)
	if g.startSide == Black {
		plies++
	}
	pos.FullMove = g.startFullMove + plies/2

	if last := g.LastMove(); last.Flags&FlagDoublePush != 0 {
		pos.EnPassant = (last.From + last.To) / 2
	}
	return pos
}

// FEN is shorthand for Position().FEN().
func (g *Game) FEN() string {
	pos := g.Position()
	return pos.FEN()
}

// String draws the board rank 8 first.
func (g *Game) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(g.board[NewSquare(file, rank)].String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", g.side)
	fmt.Fprintf(&sb, "Castling: %s\n", g.CastlingRights())
	fmt.Fprintf(&sb, "Half-move clock: %d\n", g.HalfMoveClock())
	fmt.Fprintf(&sb, "Hash: %016x\n", g.hash)
	return sb.String()
}

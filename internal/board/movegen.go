package board

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

var promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}

// newMove fills in the value and hash deltas of a move in the current
// position.
func (g *Game) newMove(from, to Square, flags MoveFlags, promote PieceType) Move {
	moved := g.board[from]
	placed := moved
	if flags&FlagPromotion != 0 {
		placed = NewPiece(promote, moved.Color())
	} else {
		promote = NoPieceType
	}

	val := PieceSquare(placed, to) - PieceSquare(moved, from)
	hash := ZobristPiece(moved, from) ^ ZobristPiece(placed, to)

	capSq := to
	if flags&FlagEnPassant != 0 {
		capSq = NewSquare(to.File(), from.Rank())
	}
	if victim := g.board[capSq]; victim != NoPiece {
		val += PieceSquare(victim, capSq)
		hash ^= ZobristPiece(victim, capSq)
	}

	if flags&FlagCastle != 0 {
		rf, rt := castleRook(to)
		rook := g.board[rf]
		val += PieceSquare(rook, rt) - PieceSquare(rook, rf)
		hash ^= ZobristPiece(rook, rf) ^ ZobristPiece(rook, rt)
	}

	return Move{From: from, To: to, Flags: flags, Promote: promote, Val: val, Hash: hash}
}

func (g *Game) addPawnMove(dst []Move, from, to Square, flags MoveFlags, c Color) []Move {
	if to.RelativeRank(c) == 7 {
		for _, pt := range promotionOrder {
			dst = append(dst, g.newMove(from, to, flags|FlagPromotion, pt))
		}
		return dst
	}
	return append(dst, g.newMove(from, to, flags, NoPieceType))
}

func (g *Game) addTargets(dst []Move, from Square, targets Bitboard) []Move {
	for targets != 0 {
		dst = append(dst, g.newMove(from, targets.PopLSB(), 0, NoPieceType))
	}
	return dst
}

// generate appends the pseudo-legal moves of c. With tactical set only
// captures and promotions are produced.
func (g *Game) generate(dst []Move, c Color, tactical bool) []Move {
	own := g.bitmaps.Color(c)
	enemy := g.bitmaps.Color(c.Other())
	occ := own | enemy
	targetMask := ^own
	if tactical {
		targetMask = enemy
	}

	pieces := own
	for pieces != 0 {
		from := pieces.PopLSB()
		switch g.board[from].Type() {
		case Pawn:
			dst = g.pawnMoves(dst, from, c, enemy, occ, tactical)
		case Knight:
			dst = g.addTargets(dst, from, knightMoves[from]&targetMask)
		case Bishop:
			dst = g.addTargets(dst, from, BishopAttacks(from, occ)&targetMask)
		case Rook:
			dst = g.addTargets(dst, from, RookAttacks(from, occ)&targetMask)
		case Queen:
			dst = g.addTargets(dst, from, QueenAttacks(from, occ)&targetMask)
		case King:
			dst = g.addTargets(dst, from, kingMoves[from]&targetMask)
			if !tactical && c == g.side {
				dst = g.castlingMoves(dst, from, c, occ)
			}
		}
	}
	return dst
}

func (g *Game) pawnMoves(dst []Move, from Square, c Color, enemy, occ Bitboard, tactical bool) []Move {
	if push := pawnPushes[c][from] &^ occ; push != 0 {
		to := push.LSB()
		if !tactical || to.RelativeRank(c) == 7 {
			dst = g.addPawnMove(dst, from, to, 0, c)
		}
		if !tactical && from.RelativeRank(c) == 1 {
			if two := pawnPushes[c][to] &^ occ; two != 0 {
				dst = append(dst, g.newMove(from, two.LSB(), FlagDoublePush, NoPieceType))
			}
		}
	}

	caps := pawnCaptures[c][from] & enemy
	for caps != 0 {
		dst = g.addPawnMove(dst, from, caps.PopLSB(), 0, c)
	}

	// En passant is only available right after an adjacent double push.
	if c != g.side {
		return dst
	}
	last := g.LastMove()
	if last.Flags&FlagDoublePush == 0 || last.To.Rank() != from.Rank() {
		return dst
	}
	if d := last.To.File() - from.File(); (d == 1 || d == -1) && g.board[last.To] == NewPiece(Pawn, c.Other()) {
		dst = append(dst, g.newMove(from, (last.From+last.To)/2, FlagEnPassant, NoPieceType))
	}
	return dst
}

type castlePath struct {
	right CastlingRights
	king  Square
	to    Square
	rook  Square
	empty Bitboard
}

var castlePaths = [2][2]castlePath{
	White: {
		{WhiteKingSideCastle, E1, G1, H1, SquareBB(F1) | SquareBB(G1)},
		{WhiteQueenSideCastle, E1, C1, A1, SquareBB(B1) | SquareBB(C1) | SquareBB(D1)},
	},
	Black: {
		{BlackKingSideCastle, E8, G8, H8, SquareBB(F8) | SquareBB(G8)},
		{BlackQueenSideCastle, E8, C8, A8, SquareBB(B8) | SquareBB(C8) | SquareBB(D8)},
	},
}

// castlingMoves checks rights, rook presence and an empty path. Passing
// through check is left to IsLegal.
func (g *Game) castlingMoves(dst []Move, from Square, c Color, occ Bitboard) []Move {
	rights := g.CastlingRights()
	rook := NewPiece(Rook, c)
	for _, p := range castlePaths[c] {
		if rights&p.right == 0 || from != p.king || g.board[p.rook] != rook || occ&p.empty != 0 {
			continue
		}
		dst = append(dst, g.newMove(from, p.to, FlagCastle, NoPieceType))
	}
	return dst
}

func sortByValue(moves []Move) {
	slices.SortStableFunc(moves, func(a, b Move) int {
		return cmp.Compare(b.Val, a.Val)
	})
}

// PseudoLegalMoves appends the side to move's pseudo-legal moves to dst,
// best static value first.
func (g *Game) PseudoLegalMoves(dst []Move) []Move {
	start := len(dst)
	dst = g.generate(dst, g.side, false)
	sortByValue(dst[start:])
	return dst
}

// Captures appends captures, en passant and promotions, best value first.
func (g *Game) Captures(dst []Move) []Move {
	start := len(dst)
	dst = g.generate(dst, g.side, true)
	sortByValue(dst[start:])
	return dst
}

// IsLegal reports whether the pseudo-legal move m leaves the mover's king
// safe. The game is restored before returning.
func (g *Game) IsLegal(m Move) bool {
	us := g.side
	if m.IsCastle() {
		if g.InCheck(us) || g.Attacked((m.From+m.To)/2, us.Other()) {
			return false
		}
	}
	g.Update(m)
	ok := !g.InCheck(us)
	g.Backdate()
	return ok
}

// LegalMoves returns every legal move, best static value first.
func (g *Game) LegalMoves() []Move {
	moves := g.PseudoLegalMoves(make([]Move, 0, 64))
	legal := moves[:0]
	for _, m := range moves {
		if g.IsLegal(m) {
			legal = append(legal, m)
		}
	}
	return legal
}

// HasLegalMove stops at the first legal move found.
func (g *Game) HasLegalMove() bool {
	var buf [256]Move
	for _, m := range g.PseudoLegalMoves(buf[:0]) {
		if g.IsLegal(m) {
			return true
		}
	}
	return false
}

// Attacked reports whether any piece of colour by attacks sq.
func (g *Game) Attacked(sq Square, by Color) bool {
	b := &g.bitmaps
	them := b.Color(by)
	if pawnCaptures[by.Other()][sq]&them&b.Pawns != 0 {
		return true
	}
	if kingMoves[sq]&b.King(by) != 0 {
		return true
	}
	knight := NewPiece(Knight, by)
	for cand := knightMoves[sq] & them &^ b.Pawns; cand != 0; {
		if g.board[cand.PopLSB()] == knight {
			return true
		}
	}
	occ := b.Occupied()
	rook, bishop, queen := NewPiece(Rook, by), NewPiece(Bishop, by), NewPiece(Queen, by)
	for cand := RookAttacks(sq, occ) & them; cand != 0; {
		if pc := g.board[cand.PopLSB()]; pc == rook || pc == queen {
			return true
		}
	}
	for cand := BishopAttacks(sq, occ) & them; cand != 0; {
		if pc := g.board[cand.PopLSB()]; pc == bishop || pc == queen {
			return true
		}
	}
	return false
}

// InCheck reports whether c's king is attacked. A missing king is never in
// check; search checks for that separately.
func (g *Game) InCheck(c Color) bool {
	ksq := g.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return g.Attacked(ksq, c.Other())
}

// CountMoves counts c's pseudo-legal destinations without building moves.
// Promotions count once; castling and en passant are not counted.
func (g *Game) CountMoves(c Color) int {
	own := g.bitmaps.Color(c)
	enemy := g.bitmaps.Color(c.Other())
	occ := own | enemy
	n := 0
	pieces := own
	for pieces != 0 {
		from := pieces.PopLSB()
		switch g.board[from].Type() {
		case Pawn:
			if push := pawnPushes[c][from] &^ occ; push != 0 {
				n++
				if from.RelativeRank(c) == 1 && pawnPushes[c][push.LSB()]&^occ != 0 {
					n++
				}
			}
			n += (pawnCaptures[c][from] & enemy).PopCount()
		case Knight:
			n += (knightMoves[from] &^ own).PopCount()
		case Bishop:
			n += (BishopAttacks(from, occ) &^ own).PopCount()
		case Rook:
			n += (RookAttacks(from, occ) &^ own).PopCount()
		case Queen:
			n += (QueenAttacks(from, occ) &^ own).PopCount()
		case King:
			n += (kingMoves[from] &^ own).PopCount()
		}
	}
	return n
}

// ParseMove resolves long algebraic text against the legal moves. Without a
// promotion letter the first (queen) promotion is chosen.
func (g *Game) ParseMove(text string) (Move, error) {
	text = strings.TrimSpace(text)
	if len(text) < 4 || len(text) > 5 {
		return NoMove, fmt.Errorf("%w: %q", ErrIllegalMove, text)
	}
	from, err := ParseSquare(text[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	promote := NoPieceType
	if len(text) == 5 {
		if promote = promotionFromChar(text[4]); promote == NoPieceType {
			return NoMove, fmt.Errorf("%w: promotion piece %q", ErrIllegalMove, text[4])
		}
	}
	for _, m := range g.LegalMoves() {
		if m.From != from || m.To != to {
			continue
		}
		if promote != NoPieceType && m.Promote != promote {
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, text)
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (g *Game) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}
	var buf [256]Move
	moves := g.PseudoLegalMoves(buf[:0])
	var nodes uint64
	for _, m := range moves {
		if !g.IsLegal(m) {
			continue
		}
		if depth == 1 {
			nodes++
			continue
		}
		g.Update(m)
		nodes += g.Perft(depth - 1)
		g.Backdate()
	}
	return nodes
}

// Divide reports the perft count below every legal root move.
func (g *Game) Divide(depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth < 1 {
		return out
	}
	for _, m := range g.LegalMoves() {
		g.Update(m)
		out[m.String()] = g.Perft(depth - 1)
		g.Backdate()
	}
	return out
}

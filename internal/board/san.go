package board

import (
	"fmt"
	"strings"
)

const sanPieces = "PNBRQK"

// SAN renders m in Standard Algebraic Notation for the current position,
// including the check or mate suffix.
func (g *Game) SAN(m Move) string {
	if m.IsNull() {
		return "-"
	}
	moved := g.board[m.From]
	if moved == NoPiece {
		return m.String()
	}

	var sb strings.Builder
	switch {
	case m.IsCastle() && m.To > m.From:
		sb.WriteString("O-O")
	case m.IsCastle():
		sb.WriteString("O-O-O")
	default:
		pt := moved.Type()
		if pt != Pawn {
			sb.WriteByte(sanPieces[pt])
			sb.WriteString(g.disambiguation(m, pt))
		}
		if g.IsCapture(m) {
			if pt == Pawn {
				sb.WriteByte(byte('a' + m.From.File()))
			}
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte(sanPieces[m.Promote])
		}
	}

	g.Update(m)
	if g.InCheck(g.side) {
		if g.HasLegalMove() {
			sb.WriteByte('+')
		} else {
			sb.WriteByte('#')
		}
	}
	g.Backdate()
	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same type can reach the same destination.
func (g *Game) disambiguation(m Move, pt PieceType) string {
	sameFile, sameRank, ambiguous := false, false, false
	for _, o := range g.LegalMoves() {
		if o.To != m.To || o.From == m.From || g.board[o.From].Type() != pt {
			continue
		}
		ambiguous = true
		sameFile = sameFile || o.From.File() == m.From.File()
		sameRank = sameRank || o.From.Rank() == m.From.Rank()
	}
	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + m.From.File()))
	case !sameRank:
		return string(rune('1' + m.From.Rank()))
	default:
		return m.From.String()
	}
}

// ParseSAN resolves a SAN string against the legal moves.
func (g *Game) ParseSAN(s string) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "+#!?")

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		long := len(s) == 5
		for _, m := range g.LegalMoves() {
			if m.IsCastle() && (m.To < m.From) == long {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}

	promote := NoPieceType
	if i := strings.IndexByte(s, '='); i >= 0 && i+1 < len(s) {
		promote = promotionFromChar(s[i+1])
		s = s[:i]
	}
	capture := strings.Contains(s, "x")
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 {
		if i := strings.IndexByte(sanPieces, s[0]); i > 0 {
			pt = PieceType(i)
			s = s[1:]
		}
	}
	if len(s) < 2 {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}
	to, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
	}
	file, rank := -1, -1
	for _, c := range s[:len(s)-2] {
		switch {
		case c >= 'a' && c <= 'h':
			file = int(c - 'a')
		case c >= '1' && c <= '8':
			rank = int(c - '1')
		}
	}

	for _, m := range g.LegalMoves() {
		switch {
		case m.To != to, g.board[m.From].Type() != pt:
			continue
		case file >= 0 && m.From.File() != file, rank >= 0 && m.From.Rank() != rank:
			continue
		case capture && !g.IsCapture(m):
			continue
		case promote != NoPieceType && m.Promote != promote:
			continue
		}
		return m, nil
	}
	return NoMove, fmt.Errorf("%w: %s", ErrIllegalMove, orig)
}

// ParseAny accepts long algebraic or SAN.
func (g *Game) ParseAny(s string) (Move, error) {
	if m, err := g.ParseMove(s); err == nil {
		return m, nil
	}
	return g.ParseSAN(s)
}

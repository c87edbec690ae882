package board

import "strings"

// MoveFlags marks the special kinds of move.
type MoveFlags uint8

const (
	FlagCastle MoveFlags = 1 << iota
	FlagEnPassant
	FlagDoublePush
	FlagPromotion
)

// Move is a value record produced by the generator for one position.
// Val is the material and piece-square change seen from the mover's side;
// Hash is the XOR delta of the piece keys touched by the move (the side key
// is applied separately by Update and Backdate).
type Move struct {
	From    Square
	To      Square
	Flags   MoveFlags
	Promote PieceType // NoPieceType unless FlagPromotion is set
	Val     int32
	Hash    uint64
}

// NoMove is the zero move. Its From and To coincide, which no real move does.
var NoMove = Move{}

// IsNull reports whether m is NoMove (or any other degenerate move).
func (m Move) IsNull() bool {
	return m.From == m.To
}

// Same matches moves by origin and destination only, which is how text input
// and book moves are resolved against generated candidates.
func (m Move) Same(o Move) bool {
	return m.From == o.From && m.To == o.To
}

func (m Move) IsCastle() bool    { return m.Flags&FlagCastle != 0 }
func (m Move) IsEnPassant() bool { return m.Flags&FlagEnPassant != 0 }
func (m Move) IsPromotion() bool { return m.Flags&FlagPromotion != 0 }

var promoChars = [6]byte{Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q'}

// String returns long algebraic notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	var sb strings.Builder
	sb.WriteString(m.From.String())
	sb.WriteString(m.To.String())
	if m.IsPromotion() && m.Promote < King {
		sb.WriteByte(promoChars[m.Promote])
	}
	return sb.String()
}

// promotionFromChar maps the trailing letter of a move string.
func promotionFromChar(c byte) PieceType {
	switch c {
	case 'q', 'Q':
		return Queen
	case 'r', 'R':
		return Rook
	case 'b', 'B':
		return Bishop
	case 'n', 'N':
		return Knight
	}
	return NoPieceType
}

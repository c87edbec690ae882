package board

// Attack tables. They depend on nothing but board geometry, are filled once
// by init and are read-only afterwards, so any number of games may share
// them.
var (
	knightMoves  [64]Bitboard
	kingMoves    [64]Bitboard
	pawnCaptures [2][64]Bitboard // [Color][Square]
	pawnPushes   [2][64]Bitboard // single step only

	rookRays   [64]Bitboard
	bishopRays [64]Bitboard

	// rayCut[origin][blocker] holds the squares strictly beyond blocker as
	// seen from origin along their shared rank, file or diagonal. Zero when
	// the two squares are not aligned.
	rayCut [64][64]Bitboard
)

type direction struct{ df, dr int }

var (
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
	bishopDirections = [4]direction{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightJumps      = [8]direction{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps        = [8]direction{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

func init() {
	initAttacks()
}

func initAttacks() {
	for sq := A1; sq <= H8; sq++ {
		knightMoves[sq] = steps(sq, knightJumps[:])
		kingMoves[sq] = steps(sq, kingSteps[:])

		pawnCaptures[White][sq] = steps(sq, []direction{{-1, 1}, {1, 1}})
		pawnCaptures[Black][sq] = steps(sq, []direction{{-1, -1}, {1, -1}})
		pawnPushes[White][sq] = steps(sq, []direction{{0, 1}})
		pawnPushes[Black][sq] = steps(sq, []direction{{0, -1}})

		for _, d := range rookDirections {
			rookRays[sq] |= ray(sq, d)
		}
		for _, d := range bishopDirections {
			bishopRays[sq] |= ray(sq, d)
		}
	}
	initRayCut()
}

// steps collects the single-hop targets of sq that stay on the board.
func steps(sq Square, dirs []direction) Bitboard {
	var bb Bitboard
	f, r := sq.File(), sq.Rank()
	for _, d := range dirs {
		if onBoard(f+d.df, r+d.dr) {
			bb |= SquareBB(NewSquare(f+d.df, r+d.dr))
		}
	}
	return bb
}

// ray walks from sq (exclusive) in one direction until the board edge.
// Working in file/rank coordinates keeps rays from wrapping around.
func ray(sq Square, d direction) Bitboard {
	var bb Bitboard
	f, r := sq.File()+d.df, sq.Rank()+d.dr
	for onBoard(f, r) {
		bb |= SquareBB(NewSquare(f, r))
		f += d.df
		r += d.dr
	}
	return bb
}

func initRayCut() {
	all := append(rookDirections[:], bishopDirections[:]...)
	for origin := A1; origin <= H8; origin++ {
		for _, d := range all {
			f, r := origin.File()+d.df, origin.Rank()+d.dr
			for onBoard(f, r) {
				blocker := NewSquare(f, r)
				rayCut[origin][blocker] = ray(blocker, d)
				f += d.df
				r += d.dr
			}
		}
	}
}

// slide truncates a ray mask at the first obstruction in every direction.
// Blocker squares stay in the result so captures remain possible.
func slide(rays Bitboard, sq Square, occ Bitboard) Bitboard {
	blockers := rays & occ
	cut := Empty
	for blockers != 0 {
		cut |= rayCut[sq][blockers.PopLSB()]
	}
	return rays &^ cut
}

func KnightMoves(sq Square) Bitboard { return knightMoves[sq] }

func KingMoves(sq Square) Bitboard { return kingMoves[sq] }

func PawnCaptures(sq Square, c Color) Bitboard { return pawnCaptures[c][sq] }

func PawnPushes(sq Square, c Color) Bitboard { return pawnPushes[c][sq] }

// RookRays is the empty-board rook mask of sq.
func RookRays(sq Square) Bitboard { return rookRays[sq] }

// BishopRays is the empty-board bishop mask of sq.
func BishopRays(sq Square) Bitboard { return bishopRays[sq] }

// RayCut returns the squares beyond blocker as seen from origin.
func RayCut(origin, blocker Square) Bitboard { return rayCut[origin][blocker] }

// RookAttacks is the rook attack set of sq given the occupancy occ.
func RookAttacks(sq Square, occ Bitboard) Bitboard {
	return slide(rookRays[sq], sq, occ)
}

// BishopAttacks is the bishop attack set of sq given the occupancy occ.
func BishopAttacks(sq Square, occ Bitboard) Bitboard {
	return slide(bishopRays[sq], sq, occ)
}

// QueenAttacks is the union of rook and bishop attacks.
func QueenAttacks(sq Square, occ Bitboard) Bitboard {
	return slide(rookRays[sq]|bishopRays[sq], sq, occ)
}

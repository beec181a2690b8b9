package game

import "errors"

// Rejections. None of them changes the state they were returned for.
var (
	ErrIllegalMove      = errors.New("illegal move")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrPromotionPending = errors.New("promotion pending")
	ErrNoPromotion      = errors.New("no promotion pending")
	ErrInvalidPromotion = errors.New("invalid promotion piece")
	ErrGameOver         = errors.New("game over")
	ErrNoPiece          = errors.New("no piece on square")
	ErrEliminated       = errors.New("color already eliminated")
)

// IllegalReason explains why a move was not in the legal set.
type IllegalReason int

const (
	ReasonUnknown IllegalReason = iota
	ReasonBlockedByOwnPiece
	ReasonWouldLeaveKingInCheck
	ReasonInvalidPieceMovement
)

func (r IllegalReason) String() string {
	switch r {
	case ReasonBlockedByOwnPiece:
		return "blocked by own piece"
	case ReasonWouldLeaveKingInCheck:
		return "would leave king in check"
	case ReasonInvalidPieceMovement:
		return "invalid piece movement"
	default:
		return "unknown"
	}
}

package types

import (
	"github.com/google/uuid"
)

type TurnID string
type InvocationID string

func NewTurnID() TurnID {
	return TurnID(uuid.New().String())
}

func NewInvocationID() InvocationID {
	return InvocationID(uuid.New().String())
}

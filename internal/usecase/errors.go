package usecase

import (
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/matchmaker/internal/domain/rsvp"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrConflict              = errors.New("not enough players without a scheduling conflict")
	ErrClubMismatch          = errors.New("players share no accepted club")
	ErrUniqueness            = errors.New("time slot collision could not be resolved")
	ErrTransientStore        = errors.New("transient store error")
	ErrNetwork               = errors.New("network error")
	ErrInvalidTransition     = rsvp.ErrInvalidTransition
)

// ConflictError is returned when preflight leaves fewer than four players.
type ConflictError struct {
	Excluded  []string
	Remaining []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: excluded=[%s] remaining=%d",
		ErrConflict.Error(), strings.Join(e.Excluded, ","), len(e.Remaining))
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ClubMismatchError lists the players who do not accept ClubID.
type ClubMismatchError struct {
	ClubID    string
	PlayerIDs []string
}

func (e *ClubMismatchError) Error() string {
	return fmt.Sprintf("%s: club=%s players=[%s]",
		ErrClubMismatch.Error(), e.ClubID, strings.Join(e.PlayerIDs, ","))
}

func (e *ClubMismatchError) Is(target error) bool {
	return target == ErrClubMismatch
}

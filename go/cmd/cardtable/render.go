package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mcdev12/cardtable/go/internal/cards"
	"github.com/mcdev12/cardtable/go/internal/session"
)

var (
	redSuit   = color.New(color.FgRed, color.Bold)
	blackSuit = color.New(color.Bold)
	jokerCard = color.New(color.FgMagenta, color.Bold)
	idLabel   = color.New(color.Faint)
	turnLabel = color.New(color.FgGreen, color.Bold)
	noteLabel = color.New(color.FgCyan)
)

// cardLabel renders a card as rank and suit glyph, e.g. "10♥".
func cardLabel(c *cards.Card) string {
	switch {
	case c.IsJoker():
		return jokerCard.Sprint("JK")
	case c.Suit.Red():
		return redSuit.Sprint(c.Rank.Short() + c.Suit.Symbol())
	default:
		return blackSuit.Sprint(c.Rank.Short() + c.Suit.Symbol())
	}
}

// renderHand writes one line with every card followed by its id.
func renderHand(w io.Writer, hand []*cards.Card, myTurn bool) {
	labels := make([]string, len(hand))
	for i, c := range hand {
		label := cardLabel(c)
		if id, ok := c.IDValue(); ok {
			label += idLabel.Sprintf("#%d", id)
		}
		labels[i] = label
	}

	prefix := "hand"
	if myTurn {
		prefix = turnLabel.Sprint("your turn")
	}
	fmt.Fprintf(w, "%s: %s\n", prefix, strings.Join(labels, " "))
}

// describePush turns a shared push into a line for the player. Pushes that
// only change game state describe to "".
func describePush(env session.Envelope) (string, error) {
	payload, err := session.ParsePayload(env)
	if err != nil {
		return "", err
	}

	switch p := payload.(type) {
	case session.StartedPayload:
		if p.Playing {
			return noteLabel.Sprint("game started"), nil
		}
		return noteLabel.Sprint("game started, spectating"), nil
	case session.CountdownPayload:
		return noteLabel.Sprintf("starting in %d", p.Value), nil
	case session.DrawPayload:
		return noteLabel.Sprintf("user %d drew", p.Drawer), nil
	case session.FinishedPayload:
		winners := p.AllWinners()
		if len(winners) == 0 {
			return noteLabel.Sprint("game finished"), nil
		}
		ids := make([]string, len(winners))
		for i, w := range winners {
			ids[i] = fmt.Sprint(w)
		}
		return noteLabel.Sprintf("game finished, won by %s", strings.Join(ids, ", ")), nil
	case session.ErrorPayload:
		return redSuit.Sprintf("server error: %s", p.Error), nil
	case session.NotifyJoinPayload:
		return noteLabel.Sprintf("user %d joined", p.Joined), nil
	case session.NotifyBindPayload:
		return noteLabel.Sprintf("user %d asked to bind", p.InitiatorID), nil
	case session.AdmittedPayload:
		if p.Admitted {
			return noteLabel.Sprint("admitted to the game"), nil
		}
		return noteLabel.Sprint("not admitted"), nil
	default:
		return "", nil
	}
}

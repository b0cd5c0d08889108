package internal

import "time"

// AddMember attaches a human to the room. A rejoin by the same username only
// replaces the connection id. The bool reports whether a new member was added.
func (r *Room) AddMember(connID, username, color string, at time.Time) bool {
	for _, m := range r.Members {
		if m.Username == username {
			m.ConnID = connID
			return false
		}
	}
	r.Members = append(r.Members, &Member{
		ConnID:   connID,
		Username: username,
		Color:    color,
		JoinedAt: at,
	})
	return true
}

// RemoveConn detaches the member currently bound to connID. A stale
// connection that was replaced by a rejoin matches nothing.
func (r *Room) RemoveConn(connID string) *Member {
	for i, m := range r.Members {
		if m.ConnID == connID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return m
		}
	}
	return nil
}

func (r *Room) RemoveColor(color string) *Member {
	for i, m := range r.Members {
		if m.Color == color {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return m
		}
	}
	return nil
}

func (r *Room) MemberByColor(color string) *Member {
	for _, m := range r.Members {
		if m.Color == color {
			return m
		}
	}
	return nil
}

// OpponentOf returns the other human if they are still present.
func (r *Room) OpponentOf(color string) *Member {
	for _, m := range r.Members {
		if m.Color != color {
			return m
		}
	}
	return nil
}

// OthersOf lists the colors the given player sees as their counterparts: the
// other human's color and the bot's, in a stable order.
func (r *Room) OthersOf(color string) []string {
	others := make([]string, 0, 2)
	for _, c := range []string{r.Colors.Player1, r.Colors.Player2, r.Colors.Bot} {
		if c != "" && c != color {
			others = append(others, c)
		}
	}
	return others
}

// HoldsColor reports whether connID is the live connection of the player
// with that color.
func (r *Room) HoldsColor(connID, color string) bool {
	for _, m := range r.Members {
		if m.ConnID == connID {
			return m.Color == color
		}
	}
	return false
}

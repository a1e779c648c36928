package join

import (
	"sort"

	"github.com/thomazkrause/dashboard-cx/internal/types"
)

// Index links the normalized tables for one run: messages grouped by owning
// session, plus contact aggregates derived from the message stream. It is
// built once per run and read-only afterwards.
type Index struct {
	MessagesBySession map[string][]types.Message
	Sessions          map[string]types.Session
	Contacts          []types.Contact

	// DanglingMessages counts messages whose session ID matches no loaded
	// session. They stay in the message table but are flagged.
	DanglingMessages int
}

// Build constructs the index from the immutable normalized tables.
func Build(messages []types.Message, sessions []types.Session) *Index {
	idx := &Index{
		MessagesBySession: make(map[string][]types.Message),
		Sessions:          make(map[string]types.Session, len(sessions)),
	}
	for _, s := range sessions {
		idx.Sessions[s.SessionID] = s
	}
	for _, m := range messages {
		idx.MessagesBySession[m.SessionID] = append(idx.MessagesBySession[m.SessionID], m)
		if _, ok := idx.Sessions[m.SessionID]; !ok {
			idx.DanglingMessages++
		}
	}
	idx.Contacts = buildContacts(messages)
	return idx
}

func buildContacts(messages []types.Message) []types.Contact {
	type acc struct {
		contact  types.Contact
		sessions map[string]struct{}
	}
	byID := make(map[string]*acc)
	for _, m := range messages {
		if m.ContactID == "" {
			continue
		}
		a, ok := byID[m.ContactID]
		if !ok {
			a = &acc{
				contact: types.Contact{
					ContactID: m.ContactID,
					FirstSeen: m.CreatedAt,
					LastSeen:  m.CreatedAt,
				},
				sessions: make(map[string]struct{}),
			}
			byID[m.ContactID] = a
		}
		if m.CreatedAt.Before(a.contact.FirstSeen) {
			a.contact.FirstSeen = m.CreatedAt
		}
		if m.CreatedAt.After(a.contact.LastSeen) {
			a.contact.LastSeen = m.CreatedAt
		}
		a.contact.MessageCount++
		if m.SessionID != "" {
			a.sessions[m.SessionID] = struct{}{}
		}
	}

	out := make([]types.Contact, 0, len(byID))
	for _, a := range byID {
		a.contact.SessionCount = len(a.sessions)
		a.contact.Tier = TierFor(a.contact.SessionCount)
		out = append(out, a.contact)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContactID < out[j].ContactID })
	return out
}

// TierFor assigns a loyalty tier by distinct session count. Boundaries are
// inclusive lower bounds: 1 session is single, 2-4 occasional, 5-9 regular,
// 10 or more frequent.
func TierFor(sessions int) types.LoyaltyTier {
	switch {
	case sessions >= 10:
		return types.TierFrequent
	case sessions >= 5:
		return types.TierRegular
	case sessions >= 2:
		return types.TierOccasional
	default:
		return types.TierSingle
	}
}

// TierDistribution counts contacts per loyalty tier.
func TierDistribution(contacts []types.Contact) map[types.LoyaltyTier]int {
	dist := make(map[types.LoyaltyTier]int)
	for _, c := range contacts {
		dist[c.Tier]++
	}
	return dist
}

package repositories

import (
	"strings"

	"github.com/samber/lo"

	"chat-relay/domain"
)

// matchesFilter applies every FindRequest criterion except id/conversation
// selection, which each store resolves through its own indexes first.
func matchesFilter(m domain.Message, r domain.FindRequest) bool {
	if m.DeletedAt != nil {
		return false
	}
	if lo.Contains(r.ExcludeIDs, m.ID) {
		return false
	}
	if r.Text != "" {
		if m.Type != domain.TypeText || m.Data.Text == nil || !strings.Contains(m.Data.Text.Text, r.Text) {
			return false
		}
	}
	if len(r.FromIDs) > 0 && !lo.Contains(r.FromIDs, m.FromID) {
		return false
	}
	if len(r.Types) > 0 && !lo.Contains(r.Types, m.Type) {
		return false
	}
	if len(r.ClientMessageIDs) > 0 && !lo.Contains(r.ClientMessageIDs, m.ClientMessageID) {
		return false
	}
	if r.CreatedFrom != nil && m.CreatedAt.Before(*r.CreatedFrom) {
		return false
	}
	if r.CreatedTo != nil && m.CreatedAt.After(*r.CreatedTo) {
		return false
	}
	return true
}

func peerToPeerKey(peer1, peer2 string) string {
	if peer2 < peer1 {
		peer1, peer2 = peer2, peer1
	}
	return peer1 + "-" + peer2
}

func normalizePage(from, size int) (int, int) {
	if size <= 0 {
		size = defaultPageSize
	}
	if from < 0 {
		from = 0
	}
	return from, size
}

func paginate[T any](items []T, from, size int) []T {
	if from >= len(items) {
		return nil
	}
	end := from + size
	if end > len(items) {
		end = len(items)
	}
	return items[from:end]
}

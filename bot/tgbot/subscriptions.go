package tgbot

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	botmodel "github.com/goserg/arena/bot/model"
)

// subscriptions is the in-memory copy of user_events, keyed by topic.
type subscriptions struct {
	mu     sync.Mutex
	byType map[botmodel.EventType]mapset.Set[int]
}

func newSubs(users []botmodel.User) *subscriptions {
	s := &subscriptions{
		byType: make(map[botmodel.EventType]mapset.Set[int], len(botmodel.Events)),
	}
	for _, u := range users {
		for _, event := range u.Subscriptions {
			s.Add(event, u.ID)
		}
	}
	return s
}

func (s *subscriptions) Add(event botmodel.EventType, chatID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byType[event]
	if !ok {
		set = mapset.NewThreadUnsafeSet[int]()
		s.byType[event] = set
	}
	set.Add(chatID)
}

func (s *subscriptions) Remove(event botmodel.EventType, chatID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.byType[event]; ok {
		set.Remove(chatID)
	}
}

// Chats returns the subscribers of event in ascending id order.
func (s *subscriptions) Chats(event botmodel.EventType) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.byType[event]
	if !ok {
		return nil
	}
	ids := set.ToSlice()
	sort.Ints(ids)
	return ids
}

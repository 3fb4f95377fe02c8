package listing

import (
	"go.uber.org/zap"

	"foodshare/internal/domain"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventClaimed EventKind = "claimed"
	EventDeleted EventKind = "deleted"
)

type Event struct {
	Kind EventKind       `json:"kind"`
	Item domain.FoodItem `json:"item"`
}

// Subscribe 注册变更回调，返回取消函数。回调按写入顺序同步调用，
// 阻塞会拖住后续写入；回调内不可再调用 store 的写操作
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()
	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()

	for _, fn := range fns {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					s.log.Error("listing subscriber panicked", zap.Any("panic", rec), zap.String("kind", string(ev.Kind)))
				}
			}()
			fn(ev)
		}()
	}
}

package listing

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics 通过订阅统计 store 事件
func RegisterMetrics(reg prometheus.Registerer, s *Store) (cancel func(), err error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "foodshare_listing_events_total", Help: "Count of listing store mutations"},
		[]string{"kind", "status"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return s.Subscribe(func(ev Event) {
		events.WithLabelValues(string(ev.Kind), string(ev.Item.Status)).Inc()
	}), nil
}

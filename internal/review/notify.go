// internal/review/notify.go
package review

import "sync"

// NotificationType はトースト表示種別です
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyInfo    NotificationType = "info"
)

// Notification は表示層へ送る固定形のメッセージです
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// Bus はプロセス内の publish/subscribe チャネルです。
// 深い階層のコンポーネントから単一の表示領域へ通知を届けるための
// 疎結合な経路で、購読者は1つを想定しています (複数でも動作します)。
type Bus struct {
	mu   sync.RWMutex
	subs []chan Notification
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe は通知を受け取るチャネルを返します
func (b *Bus) Subscribe() <-chan Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Notification, 16)
	b.subs = append(b.subs, ch)
	return ch
}

// Publish は全購読者へ通知を送ります。購読者のバッファが一杯の場合は
// 破棄します (通知は表示用でありブロックの理由にできないため)。
func (b *Bus) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

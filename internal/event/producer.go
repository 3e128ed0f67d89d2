package event

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "event").Logger()

// Publisher は注文マイルストーンのコミット後発行。
// 発行はファイアアンドフォーゲット（注文処理を巻き戻さない）。
type Publisher interface {
	Publish(eventType string, orderID int64, payload any)
}

// NopPublisher はKAFKA_BROKERS未設定のときの実装。
type NopPublisher struct{}

func (NopPublisher) Publish(eventType string, orderID int64, payload any) {}

type KafkaPublisher struct {
	w       *kafka.Writer
	mu      sync.Mutex // inboxのcloseとPublishの送信を排他する
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewKafkaPublisher(brokers []string, buf int) *KafkaPublisher {
	return &KafkaPublisher{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        Topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

// Start は送信ループ。ctxが死んだら残りをフラッシュして閉じる。
func (p *KafkaPublisher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				//以降のPublishはclosedを見て捨てる。closeと送信が重ならないようロック越し。
				p.mu.Lock()
				p.closed = true
				close(p.inbox)
				p.mu.Unlock()
				for m := range p.inbox {
					_ = p.w.WriteMessages(context.Background(), m)
				}
				_ = p.w.Close()
				close(p.closeCh)
				return
			case m, ok := <-p.inbox:
				if !ok {
					_ = p.w.Close()
					return
				}
				if err := p.w.WriteMessages(context.Background(), m); err != nil {
					logger.Error().Err(err).Msg("kafka write")
				}
			}
		}
	}()
}

func (p *KafkaPublisher) Publish(eventType string, orderID int64, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("marshal payload")
		return
	}
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now(),
		Producer:     "market-api",
		Payload:      body,
	}
	b, err := json.Marshal(env)
	if err != nil {
		logger.Error().Err(err).Str("event_type", eventType).Msg("marshal envelope")
		return
	}

	// 同一注文は同一パーティションに寄せる
	key := []byte(strconv.FormatInt(orderID, 10))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		logger.Warn().Str("event_type", eventType).Int64("order_id", orderID).Msg("publisher closed, dropped")
		return
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: b, Time: time.Now()}:
	default:
		logger.Warn().Str("event_type", eventType).Int64("order_id", orderID).Msg("event inbox full, dropped")
	}
}

func (p *KafkaPublisher) WaitClosed() { <-p.closeCh }

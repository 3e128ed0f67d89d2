package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "sse").Logger()

// ライブ通知のペイロード。配信保証なし。永続化された通知行が正。
type Payload struct {
	Content string `json:"content"`
}

// Hub はユーザーごとのライブ通知チャネルを持つ。
// 1ユーザー1接続。新しい接続が来たら古いのを閉じる。
// Redisがあれば他インスタンス宛てもpub/subで届く。
type Hub struct {
	mu      sync.Mutex
	clients map[int64]chan Payload
	rdb     *redis.Client // nilなら同一プロセス配信のみ
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		clients: make(map[int64]chan Payload),
		rdb:     rdb,
	}
}

// AddClient は購読チャネルを登録して返す。
func (h *Hub) AddClient(userID int64) chan Payload {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[userID]; ok {
		close(old)
	}
	ch := make(chan Payload, 8)
	h.clients[userID] = ch
	return ch
}

// RemoveClient は自分のチャネルのときだけ登録を外す。
// （新接続に置き換えられた後の古い接続が消してしまわないように）
func (h *Hub) RemoveClient(userID int64, ch chan Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.clients[userID]; ok && cur == ch {
		delete(h.clients, userID)
		close(cur)
	}
}

// Push はベストエフォート配信。必ずコミット後に呼ぶこと。
func (h *Hub) Push(userID int64, content string) {
	p := Payload{Content: content}

	if h.rdb != nil {
		b, err := json.Marshal(p)
		if err != nil {
			logger.Error().Err(err).Msg("marshal payload")
			return
		}
		if err := h.rdb.Publish(context.Background(), channelKey(userID), b).Err(); err != nil {
			logger.Error().Err(err).Int64("user_id", userID).Msg("redis publish")
		}
		return
	}

	h.deliverLocal(userID, p)
}

// deliverLocal はノンブロッキング。受信側が詰まっていたら捨てる。
// 送信はロックを持ったままやる。AddClientのclose(old)と同時に走ると
// closedチャネルへの送信でパニックするため。詰まってもdefaultで即抜ける。
func (h *Hub) deliverLocal(userID int64, p Payload) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.clients[userID]
	if !ok {
		return
	}

	select {
	case ch <- p:
	default:
	}
}

// Run はRedis購読ループ。Redisなしなら何もしない。
// どのインスタンスが接続を持っていても届くように全ユーザー分を購読する。
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	sub := h.rdb.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			userID, err := userIDFromChannel(msg.Channel)
			if err != nil {
				logger.Error().Err(err).Str("channel", msg.Channel).Msg("bad channel name")
				continue
			}
			var p Payload
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				logger.Error().Err(err).Msg("bad payload")
				continue
			}
			h.deliverLocal(userID, p)
		}
	}
}

const channelPattern = "notify:user:*"

func channelKey(userID int64) string {
	return fmt.Sprintf("notify:user:%d", userID)
}

func userIDFromChannel(ch string) (int64, error) {
	i := strings.LastIndex(ch, ":")
	if i < 0 {
		return 0, fmt.Errorf("no user id in %q", ch)
	}
	return strconv.ParseInt(ch[i+1:], 10, 64)
}

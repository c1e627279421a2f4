package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"callcrm-backend/internal/config"
)

// GlobalManager is the process-wide session store. Nil when Redis is not
// configured; callers must treat it as optional.
var GlobalManager *Manager

// Manager records active login sessions in Redis.
type Manager struct {
	client *redis.Client
	ttl    time.Duration
}

// Data represents session information stored in Redis
type Data struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
}

// Init connects to Redis when REDIS_HOST is set; otherwise the session
// store stays disabled and logins simply skip session recording.
func Init() {
	host := config.GetEnv("REDIS_HOST", "")
	if host == "" {
		log.Info("redis not configured, session store disabled")
		return
	}

	db, _ := strconv.Atoi(config.GetEnv("REDIS_DB", "0"))
	client := redis.NewClient(&redis.Options{
		Addr:     host + ":" + config.GetEnv("REDIS_PORT", "6379"),
		Password: config.GetEnv("REDIS_PASSWORD", ""),
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("redis unreachable, session store disabled")
		return
	}

	GlobalManager = &Manager{client: client, ttl: 24 * time.Hour}
	log.Info("redis session store connected")
}

// CreateSession stores a new session and returns its id.
func (m *Manager) CreateSession(data Data) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	data.CreatedAt = now
	data.LastAccessed = now

	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	pipe := m.client.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), payload, m.ttl)
	pipe.SAdd(ctx, userSessionsKey(data.UserID), sessionID)
	pipe.Expire(ctx, userSessionsKey(data.UserID), m.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sessionID, nil
}

// GetSession fetches a session by id.
func (m *Manager) GetSession(sessionID string) (*Data, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := m.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		return nil, err
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &data, nil
}

// DeleteUserSessions removes every session belonging to a user.
func (m *Manager) DeleteUserSessions(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	ids, err := m.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		log.WithError(err).Warn("failed to list user sessions")
		return
	}

	for _, id := range ids {
		m.client.Del(ctx, sessionKey(id))
	}
	m.client.Del(ctx, userSessionsKey(userID))
}

func sessionKey(id string) string      { return "session:" + id }
func userSessionsKey(id string) string { return "user_sessions:" + id }

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

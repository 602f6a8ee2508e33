// mongo — реализация storage.Sessions поверх MongoDB.
//
// Одна сессия — один документ {_id: sid, values: {key: value}, expires_at}.
// Просроченные документы удаляет TTL-индекс по expires_at; Get дополнительно
// фильтрует по времени, т.к. TTL-монитор работает с задержкой до минуты.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-users-directory/internal/storage"
	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	sessionsCollection = "sessions"
	defaultDBName      = "directory"
	noExpiry           = 100 * 365 * 24 * time.Hour
)

// Storage — тонкий адаптер над коллекцией сессий.
type Storage struct {
	client   *mongodriver.Client
	sessions *mongodriver.Collection
	ttl      time.Duration
	now      func() time.Time
}

// sessionDoc — документ сессии.
type sessionDoc struct {
	ID        string            `bson:"_id"`
	Values    map[string]string `bson:"values"`
	ExpiresAt time.Time         `bson:"expires_at"`
}

// New подключается к MongoDB, проверяет его и создаёт TTL-индекс.
func New(ctx context.Context, uri string, ttl time.Duration) (*Storage, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	if ttl <= 0 {
		ttl = noExpiry
	}

	s := &Storage{
		client:   cli,
		sessions: cli.Database(databaseFromURI(uri)).Collection(sessionsCollection),
		ttl:      ttl,
		now:      time.Now,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

// ensureIndexes создаёт TTL-индекс по expires_at
// (expireAfterSeconds=0 -> используется время из документа).
func (s *Storage) ensureIndexes(ctx context.Context) error {
	_, err := s.sessions.Indexes().CreateOne(ctx, mongodriver.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetName("ttl_expires_at").SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}

	return nil
}

// Get читает поле и тем же запросом продлевает expires_at живого документа.
func (s *Storage) Get(ctx context.Context, sid, key string) (string, error) {
	const op = "storage.mongo.Get"

	if err := validate(sid, key); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	filter := bson.M{"_id": sid, "expires_at": bson.M{"$gt": now}}
	update := bson.M{"$set": bson.M{"expires_at": now.Add(s.ttl)}}
	opts := options.FindOneAndUpdate().SetProjection(bson.M{"values." + key: 1, "expires_at": 1})

	var doc sessionDoc
	if err := s.sessions.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	value, ok := doc.Values[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return value, nil
}

// Set обновляет одно поле values.<key> и продлевает expires_at.
func (s *Storage) Set(ctx context.Context, sid, key, value string) error {
	const op = "storage.mongo.Set"

	if err := validate(sid, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.write(ctx, op, sid, map[string]string{key: value})
}

// SetMany обновляет все поля одним $set; запись одного документа атомарна.
func (s *Storage) SetMany(ctx context.Context, sid string, values map[string]string) error {
	const op = "storage.mongo.SetMany"

	if err := storage.ValidateValues(sid, values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for key := range values {
		if err := validate(sid, key); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return s.write(ctx, op, sid, values)
}

// write пересоздаёт просроченный, но ещё не удалённый документ с нуля.
func (s *Storage) write(ctx context.Context, op, sid string, values map[string]string) error {
	now := s.now().UTC()

	if _, err := s.sessions.DeleteOne(ctx, bson.M{"_id": sid, "expires_at": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("%s: drop expired: %w", op, err)
	}

	set := bson.M{"expires_at": now.Add(s.ttl)}
	for key, value := range values {
		set["values."+key] = value
	}

	_, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sid}, bson.M{"$set": set}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Storage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

// validate дополнительно запрещает символы, ломающие путь поля в документе.
func validate(sid, key string) error {
	if err := storage.ValidateKey(sid, key); err != nil {
		return err
	}

	if strings.ContainsAny(key, ".$") {
		return storage.ErrInvalidKey
	}

	return nil
}

// databaseFromURI извлекает имя базы данных из URI-пути mongodb.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err == nil {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}

	return defaultDBName
}

var _ storage.Sessions = (*Storage)(nil)

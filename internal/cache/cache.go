// Package cache provee abstracciones de key-value con expiración y soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache; para desarrollo/testing o un solo nodo)
//   - Redis (distribuido, para producción con varias réplicas)
//
// Lo usa el state store del flujo OAuth para guardar state -> code_verifier.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL.
	// Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take obtiene y elimina un valor en una sola operación atómica.
	// Dos llamadas concurrentes con la misma key: solo una recibe el valor.
	Take(ctx context.Context, key string) (string, error)

	// Delete elimina una key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix elimina todas las keys que empiezan con prefix. Retorna cuántas borró.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	// Exists verifica si una key existe (sin consumirla).
	Exists(ctx context.Context, key string) (bool, error)

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error

	// Stats retorna estadísticas del cache.
	Stats(ctx context.Context) (Stats, error)
}

// Stats contiene estadísticas del cache.
type Stats struct {
	Driver string
	Keys   int64
	Hits   int64
	Misses int64
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Driver     string // "memory" | "redis"
	Addr       string // host:port (redis)
	Password   string
	DB         int
	Prefix     string        // Prefijo para todas las keys
	DefaultTTL time.Duration // memory: TTL por defecto de go-cache
}

// ErrNotFound indica que la key no existe o ya expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente de cache según la configuración.
func New(cfg Config) (Client, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg)
	default:
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}

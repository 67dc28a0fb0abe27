package memory

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mkarpenko/echo-ai/pkg/utils"
)

const schema = `
CREATE TABLE IF NOT EXISTS memories (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	hash       TEXT NOT NULL UNIQUE,
	text       TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL
);
`

// Store — векторное хранилище заметок поверх SQLite.
type Store struct {
	db       *sql.DB
	embedder Embedder
}

// NewStore создает хранилище и применяет схему.
func NewStore(db *sql.DB, embedder Embedder) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is nil")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply memory schema: %w", err)
	}
	return &Store{db: db, embedder: embedder}, nil
}

// Save сохраняет заметку, пропуская точные дубликаты.
func (s *Store) Save(ctx context.Context, text string) error {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return fmt.Errorf("memory text is empty")
	}

	hash := contentHash(normalized)

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM memories WHERE hash = ?", hash).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check for duplicate: %w", err)
	}
	if exists > 0 {
		utils.Debug("memory already saved", "hash", hash)
		return nil
	}

	vector, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO memories (hash, text, embedding, created_at) VALUES (?, ?, ?, ?)",
		hash, normalized, encodeVector(vector), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}

	utils.Info("memory saved", "hash", hash, "chars", len(normalized))
	return nil
}

// Search возвращает до k заметок, ближайших к запросу.
func (s *Store) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = 5
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT text, embedding FROM memories")
	if err != nil {
		return nil, fmt.Errorf("failed to read memories: %w", err)
	}
	defer rows.Close()

	type scored struct {
		text  string
		score float64
	}
	var hits []scored

	for rows.Next() {
		var text string
		var blob []byte
		if err := rows.Scan(&text, &blob); err != nil {
			return nil, err
		}
		vector, err := decodeVector(blob)
		if err != nil {
			utils.Warn("skipping corrupted memory embedding", "error", err)
			continue
		}
		hits = append(hits, scored{text: text, score: cosineSimilarity(queryVec, vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > k {
		hits = hits[:k]
	}

	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.text
	}
	return texts, nil
}

// Recall реализует интерфейс памяти оркестратора.
func (s *Store) Recall(ctx context.Context, query string, k int) ([]string, error) {
	return s.Search(ctx, query, k)
}

// Len возвращает число сохранённых заметок.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM memories").Scan(&n)
	return n, err
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// encodeVector упаковывает вектор в little-endian BLOB.
func encodeVector(vector []float32) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(vector)*4))
	for _, v := range vector {
		binary.Write(buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("embedding blob has invalid length %d", len(blob))
	}
	vector := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// cosineSimilarity возвращает косинусную близость двух векторов.
//
// Несовпадающие размерности и нулевые нормы дают 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

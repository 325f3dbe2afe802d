package store

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var ErrContentNotFound = errors.New("content not found")

// ContentStore 按内容寻址保存正文，同一正文只存一份
type ContentStore struct{ db *sql.DB }

func NewContentStore(db *sql.DB) *ContentStore {
	return &ContentStore{db: db}
}

func (s *ContentStore) EnsureSchema(ctx context.Context) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS content_blobs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		sha1 VARBINARY(40) NOT NULL,
		content MEDIUMBLOB NOT NULL,
		UNIQUE KEY uniq_content_sha1 (sha1)
	)`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

func (s *ContentStore) LoadContent(ctx context.Context, id uint64) (string, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM content_blobs WHERE id = ?`,
		id,
	).Scan(&content)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrContentNotFound
		}
		return "", err
	}
	return string(content), nil
}

// SaveContent 返回内容 ID 与 sha1；重复内容直接复用已有行
func (s *ContentStore) SaveContent(ctx context.Context, text string) (uint64, string, error) {
	sum := ContentSha1(text)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO content_blobs (sha1, content) VALUES (?, ?)`,
		sum,
		[]byte(text),
	)
	if err != nil {
		// 1062 = duplicate key
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			var id uint64
			err = s.db.QueryRowContext(ctx,
				`SELECT id FROM content_blobs WHERE sha1 = ?`,
				sum,
			).Scan(&id)
			return id, sum, err
		}
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}
	return uint64(id), sum, nil
}

func ContentSha1(text string) string {
	h := sha1.Sum([]byte(text))
	return hex.EncodeToString(h[:])
}

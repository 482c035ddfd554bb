package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tmc/langchaingo/memory/sqlite3"
)

// ChatLog keeps every question and the rendered answers, one session per LINE user.
type ChatLog struct {
	db *sql.DB
}

func OpenChatLog(path string) (*ChatLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat log: %w", err)
	}

	return &ChatLog{db: db}, nil
}

func (l *ChatLog) Record(ctx context.Context, session, question, answer string) error {
	history := sqlite3.NewSqliteChatMessageHistory(
		sqlite3.WithSession(session),
		sqlite3.WithDB(l.db),
		sqlite3.WithContext(ctx),
	)

	if err := history.AddUserMessage(ctx, question); err != nil {
		return fmt.Errorf("failed to record question: %w", err)
	}
	if err := history.AddAIMessage(ctx, answer); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}

	return nil
}

func (l *ChatLog) Close() error {
	return l.db.Close()
}

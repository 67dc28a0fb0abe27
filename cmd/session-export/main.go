// session-export — выгрузка транскриптов сессий в S3-совместимое хранилище.
//
// Использование:
//
//	session-export -list                # локальные сессии
//	session-export -id <session-id>     # выгрузить одну сессию
//	session-export -all                 # выгрузить все сессии
//	session-export -remote              # что уже в хранилище
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mkarpenko/echo-ai/pkg/app"
	"github.com/mkarpenko/echo-ai/pkg/s3storage"
	"github.com/mkarpenko/echo-ai/pkg/session"
)

// transcript — формат выгружаемого файла.
type transcript struct {
	Meta     session.Meta            `json:"meta"`
	Messages []session.StoredMessage `json:"messages"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configFlag := flag.String("config", "", "path to config.yaml")
	listFlag := flag.Bool("list", false, "list local sessions")
	remoteFlag := flag.Bool("remote", false, "list archived transcripts")
	idFlag := flag.String("id", "", "session id to export")
	allFlag := flag.Bool("all", false, "export all sessions")
	flag.Parse()

	cfg, _, err := app.InitializeConfig(&app.DefaultConfigPathFinder{ConfigFlag: *configFlag})
	if err != nil {
		return err
	}

	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	defer db.Close()

	store, err := session.NewStore(db)
	if err != nil {
		return err
	}

	ctx := context.Background()

	if *listFlag {
		sessions, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, m := range sessions {
			fmt.Printf("%s  %s  %s\n", m.ID, m.Created.Format("2006-01-02 15:04"), m.Name)
		}
		return nil
	}

	if !cfg.Storage.S3.Enabled {
		return fmt.Errorf("s3 storage is disabled in config")
	}
	archive, err := s3storage.New(cfg.Storage.S3)
	if err != nil {
		return fmt.Errorf("failed to create s3 client: %w", err)
	}

	if *remoteFlag {
		objects, err := archive.List(ctx)
		if err != nil {
			return err
		}
		for _, obj := range objects {
			fmt.Printf("%s  %s  %d bytes\n",
				obj.SessionID(), obj.LastModified.Format("2006-01-02 15:04"), obj.Size)
		}
		return nil
	}

	switch {
	case *idFlag != "":
		return export(ctx, store, archive, *idFlag)

	case *allFlag:
		sessions, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, m := range sessions {
			if err := export(ctx, store, archive, m.ID); err != nil {
				return err
			}
		}
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("nothing to do: pass -list, -remote, -id or -all")
	}
}

func export(ctx context.Context, store *session.Store, archive *s3storage.Client, sessionID string) error {
	meta, err := store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	messages, err := store.LoadFull(ctx, sessionID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(transcript{Meta: meta, Messages: messages}, "", "  ")
	if err != nil {
		return err
	}

	key, err := archive.Archive(ctx, sessionID, data)
	if err != nil {
		return err
	}
	fmt.Printf("exported %s -> %s (%d messages)\n", sessionID, key, len(messages))
	return nil
}

package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campaign-os/assistant/config"
)

// Message is one chat turn. Assistant turns carry the ids of the reference
// ads shown next to the reply.
type Message struct {
	Role         string    `json:"role"`
	Content      string    `json:"content"`
	ReferenceIDs []string  `json:"reference_ids,omitempty"`
	At           time.Time `json:"at"`
}

// Session is one persisted conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

// Store persists sessions as JSON files, one per session. The optional
// Upload/Download hooks mirror files to blob storage so sessions survive
// redeploys.
type Store struct {
	Dir      string
	Upload   func(localPath, key string) (string, error)
	Download func(key string) ([]byte, error)
}

func NewStore() *Store {
	return &Store{Dir: config.SessionsDir}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.Dir, id+".json")
}

func (s *Store) key(id string) string {
	return "saved_chats/" + id + ".json"
}

// Create starts a new empty session.
func (s *Store) Create(title string) *Session {
	now := time.Now().UTC()
	if title == "" {
		title = "Chat " + now.Format("Jan 2 15:04")
	}
	return &Session{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append records a turn and persists the session.
func (s *Store) Append(sess *Session, msg Message) error {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = time.Now().UTC()
	return s.Save(sess)
}

// Save writes the session to disk and, when a sync hook is set, mirrors it.
// A failed mirror is logged, not fatal: the local copy is the primary.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", s.Dir, err)
	}
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	path := s.path(sess.ID)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing session %s: %w", sess.ID, err)
	}
	if s.Upload != nil {
		if _, err := s.Upload(path, s.key(sess.ID)); err != nil {
			log.Printf("[chat] syncing session %s: %v", sess.ID, err)
		}
	}
	return nil
}

// Load reads a session from disk, falling back to the mirror when the local
// file is gone.
func (s *Store) Load(id string) (*Session, error) {
	b, err := os.ReadFile(s.path(id))
	if err != nil {
		if !os.IsNotExist(err) || s.Download == nil {
			return nil, fmt.Errorf("loading session %s: %w", id, err)
		}
		b, err = s.Download(s.key(id))
		if err != nil {
			return nil, fmt.Errorf("loading session %s from mirror: %w", id, err)
		}
	}
	var sess Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	return &sess, nil
}

// Info is a session list entry for the sidebar.
type Info struct {
	ID        string
	Title     string
	UpdatedAt time.Time
	Turns     int
}

// List returns saved sessions, newest first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		sess, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			log.Printf("[chat] skipping unreadable session file %s: %v", entry.Name(), err)
			continue
		}
		infos = append(infos, Info{
			ID:        sess.ID,
			Title:     sess.Title,
			UpdatedAt: sess.UpdatedAt,
			Turns:     len(sess.Messages),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// Rename updates a session title.
func (s *Store) Rename(id, title string) error {
	sess, err := s.Load(id)
	if err != nil {
		return err
	}
	sess.Title = title
	sess.UpdatedAt = time.Now().UTC()
	return s.Save(sess)
}

// Delete removes a session file. The mirror copy, if any, is left behind.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// History converts stored turns into provider messages, keeping only the
// most recent window so prompts stay bounded.
func (sess *Session) History(maxTurns int) []Message {
	if len(sess.Messages) <= maxTurns {
		return sess.Messages
	}
	return sess.Messages[len(sess.Messages)-maxTurns:]
}

package chat

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{Dir: t.TempDir()}
}

func TestCreateAssignsUUIDAndTitle(t *testing.T) {
	s := testStore(t)
	sess := s.Create("")
	_, err := uuid.Parse(sess.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Title)

	named := s.Create("launch ideas")
	assert.Equal(t, "launch ideas", named.Title)
	assert.NotEqual(t, sess.ID, named.ID)
}

func TestAppendPersistsAndReloads(t *testing.T) {
	s := testStore(t)
	sess := s.Create("test")

	require.NoError(t, s.Append(sess, Message{Role: "user", Content: "write an ad"}))
	require.NoError(t, s.Append(sess, Message{
		Role: "assistant", Content: "the ad", ReferenceIDs: []string{"1001", "1002"},
	}))

	back, err := s.Load(sess.ID)
	require.NoError(t, err)
	require.Len(t, back.Messages, 2)
	assert.Equal(t, "write an ad", back.Messages[0].Content)
	assert.Equal(t, []string{"1001", "1002"}, back.Messages[1].ReferenceIDs)
	assert.False(t, back.Messages[0].At.IsZero())
}

func TestLoadMissingSession(t *testing.T) {
	s := testStore(t)
	_, err := s.Load("does-not-exist")
	assert.Error(t, err)
}

func TestLoadFallsBackToMirror(t *testing.T) {
	s := testStore(t)
	s.Download = func(key string) ([]byte, error) {
		assert.Equal(t, "saved_chats/remote-id.json", key)
		return []byte(`{"id":"remote-id","title":"from mirror","messages":[]}`), nil
	}

	sess, err := s.Load("remote-id")
	require.NoError(t, err)
	assert.Equal(t, "from mirror", sess.Title)
}

func TestSaveMirrorsWhenHookSet(t *testing.T) {
	s := testStore(t)
	var uploadedKey string
	s.Upload = func(localPath, key string) (string, error) {
		uploadedKey = key
		_, err := os.Stat(localPath)
		assert.NoError(t, err, "local file exists before mirroring")
		return "https://b2/" + key, nil
	}

	sess := s.Create("sync me")
	require.NoError(t, s.Save(sess))
	assert.Equal(t, "saved_chats/"+sess.ID+".json", uploadedKey)
}

func TestSaveSurvivesMirrorFailure(t *testing.T) {
	s := testStore(t)
	s.Upload = func(localPath, key string) (string, error) {
		return "", fmt.Errorf("b2 down")
	}
	sess := s.Create("still saved")
	require.NoError(t, s.Save(sess))

	_, err := s.Load(sess.ID)
	assert.NoError(t, err)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)

	old := s.Create("old")
	old.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	require.NoError(t, s.Save(old))

	recent := s.Create("recent")
	require.NoError(t, s.Append(recent, Message{Role: "user", Content: "hi"}))

	infos, err := s.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "recent", infos[0].Title)
	assert.Equal(t, 1, infos[0].Turns)
	assert.Equal(t, "old", infos[1].Title)
}

func TestListEmptyDir(t *testing.T) {
	s := &Store{Dir: "/nonexistent/sessions"}
	infos, err := s.List()
	require.NoError(t, err)
	assert.Nil(t, infos)
}

func TestRenameAndDelete(t *testing.T) {
	s := testStore(t)
	sess := s.Create("before")
	require.NoError(t, s.Save(sess))

	require.NoError(t, s.Rename(sess.ID, "after"))
	back, err := s.Load(sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", back.Title)

	require.NoError(t, s.Delete(sess.ID))
	_, err = s.Load(sess.ID)
	assert.Error(t, err)
	assert.NoError(t, s.Delete(sess.ID), "deleting twice is fine")
}

func TestHistoryWindow(t *testing.T) {
	sess := &Session{}
	for i := 0; i < 10; i++ {
		sess.Messages = append(sess.Messages, Message{Content: fmt.Sprintf("m%d", i)})
	}
	got := sess.History(4)
	require.Len(t, got, 4)
	assert.Equal(t, "m6", got[0].Content)

	short := &Session{Messages: sess.Messages[:2]}
	assert.Len(t, short.History(4), 2)
}
